package tree

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultRootKey is the top-level key LoadYAMLFile reads when root is empty.
const DefaultRootKey = "root"

// maxIncludeDepth bounds nested includes so that cycles fail instead of
// recursing forever.
const maxIncludeDepth = 16

// FixFunc may edit the YAML document after includes have been expanded and
// before the tree is built.
type FixFunc func(doc *yaml.Node) error

// LoadError describes a failure to load a hierarchy description.
type LoadError struct {
	File    string
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.File != "" {
		msg = e.File + ": " + msg
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// nodeSpec is the YAML shape of one node.
//
//	root:
//	  description: Example board
//	  children:
//	    - name: mmio
//	      children:
//	        - name: Scratch
//	          class: var        # dev | var | cmd | stream
//	          sizeBits: 32
//	          isSigned: false
//	          mode: RW          # RW | RO | WO
//	          encoding: ascii   # "" | ascii | ieee754
//	          enums: [Off, On]
//	          nelms: 1
//	          repr: hex         # int | hex | float | string | enum
//	          init: 0
//	        - name: Clear
//	          class: cmd
//	          sequence:
//	            - {path: Scratch, value: 0}
//	        - include: axi.yaml # replaced by the mapping in axi.yaml
//
// A node without class is a cmd if it has a sequence, a dev if it has
// children, and a var otherwise.
type nodeSpec struct {
	Name        string     `yaml:"name"`
	Class       string     `yaml:"class"`
	Description string     `yaml:"description"`
	Children    []nodeSpec `yaml:"children"`
	SizeBits    int        `yaml:"sizeBits"`
	Signed      bool       `yaml:"isSigned"`
	Encoding    string     `yaml:"encoding"`
	Enums       []string   `yaml:"enums"`
	NElms       int        `yaml:"nelms"`
	Mode        string     `yaml:"mode"`
	Repr        string     `yaml:"repr"`
	Init        any        `yaml:"init"`
	Sequence    []SeqStep  `yaml:"sequence"`
}

// LoadYAMLFile loads a tree from file. root selects the top-level key
// (DefaultRootKey when empty). Includes are looked up in incDir, or next to
// file when incDir is empty. fix, if not nil, may edit the document before
// the tree is built.
func LoadYAMLFile(file, root, incDir string, fix FixFunc) (*Node, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, &LoadError{File: file, Message: "failed to read file", Cause: err}
	}
	if incDir == "" {
		incDir = filepath.Dir(file)
	}
	n, err := LoadYAML(data, root, incDir, fix)
	if err != nil {
		if le, ok := err.(*LoadError); ok && le.File == "" {
			le.File = file
		}
		return nil, err
	}
	return n, nil
}

// LoadYAML builds a tree from YAML bytes. See LoadYAMLFile.
func LoadYAML(data []byte, root, incDir string, fix FixFunc) (*Node, error) {
	if root == "" {
		root = DefaultRootKey
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &LoadError{Message: "failed to parse YAML", Cause: err}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, &LoadError{Message: "empty document"}
	}

	if err := expandIncludes(doc.Content[0], incDir, 0); err != nil {
		return nil, err
	}
	if fix != nil {
		if err := fix(&doc); err != nil {
			return nil, &LoadError{Message: "fixup failed", Cause: err}
		}
	}

	top := mappingValue(doc.Content[0], root)
	if top == nil {
		return nil, &LoadError{Message: fmt.Sprintf("root key %q not found", root)}
	}

	var spec nodeSpec
	if err := top.Decode(&spec); err != nil {
		return nil, &LoadError{Message: "failed to decode hierarchy", Cause: err}
	}

	n := NewRoot()
	n.description = spec.Description
	if err := buildChildren(n, spec.Children); err != nil {
		return nil, &LoadError{Message: "invalid hierarchy", Cause: err}
	}
	return n, nil
}

func buildChildren(parent *Node, specs []nodeSpec) error {
	for _, s := range specs {
		child, err := buildNode(s)
		if err != nil {
			return err
		}
		if err := parent.Add(child); err != nil {
			return err
		}
		if child.kind == KindDev {
			if err := buildChildren(child, s.Children); err != nil {
				return err
			}
		}
	}
	return nil
}

func buildNode(s nodeSpec) (*Node, error) {
	kind := KindVar
	switch {
	case s.Class != "":
		k, err := ParseKind(s.Class)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Name, err)
		}
		kind = k
	case len(s.Sequence) > 0:
		kind = KindCmd
	case len(s.Children) > 0:
		kind = KindDev
	}

	if kind != KindDev && len(s.Children) > 0 {
		return nil, fmt.Errorf("%w: %s %q cannot have children", ErrInvalidSpec, kind, s.Name)
	}

	var n *Node
	switch kind {
	case KindDev:
		n = NewDev(s.Name)
	case KindCmd:
		n = NewCmd(s.Name, s.Sequence...)
	case KindStream:
		n = NewStream(s.Name)
	default:
		mode, err := ParseMode(s.Mode)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Name, err)
		}
		repr, err := ParseRepr(s.Repr)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Name, err)
		}
		n = NewVar(s.Name, VarSpec{
			SizeBits: s.SizeBits,
			Signed:   s.Signed,
			Encoding: Encoding(s.Encoding),
			Enums:    s.Enums,
			NElms:    s.NElms,
			Mode:     mode,
			Repr:     repr,
			Init:     s.Init,
		})
	}
	n.description = s.Description
	return n, nil
}

// expandIncludes replaces every mapping that has an "include" key with the
// mapping found in the included file. Keys of the including mapping other
// than "include" override the included ones.
func expandIncludes(n *yaml.Node, incDir string, depth int) error {
	switch n.Kind {
	case yaml.SequenceNode:
		for _, c := range n.Content {
			if err := expandIncludes(c, incDir, depth); err != nil {
				return err
			}
		}
		return nil
	case yaml.MappingNode:
	default:
		return nil
	}

	if inc := mappingValue(n, "include"); inc != nil {
		if depth >= maxIncludeDepth {
			return &LoadError{File: inc.Value, Message: "include nesting too deep"}
		}
		file := inc.Value
		if !filepath.IsAbs(file) {
			file = filepath.Join(incDir, file)
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return &LoadError{File: file, Message: "failed to read include", Cause: err}
		}
		var doc yaml.Node
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return &LoadError{File: file, Message: "failed to parse include", Cause: err}
		}
		if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
			return &LoadError{File: file, Message: "include must contain a mapping"}
		}
		included := doc.Content[0]
		if err := expandIncludes(included, incDir, depth+1); err != nil {
			return err
		}

		merged := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		overrides := make(map[string]bool)
		for i := 0; i+1 < len(n.Content); i += 2 {
			if n.Content[i].Value != "include" {
				overrides[n.Content[i].Value] = true
			}
		}
		for i := 0; i+1 < len(included.Content); i += 2 {
			if !overrides[included.Content[i].Value] {
				merged.Content = append(merged.Content, included.Content[i], included.Content[i+1])
			}
		}
		for i := 0; i+1 < len(n.Content); i += 2 {
			if n.Content[i].Value != "include" {
				merged.Content = append(merged.Content, n.Content[i], n.Content[i+1])
			}
		}
		*n = *merged
	}

	for i := 1; i < len(n.Content); i += 2 {
		if err := expandIncludes(n.Content[i], incDir, depth); err != nil {
			return err
		}
	}
	return nil
}

// mappingValue returns the value stored under key in a mapping node.
func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}
