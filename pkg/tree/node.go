package tree

import (
	"errors"
	"fmt"
	"strings"
)

// Tree errors.
var (
	ErrNotFound                = errors.New("path not found")
	ErrInterfaceNotImplemented = errors.New("interface not implemented")
	ErrDuplicateChild          = errors.New("duplicate child name")
	ErrInvalidSpec             = errors.New("invalid node specification")
)

// Path identifies a node in the hierarchy.
type Path interface {
	fmt.Stringer

	// Name returns the last path element ("" for the root).
	Name() string

	// Kind returns the role of the addressed node.
	Kind() Kind

	// Parent returns the enclosing path; ok is false at the root.
	Parent() (parent Path, ok bool)

	// Children enumerates the direct children in declaration order.
	Children() []Child

	// FindByName resolves a relative path.
	FindByName(name string) (Path, error)

	// GuessRepr infers a display representation; ok is false when the
	// node has no opinion.
	GuessRepr() (repr Repr, ok bool)

	// CreateVar returns the variable descriptor of a KindVar node.
	CreateVar() (*VarDesc, error)

	// CreateCmd returns the command descriptor of a KindCmd node.
	CreateCmd() (*CmdDesc, error)

	// CreateStream returns the stream descriptor of a KindStream node.
	CreateStream() (*StreamDesc, error)
}

// Child is an entry of a child enumeration.
type Child interface {
	// Name returns the child's name.
	Name() string

	// IsHub reports whether the child has children of its own.
	IsHub() bool

	// FindByName resolves a path relative to the child.
	FindByName(name string) (Path, error)
}

// Node is an element of an in-memory tree. A tree must not be modified
// after it has been handed to readers; reading is safe from any goroutine.
type Node struct {
	name        string
	kind        Kind
	description string
	parent      *Node
	children    []*Node
	byName      map[string]*Node

	// variable leaves
	spec VarSpec

	// command leaves
	sequence []SeqStep
}

// Compile-time interface satisfaction checks.
var (
	_ Path  = (*Node)(nil)
	_ Child = (*Node)(nil)
)

// NewRoot creates an empty root hub.
func NewRoot() *Node {
	return NewDev("")
}

// NewDev creates a hub node.
func NewDev(name string) *Node {
	return &Node{name: name, kind: KindDev, byName: make(map[string]*Node)}
}

// NewVar creates a variable leaf. The spec is validated when the node is added.
func NewVar(name string, spec VarSpec) *Node {
	return &Node{name: name, kind: KindVar, spec: spec}
}

// NewCmd creates a command leaf that performs the given writes when run.
func NewCmd(name string, steps ...SeqStep) *Node {
	return &Node{name: name, kind: KindCmd, sequence: steps}
}

// NewStream creates a stream leaf.
func NewStream(name string) *Node {
	return &Node{name: name, kind: KindStream}
}

// SetDescription sets a free-form description and returns n.
func (n *Node) SetDescription(desc string) *Node {
	n.description = desc
	return n
}

// Description returns the node description.
func (n *Node) Description() string {
	return n.description
}

// Add attaches children to a hub node.
func (n *Node) Add(children ...*Node) error {
	if n.kind != KindDev {
		return fmt.Errorf("%w: %s is a %s, not a hub", ErrInvalidSpec, n, n.kind)
	}
	for _, c := range children {
		if err := validName(c.name); err != nil {
			return err
		}
		if _, dup := n.byName[c.name]; dup {
			return fmt.Errorf("%w: %q under %s", ErrDuplicateChild, c.name, n)
		}
		if c.kind == KindVar {
			spec, err := c.spec.normalize()
			if err != nil {
				return fmt.Errorf("%s/%s: %w", strings.TrimSuffix(n.String(), "/"), c.name, err)
			}
			c.spec = spec
		}
		c.parent = n
		n.children = append(n.children, c)
		n.byName[c.name] = c
	}
	return nil
}

func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, "/ \t\n") {
		return fmt.Errorf("%w: bad node name %q", ErrInvalidSpec, name)
	}
	return nil
}

// Name returns the node name.
func (n *Node) Name() string {
	return n.name
}

// Kind returns the node kind.
func (n *Node) Kind() Kind {
	return n.kind
}

// IsHub reports whether n is a hub.
func (n *Node) IsHub() bool {
	return n.kind == KindDev
}

// String returns the absolute path of the node.
func (n *Node) String() string {
	if n.parent == nil {
		return "/"
	}
	var parts []string
	for p := n; p.parent != nil; p = p.parent {
		parts = append(parts, p.name)
	}
	var sb strings.Builder
	for i := len(parts) - 1; i >= 0; i-- {
		sb.WriteString("/")
		sb.WriteString(parts[i])
	}
	return sb.String()
}

// Parent returns the enclosing node.
func (n *Node) Parent() (Path, bool) {
	if n.parent == nil {
		return nil, false
	}
	return n.parent, true
}

// Root returns the root of the tree containing n.
func (n *Node) Root() *Node {
	r := n
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// Children returns the direct children in declaration order.
func (n *Node) Children() []Child {
	out := make([]Child, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

// FindByName resolves a path relative to n.
func (n *Node) FindByName(name string) (Path, error) {
	node, err := n.Lookup(name)
	if err != nil {
		return nil, err
	}
	return node, nil
}

// Lookup is FindByName returning the concrete node.
func (n *Node) Lookup(name string) (*Node, error) {
	cur := n
	if strings.HasPrefix(name, "/") {
		cur = n.Root()
	}
	for _, elem := range strings.Split(name, "/") {
		switch elem {
		case "", ".":
			continue
		case "..":
			if cur.parent == nil {
				return nil, fmt.Errorf("%w: %q escapes the root", ErrNotFound, name)
			}
			cur = cur.parent
		default:
			next, ok := cur.byName[elem]
			if !ok {
				return nil, fmt.Errorf("%w: %q under %s", ErrNotFound, elem, cur)
			}
			cur = next
		}
	}
	return cur, nil
}

// Walk calls fn for n and every descendant, depth first, in declaration
// order. A non-nil error from fn stops the walk.
func (n *Node) Walk(fn func(*Node) error) error {
	if err := fn(n); err != nil {
		return err
	}
	for _, c := range n.children {
		if err := c.Walk(fn); err != nil {
			return err
		}
	}
	return nil
}

// GuessRepr infers a representation for variables.
func (n *Node) GuessRepr() (Repr, bool) {
	if n.kind != KindVar {
		return ReprNone, false
	}
	switch {
	case n.spec.Repr != ReprNone:
		return n.spec.Repr, true
	case n.spec.Encoding == EncodingASCII:
		return ReprString, true
	case len(n.spec.Enums) > 0:
		return ReprEnum, true
	case n.spec.Encoding == EncodingIEEE754:
		return ReprFloat, true
	}
	return ReprNone, false
}

// CreateVar returns the variable descriptor.
func (n *Node) CreateVar() (*VarDesc, error) {
	if n.kind != KindVar {
		return nil, n.notImplemented("ScalVal")
	}
	repr, ok := n.GuessRepr()
	if !ok {
		repr = ReprInt
	}
	return &VarDesc{
		Val:      &ScalVal{path: n, spec: n.spec},
		ReadOnly: n.spec.Mode == ModeRO,
		Repr:     repr,
	}, nil
}

// CreateCmd returns the command descriptor.
func (n *Node) CreateCmd() (*CmdDesc, error) {
	if n.kind != KindCmd {
		return nil, n.notImplemented("Command")
	}
	return &CmdDesc{path: n, sequence: n.sequence}, nil
}

// CreateStream returns the stream descriptor.
func (n *Node) CreateStream() (*StreamDesc, error) {
	if n.kind != KindStream {
		return nil, n.notImplemented("Stream")
	}
	return &StreamDesc{path: n}, nil
}

// VarSpec returns the normalized variable specification of a var node.
func (n *Node) VarSpec() VarSpec {
	return n.spec
}

func (n *Node) notImplemented(iface string) error {
	return fmt.Errorf("%w: %s is a %s, not a %s", ErrInterfaceNotImplemented, n, n.kind, iface)
}
