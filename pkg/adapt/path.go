package adapt

import (
	"github.com/cpswtree/catree/pkg/tree"
)

// Path is a tree path with channel-access binding behavior. Paths are cheap
// stateless wrappers; every lookup returns a new one.
type Path struct {
	adapter *Adapter
	path    tree.Path
}

// Tree returns the wrapped tree path.
func (p *Path) Tree() tree.Path {
	return p.path
}

// String returns the path string.
func (p *Path) String() string {
	return p.path.String()
}

// Name returns the last path element.
func (p *Path) Name() string {
	return p.path.Name()
}

// Kind returns the node kind.
func (p *Path) Kind() tree.Kind {
	return p.path.Kind()
}

// FindByName resolves name relative to p and wraps the result.
func (p *Path) FindByName(name string) (*Path, error) {
	found, err := p.path.FindByName(name)
	if err != nil {
		return nil, err
	}
	return p.adapter.Wrap(found), nil
}

// Parent returns the enclosing path; ok is false at the root.
func (p *Path) Parent() (*Path, bool) {
	parent, ok := p.path.Parent()
	if !ok {
		return nil, false
	}
	return p.adapter.Wrap(parent), true
}

// Children wraps the direct children of p.
func (p *Path) Children() []*Child {
	children := p.path.Children()
	out := make([]*Child, len(children))
	for i, c := range children {
		out[i] = &Child{adapter: p.adapter, child: c}
	}
	return out
}

// GuessRepr returns the tree's representation guess, ReprInt when the tree
// has no opinion.
func (p *Path) GuessRepr() tree.Repr {
	if repr, ok := p.path.GuessRepr(); ok {
		return repr
	}
	return tree.ReprInt
}

// GetFull returns hash prefix + path + suffix, the externally visible name
// of p in the role given by suffix.
func (p *Path) GetFull(suffix string) string {
	return p.adapter.namer.Full(p.path, suffix)
}

// Hash returns the channel name of p in the role given by suffix.
func (p *Path) Hash(suffix string) string {
	return p.adapter.namer.Hash(p.path, suffix)
}

// CreateVar binds the variable at p.
func (p *Path) CreateVar() (*Var, error) {
	desc, err := p.path.CreateVar()
	if err != nil {
		return nil, err
	}
	return newVar(p, desc), nil
}

// CreateCmd binds the command at p.
func (p *Path) CreateCmd() (*Cmd, error) {
	desc, err := p.path.CreateCmd()
	if err != nil {
		return nil, err
	}
	return newCmd(p, desc), nil
}

// CreateStream always fails: streams cannot be carried over channel access.
func (p *Path) CreateStream() (*Stream, error) {
	return nil, &UnsupportedError{Op: opCreateStream, Path: p.String()}
}

// LoadConfigFromYAMLFile always fails: per-node configuration is not
// available over channel access.
func (p *Path) LoadConfigFromYAMLFile(file string) error {
	return &UnsupportedError{Op: opLoadConfigFromYAMLFile, Path: p.String()}
}

// Child is one entry of a child enumeration.
type Child struct {
	adapter *Adapter
	child   tree.Child
}

// Name returns the child's name.
func (c *Child) Name() string {
	return c.child.Name()
}

// IsHub reports whether the child has children of its own.
func (c *Child) IsHub() bool {
	return c.child.IsHub()
}

// FindByName resolves name relative to the child and wraps the result.
func (c *Child) FindByName(name string) (*Path, error) {
	found, err := c.child.FindByName(name)
	if err != nil {
		return nil, err
	}
	return c.adapter.Wrap(found), nil
}
