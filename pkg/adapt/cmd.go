package adapt

import (
	"github.com/cpswtree/catree/pkg/chname"
	"github.com/cpswtree/catree/pkg/tree"
)

// RunValue is written to a command's trigger channel to execute it.
const RunValue = "Run"

// Cmd is an executable leaf bound to a trigger channel.
type Cmd struct {
	binding
	desc *tree.CmdDesc
}

func newCmd(p *Path, desc *tree.CmdDesc) *Cmd {
	return &Cmd{binding: newBinding(p, chname.SuffixExec, false), desc: desc}
}

// Desc returns the tree's command descriptor.
func (c *Cmd) Desc() *tree.CmdDesc {
	return c.desc
}

// Execute triggers the command. The put outcome is the client's; this layer
// does not check it beyond passing the error through.
func (c *Cmd) Execute() error {
	return c.pv.Put(RunValue)
}
