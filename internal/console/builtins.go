package console

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/cpswtree/catree/pkg/adapt"
	"github.com/cpswtree/catree/pkg/ca"
	"github.com/cpswtree/catree/pkg/chname"
	"github.com/cpswtree/catree/pkg/tree"
)

type watch struct {
	active atomic.Bool
}

func (c *Console) registerBuiltins() {
	c.Register(Command{Name: "help", Aliases: []string{"?"}, Help: "Show this help",
		Run: func([]string) error { c.printHelp(); return nil }})
	c.Register(Command{Name: "ls", Usage: "[path]", Help: "List children", Run: c.cmdList})
	c.Register(Command{Name: "cd", Usage: "[path]", Help: "Change directory (root when empty)", Run: c.cmdCd})
	c.Register(Command{Name: "pwd", Help: "Print the current directory",
		Run: func([]string) error { c.Printf("%s\n", c.cwd); return nil }})
	c.Register(Command{Name: "info", Usage: "<path>", Help: "Describe a node and its channels", Run: c.cmdInfo})
	c.Register(Command{Name: "get", Aliases: []string{"r"}, Usage: "<path>...", Help: "Read variables", Run: c.cmdGet})
	c.Register(Command{Name: "put", Aliases: []string{"w"}, Usage: "<path> <value>...", Help: "Write a variable", Run: c.cmdPut})
	c.Register(Command{Name: "putrange", Usage: "<path> <from> <to> <value>...", Help: "Write array elements from..to", Run: c.cmdPutRange})
	c.Register(Command{Name: "exec", Aliases: []string{"x"}, Usage: "<path>", Help: "Execute a command", Run: c.cmdExec})
	c.Register(Command{Name: "watch", Usage: "<path>", Help: "Print every update of a variable", Run: c.cmdWatch})
	c.Register(Command{Name: "unwatch", Usage: "[path]", Help: "Stop watching (all when empty)", Run: c.cmdUnwatch})
	c.Register(Command{Name: "name", Usage: "<path> [suffix]", Help: "Print channel names", Run: c.cmdName})
	c.Register(Command{Name: "quit", Aliases: []string{"exit", "q"}, Help: "Exit",
		Run: func([]string) error { return ErrQuit }})
}

func (c *Console) cmdList(args []string) error {
	p, err := c.resolve(arg(args, 0))
	if err != nil {
		return err
	}
	for _, child := range p.Children() {
		if child.IsHub() {
			c.Printf("%s/\n", child.Name())
			continue
		}
		cp, err := child.FindByName("")
		if err != nil {
			return err
		}
		c.Printf("%-24s %s\n", child.Name(), cp.Kind())
	}
	return nil
}

func (c *Console) cmdCd(args []string) error {
	if len(args) == 0 {
		c.cwd = c.root
		return nil
	}
	p, err := c.resolve(args[0])
	if err != nil {
		return err
	}
	if p.Kind() != tree.KindDev {
		return fmt.Errorf("%s is not a directory", p)
	}
	c.cwd = p
	return nil
}

func (c *Console) cmdInfo(args []string) error {
	if len(args) != 1 {
		return usageError("info <path>")
	}
	p, err := c.resolve(args[0])
	if err != nil {
		return err
	}
	c.Printf("Path: %s\nKind: %s\n", p, p.Kind())

	switch p.Kind() {
	case tree.KindVar:
		v, err := c.variable(args[0])
		if err != nil {
			return err
		}
		c.Printf("Repr: %s\n", v.Repr())
		if v.HasEnums() {
			c.Printf("Enums: %s\n", strings.Join(v.Enums(), ", "))
		}
		c.Printf("Read: %s (%s) connected=%t\n", v.Name(), v.ConnectionName(), v.PV().Connected())
		if v.ReadOnly() {
			c.Printf("Write: read-only\n")
		} else {
			c.Printf("Write: %s connected=%t\n", v.WriteName(), v.WritePV().Connected())
		}
	case tree.KindCmd:
		cmd, err := c.command(args[0])
		if err != nil {
			return err
		}
		c.Printf("Exec: %s (%s) connected=%t\n", cmd.Name(), cmd.ConnectionName(), cmd.PV().Connected())
		for _, step := range cmd.Desc().Sequence() {
			c.Printf("  %s <- %v\n", step.Path, step.Value)
		}
	}
	return nil
}

func (c *Console) cmdGet(args []string) error {
	if len(args) == 0 {
		return usageError("get <path>...")
	}
	for _, path := range args {
		v, err := c.variable(path)
		if err != nil {
			return err
		}
		value, ok := v.Get(c.timeout)
		if !ok {
			return fmt.Errorf("%s: no value within %s", v.Path(), c.timeout)
		}
		c.Printf("%s = %s\n", v.Path(), FormatValue(value, v.Repr()))
	}
	return nil
}

func (c *Console) cmdPut(args []string) error {
	if len(args) < 2 {
		return usageError("put <path> <value>...")
	}
	v, err := c.variable(args[0])
	if err != nil {
		return err
	}
	if err := c.waitWritable(v); err != nil {
		return err
	}
	return v.SetVal(putValue(v, args[1:]))
}

func (c *Console) cmdPutRange(args []string) error {
	if len(args) < 4 {
		return usageError("putrange <path> <from> <to> <value>...")
	}
	from, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid from index %q", args[1])
	}
	to, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("invalid to index %q", args[2])
	}
	v, err := c.variable(args[0])
	if err != nil {
		return err
	}
	if err := c.waitWritable(v); err != nil {
		return err
	}
	return v.SetValRange(putValue(v, args[3:]), from, to)
}

func (c *Console) cmdExec(args []string) error {
	if len(args) != 1 {
		return usageError("exec <path>")
	}
	cmd, err := c.command(args[0])
	if err != nil {
		return err
	}
	if err := c.waitConnected(cmd.PV()); err != nil {
		return err
	}
	return cmd.Execute()
}

func (c *Console) cmdWatch(args []string) error {
	if len(args) != 1 {
		return usageError("watch <path>")
	}
	v, err := c.variable(args[0])
	if err != nil {
		return err
	}
	key := v.Path().String()
	if w, ok := c.watches[key]; ok {
		w.active.Store(true)
		return nil
	}

	w := &watch{}
	w.active.Store(true)
	c.watches[key] = w
	repr := v.Repr()
	v.SetWidget(adapt.Serialize(adapt.WidgetFunc(func(value any) {
		if w.active.Load() {
			c.Printf("[watch] %s = %s\n", key, FormatValue(value, repr))
		}
	})))
	return nil
}

func (c *Console) cmdUnwatch(args []string) error {
	if len(args) == 0 {
		c.Close()
		return nil
	}
	p, err := c.resolve(args[0])
	if err != nil {
		return err
	}
	w, ok := c.watches[p.String()]
	if !ok {
		return fmt.Errorf("%s is not watched", p)
	}
	w.active.Store(false)
	return nil
}

func (c *Console) cmdName(args []string) error {
	if len(args) == 0 || len(args) > 2 {
		return usageError("name <path> [suffix]")
	}
	p, err := c.resolve(args[0])
	if err != nil {
		return err
	}

	var suffixes []string
	switch {
	case len(args) == 2:
		suffixes = []string{args[1]}
	case p.Kind() == tree.KindCmd:
		suffixes = []string{chname.SuffixExec}
	default:
		suffixes = []string{chname.SuffixRead, chname.SuffixWrite}
	}
	for _, s := range suffixes {
		c.Printf("%s  %s\n", p.Hash(s), p.GetFull(s))
	}
	return nil
}

// waitWritable waits for the write channel of a freshly bound variable.
// Read-only variables are left to SetVal to reject.
func (c *Console) waitWritable(v *adapt.Var) error {
	if v.ReadOnly() {
		return nil
	}
	return c.waitConnected(v.WritePV())
}

func (c *Console) waitConnected(pv ca.PV) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	if err := pv.WaitConnected(ctx); err != nil {
		return fmt.Errorf("%s: %w", pv.Name(), ca.ErrNotConnected)
	}
	return nil
}

// putValue passes a single argument as a string and several as a slice.
// The server converts strings to the variable's type.
func putValue(v *adapt.Var, args []string) any {
	if len(args) == 1 {
		return args[0]
	}
	if v.IsString() {
		return strings.Join(args, " ")
	}
	return args
}

// FormatValue renders a decoded value in the variable's representation.
func FormatValue(value any, repr tree.Repr) string {
	if repr == tree.ReprHex {
		switch x := value.(type) {
		case int64:
			return fmt.Sprintf("%#x", x)
		case uint64:
			return fmt.Sprintf("%#x", x)
		case []int64, []uint64:
			return fmt.Sprintf("%#x", x)
		}
	}
	if s, ok := value.(string); ok {
		return strconv.Quote(s)
	}
	return fmt.Sprint(value)
}

func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func usageError(usage string) error {
	return fmt.Errorf("usage: %s", usage)
}
