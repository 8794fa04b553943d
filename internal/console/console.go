// Package console provides the interactive command shell shared by the
// catree commands. It navigates an adapted device tree and reads, writes and
// executes its leaves through their channels.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/chzyer/readline"

	"github.com/cpswtree/catree/pkg/adapt"
	"github.com/cpswtree/catree/pkg/tree"
)

// ErrQuit is returned by Exec for the quit command.
var ErrQuit = errors.New("quit")

// DefaultTimeout bounds how long get waits for a value.
const DefaultTimeout = 2 * time.Second

// Config configures a Console.
type Config struct {
	// Root is the adapted tree root.
	Root *adapt.Path

	// Out receives command output. Interactive consoles write through
	// readline instead.
	Out io.Writer

	// Prompt is the readline prompt (default "catree> ").
	Prompt string

	// Timeout bounds how long get waits for a value (default 2s).
	Timeout time.Duration
}

// Command is a console command.
type Command struct {
	Name    string
	Aliases []string
	Usage   string
	Help    string
	Run     func(args []string) error
}

// Console executes commands against a tree. Leaves are bound on first use
// and kept for the life of the console.
type Console struct {
	root    *adapt.Path
	cwd     *adapt.Path
	timeout time.Duration
	prompt  string
	rl      *readline.Instance

	outMu sync.Mutex
	out   io.Writer

	commands []*Command
	byName   map[string]*Command

	vars    map[string]*adapt.Var
	cmds    map[string]*adapt.Cmd
	watches map[string]*watch
}

// New creates a console writing to cfg.Out.
func New(cfg Config) *Console {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Prompt == "" {
		cfg.Prompt = "catree> "
	}
	if cfg.Out == nil {
		cfg.Out = io.Discard
	}
	c := &Console{
		root:    cfg.Root,
		cwd:     cfg.Root,
		timeout: cfg.Timeout,
		prompt:  cfg.Prompt,
		out:     cfg.Out,
		byName:  make(map[string]*Command),
		vars:    make(map[string]*adapt.Var),
		cmds:    make(map[string]*adapt.Cmd),
		watches: make(map[string]*watch),
	}
	c.registerBuiltins()
	return c
}

// NewInteractive creates a console reading lines with readline.
func NewInteractive(cfg Config) (*Console, error) {
	c := New(cfg)
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          c.prompt,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    c.completer(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	c.rl = rl
	c.out = rl.Stdout()
	return c, nil
}

// Stdout returns a writer that coordinates with the prompt. Use it for log
// output while the console runs.
func (c *Console) Stdout() io.Writer {
	if c.rl != nil {
		return c.rl.Stdout()
	}
	return c.out
}

// Register adds a command. A later registration with the same name
// replaces the earlier one.
func (c *Console) Register(cmd Command) {
	cp := cmd
	if old, ok := c.byName[cmd.Name]; ok {
		*old = cp
		return
	}
	c.commands = append(c.commands, &cp)
	c.byName[cp.Name] = &cp
	for _, a := range cp.Aliases {
		c.byName[a] = &cp
	}
}

// Printf writes formatted output.
func (c *Console) Printf(format string, args ...any) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

// Run reads and executes lines until quit, EOF or ctx is done. cancel is
// called when the user quits.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	if c.rl == nil {
		return
	}
	defer c.rl.Close()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			c.Printf("Exiting...\n")
			cancel()
			return
		}

		if err := c.Exec(line); err != nil {
			if errors.Is(err, ErrQuit) {
				c.Printf("Exiting...\n")
				cancel()
				return
			}
			c.Printf("Error: %v\n", err)
		}
	}
}

// Exec runs one command line.
func (c *Console) Exec(line string) error {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}
	name := strings.ToLower(parts[0])
	cmd, ok := c.byName[name]
	if !ok {
		return fmt.Errorf("unknown command: %s (type 'help' for commands)", name)
	}
	return cmd.Run(parts[1:])
}

// Close stops all watches.
func (c *Console) Close() {
	for _, w := range c.watches {
		w.active.Store(false)
	}
}

func (c *Console) printHelp() {
	names := make([]string, 0, len(c.commands))
	width := 0
	for _, cmd := range c.commands {
		usage := strings.TrimSpace(cmd.Name + " " + cmd.Usage)
		names = append(names, usage)
		width = max(width, len(usage))
	}

	var b strings.Builder
	b.WriteString("Commands:\n")
	for i, cmd := range c.commands {
		fmt.Fprintf(&b, "  %-*s  %s\n", width, names[i], cmd.Help)
	}
	b.WriteString("\nPaths are relative to the current directory unless they start with /.\n")
	c.Printf("%s", b.String())
}

func (c *Console) completer() *readline.PrefixCompleter {
	names := make([]string, 0, len(c.byName))
	for name := range c.byName {
		names = append(names, name)
	}
	sort.Strings(names)

	items := make([]readline.PrefixCompleterInterface, 0, len(names))
	for _, name := range names {
		items = append(items, readline.PcItem(name, readline.PcItemDynamic(c.childNames)))
	}
	return readline.NewPrefixCompleter(items...)
}

// childNames lists the children of the current directory for completion.
func (c *Console) childNames(string) []string {
	children := c.cwd.Children()
	out := make([]string, 0, len(children))
	for _, ch := range children {
		name := ch.Name()
		if ch.IsHub() {
			name += "/"
		}
		out = append(out, name)
	}
	return out
}

// resolve looks up a path relative to the current directory.
func (c *Console) resolve(path string) (*adapt.Path, error) {
	if path == "" {
		return c.cwd, nil
	}
	return c.cwd.FindByName(path)
}

func (c *Console) variable(path string) (*adapt.Var, error) {
	p, err := c.resolve(path)
	if err != nil {
		return nil, err
	}
	if v, ok := c.vars[p.String()]; ok {
		return v, nil
	}
	if p.Kind() != tree.KindVar {
		return nil, fmt.Errorf("%s is a %s, not a variable", p, p.Kind())
	}
	v, err := p.CreateVar()
	if err != nil {
		return nil, err
	}
	c.vars[p.String()] = v
	return v, nil
}

func (c *Console) command(path string) (*adapt.Cmd, error) {
	p, err := c.resolve(path)
	if err != nil {
		return nil, err
	}
	if cmd, ok := c.cmds[p.String()]; ok {
		return cmd, nil
	}
	if p.Kind() != tree.KindCmd {
		return nil, fmt.Errorf("%s is a %s, not a command", p, p.Kind())
	}
	cmd, err := p.CreateCmd()
	if err != nil {
		return nil, err
	}
	c.cmds[p.String()] = cmd
	return cmd, nil
}
