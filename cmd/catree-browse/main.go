// Command catree-browse explores a served device tree over channel access.
//
// The tree is loaded from the same YAML file the IOC serves, and channel
// names are derived locally from node paths. With -find the IOC is located
// over mDNS and its advertised naming parameters are used.
//
// Usage:
//
//	catree-browse [flags] [command [args...]]
//
// Without a command an interactive console starts. With a command it is run
// once and the program exits.
//
// Examples:
//
//	# Interactive console against a known address
//	catree-browse -tree board.yaml -address ioc-lab-1:5064
//
//	# Read one variable from an IOC found over mDNS
//	catree-browse -tree board.yaml -find ioc-lab-1 get /mmio/Scratch
//
//	# List the IOCs on the local network
//	catree-browse -discover
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cpswtree/catree/internal/console"
	"github.com/cpswtree/catree/pkg/adapt"
	"github.com/cpswtree/catree/pkg/client"
	"github.com/cpswtree/catree/pkg/config"
	"github.com/cpswtree/catree/pkg/discovery"
)

type flags struct {
	configPath  string
	tree        string
	root        string
	include     string
	address     string
	find        string
	discover    bool
	logLevel    string
	protocolLog string
	timeout     time.Duration
}

func main() {
	var f flags
	fs := flag.NewFlagSet("catree-browse", flag.ExitOnError)
	fs.StringVar(&f.configPath, "config", "", "Configuration file path")
	fs.StringVar(&f.tree, "tree", "", "Device tree YAML file")
	fs.StringVar(&f.root, "root", "", "Top-level key of the tree file")
	fs.StringVar(&f.include, "include", "", "Directory for tree includes")
	fs.StringVar(&f.address, "address", "", "IOC address (host:port)")
	fs.StringVar(&f.find, "find", "", "Locate the IOC by mDNS instance name")
	fs.BoolVar(&f.discover, "discover", false, "List IOCs on the local network and exit")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.StringVar(&f.protocolLog, "protocol-log", "", "Protocol capture file for catree-log")
	fs.DurationVar(&f.timeout, "timeout", console.DefaultTimeout, "How long get waits for a value")
	_ = fs.Parse(os.Args[1:])

	if err := config.LoadEnvFiles(); err != nil {
		fail(err)
	}
	cfg, err := config.Load(f.configPath)
	if err != nil {
		fail(err)
	}
	fs.Visit(func(fl *flag.Flag) { f.apply(cfg, fl.Name) })
	if err := cfg.Validate(); err != nil {
		fail(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if f.discover {
		if err := discover(ctx, cfg, os.Stdout); err != nil {
			fail(err)
		}
		return
	}

	if cfg.Server.Tree == "" {
		fail(errors.New("no device tree given (use -tree or server.tree)"))
	}
	if err := run(ctx, cfg, f, fs.Args()); err != nil {
		fail(err)
	}
}

func (f *flags) apply(cfg *config.Config, name string) {
	switch name {
	case "tree":
		cfg.Server.Tree = f.tree
	case "root":
		cfg.Server.Root = f.root
	case "include":
		cfg.Server.IncludeDir = f.include
	case "address":
		cfg.Client.Address = f.address
	case "log-level":
		cfg.Log.Level = f.logLevel
	case "protocol-log":
		cfg.Log.Protocol = f.protocolLog
	}
}

func run(ctx context.Context, cfg *config.Config, f flags, args []string) error {
	loggers, err := cfg.Log.Open(os.Stderr)
	if err != nil {
		return err
	}
	defer loggers.Close()
	logger := loggers.Runtime

	if f.find != "" {
		svc, err := findIOC(ctx, cfg, f.find)
		if err != nil {
			return err
		}
		useService(cfg, svc)
		logger.Info("found ioc", "instance", svc.InstanceName, "addr", cfg.Client.Address, "version", svc.Version)
	}

	c := client.New(client.Config{
		Address:        cfg.Client.Address,
		ConnectTimeout: cfg.Client.ConnectTimeout,
		RequestTimeout: cfg.Client.RequestTimeout,
		Backoff:        cfg.Client.Backoff(),
		Logger:         logger,
		ProtocolLogger: loggers.Protocol,
	})
	defer c.Close()

	a := adapt.New(adapt.Config{Client: c, Namer: cfg.Naming.Namer(), Logger: logger})
	root, err := a.LoadYAMLFile(cfg.Server.Tree, cfg.Server.Root, cfg.Server.IncludeDir, nil)
	if err != nil {
		return err
	}

	conCfg := console.Config{Root: root, Timeout: f.timeout, Prompt: "browse> "}
	if len(args) > 0 {
		conCfg.Out = os.Stdout
		con := console.New(conCfg)
		defer con.Close()
		register(con, cfg, c)
		return con.Exec(strings.Join(args, " "))
	}

	con, err := console.NewInteractive(conCfg)
	if err != nil {
		return err
	}
	defer con.Close()
	register(con, cfg, c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	con.Run(ctx, cancel)
	return nil
}

// register adds the client-side commands.
func register(con *console.Console, cfg *config.Config, c *client.Client) {
	con.Register(console.Command{
		Name: "status",
		Help: "Show the connection state",
		Run: func([]string) error {
			state := "disconnected"
			if c.Connected() {
				state = "connected"
			}
			con.Printf("%s %s\n", cfg.Client.Address, state)
			return nil
		},
	})
	con.Register(console.Command{
		Name: "discover",
		Help: "List IOCs on the local network",
		Run: func([]string) error {
			return discover(context.Background(), cfg, con.Stdout())
		},
	})
}

func newBrowser(cfg *config.Config) (*discovery.MDNSBrowser, error) {
	bc := discovery.DefaultBrowserConfig()
	bc.Interface = cfg.Discovery.Interface
	return discovery.NewMDNSBrowser(bc)
}

func discover(ctx context.Context, cfg *config.Config, w io.Writer) error {
	b, err := newBrowser(cfg)
	if err != nil {
		return err
	}
	defer b.Stop()

	services, err := b.FindAll(ctx)
	if err != nil {
		return err
	}
	printServices(w, services)
	return nil
}

func findIOC(ctx context.Context, cfg *config.Config, instance string) (*discovery.IOCService, error) {
	b, err := newBrowser(cfg)
	if err != nil {
		return nil, err
	}
	defer b.Stop()
	return b.Find(ctx, instance)
}

// useService points the client at svc and adopts its naming parameters.
func useService(cfg *config.Config, svc *discovery.IOCService) {
	cfg.Client.Address = svc.Address()
	cfg.Naming.HashPrefix = svc.Namer.HashPrefix
	cfg.Naming.RecordPrefix = svc.Namer.RecordPrefix
	cfg.Naming.MaxLen = svc.Namer.MaxLen
}

func printServices(w io.Writer, services []*discovery.IOCService) {
	if len(services) == 0 {
		fmt.Fprintln(w, "No IOCs found")
		return
	}
	for _, s := range services {
		fmt.Fprintf(w, "%s  %s  v%s  prefix=%q maxLen=%d", s.InstanceName, s.Address(), s.Version, s.Namer.RecordPrefix, s.Namer.MaxLen)
		if s.Records > 0 {
			fmt.Fprintf(w, " records=%d", s.Records)
		}
		if s.Root != "" {
			fmt.Fprintf(w, " root=%s", s.Root)
		}
		fmt.Fprintln(w)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
