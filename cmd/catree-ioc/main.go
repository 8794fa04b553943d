// Command catree-ioc serves a device tree over channel access.
//
// Every variable of the tree is served as a read record and, unless it is
// read-only, a write record. Every command is served as a trigger record.
// Record names are derived from the node paths with the configured naming
// parameters, so clients holding the same tree can find them.
//
// Usage:
//
//	catree-ioc [flags]
//
// Flags:
//
//	-config string       Configuration file path
//	-tree string         Device tree YAML file
//	-root string         Top-level key of the tree file
//	-include string      Directory for tree includes
//	-address string      Listen address
//	-name string         Server name, also the mDNS instance name
//	-log-level string    Log level: debug, info, warn, error
//	-log-file string     Runtime log file (rotated)
//	-protocol-log string Protocol capture file for catree-log
//	-advertise           Advertise the server over mDNS
//	-interactive         Run the command console
//
// Examples:
//
//	# Serve a tree with defaults
//	catree-ioc -tree board.yaml
//
//	# Serve with a config file, capture traffic and explore locally
//	catree-ioc -config /etc/catree/ioc.yaml -protocol-log ioc.clog -interactive
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/cpswtree/catree/internal/console"
	"github.com/cpswtree/catree/pkg/adapt"
	"github.com/cpswtree/catree/pkg/config"
	"github.com/cpswtree/catree/pkg/discovery"
	"github.com/cpswtree/catree/pkg/server"
	"github.com/cpswtree/catree/pkg/softioc"
	"github.com/cpswtree/catree/pkg/tree"
	"github.com/cpswtree/catree/pkg/version"
)

// flags holds the command-line overrides.
type flags struct {
	configPath  string
	tree        string
	root        string
	include     string
	address     string
	name        string
	logLevel    string
	logFile     string
	protocolLog string
	advertise   bool
	interactive bool
}

func main() {
	var f flags
	fs := flag.NewFlagSet("catree-ioc", flag.ExitOnError)
	fs.StringVar(&f.configPath, "config", "", "Configuration file path")
	fs.StringVar(&f.tree, "tree", "", "Device tree YAML file")
	fs.StringVar(&f.root, "root", "", "Top-level key of the tree file")
	fs.StringVar(&f.include, "include", "", "Directory for tree includes")
	fs.StringVar(&f.address, "address", "", "Listen address")
	fs.StringVar(&f.name, "name", "", "Server name, also the mDNS instance name")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.StringVar(&f.logFile, "log-file", "", "Runtime log file (rotated)")
	fs.StringVar(&f.protocolLog, "protocol-log", "", "Protocol capture file for catree-log")
	fs.BoolVar(&f.advertise, "advertise", false, "Advertise the server over mDNS")
	fs.BoolVar(&f.interactive, "interactive", false, "Run the command console")
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
	if cfg.Server.Tree == "" {
		fail(errors.New("no device tree given (use -tree or server.tree)"))
	}

	if err := run(cfg, f.interactive); err != nil {
		fail(err)
	}
}

// apply copies the flag called name into cfg.
func (f *flags) apply(cfg *config.Config, name string) {
	switch name {
	case "tree":
		cfg.Server.Tree = f.tree
	case "root":
		cfg.Server.Root = f.root
	case "include":
		cfg.Server.IncludeDir = f.include
	case "address":
		cfg.Server.Address = f.address
	case "name":
		cfg.Server.Name = f.name
	case "log-level":
		cfg.Log.Level = f.logLevel
	case "log-file":
		cfg.Log.File = f.logFile
	case "protocol-log":
		cfg.Log.Protocol = f.protocolLog
	case "advertise":
		cfg.Discovery.Advertise = f.advertise
	}
}

func run(cfg *config.Config, interactive bool) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logOut := &logWriter{w: os.Stderr}
	loggers, err := cfg.Log.Open(logOut)
	if err != nil {
		return err
	}
	defer loggers.Close()
	logger := loggers.Runtime

	root, err := tree.LoadYAMLFile(cfg.Server.Tree, cfg.Server.Root, cfg.Server.IncludeDir, nil)
	if err != nil {
		return err
	}
	namer := cfg.Naming.Namer()
	db, err := softioc.NewDatabase(root, softioc.Config{Namer: namer, Logger: logger})
	if err != nil {
		return err
	}

	srv := server.New(db, server.Config{
		Address:        cfg.Server.Address,
		Name:           cfg.Server.Name,
		MaxMessageSize: uint32(cfg.Server.MaxMessageSize),
		Logger:         logger,
		ProtocolLogger: loggers.Protocol,
	})
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	defer srv.Stop()

	addr, err := srv.Addr()
	if err != nil {
		return err
	}
	logger.Info("ioc started",
		"name", cfg.Server.Name, "addr", addr.String(), "records", db.Len(),
		"recordPrefix", namer.RecordPrefix, "maxLen", namer.MaxLen)

	if cfg.Discovery.Advertise {
		adv, err := advertise(ctx, cfg, db, addr)
		if err != nil {
			logger.Warn("mdns advertising failed", "error", err)
		} else {
			defer adv.Stop()
			logger.Info("advertising", "instance", cfg.Server.Name, "service", discovery.ServiceType)
		}
	}

	if interactive {
		local := softioc.NewLocal(db, softioc.LocalConfig{Logger: logger})
		defer local.Close()
		a := adapt.New(adapt.Config{Client: local, Namer: namer, Logger: logger})

		con, err := console.NewInteractive(console.Config{Root: a.Wrap(root), Prompt: "ioc> "})
		if err != nil {
			return err
		}
		defer con.Close()
		logOut.set(con.Stdout())
		con.Register(console.Command{
			Name: "sessions",
			Help: "Show the number of connected clients",
			Run: func([]string) error {
				con.Printf("%d session(s)\n", srv.SessionCount())
				return nil
			},
		})
		con.Register(console.Command{
			Name: "records",
			Help: "List the served records",
			Run: func([]string) error {
				for _, r := range db.Records() {
					con.Printf("%s  %-5s %s\n", r.Name(), r.Kind(), r.Node())
				}
				return nil
			},
		})
		go con.Run(ctx, cancel)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		logger.Info("received signal", "signal", sig.String())
	case <-ctx.Done():
	}
	logOut.set(os.Stderr)

	logger.Info("shutting down", "sessions", srv.SessionCount())
	return nil
}

// advertise publishes the server over mDNS.
func advertise(ctx context.Context, cfg *config.Config, db *softioc.Database, addr net.Addr) (discovery.Advertiser, error) {
	adv, err := discovery.NewMDNSAdvertiser(discovery.AdvertiserConfig{
		Interface: cfg.Discovery.Interface,
		TTL:       cfg.Discovery.TTL,
	})
	if err != nil {
		return nil, err
	}
	if err := adv.Advertise(ctx, iocInfo(cfg, db, addr)); err != nil {
		return nil, err
	}
	return adv, nil
}

func iocInfo(cfg *config.Config, db *softioc.Database, addr net.Addr) *discovery.IOCInfo {
	info := &discovery.IOCInfo{
		Name:    cfg.Server.Name,
		Port:    discovery.DefaultPort,
		Version: version.Current,
		Namer:   db.Namer(),
		Records: db.Len(),
		Root:    cfg.Server.Root,
	}
	if tcp, ok := addr.(*net.TCPAddr); ok {
		info.Port = uint16(tcp.Port)
	}
	return info
}

// logWriter lets the console take over log output once it runs.
type logWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *logWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func (l *logWriter) set(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w = w
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
