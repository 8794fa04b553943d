// catree-hash prints the channel names derived from device tree paths.
//
// Usage:
//
//	catree-hash [flags] <path>...
//	catree-hash [flags] -tree <file.yaml>
//
// With path arguments each path is hashed with every suffix given by
// -suffix. With -tree the YAML tree is loaded and every channel the IOC
// would serve is listed.
//
// Output formats:
//
//	text  one line per channel: name, kind, path
//	yaml  naming parameters and the channel list
//	go    a Go source file with one string constant per channel
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cpswtree/catree/pkg/chname"
	"github.com/cpswtree/catree/pkg/config"
)

type options struct {
	configPath string
	treeFile   string
	root       string
	includeDir string
	suffixes   string
	format     string
	pkg        string
	output     string
}

func main() {
	var opts options
	fs := flag.NewFlagSet("catree-hash", flag.ExitOnError)
	fs.StringVar(&opts.configPath, "config", "", "Configuration file")
	fs.StringVar(&opts.treeFile, "tree", "", "Device tree YAML file")
	fs.StringVar(&opts.root, "root", "", "Top-level key of the tree file")
	fs.StringVar(&opts.includeDir, "include", "", "Directory for tree includes")
	fs.StringVar(&opts.suffixes, "suffix", chname.SuffixRead, "Comma-separated suffixes for path arguments")
	fs.StringVar(&opts.format, "format", "text", "Output format: text, yaml, go")
	fs.StringVar(&opts.pkg, "package", "channels", "Package name for -format go")
	fs.StringVar(&opts.output, "o", "", "Output file (default stdout)")
	hashPrefix := fs.String("hash-prefix", "", "Override the hash prefix")
	recordPrefix := fs.String("record-prefix", "", "Override the record prefix")
	maxLen := fs.Int("max-len", 0, "Override the maximum name length (0 disables truncation)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: catree-hash [flags] <path>... | -tree <file.yaml>")
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])

	if err := config.LoadEnvFiles(); err != nil {
		fail(err)
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fail(err)
	}
	if opts.treeFile == "" {
		opts.treeFile = cfg.Server.Tree
		opts.root = firstNonEmpty(opts.root, cfg.Server.Root)
		opts.includeDir = firstNonEmpty(opts.includeDir, cfg.Server.IncludeDir)
	}
	if fs.NArg() > 0 {
		opts.treeFile = ""
	}

	namer := cfg.Naming.Namer()
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "hash-prefix":
			namer.HashPrefix = *hashPrefix
		case "record-prefix":
			namer.RecordPrefix = *recordPrefix
		case "max-len":
			namer.MaxLen = *maxLen
		}
	})

	if opts.treeFile == "" && fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	if err := run(namer, opts, fs.Args()); err != nil {
		fail(err)
	}
}

func run(namer chname.Namer, opts options, paths []string) error {
	var (
		channels []channel
		err      error
	)
	if opts.treeFile != "" {
		channels, err = treeChannels(namer, opts.treeFile, opts.root, opts.includeDir)
		if err != nil {
			return err
		}
	} else {
		channels = pathChannels(namer, paths, splitSuffixes(opts.suffixes))
	}

	if opts.output == "" {
		return write(os.Stdout, opts.format, opts.pkg, namer, channels)
	}
	if opts.format == "go" {
		return writeGoFile(opts.output, opts.pkg, namer, channels)
	}

	f, err := os.Create(opts.output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()
	return write(f, opts.format, opts.pkg, namer, channels)
}

func write(w io.Writer, format, pkg string, namer chname.Namer, channels []channel) error {
	switch format {
	case "text":
		return writeText(w, channels)
	case "yaml":
		return writeYAML(w, namer, channels)
	case "go":
		code, err := generateGo(pkg, namer, channels)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, code)
		return err
	default:
		return fmt.Errorf("unknown format: %s (must be text, yaml, or go)", format)
	}
}

func splitSuffixes(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		out = append(out, strings.TrimSpace(part))
	}
	return out
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
