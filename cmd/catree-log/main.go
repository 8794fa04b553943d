// Command catree-log views and analyzes protocol capture files.
//
// Capture files are written by catree-ioc and catree-browse when run with
// the -protocol-log flag (or log.protocol in the configuration file).
//
// Usage:
//
//	catree-log <command> [flags] <file.clog>
//
// Commands:
//
//	view     View log file in human-readable format
//	export   Export log file to JSON or CSV format
//	filter   Filter log file and write to new file
//	stats    Show statistics about the log file
//
// Examples:
//
//	# View only channel-layer events (connects, disconnects)
//	catree-log view --layer channel ioc.clog
//
//	# Count the puts of one session
//	catree-log stats --conn-id 3f2a1c0e --op put ioc.clog
//
//	# View everything concerning one channel
//	catree-log view --channel CPSW:3F2A... ioc.clog
//
//	# Export to JSONL
//	catree-log export --format jsonl ioc.clog
//
//	# Keep one subtree and save to a new file
//	catree-log filter --path-prefix /root/mmio -o mmio.clog ioc.clog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cpswtree/catree/cmd/catree-log/commands"
)

const usage = `catree-log - Channel Access Protocol Log Analyzer

Usage:
  catree-log <command> [flags] <file.clog>

Commands:
  view     View log file in human-readable format
  export   Export log file to JSON or CSV format
  filter   Filter log file and write to new file
  stats    Show statistics about the log file

All commands accept the filter flags -conn-id, -channel, -path-prefix,
-time-start, -time-end, -layer, -direction, -category and -op.

Use "catree-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// requirePath returns the single positional log file argument.
func requirePath(fs *flag.FlagSet) string {
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func newFlagSet(name, synopsis, usageLine string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "catree-log %s - %s\n\nUsage:\n  %s\n\nFlags:\n", name, synopsis, usageLine)
		fs.PrintDefaults()
	}
	return fs
}

// addFilterFlags registers the event selection flags shared by all commands.
func addFilterFlags(fs *flag.FlagSet) *commands.FilterOptions {
	o := &commands.FilterOptions{}
	fs.StringVar(&o.ConnID, "conn-id", "", "Filter by connection ID")
	fs.StringVar(&o.Channel, "channel", "", "Filter by channel name")
	fs.StringVar(&o.PathPrefix, "path-prefix", "", "Filter by tree path prefix")
	fs.StringVar(&o.TimeStart, "time-start", "", "Filter by start time (RFC3339)")
	fs.StringVar(&o.TimeEnd, "time-end", "", "Filter by end time (RFC3339)")
	fs.StringVar(&o.Layer, "layer", "", "Filter by layer (transport, wire, channel)")
	fs.StringVar(&o.Direction, "direction", "", "Filter by direction (in, out)")
	fs.StringVar(&o.Category, "category", "", "Filter by category (message, control, state, error)")
	fs.StringVar(&o.Operation, "op", "", "Filter by request operation (hello, search, get, put, monitor, cancel)")
	return o
}

func runView(args []string) {
	fs := newFlagSet("view", "View log file in human-readable format", "catree-log view [flags] <file.clog>")
	opts := addFilterFlags(fs)
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if err := commands.RunView(requirePath(fs), *opts, os.Stdout); err != nil {
		fail(err)
	}
}

func runExport(args []string) {
	fs := newFlagSet("export", "Export log file to JSON or CSV format", "catree-log export [flags] <file.clog>")
	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")
	opts := addFilterFlags(fs)
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if err := commands.RunExport(requirePath(fs), *format, *output, *opts); err != nil {
		fail(err)
	}
}

func runFilter(args []string) {
	fs := newFlagSet("filter", "Filter log file and write to new file", "catree-log filter -o <out.clog> [flags] <file.clog>")
	output := fs.String("o", "", "Output file (required)")
	opts := addFilterFlags(fs)
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)
	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	count, err := commands.RunFilter(path, *output, *opts)
	if err != nil {
		fail(err)
	}
	fmt.Printf("Filtered %d events to %s\n", count, *output)
}

func runStats(args []string) {
	fs := newFlagSet("stats", "Show statistics about the log file", "catree-log stats [flags] <file.clog>")
	opts := addFilterFlags(fs)
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if err := commands.RunStats(requirePath(fs), *opts, os.Stdout); err != nil {
		fail(err)
	}
}
