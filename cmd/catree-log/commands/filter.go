package commands

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cpswtree/catree/pkg/log"
	"github.com/cpswtree/catree/pkg/wire"
)

// FilterOptions are the event selection flags shared by all commands.
// Empty fields select everything.
type FilterOptions struct {
	ConnID     string
	Channel    string
	PathPrefix string
	TimeStart  string // RFC3339
	TimeEnd    string // RFC3339
	Layer      string
	Direction  string
	Category   string
	Operation  string
}

var (
	layerNames = map[string]log.Layer{
		"transport": log.LayerTransport,
		"wire":      log.LayerWire,
		"channel":   log.LayerChannel,
	}
	directionNames = map[string]log.Direction{
		"in":  log.DirectionIn,
		"out": log.DirectionOut,
	}
	categoryNames = map[string]log.Category{
		"message": log.CategoryMessage,
		"control": log.CategoryControl,
		"state":   log.CategoryState,
		"error":   log.CategoryError,
	}
	operationNames = map[string]wire.Operation{
		"hello":   wire.OpHello,
		"search":  wire.OpSearch,
		"get":     wire.OpGet,
		"put":     wire.OpPut,
		"monitor": wire.OpMonitor,
		"cancel":  wire.OpCancel,
	}
)

// lookup resolves a case-insensitive flag value. An empty value yields nil.
func lookup[T any](what, value string, names map[string]T) (*T, error) {
	if value == "" {
		return nil, nil
	}
	if v, ok := names[strings.ToLower(value)]; ok {
		return &v, nil
	}
	valid := make([]string, 0, len(names))
	for k := range names {
		valid = append(valid, k)
	}
	sort.Strings(valid)
	return nil, fmt.Errorf("invalid %s %q (one of %s)", what, value, strings.Join(valid, ", "))
}

func parseTime(what, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", what, err)
	}
	return &t, nil
}

// Build converts the options into a log.Filter.
func (o FilterOptions) Build() (log.Filter, error) {
	f := log.Filter{
		ConnectionID: o.ConnID,
		Channel:      o.Channel,
		PathPrefix:   o.PathPrefix,
	}
	var err error
	if f.TimeStart, err = parseTime("time-start", o.TimeStart); err != nil {
		return f, err
	}
	if f.TimeEnd, err = parseTime("time-end", o.TimeEnd); err != nil {
		return f, err
	}
	if f.Layer, err = lookup("layer", o.Layer, layerNames); err != nil {
		return f, err
	}
	if f.Direction, err = lookup("direction", o.Direction, directionNames); err != nil {
		return f, err
	}
	if f.Category, err = lookup("category", o.Category, categoryNames); err != nil {
		return f, err
	}
	if f.Operation, err = lookup("operation", o.Operation, operationNames); err != nil {
		return f, err
	}
	return f, nil
}

// open builds the filter and opens the capture at path with it.
func open(path string, opts FilterOptions) (*log.Reader, error) {
	f, err := opts.Build()
	if err != nil {
		return nil, err
	}
	r, err := log.NewFilteredReader(path, f)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return r, nil
}

// each calls fn for every event of the capture at path that opts selects.
func each(path string, opts FilterOptions, fn func(log.Event) error) error {
	r, err := open(path, opts)
	if err != nil {
		return err
	}
	defer r.Close()

	for ev, err := range r.All() {
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
	return nil
}

// RunFilter copies the selected events of the capture at path into a new
// capture at output and returns how many were written.
func RunFilter(path, output string, opts FilterOptions) (int, error) {
	if _, err := opts.Build(); err != nil {
		return 0, err
	}
	out, err := log.NewFileLogger(output)
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}
	err = each(path, opts, func(ev log.Event) error {
		out.Log(ev)
		return nil
	})
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = out.Err()
	}
	return out.Count(), err
}
