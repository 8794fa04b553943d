package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/cpswtree/catree/pkg/log"
)

// csvHeader lists the export columns. Message columns are empty for other
// events.
var csvHeader = []string{
	"timestamp", "connection_id", "role", "direction", "layer", "category",
	"channel", "path", "type", "message_id", "operation", "name", "status", "value",
}

// RunExport writes the selected events of the capture at path as jsonl or
// csv to output, or to stdout when output is empty.
func RunExport(path, format, output string, opts FilterOptions) error {
	var write func(io.Writer) (func(log.Event) error, func() error)
	switch format {
	case "jsonl":
		write = jsonlWriter
	case "csv":
		write = csvWriter
	default:
		return fmt.Errorf("unknown format %q (supported: jsonl, csv)", format)
	}

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	row, flush := write(w)
	if err := each(path, opts, row); err != nil {
		return err
	}
	return flush()
}

func jsonlWriter(w io.Writer) (func(log.Event) error, func() error) {
	enc := json.NewEncoder(w)
	row := func(ev log.Event) error {
		if err := enc.Encode(ev); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
		return nil
	}
	return row, func() error { return nil }
}

func csvWriter(w io.Writer) (func(log.Event) error, func() error) {
	cw := csv.NewWriter(w)
	started := false
	start := func() error {
		if started {
			return nil
		}
		started = true
		return cw.Write(csvHeader)
	}
	row := func(ev log.Event) error {
		if err := start(); err != nil {
			return err
		}
		return cw.Write(csvRow(ev))
	}
	flush := func() error {
		if err := start(); err != nil {
			return err
		}
		cw.Flush()
		return cw.Error()
	}
	return row, flush
}

func csvRow(ev log.Event) []string {
	row := []string{
		ev.Timestamp.UTC().Format(timeLayout),
		ev.ConnectionID,
		ev.LocalRole.String(),
		ev.Direction.String(),
		ev.Layer.String(),
		ev.Category.String(),
		ev.Channel,
		ev.Path,
		kindLabel(ev),
		"", "", "", "", "",
	}
	if m := ev.Message; m != nil {
		if m.Type != log.MessageTypeUpdate {
			row[9] = strconv.FormatUint(uint64(m.MessageID), 10)
		}
		if m.Operation != nil {
			row[10] = m.Operation.String()
		}
		row[11] = m.Name
		if m.Status != nil {
			row[12] = m.Status.String()
		}
		if m.Payload != nil {
			if data, err := json.Marshal(m.Payload); err == nil {
				row[13] = string(data)
			}
		}
	}
	return row
}
