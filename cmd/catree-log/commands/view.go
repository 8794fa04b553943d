// Package commands implements the catree-log commands.
package commands

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/cpswtree/catree/pkg/log"
)

const timeLayout = "2006-01-02T15:04:05.000000Z"

// RunView prints the selected events of the capture at path.
func RunView(path string, opts FilterOptions, w io.Writer) error {
	return each(path, opts, func(ev log.Event) error {
		formatEvent(w, ev)
		return nil
	})
}

// kindLabel names the payload of ev.
func kindLabel(ev log.Event) string {
	switch {
	case ev.Frame != nil:
		return "Frame"
	case ev.Message != nil:
		return ev.Message.Type.String()
	case ev.StateChange != nil:
		return "State"
	case ev.ControlMsg != nil:
		return ev.ControlMsg.Type.String()
	case ev.Error != nil:
		return "Error"
	}
	return "Unknown"
}

// formatEvent writes ev as a header line, indented details and a blank line.
func formatEvent(w io.Writer, ev log.Event) {
	layer := ev.Layer.String()
	if ev.Category == log.CategoryControl {
		layer = "CTRL"
	}
	fmt.Fprintf(w, "%s [conn:%s] %s %-3s %s %s\n",
		ev.Timestamp.UTC().Format(timeLayout), shortenConnID(ev.ConnectionID),
		ev.LocalRole, ev.Direction, layer, kindLabel(ev))

	switch {
	case ev.Channel != "" && ev.Path != "":
		fmt.Fprintf(w, "  Channel: %s (%s)\n", ev.Channel, ev.Path)
	case ev.Channel != "":
		fmt.Fprintf(w, "  Channel: %s\n", ev.Channel)
	case ev.Path != "":
		fmt.Fprintf(w, "  Path: %s\n", ev.Path)
	}

	switch {
	case ev.Frame != nil:
		writeFrame(w, ev.Frame)
	case ev.Message != nil:
		writeMessage(w, ev.Message)
	case ev.StateChange != nil:
		writeStateChange(w, ev.StateChange)
	case ev.ControlMsg != nil && ev.ControlMsg.Sequence != 0:
		fmt.Fprintf(w, "  Seq: %d\n", ev.ControlMsg.Sequence)
	case ev.Error != nil:
		writeError(w, ev.Error)
	}
	fmt.Fprintln(w)
}

// shortenConnID keeps the first 8 characters of a connection ID.
func shortenConnID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func writeFrame(w io.Writer, f *log.FrameEvent) {
	fmt.Fprintf(w, "  Size: %d bytes\n", f.Size)
	if len(f.Data) == 0 {
		return
	}
	suffix := ""
	if f.Truncated {
		suffix = " (truncated)"
	}
	fmt.Fprintf(w, "  Data: %s%s\n", hex.EncodeToString(f.Data), suffix)
}

func writeMessage(w io.Writer, m *log.MessageEvent) {
	switch m.Type {
	case log.MessageTypeRequest:
		fmt.Fprintf(w, "  MessageID: %d\n", m.MessageID)
		if m.Operation != nil {
			fmt.Fprintf(w, "  Operation: %s\n", m.Operation)
		}
		if m.Name != "" {
			fmt.Fprintf(w, "  Name: %s\n", m.Name)
		}
	case log.MessageTypeResponse:
		fmt.Fprintf(w, "  MessageID: %d\n", m.MessageID)
		if m.Status != nil {
			fmt.Fprintf(w, "  Status: %s (%d)\n", m.Status, *m.Status)
		}
		if m.ProcessingTime != nil {
			fmt.Fprintf(w, "  Duration: %s\n", formatDuration(*m.ProcessingTime))
		}
	case log.MessageTypeUpdate:
		if m.MonitorID != nil {
			fmt.Fprintf(w, "  MonitorID: %d\n", *m.MonitorID)
		}
	}
	if m.Payload != nil {
		if data, err := json.Marshal(m.Payload); err == nil {
			fmt.Fprintf(w, "  Payload: %s\n", data)
		}
	}
}

func writeStateChange(w io.Writer, sc *log.StateChangeEvent) {
	fmt.Fprintf(w, "  Entity: %s\n", sc.Entity)
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func writeError(w io.Writer, e *log.ErrorEventData) {
	fmt.Fprintf(w, "  Layer: %s\n  Message: %s\n", e.Layer, e.Message)
	if e.Code != nil {
		fmt.Fprintf(w, "  Code: %d\n", *e.Code)
	}
	if e.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", e.Context)
	}
}

// formatDuration prints d with three decimals in us, ms or s.
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%.3fus", float64(d)/float64(time.Microsecond))
	case d < time.Second:
		return fmt.Sprintf("%.3fms", float64(d)/float64(time.Millisecond))
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}
