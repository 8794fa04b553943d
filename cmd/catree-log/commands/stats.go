package commands

import (
	"fmt"
	"io"
	"slices"
	"sort"
	"time"

	"github.com/cpswtree/catree/pkg/log"
	"github.com/cpswtree/catree/pkg/wire"
)

// Stats aggregates a capture.
type Stats struct {
	TotalEvents       int
	Start, End        time.Time
	EventsByLayer     map[log.Layer]int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	Operations        map[wire.Operation]int
	Failures          map[wire.Status]int
	Connections       map[string]*ConnectionStats
	Channels          map[string]*ChannelStats
	Errors            int

	// pending maps a connection's request IDs to channel names until the
	// response arrives. monitors maps a connection's monitor IDs, which are
	// the IDs of the Monitor requests, to channel names.
	pending  map[string]map[uint32]pendingRequest
	monitors map[string]map[uint32]string
}

type pendingRequest struct {
	name string
	op   wire.Operation
}

// ConnectionStats describes one connection.
type ConnectionStats struct {
	FirstSeen  time.Time
	LastSeen   time.Time
	Events     int
	Role       log.Role
	RemoteAddr string
}

// ChannelStats describes the traffic of one channel.
type ChannelStats struct {
	Path        string
	Connects    int
	Disconnects int
	Requests    map[wire.Operation]int
	Failures    int
	Updates     int
}

func newStats() *Stats {
	return &Stats{
		EventsByLayer:     map[log.Layer]int{},
		EventsByCategory:  map[log.Category]int{},
		EventsByDirection: map[log.Direction]int{},
		Operations:        map[wire.Operation]int{},
		Failures:          map[wire.Status]int{},
		Connections:       map[string]*ConnectionStats{},
		Channels:          map[string]*ChannelStats{},
		pending:           map[string]map[uint32]pendingRequest{},
		monitors:          map[string]map[uint32]string{},
	}
}

func (s *Stats) channel(name string) *ChannelStats {
	ch, ok := s.Channels[name]
	if !ok {
		ch = &ChannelStats{Requests: map[wire.Operation]int{}}
		s.Channels[name] = ch
	}
	return ch
}

func (s *Stats) add(ev log.Event) {
	s.TotalEvents++
	s.EventsByLayer[ev.Layer]++
	s.EventsByCategory[ev.Category]++
	s.EventsByDirection[ev.Direction]++
	if s.Start.IsZero() || ev.Timestamp.Before(s.Start) {
		s.Start = ev.Timestamp
	}
	if ev.Timestamp.After(s.End) {
		s.End = ev.Timestamp
	}

	conn, ok := s.Connections[ev.ConnectionID]
	if !ok {
		conn = &ConnectionStats{FirstSeen: ev.Timestamp, LastSeen: ev.Timestamp, Role: ev.LocalRole}
		s.Connections[ev.ConnectionID] = conn
	}
	conn.Events++
	if ev.Timestamp.After(conn.LastSeen) {
		conn.LastSeen = ev.Timestamp
	}
	if conn.RemoteAddr == "" {
		conn.RemoteAddr = ev.RemoteAddr
	}

	switch {
	case ev.Message != nil:
		s.addMessage(ev.ConnectionID, ev.Message)
	case ev.StateChange != nil && ev.StateChange.Entity == log.StateEntityChannel && ev.Channel != "":
		ch := s.channel(ev.Channel)
		if ev.Path != "" {
			ch.Path = ev.Path
		}
		switch ev.StateChange.NewState {
		case "CONNECTED":
			ch.Connects++
		case "DISCONNECTED":
			ch.Disconnects++
		}
	case ev.Error != nil:
		s.Errors++
	}
}

func (s *Stats) addMessage(connID string, m *log.MessageEvent) {
	switch m.Type {
	case log.MessageTypeRequest:
		if m.Operation == nil {
			return
		}
		s.Operations[*m.Operation]++
		if m.Name == "" {
			return
		}
		s.channel(m.Name).Requests[*m.Operation]++
		if s.pending[connID] == nil {
			s.pending[connID] = map[uint32]pendingRequest{}
		}
		s.pending[connID][m.MessageID] = pendingRequest{name: m.Name, op: *m.Operation}

	case log.MessageTypeResponse:
		req, ok := s.pending[connID][m.MessageID]
		delete(s.pending[connID], m.MessageID)
		failed := m.Status != nil && *m.Status != wire.StatusSuccess
		if failed {
			s.Failures[*m.Status]++
		}
		if !ok {
			return
		}
		if failed {
			s.channel(req.name).Failures++
			return
		}
		if req.op == wire.OpMonitor {
			if s.monitors[connID] == nil {
				s.monitors[connID] = map[uint32]string{}
			}
			s.monitors[connID][m.MessageID] = req.name
		}

	case log.MessageTypeUpdate:
		if m.MonitorID == nil {
			return
		}
		if name, ok := s.monitors[connID][*m.MonitorID]; ok {
			s.channel(name).Updates++
		}
	}
}

// RunStats prints statistics of the selected events of the capture at path.
func RunStats(path string, opts FilterOptions, w io.Writer) error {
	stats := newStats()
	err := each(path, opts, func(ev log.Event) error {
		stats.add(ev)
		return nil
	})
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func printCounts[K comparable](w io.Writer, title string, keys []K, counts map[K]int, name func(K) string) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintln(w, title)
	for _, k := range keys {
		if n := counts[k]; n > 0 {
			fmt.Fprintf(w, "  %-16s %d\n", name(k)+":", n)
		}
	}
	fmt.Fprintln(w)
}

func printStats(w io.Writer, s *Stats) {
	fmt.Fprintln(w, "=== Channel Access Log Statistics ===")
	fmt.Fprintln(w)
	if s.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n", s.Start.Format(time.RFC3339), s.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n\n", s.End.Sub(s.Start).Round(time.Second))
	}
	fmt.Fprintf(w, "Total Events: %d\n\n", s.TotalEvents)

	printCounts(w, "Events by Layer:", []log.Layer{log.LayerTransport, log.LayerWire, log.LayerChannel},
		s.EventsByLayer, log.Layer.String)
	printCounts(w, "Events by Category:", []log.Category{log.CategoryMessage, log.CategoryControl, log.CategoryState, log.CategoryError},
		s.EventsByCategory, log.Category.String)
	printCounts(w, "Events by Direction:", []log.Direction{log.DirectionIn, log.DirectionOut},
		s.EventsByDirection, log.Direction.String)

	ops := []wire.Operation{wire.OpHello, wire.OpSearch, wire.OpGet, wire.OpPut, wire.OpMonitor, wire.OpCancel}
	printCounts(w, "Requests by Operation:", ops, s.Operations, wire.Operation.String)

	statuses := make([]wire.Status, 0, len(s.Failures))
	for st := range s.Failures {
		statuses = append(statuses, st)
	}
	slices.Sort(statuses)
	printCounts(w, "Failed Responses:", statuses, s.Failures, wire.Status.String)

	fmt.Fprintf(w, "Connections: %d\n", len(s.Connections))
	ids := make([]string, 0, len(s.Connections))
	for id := range s.Connections {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return s.Connections[ids[i]].FirstSeen.Before(s.Connections[ids[j]].FirstSeen)
	})
	for _, id := range ids {
		c := s.Connections[id]
		fmt.Fprintf(w, "  [%s] %s %d events, duration %s\n",
			shortenConnID(id), c.Role, c.Events, c.LastSeen.Sub(c.FirstSeen).Round(time.Millisecond))
		if c.RemoteAddr != "" {
			fmt.Fprintf(w, "           Peer: %s\n", c.RemoteAddr)
		}
	}

	if len(s.Channels) > 0 {
		fmt.Fprintf(w, "\nChannels: %d\n", len(s.Channels))
		names := make([]string, 0, len(s.Channels))
		for name := range s.Channels {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			ch := s.Channels[name]
			fmt.Fprintf(w, "  %s connects=%d disconnects=%d", name, ch.Connects, ch.Disconnects)
			for _, op := range ops {
				if n := ch.Requests[op]; n > 0 {
					fmt.Fprintf(w, " %s=%d", op, n)
				}
			}
			if ch.Updates > 0 {
				fmt.Fprintf(w, " updates=%d", ch.Updates)
			}
			if ch.Failures > 0 {
				fmt.Fprintf(w, " failures=%d", ch.Failures)
			}
			if ch.Path != "" {
				fmt.Fprintf(w, " %s", ch.Path)
			}
			fmt.Fprintln(w)
		}
	}

	if s.Errors > 0 {
		fmt.Fprintf(w, "\nErrors: %d\n", s.Errors)
	}
}
