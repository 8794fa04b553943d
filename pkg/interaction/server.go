package interaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cpswtree/catree/pkg/softioc"
	"github.com/cpswtree/catree/pkg/version"
	"github.com/cpswtree/catree/pkg/wire"
)

// ServerConfig configures a session server.
type ServerConfig struct {
	// Name identifies the server in Hello responses.
	Name string

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger
}

// Server answers the requests of one client session from a Database.
// Monitors are session-scoped: Close cancels all of them.
type Server struct {
	db     *softioc.Database
	config ServerConfig

	mu       sync.Mutex
	monitors map[uint32]func()
	peer     string
	closed   bool

	queue *updateQueue
}

// NewServer creates a session server for db. Updates of the session's
// monitors are passed to handler from a single goroutine, in order per
// monitor.
func NewServer(db *softioc.Database, config ServerConfig, handler UpdateHandler) *Server {
	return &Server{
		db:       db,
		config:   config,
		monitors: make(map[uint32]func()),
		queue:    newUpdateQueue(handler),
	}
}

// HandleRequest processes an incoming request and returns a response.
func (s *Server) HandleRequest(ctx context.Context, req *wire.Request) *wire.Response {
	if err := req.Validate(); err != nil {
		return wire.NewErrorResponse(req.MessageID, wire.StatusInvalidValue, err.Error())
	}

	switch req.Operation {
	case wire.OpHello:
		return s.handleHello(req)
	case wire.OpSearch:
		return s.handleSearch(req)
	case wire.OpGet:
		return s.handleGet(req)
	case wire.OpPut:
		return s.handlePut(req)
	case wire.OpMonitor:
		return s.handleMonitor(req)
	case wire.OpCancel:
		return s.handleCancel(req)
	default:
		return wire.NewErrorResponse(req.MessageID, wire.StatusUnsupported, "unknown operation")
	}
}

// PeerVersion returns the protocol version announced in Hello.
func (s *Server) PeerVersion() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peer
}

// MonitorCount returns the number of active monitors.
func (s *Server) MonitorCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.monitors)
}

// Close cancels every monitor and stops update delivery.
func (s *Server) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	monitors := s.monitors
	s.monitors = make(map[uint32]func())
	s.mu.Unlock()

	for _, cancel := range monitors {
		cancel()
	}
	s.queue.close()
}

func (s *Server) handleHello(req *wire.Request) *wire.Response {
	if err := version.Check(req.Version); err != nil {
		return wire.NewErrorResponse(req.MessageID, wire.StatusIncompatible, err.Error())
	}

	s.mu.Lock()
	s.peer = req.Version
	s.mu.Unlock()

	return s.respond(req, &wire.HelloPayload{
		Version:      version.Current,
		RecordPrefix: s.db.Namer().RecordPrefix,
		Server:       s.config.Name,
	})
}

func (s *Server) handleSearch(req *wire.Request) *wire.Response {
	rec, err := s.db.Lookup(req.Name)
	if err != nil {
		return errorResponse(req.MessageID, err)
	}
	info := rec.Info()
	return s.respond(req, &wire.SearchPayload{
		Type:     info.Type,
		Count:    info.Count,
		EnumStrs: info.EnumStrs,
		Path:     rec.Node().String(),
		Kind:     rec.Kind().String(),
	})
}

func (s *Server) handleGet(req *wire.Request) *wire.Response {
	rec, err := s.db.Lookup(req.Name)
	if err != nil {
		return errorResponse(req.MessageID, err)
	}
	snap := wireSnapshot(rec.Snapshot(req.Form))
	return s.respond(req, &snap)
}

func (s *Server) handlePut(req *wire.Request) *wire.Response {
	rec, err := s.db.Lookup(req.Name)
	if err != nil {
		return errorResponse(req.MessageID, err)
	}
	if err := rec.Put(req.Value, req.Range.PutOptions()); err != nil {
		s.debug("put rejected", "name", req.Name, "path", rec.Node().String(), "error", err)
		return errorResponse(req.MessageID, err)
	}
	return s.respond(req, nil)
}

// handleMonitor starts a monitor identified by the request's message ID.
// The first update carries the current value.
func (s *Server) handleMonitor(req *wire.Request) *wire.Response {
	rec, err := s.db.Lookup(req.Name)
	if err != nil {
		return errorResponse(req.MessageID, err)
	}

	id := req.MessageID
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return wire.NewErrorResponse(id, wire.StatusInternal, "session closed")
	}
	if _, dup := s.monitors[id]; dup {
		s.mu.Unlock()
		return wire.NewErrorResponse(id, wire.StatusInvalidValue, fmt.Sprintf("monitor %d already active", id))
	}
	// Reserve the ID so a concurrent duplicate is rejected.
	s.monitors[id] = func() {}
	s.mu.Unlock()

	cancel := rec.Monitor(req.Form, func(snap softioc.Snapshot) {
		s.queue.push(id, wireSnapshot(snap))
	})

	s.mu.Lock()
	if _, reserved := s.monitors[id]; s.closed || !reserved {
		s.mu.Unlock()
		cancel()
		s.queue.drop(id)
		return wire.NewErrorResponse(id, wire.StatusInternal, "session closed")
	}
	s.monitors[id] = cancel
	s.mu.Unlock()

	s.debug("monitor started", "id", id, "name", req.Name, "path", rec.Node().String())
	return s.respond(req, nil)
}

func (s *Server) handleCancel(req *wire.Request) *wire.Response {
	s.mu.Lock()
	cancel, ok := s.monitors[req.Target]
	delete(s.monitors, req.Target)
	s.mu.Unlock()

	if !ok {
		return wire.NewErrorResponse(req.MessageID, wire.StatusNoSuchMonitor,
			fmt.Sprintf("monitor %d not found", req.Target))
	}
	cancel()
	s.queue.drop(req.Target)
	s.debug("monitor cancelled", "id", req.Target)
	return s.respond(req, nil)
}

func (s *Server) respond(req *wire.Request, payload any) *wire.Response {
	resp, err := wire.NewResponse(req.MessageID, wire.StatusSuccess, payload)
	if err != nil {
		return wire.NewErrorResponse(req.MessageID, wire.StatusInternal, err.Error())
	}
	return resp
}

func (s *Server) debug(msg string, args ...any) {
	if s.config.Logger != nil {
		s.config.Logger.Debug(msg, args...)
	}
}

// errorResponse maps a database error to a failure response.
func errorResponse(messageID uint32, err error) *wire.Response {
	return wire.NewErrorResponse(messageID, StatusFor(err), err.Error())
}

// StatusFor returns the response status reporting err.
func StatusFor(err error) wire.Status {
	switch {
	case err == nil:
		return wire.StatusSuccess
	case errors.Is(err, softioc.ErrNoRecord):
		return wire.StatusNoSuchChannel
	case errors.Is(err, softioc.ErrReadOnly):
		return wire.StatusReadOnly
	case errors.Is(err, softioc.ErrBadValue):
		return wire.StatusInvalidValue
	case errors.Is(err, softioc.ErrOutOfRange):
		return wire.StatusOutOfRange
	case errors.Is(err, softioc.ErrBadIndex):
		return wire.StatusBadIndex
	default:
		return wire.StatusInternal
	}
}

func wireSnapshot(s softioc.Snapshot) wire.Snapshot {
	ws := wire.Snapshot{
		Value:     s.Value,
		CharValue: s.CharValue,
		Status:    s.Status,
		Severity:  s.Severity,
	}
	if !s.Timestamp.IsZero() {
		ws.Timestamp = s.Timestamp.UnixNano()
	}
	return ws
}
