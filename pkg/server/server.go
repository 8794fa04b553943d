package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/cpswtree/catree/pkg/interaction"
	"github.com/cpswtree/catree/pkg/log"
	"github.com/cpswtree/catree/pkg/softioc"
	"github.com/cpswtree/catree/pkg/transport"
	"github.com/cpswtree/catree/pkg/wire"
)

// ErrNotRunning is returned by Addr before Start.
var ErrNotRunning = errors.New("server not running")

// Config configures an IOC server.
type Config struct {
	// Address to listen on (default ":5064").
	Address string

	// Name identifies the server in Hello responses.
	Name string

	// MaxMessageSize is the maximum message size (default: 1MB).
	MaxMessageSize uint32

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// ProtocolLogger receives decoded protocol events (optional).
	ProtocolLogger log.Logger
}

// Server serves the records of a Database to network clients. Every
// connection is a session with its own monitors.
type Server struct {
	db        *softioc.Database
	config    Config
	transport *transport.Server

	mu       sync.Mutex
	sessions map[*transport.ServerConn]*session
}

// session binds a connection to its request handler.
type session struct {
	conn    *transport.ServerConn
	handler *interaction.Server
	server  *Server
}

// New creates a server for db.
func New(db *softioc.Database, config Config) *Server {
	s := &Server{
		db:       db,
		config:   config,
		sessions: make(map[*transport.ServerConn]*session),
	}
	s.transport = transport.NewServer(transport.ServerConfig{
		Address:        config.Address,
		MaxMessageSize: config.MaxMessageSize,
		Logger:         config.ProtocolLogger,
		OnConnect:      s.handleConnect,
		OnDisconnect:   s.handleDisconnect,
		OnMessage:      s.handleMessage,
		OnError: func(conn *transport.ServerConn, err error) {
			s.debug("connection error", "conn", conn.ConnID(), "error", err)
		},
	})
	return s
}

// Start begins accepting connections.
func (s *Server) Start(ctx context.Context) error {
	if err := s.transport.Start(ctx); err != nil {
		return err
	}
	s.debug("ioc listening", "addr", s.transport.Addr().String(), "records", s.db.Len())
	return nil
}

// Stop closes the listener and every session.
func (s *Server) Stop() error {
	return s.transport.Stop()
}

// Addr returns the listen address.
func (s *Server) Addr() (net.Addr, error) {
	addr := s.transport.Addr()
	if addr == nil {
		return nil, ErrNotRunning
	}
	return addr, nil
}

// SessionCount returns the number of connected clients.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) handleConnect(conn *transport.ServerConn) {
	sess := &session{conn: conn, server: s}
	sess.handler = interaction.NewServer(s.db, interaction.ServerConfig{
		Name:   s.config.Name,
		Logger: s.config.Logger,
	}, sess.sendUpdate)

	s.mu.Lock()
	s.sessions[conn] = sess
	s.mu.Unlock()

	s.debug("session opened", "conn", conn.ConnID(), "remote", conn.RemoteAddr().String())
}

func (s *Server) handleDisconnect(conn *transport.ServerConn) {
	s.mu.Lock()
	sess, ok := s.sessions[conn]
	delete(s.sessions, conn)
	s.mu.Unlock()

	if ok {
		sess.handler.Close()
		s.debug("session closed", "conn", conn.ConnID())
	}
}

func (s *Server) handleMessage(conn *transport.ServerConn, data []byte) {
	s.mu.Lock()
	sess := s.sessions[conn]
	s.mu.Unlock()
	if sess == nil {
		return
	}
	sess.handleRequest(data)
}

func (s *Server) debug(msg string, args ...any) {
	if s.config.Logger != nil {
		s.config.Logger.Debug(msg, args...)
	}
}

// handleRequest decodes, answers and logs one request.
func (sess *session) handleRequest(data []byte) {
	start := time.Now()

	req, err := wire.DecodeRequest(data)
	if err != nil {
		sess.logError("decode request", err)
		// The message ID is unknown; nothing can be correlated.
		return
	}
	sess.logMessage(log.DirectionIn, req.Name, log.RequestEvent(req))

	resp := sess.handler.HandleRequest(context.Background(), req)

	out, err := wire.EncodeResponse(resp)
	if err != nil {
		sess.logError("encode response", err)
		return
	}
	if err := sess.conn.Send(out); err != nil {
		sess.server.debug("send response failed", "conn", sess.conn.ConnID(), "error", err)
		return
	}
	sess.logMessage(log.DirectionOut, req.Name, log.ResponseEvent(resp, time.Since(start)))
}

// sendUpdate runs on the session's update goroutine.
func (sess *session) sendUpdate(u *wire.Update) {
	data, err := wire.EncodeUpdate(u)
	if err != nil {
		sess.logError("encode update", err)
		return
	}
	if err := sess.conn.Send(data); err != nil {
		return
	}
	sess.logMessage(log.DirectionOut, "", log.UpdateEvent(u))
}

func (sess *session) logMessage(dir log.Direction, channel string, msg *log.MessageEvent) {
	sess.log(log.Event{
		Direction: dir,
		Layer:     log.LayerWire,
		Category:  log.CategoryMessage,
		Channel:   channel,
		Message:   msg,
	})
}

func (sess *session) logError(op string, err error) {
	sess.server.debug("protocol error", "conn", sess.conn.ConnID(), "op", op, "error", err)
	sess.log(log.Event{
		Layer:    log.LayerWire,
		Category: log.CategoryError,
		Error: &log.ErrorEventData{
			Layer:   log.LayerWire,
			Message: err.Error(),
			Context: op,
		},
	})
}

func (sess *session) log(ev log.Event) {
	logger := sess.server.config.ProtocolLogger
	if logger == nil {
		return
	}
	ev.Timestamp = time.Now()
	ev.ConnectionID = sess.conn.ConnID()
	ev.LocalRole = log.RoleServer
	ev.RemoteAddr = sess.conn.RemoteAddr().String()
	logger.Log(ev)
}
