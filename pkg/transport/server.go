package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/cpswtree/catree/pkg/log"
	"github.com/cpswtree/catree/pkg/wire"
)

// DefaultPort is the default channel server port.
const DefaultPort = 5064

// ServerConfig configures a channel server listener.
type ServerConfig struct {
	// Address to listen on (e.g., ":5064" or "127.0.0.1:0").
	Address string

	// MaxMessageSize is the maximum message size (default: 1MB).
	MaxMessageSize uint32

	// Logger for protocol logging (optional).
	Logger log.Logger

	// OnConnect is called when a new connection is established.
	OnConnect func(conn *ServerConn)

	// OnDisconnect is called when a connection is closed.
	OnDisconnect func(conn *ServerConn)

	// OnMessage is called from the connection's read goroutine for every
	// non-control message.
	OnMessage func(conn *ServerConn, msg []byte)

	// OnError is called when an error occurs.
	OnError func(conn *ServerConn, err error)
}

// Server accepts TCP connections from channel clients.
type Server struct {
	config   ServerConfig
	listener net.Listener

	// Active connections
	conns   map[*ServerConn]struct{}
	connsMu sync.RWMutex

	// State
	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewServer creates a new server.
func NewServer(config ServerConfig) *Server {
	if config.Address == "" {
		config.Address = fmt.Sprintf(":%d", DefaultPort)
	}
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}

	return &Server{
		config: config,
		conns:  make(map[*ServerConn]struct{}),
	}
}

// Start starts the server and begins accepting connections.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return fmt.Errorf("server already running")
	}

	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = listener
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.running.Store(true)

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// Stop stops the server and closes all connections.
func (s *Server) Stop() error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	s.cancel()
	s.listener.Close()

	s.connsMu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.connsMu.Unlock()

	s.wg.Wait()

	return nil
}

// Addr returns the server's listen address.
func (s *Server) Addr() net.Addr {
	if s.listener != nil {
		return s.listener.Addr()
	}
	return nil
}

// ConnectionCount returns the number of active connections.
func (s *Server) ConnectionCount() int {
	s.connsMu.RLock()
	defer s.connsMu.RUnlock()
	return len(s.conns)
}

// acceptLoop accepts incoming connections.
func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			if s.config.OnError != nil {
				s.config.OnError(nil, fmt.Errorf("accept error: %w", err))
			}
			continue
		}

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

// handleConnection processes a single connection.
func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()

	connID := uuid.New().String()

	framer := NewFramer(conn,
		WithMaxMessageSize(s.config.MaxMessageSize),
		WithFrameLog(s.config.Logger, connID, log.RoleServer))

	sconn := &ServerConn{
		conn:       conn,
		framer:     framer,
		server:     s,
		closeCh:    make(chan struct{}),
		remoteAddr: conn.RemoteAddr(),
		connID:     connID,
	}

	s.connsMu.Lock()
	if !s.running.Load() {
		s.connsMu.Unlock()
		conn.Close()
		return
	}
	s.conns[sconn] = struct{}{}
	s.connsMu.Unlock()

	sconn.logState("", "CONNECTED")
	if s.config.OnConnect != nil {
		s.config.OnConnect(sconn)
	}

	sconn.readLoop()
	sconn.Close()

	s.connsMu.Lock()
	delete(s.conns, sconn)
	s.connsMu.Unlock()

	sconn.logState("CONNECTED", "DISCONNECTED")
	if s.config.OnDisconnect != nil {
		s.config.OnDisconnect(sconn)
	}
}

// ServerConn represents a client connection to the server.
type ServerConn struct {
	conn       net.Conn
	framer     *Framer
	server     *Server
	closeCh    chan struct{}
	closeOnce  sync.Once
	remoteAddr net.Addr
	connID     string
}

// RemoteAddr returns the remote address of the client.
func (c *ServerConn) RemoteAddr() net.Addr {
	return c.remoteAddr
}

// ConnID returns the unique connection identifier.
func (c *ServerConn) ConnID() string {
	return c.connID
}

// Send sends a message to the client. The framer serializes concurrent
// writers.
func (c *ServerConn) Send(data []byte) error {
	select {
	case <-c.closeCh:
		return ErrConnectionClosed
	default:
	}
	return c.framer.WriteFrame(data)
}

// Done is closed when the connection is closed.
func (c *ServerConn) Done() <-chan struct{} {
	return c.closeCh
}

// Close closes the connection.
func (c *ServerConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		err = c.conn.Close()
	})
	return err
}

// readLoop reads messages until the connection fails or is closed.
func (c *ServerConn) readLoop() {
	for {
		data, err := c.framer.ReadFrame()
		if err != nil {
			select {
			case <-c.closeCh:
				// Already closing, don't report
			default:
				if !errors.Is(err, io.EOF) && c.server.config.OnError != nil && c.server.running.Load() {
					c.server.config.OnError(c, err)
				}
			}
			return
		}

		// Requests and control messages are told apart by their
		// discriminating keys, never by trial decoding.
		msgType, peekErr := wire.PeekMessageType(data)
		if peekErr == nil && msgType == wire.MessageTypeControl {
			if ctrlMsg, err := wire.DecodeControlMessage(data); err == nil {
				if c.handleControlMessage(ctrlMsg) {
					return
				}
				continue
			}
		}

		if c.server.config.OnMessage != nil {
			c.server.config.OnMessage(c, data)
		}
	}
}

// handleControlMessage answers pings and close requests. It reports whether
// the connection is done.
func (c *ServerConn) handleControlMessage(msg *wire.ControlMessage) bool {
	c.logControl(msg, log.DirectionIn)

	switch msg.Type {
	case wire.ControlPing:
		c.sendControl(&wire.ControlMessage{Type: wire.ControlPong, Sequence: msg.Sequence})

	case wire.ControlClose:
		// Peer initiated close - acknowledge and close
		c.sendControl(&wire.ControlMessage{Type: wire.ControlClose})
		return true
	}
	return false
}

func (c *ServerConn) sendControl(msg *wire.ControlMessage) {
	data, err := wire.EncodeControlMessage(msg)
	if err != nil {
		return
	}
	if c.Send(data) == nil {
		c.logControl(msg, log.DirectionOut)
	}
}

func (c *ServerConn) logState(oldState, newState string) {
	c.log(log.Event{
		Category: log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityConnection,
			OldState: oldState,
			NewState: newState,
		},
	})
}

func (c *ServerConn) logControl(msg *wire.ControlMessage, direction log.Direction) {
	c.log(log.Event{
		Direction:  direction,
		Category:   log.CategoryControl,
		ControlMsg: log.ControlEvent(msg),
	})
}

func (c *ServerConn) log(ev log.Event) {
	if c.server.config.Logger == nil {
		return
	}
	ev.Timestamp = time.Now()
	ev.ConnectionID = c.connID
	ev.Layer = log.LayerTransport
	ev.LocalRole = log.RoleServer
	ev.RemoteAddr = c.remoteAddr.String()
	c.server.config.Logger.Log(ev)
}
