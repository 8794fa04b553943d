package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/cpswtree/catree/pkg/log"
	"github.com/cpswtree/catree/pkg/wire"
)

// Connection states.
type ConnectionState int

const (
	// StateDisconnected indicates no connection.
	StateDisconnected ConnectionState = iota

	// StateConnecting indicates connection in progress.
	StateConnecting

	// StateConnected indicates an active connection.
	StateConnected

	// StateClosing indicates graceful close in progress.
	StateClosing
)

// String returns the connection state name.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateClosing:
		return "CLOSING"
	default:
		return "UNKNOWN"
	}
}

// Connection errors.
var (
	ErrNotConnected     = errors.New("not connected")
	ErrAlreadyConnected = errors.New("already connected")
	ErrConnectionClosed = errors.New("connection closed")
	ErrCloseTimeout     = errors.New("close timeout")
	ErrKeepAliveTimeout = errors.New("keep-alive timeout")
)

// ConnectionConfig configures a client connection.
type ConnectionConfig struct {
	// MaxMessageSize is the maximum message size (default: 1MB)
	MaxMessageSize uint32

	// KeepAlive configuration. Zero fields take the defaults.
	KeepAlive KeepAliveConfig

	// DisableKeepAlive turns off pinging.
	DisableKeepAlive bool

	// CloseTimeout is the timeout for graceful close (default: 5s)
	CloseTimeout time.Duration

	// WriteTimeout is the timeout for write operations (0 = no timeout)
	WriteTimeout time.Duration

	// ProtocolLogger receives frame, control and state events (optional).
	ProtocolLogger log.Logger
}

// DefaultConnectionConfig returns the default connection configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxMessageSize: DefaultMaxMessageSize,
		KeepAlive:      DefaultKeepAliveConfig(),
		CloseTimeout:   5 * time.Second,
	}
}

// ConnectionHandler handles connection events.
type ConnectionHandler interface {
	// OnMessage is called when a message is received.
	OnMessage(msg []byte)

	// OnStateChange is called when the connection state changes.
	OnStateChange(oldState, newState ConnectionState)

	// OnError is called when an error occurs.
	OnError(err error)
}

// Connection is the client side of a channel server connection. Messages
// are delivered to the handler from a single read goroutine. A Connection
// connects once; reconnecting takes a new Connection.
type Connection struct {
	config  ConnectionConfig
	handler ConnectionHandler
	id      string

	conn      net.Conn
	framer    *Framer
	keepAlive *KeepAlive

	state        atomic.Int32
	readDone     chan struct{}
	teardownOnce sync.Once

	mu      sync.RWMutex
	writeMu sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewConnection creates a new connection (not yet connected).
func NewConnection(config ConnectionConfig, handler ConnectionHandler) *Connection {
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}
	if config.CloseTimeout == 0 {
		config.CloseTimeout = 5 * time.Second
	}

	c := &Connection{
		config:   config,
		handler:  handler,
		id:       uuid.New().String(),
		readDone: make(chan struct{}),
	}
	c.state.Store(int32(StateDisconnected))

	return c
}

// ID returns the connection ID used in protocol logs.
func (c *Connection) ID() string {
	return c.id
}

// State returns the current connection state.
func (c *Connection) State() ConnectionState {
	return ConnectionState(c.state.Load())
}

// Connect establishes a connection to the specified address.
func (c *Connection) Connect(ctx context.Context, address string) error {
	if !c.state.CompareAndSwap(int32(StateDisconnected), int32(StateConnecting)) {
		return ErrAlreadyConnected
	}
	c.notifyStateChange(StateDisconnected, StateConnecting)

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		c.state.Store(int32(StateDisconnected))
		c.notifyStateChange(StateConnecting, StateDisconnected)
		return fmt.Errorf("dial failed: %w", err)
	}

	framer := NewFramer(conn,
		WithMaxMessageSize(c.config.MaxMessageSize),
		WithFrameLog(c.config.ProtocolLogger, c.id, log.RoleClient))

	c.mu.Lock()
	c.conn = conn
	c.framer = framer
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.mu.Unlock()

	c.state.Store(int32(StateConnected))
	c.logState("", "CONNECTED")
	c.notifyStateChange(StateConnecting, StateConnected)

	if !c.config.DisableKeepAlive {
		c.keepAlive = NewKeepAlive(
			c.config.KeepAlive,
			func(seq uint32) error {
				return c.SendControlMessage(wire.ControlPing, seq)
			},
			func() {
				c.handler.OnError(ErrKeepAliveTimeout)
				c.ForceClose()
			},
		)
		go c.keepAlive.Run(c.ctx)
	}

	go c.readLoop()

	return nil
}

// Send sends a message over the connection.
func (c *Connection) Send(data []byte) error {
	if c.State() != StateConnected {
		return ErrNotConnected
	}
	return c.write(data)
}

func (c *Connection) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.RLock()
	framer := c.framer
	conn := c.conn
	c.mu.RUnlock()

	if framer == nil {
		return ErrNotConnected
	}

	if c.config.WriteTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
		defer conn.SetWriteDeadline(time.Time{})
	}

	return framer.WriteFrame(data)
}

// SendControlMessage sends a control message (ping/pong/close).
func (c *Connection) SendControlMessage(msgType wire.ControlMessageType, seq uint32) error {
	if c.State() != StateConnected {
		return ErrNotConnected
	}
	return c.writeControl(msgType, seq)
}

func (c *Connection) writeControl(msgType wire.ControlMessageType, seq uint32) error {
	msg := wire.ControlMessage{Type: msgType, Sequence: seq}

	data, err := wire.EncodeControlMessage(&msg)
	if err != nil {
		return fmt.Errorf("failed to encode control message: %w", err)
	}
	if err := c.write(data); err != nil {
		return err
	}
	c.logControl(&msg, log.DirectionOut)
	return nil
}

// RTT returns the round-trip time of the last answered keep-alive ping.
func (c *Connection) RTT() time.Duration {
	if c.keepAlive == nil {
		return 0
	}
	return c.keepAlive.RTT()
}

// Close gracefully closes the connection.
func (c *Connection) Close() error {
	return c.CloseWithTimeout(c.config.CloseTimeout)
}

// CloseWithTimeout sends a close message and waits up to timeout for the
// peer to acknowledge it before tearing the connection down.
func (c *Connection) CloseWithTimeout(timeout time.Duration) error {
	if !c.state.CompareAndSwap(int32(StateConnected), int32(StateClosing)) {
		c.teardown()
		return nil
	}
	c.notifyStateChange(StateConnected, StateClosing)

	var closeErr error
	if err := c.writeControl(wire.ControlClose, 0); err == nil {
		select {
		case <-c.readDone:
		case <-time.After(timeout):
			closeErr = ErrCloseTimeout
		}
	}

	c.teardown()
	return closeErr
}

// ForceClose immediately closes the connection without graceful handshake.
func (c *Connection) ForceClose() {
	c.teardown()
}

func (c *Connection) teardown() {
	c.teardownOnce.Do(func() {
		old := ConnectionState(c.state.Swap(int32(StateDisconnected)))

		c.mu.Lock()
		if c.cancel != nil {
			c.cancel()
		}
		if c.conn != nil {
			c.conn.Close()
		}
		c.framer = nil
		c.mu.Unlock()

		if old != StateDisconnected {
			c.logState(old.String(), "DISCONNECTED")
			c.notifyStateChange(old, StateDisconnected)
		}
	})
}

// LocalAddr returns the local network address.
func (c *Connection) LocalAddr() net.Addr {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.conn != nil {
		return c.conn.LocalAddr()
	}
	return nil
}

// RemoteAddr returns the remote network address.
func (c *Connection) RemoteAddr() net.Addr {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.conn != nil {
		return c.conn.RemoteAddr()
	}
	return nil
}

// readLoop reads messages from the connection.
func (c *Connection) readLoop() {
	defer close(c.readDone)

	c.mu.RLock()
	framer := c.framer
	ctx := c.ctx
	c.mu.RUnlock()

	for {
		data, err := framer.ReadFrame()
		if err != nil {
			if c.State() == StateClosing || ctx.Err() != nil {
				return
			}
			c.handler.OnError(fmt.Errorf("read error: %w", err))
			c.teardown()
			return
		}

		if mt, err := wire.PeekMessageType(data); err == nil && mt == wire.MessageTypeControl {
			if msg, err := wire.DecodeControlMessage(data); err == nil {
				if c.handleControlMessage(msg) {
					return
				}
				continue
			}
		}

		c.handler.OnMessage(data)
	}
}

// handleControlMessage processes a control message and reports whether the
// read loop must stop.
func (c *Connection) handleControlMessage(msg *wire.ControlMessage) bool {
	c.logControl(msg, log.DirectionIn)

	switch msg.Type {
	case wire.ControlPing:
		c.SendControlMessage(wire.ControlPong, msg.Sequence)

	case wire.ControlPong:
		if c.keepAlive != nil {
			c.keepAlive.Pong(msg.Sequence)
		}

	case wire.ControlClose:
		if c.State() == StateClosing {
			// Our close was acknowledged.
			return true
		}
		c.writeControl(wire.ControlClose, 0)
		c.teardown()
		return true
	}
	return false
}

// notifyStateChange notifies the handler of state changes.
func (c *Connection) notifyStateChange(oldState, newState ConnectionState) {
	if c.handler != nil {
		c.handler.OnStateChange(oldState, newState)
	}
}

func (c *Connection) logState(oldState, newState string) {
	c.log(log.Event{
		Category: log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityConnection,
			OldState: oldState,
			NewState: newState,
		},
	})
}

func (c *Connection) logControl(msg *wire.ControlMessage, direction log.Direction) {
	c.log(log.Event{
		Direction:  direction,
		Category:   log.CategoryControl,
		ControlMsg: log.ControlEvent(msg),
	})
}

func (c *Connection) log(ev log.Event) {
	if c.config.ProtocolLogger == nil {
		return
	}
	ev.Timestamp = time.Now()
	ev.ConnectionID = c.id
	ev.Layer = log.LayerTransport
	ev.LocalRole = log.RoleClient
	if addr := c.RemoteAddr(); addr != nil {
		ev.RemoteAddr = addr.String()
	}
	c.config.ProtocolLogger.Log(ev)
}
