package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cpswtree/catree/pkg/ca"
	"github.com/cpswtree/catree/pkg/connection"
	"github.com/cpswtree/catree/pkg/interaction"
	"github.com/cpswtree/catree/pkg/log"
	"github.com/cpswtree/catree/pkg/transport"
	"github.com/cpswtree/catree/pkg/wire"
)

// Defaults for Config.
const (
	DefaultConnectTimeout = 5 * time.Second
	DefaultRequestTimeout = 5 * time.Second
)

// Config configures a network client.
type Config struct {
	// Address of the IOC (host:port).
	Address string

	// ConnectTimeout bounds one connection attempt including the Hello
	// exchange (default 5s).
	ConnectTimeout time.Duration

	// RequestTimeout bounds searches, monitors and puts (default 5s).
	RequestTimeout time.Duration

	// Backoff between reconnection attempts.
	Backoff connection.BackoffConfig

	// Transport configures keep-alive and message limits.
	Transport transport.ConnectionConfig

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// ProtocolLogger receives decoded protocol events (optional).
	ProtocolLogger log.Logger
}

// Client is a ca.Client talking to one IOC over TCP. It connects in the
// background and reconnects with backoff; channels reconnect with it.
// Put waits for the server's answer.
type Client struct {
	config     Config
	dispatcher *ca.Dispatcher
	manager    *connection.Manager

	mu       sync.Mutex
	sess     *session
	channels map[chanKey]*ca.Channel
	closed   bool
}

type chanKey struct {
	name string
	form ca.Form
}

// Compile-time interface satisfaction checks.
var (
	_ ca.Client  = (*Client)(nil)
	_ ca.Backend = (*Client)(nil)
)

// New creates a client of the IOC at config.Address and starts connecting.
func New(config Config) *Client {
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = DefaultConnectTimeout
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = DefaultRequestTimeout
	}
	if config.Transport.ProtocolLogger == nil {
		config.Transport.ProtocolLogger = config.ProtocolLogger
	}

	c := &Client{
		config:     config,
		dispatcher: ca.NewDispatcher(),
		channels:   make(map[chanKey]*ca.Channel),
	}
	c.manager = connection.NewManager(c.connect, connection.ManagerConfig{
		Backoff:        config.Backoff,
		ConnectTimeout: config.ConnectTimeout,
		Logger:         config.Logger,
	})
	c.manager.OnConnected(c.handleConnected)
	c.manager.OnReconnecting(func(attempt int, delay time.Duration) {
		c.debug("reconnecting", "addr", config.Address, "attempt", attempt, "delay", delay)
	})
	c.manager.Start()
	return c
}

// Connected reports whether a session with the IOC is up.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess != nil
}

// GetPV returns the channel for name in the given form, creating it on first
// use. It waits at most connTimeout for the channel to connect.
func (c *Client) GetPV(name string, form ca.Form, connTimeout time.Duration) ca.PV {
	key := chanKey{name: name, form: form}

	c.mu.Lock()
	ch, ok := c.channels[key]
	var sess *session
	if !ok {
		ch = ca.NewChannel(name, form, c, c.dispatcher)
		c.channels[key] = ch
		if !c.closed {
			sess = c.sess
		}
	}
	c.mu.Unlock()

	if sess != nil {
		go c.attach(sess, ch)
	}

	if connTimeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), connTimeout)
		defer cancel()
		_ = ch.WaitConnected(ctx)
	}
	return ch
}

// Put writes to the record behind ch and waits for the server to apply it.
// Rejections are reported as ca.ErrPutFailed wrapping the *wire.StatusError.
func (c *Client) Put(ch *ca.Channel, value any, opts ca.PutOptions) error {
	c.mu.Lock()
	sess := c.sess
	c.mu.Unlock()
	if sess == nil {
		return ca.ErrNotConnected
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.config.RequestTimeout)
	defer cancel()

	err := sess.ic.Put(ctx, ch.Name(), value, opts)
	var se *wire.StatusError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &se):
		return fmt.Errorf("%w: %s: %w", ca.ErrPutFailed, ch.Name(), err)
	case errors.Is(err, interaction.ErrClientClosed), errors.Is(err, transport.ErrNotConnected):
		return ca.ErrNotConnected
	default:
		return err
	}
}

// Close disconnects every channel, stops reconnecting and stops callback
// delivery.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	sess := c.sess
	c.sess = nil
	channels := make([]*ca.Channel, 0, len(c.channels))
	for _, ch := range c.channels {
		channels = append(channels, ch)
	}
	c.mu.Unlock()

	c.manager.Close()
	if sess != nil {
		sess.close()
	}
	for _, ch := range channels {
		ch.SetDisconnected()
	}
	c.dispatcher.Close()
	return nil
}

// connect is the manager's ConnectFunc: dial, Hello, then attach channels.
func (c *Client) connect(ctx context.Context) error {
	sess := newSession(c)
	if err := sess.conn.Connect(ctx, c.config.Address); err != nil {
		return err
	}

	hello, err := sess.ic.Hello(ctx)
	if err != nil {
		sess.close()
		return fmt.Errorf("hello: %w", err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		sess.close()
		return ca.ErrClosed
	}
	c.sess = sess
	channels := make([]*ca.Channel, 0, len(c.channels))
	for _, ch := range c.channels {
		channels = append(channels, ch)
	}
	c.mu.Unlock()

	if sess.conn.State() != transport.StateConnected {
		// Dropped before it was published; lost ignored it then.
		c.lost(sess)
		return nil
	}

	c.debug("session up", "addr", c.config.Address, "conn", sess.conn.ID(),
		"server", hello.Server, "version", hello.Version, "channels", len(channels))

	for _, ch := range channels {
		go c.attach(sess, ch)
	}
	return nil
}

// handleConnected catches a session lost before the manager saw it up.
func (c *Client) handleConnected() {
	c.mu.Lock()
	up := c.sess != nil || c.closed
	c.mu.Unlock()
	if !up {
		c.manager.NotifyConnectionLost()
	}
}

// attach searches ch on sess and starts its monitor.
func (c *Client) attach(sess *session, ch *ca.Channel) {
	ctx, cancel := context.WithTimeout(context.Background(), c.config.RequestTimeout)
	defer cancel()

	sp, err := sess.ic.Search(ctx, ch.Name())
	if err != nil {
		c.debug("search failed", "name", ch.Name(), "error", err)
		return
	}
	info := sp.Info()

	c.mu.Lock()
	if c.sess != sess {
		c.mu.Unlock()
		return
	}
	ch.SetConnected(info)
	c.mu.Unlock()
	sess.logChannel(ch.Name(), sp.Path, "CONNECTED")

	_, err = sess.ic.Monitor(ctx, ch.Name(), ch.Form(), func(u *wire.Update) {
		ch.Update(u.Snapshot.Event(info.Type))
	})
	if err != nil {
		c.debug("monitor failed", "name", ch.Name(), "error", err)
	}
}

// lost drops sess if it is the current session and schedules a reconnect.
func (c *Client) lost(sess *session) {
	c.mu.Lock()
	if c.sess != sess {
		c.mu.Unlock()
		return
	}
	c.sess = nil
	channels := make([]*ca.Channel, 0, len(c.channels))
	for _, ch := range c.channels {
		channels = append(channels, ch)
		ch.SetDisconnected()
	}
	closed := c.closed
	c.mu.Unlock()

	sess.ic.Close()
	for _, ch := range channels {
		sess.logChannel(ch.Name(), "", "DISCONNECTED")
	}
	c.debug("session lost", "addr", c.config.Address, "conn", sess.conn.ID())

	if !closed {
		c.manager.NotifyConnectionLost()
	}
}

func (c *Client) debug(msg string, args ...any) {
	if c.config.Logger != nil {
		c.config.Logger.Debug(msg, args...)
	}
}
