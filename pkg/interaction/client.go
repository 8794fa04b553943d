package interaction

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cpswtree/catree/pkg/ca"
	"github.com/cpswtree/catree/pkg/version"
	"github.com/cpswtree/catree/pkg/wire"
)

// DefaultRequestTimeout bounds the wait for a response.
const DefaultRequestTimeout = 10 * time.Second

// Client errors.
var (
	ErrRequestTimeout  = errors.New("request timed out")
	ErrClientClosed    = errors.New("client is closed")
	ErrUnexpectedReply = errors.New("unexpected reply")
)

// RequestSender sends encoded requests over a connection.
type RequestSender interface {
	Send(data []byte) error
}

// Client correlates requests with their responses and routes updates to
// the monitors that asked for them. The owner of the connection feeds it
// through HandleResponse and HandleUpdate.
type Client struct {
	mu sync.RWMutex

	sender  RequestSender
	timeout time.Duration

	// Message ID generator
	idMu      sync.Mutex
	nextMsgID uint32

	// Pending requests awaiting responses
	pending   map[uint32]chan *wire.Response
	pendingMu sync.RWMutex

	monitors map[uint32]UpdateHandler

	// onRequest observes every request before it is sent.
	onRequest func(*wire.Request)

	closed bool
}

// NewClient creates a new interaction client.
func NewClient(sender RequestSender) *Client {
	return &Client{
		sender:   sender,
		timeout:  DefaultRequestTimeout,
		pending:  make(map[uint32]chan *wire.Response),
		monitors: make(map[uint32]UpdateHandler),
	}
}

// SetTimeout sets the request timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeout = timeout
}

// OnRequest sets a hook that observes every outgoing request.
func (c *Client) OnRequest(fn func(*wire.Request)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onRequest = fn
}

// Close fails all pending requests and drops every monitor.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.monitors = make(map[uint32]UpdateHandler)

	c.pendingMu.Lock()
	for _, ch := range c.pending {
		close(ch)
	}
	c.pending = make(map[uint32]chan *wire.Response)
	c.pendingMu.Unlock()

	return nil
}

// nextMessageID generates the next message ID, skipping 0 which is
// reserved for updates.
func (c *Client) nextMessageID() uint32 {
	c.idMu.Lock()
	defer c.idMu.Unlock()
	c.nextMsgID++
	if c.nextMsgID == wire.UpdateMessageID {
		c.nextMsgID++
	}
	return c.nextMsgID
}

// sendRequest sends a request and waits for the response.
func (c *Client) sendRequest(ctx context.Context, req *wire.Request) (*wire.Response, error) {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return nil, ErrClientClosed
	}
	timeout := c.timeout
	onRequest := c.onRequest
	c.mu.RUnlock()

	if req.MessageID == 0 {
		req.MessageID = c.nextMessageID()
	}

	respCh := make(chan *wire.Response, 1)

	c.pendingMu.Lock()
	c.pending[req.MessageID] = respCh
	c.pendingMu.Unlock()

	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, req.MessageID)
		c.pendingMu.Unlock()
	}()

	data, err := wire.EncodeRequest(req)
	if err != nil {
		return nil, err
	}
	if onRequest != nil {
		onRequest(req)
	}
	if err := c.sender.Send(data); err != nil {
		return nil, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrRequestTimeout
	case resp, ok := <-respCh:
		if !ok {
			return nil, ErrClientClosed
		}
		return resp, nil
	}
}

// call sends req and decodes a successful response's payload into out.
func (c *Client) call(ctx context.Context, req *wire.Request, out any) error {
	resp, err := c.sendRequest(ctx, req)
	if err != nil {
		return err
	}
	if err := resp.Err(); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return resp.DecodePayload(out)
}

// HandleResponse should be called when a response is received.
func (c *Client) HandleResponse(resp *wire.Response) error {
	c.pendingMu.RLock()
	ch, exists := c.pending[resp.MessageID]
	c.pendingMu.RUnlock()

	if !exists {
		return ErrUnexpectedReply
	}

	select {
	case ch <- resp:
	default:
		// Channel full or closed
	}
	return nil
}

// HandleUpdate routes an update to its monitor. It reports whether the
// monitor is known.
func (c *Client) HandleUpdate(u *wire.Update) bool {
	c.mu.RLock()
	fn, ok := c.monitors[u.MonitorID]
	c.mu.RUnlock()

	if ok && fn != nil {
		fn(u)
	}
	return ok
}

// Hello announces the local protocol version.
func (c *Client) Hello(ctx context.Context) (*wire.HelloPayload, error) {
	var hello wire.HelloPayload
	err := c.call(ctx, &wire.Request{Operation: wire.OpHello, Version: version.Current}, &hello)
	if err != nil {
		return nil, err
	}
	if err := version.Check(hello.Version); err != nil {
		return nil, err
	}
	return &hello, nil
}

// Search resolves a channel name to its metadata.
func (c *Client) Search(ctx context.Context, name string) (*wire.SearchPayload, error) {
	var sp wire.SearchPayload
	if err := c.call(ctx, &wire.Request{Operation: wire.OpSearch, Name: name}, &sp); err != nil {
		return nil, err
	}
	return &sp, nil
}

// Get reads the current value of a channel.
func (c *Client) Get(ctx context.Context, name string, form ca.Form) (*wire.Snapshot, error) {
	var snap wire.Snapshot
	if err := c.call(ctx, &wire.Request{Operation: wire.OpGet, Name: name, Form: form}, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Put writes value and waits until the server has applied it.
func (c *Client) Put(ctx context.Context, name string, value any, opts ca.PutOptions) error {
	return c.call(ctx, &wire.Request{
		Operation: wire.OpPut,
		Name:      name,
		Value:     value,
		Range:     wire.NewRange(opts),
	}, nil)
}

// Monitor subscribes fn to value changes of a channel and returns the
// monitor ID. fn is registered before the request is sent, so it may see
// the first update before Monitor returns.
func (c *Client) Monitor(ctx context.Context, name string, form ca.Form, fn UpdateHandler) (uint32, error) {
	id := c.nextMessageID()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0, ErrClientClosed
	}
	c.monitors[id] = fn
	c.mu.Unlock()

	err := c.call(ctx, &wire.Request{MessageID: id, Operation: wire.OpMonitor, Name: name, Form: form}, nil)
	if err != nil {
		c.forget(id)
		return 0, err
	}
	return id, nil
}

// Cancel ends a monitor. Updates already in flight are discarded.
func (c *Client) Cancel(ctx context.Context, id uint32) error {
	c.forget(id)
	return c.call(ctx, &wire.Request{Operation: wire.OpCancel, Target: id}, nil)
}

// MonitorCount returns the number of registered monitors.
func (c *Client) MonitorCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.monitors)
}

func (c *Client) forget(id uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.monitors, id)
}
