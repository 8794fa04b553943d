package ca

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Backend performs the network (or in-process) side of a Channel.
type Backend interface {
	// Put writes value to the channel's server-side record.
	Put(ch *Channel, value any, opts PutOptions) error
}

// Info is the metadata a backend learns when a channel connects.
type Info struct {
	Type     Type
	Count    int
	EnumStrs []string
}

type registration struct {
	cb       Callback
	withCtrl bool
}

// Channel is the PV implementation shared by the clients in this module.
// Backends drive it through SetConnected, SetDisconnected and Update.
type Channel struct {
	name       string
	form       Form
	backend    Backend
	dispatcher *Dispatcher

	mu        sync.Mutex
	connected bool
	info      Info
	last      *Event
	callbacks map[int]registration
	nextIdx   int

	// changed is closed and replaced whenever the connection state or the
	// cached value changes.
	changed chan struct{}
}

// Compile-time interface satisfaction check.
var _ PV = (*Channel)(nil)

// NewChannel creates a disconnected channel.
func NewChannel(name string, form Form, backend Backend, dispatcher *Dispatcher) *Channel {
	return &Channel{
		name:       name,
		form:       form,
		backend:    backend,
		dispatcher: dispatcher,
		callbacks:  make(map[int]registration),
		changed:    make(chan struct{}),
	}
}

// Name returns the channel name.
func (c *Channel) Name() string { return c.name }

// Form returns the channel form.
func (c *Channel) Form() Form { return c.form }

// Type returns the native type.
func (c *Channel) Type() Type {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info.Type
}

// Count returns the element count.
func (c *Channel) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info.Count
}

// EnumStrs returns the enum strings.
func (c *Channel) EnumStrs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.info.EnumStrs)
}

// Connected reports the connection state.
func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// WaitConnected blocks until the channel connects or ctx is done.
func (c *Channel) WaitConnected(ctx context.Context) error {
	for {
		c.mu.Lock()
		if c.connected {
			c.mu.Unlock()
			return nil
		}
		ch := c.changed
		c.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Get returns the cached value, waiting at most timeout for one.
func (c *Channel) Get(timeout time.Duration, asString bool) (any, bool) {
	var deadline <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		deadline = t.C
	}

	for {
		c.mu.Lock()
		if c.connected && c.last != nil {
			ev := c.last
			c.mu.Unlock()
			if asString {
				return slices.Clone(ev.CharValue), true
			}
			return ev.Value, true
		}
		ch := c.changed
		c.mu.Unlock()

		if deadline == nil {
			return nil, false
		}
		select {
		case <-ch:
		case <-deadline:
			return nil, false
		}
	}
}

// AddCallback registers cb and returns its index.
func (c *Channel) AddCallback(cb Callback, withCtrlVars bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.nextIdx
	c.nextIdx++
	c.callbacks[idx] = registration{cb: cb, withCtrl: withCtrlVars}
	return idx
}

// RemoveCallback removes a registration.
func (c *Channel) RemoveCallback(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.callbacks, index)
}

// Put forwards the write to the backend.
func (c *Channel) Put(value any, opts ...PutOption) error {
	if !c.Connected() {
		return ErrNotConnected
	}
	return c.backend.Put(c, value, NewPutOptions(opts...))
}

// SetConnected marks the channel connected with the given metadata.
func (c *Channel) SetConnected(info Info) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = true
	c.info = info
	c.broadcastLocked()
}

// SetDisconnected marks the channel disconnected and drops the cached value.
func (c *Channel) SetDisconnected() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	c.last = nil
	c.broadcastLocked()
}

// Update caches a new value and queues it for every callback. The backend
// fills Value, CharValue, Status, Severity and Timestamp; the channel adds
// the rest.
func (c *Channel) Update(ev Event) {
	c.mu.Lock()
	ev.PVName = c.name
	ev.Type = c.info.Type
	ev.Count = c.info.Count
	ev.EnumStrs = nil
	if c.form == FormCtrl {
		ev.EnumStrs = c.info.EnumStrs
	}
	c.last = &ev

	type delivery struct {
		idx int
		reg registration
	}
	pending := make([]delivery, 0, len(c.callbacks))
	for idx, reg := range c.callbacks {
		pending = append(pending, delivery{idx, reg})
	}
	enumStrs := c.info.EnumStrs
	c.broadcastLocked()
	c.mu.Unlock()

	slices.SortFunc(pending, func(a, b delivery) int { return a.idx - b.idx })
	for _, d := range pending {
		out := ev
		out.CallbackIndex = d.idx
		if d.reg.withCtrl {
			out.EnumStrs = enumStrs
		}
		cb := d.reg.cb
		c.dispatcher.Submit(func() { cb.OnEvent(out) })
	}
}

func (c *Channel) broadcastLocked() {
	close(c.changed)
	c.changed = make(chan struct{})
}
