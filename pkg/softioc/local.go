package softioc

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cpswtree/catree/pkg/ca"
)

// LocalConfig configures a Local client.
type LocalConfig struct {
	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger
}

// Local is an in-process ca.Client served by a Database. Channels connect in
// the background; puts complete before Put returns.
type Local struct {
	db         *Database
	dispatcher *ca.Dispatcher
	logger     *slog.Logger

	mu       sync.Mutex
	channels map[chanKey]*localChannel
	closed   bool
}

type chanKey struct {
	name string
	form ca.Form
}

type localChannel struct {
	ch     *ca.Channel
	cancel func()
}

// Compile-time interface satisfaction checks.
var (
	_ ca.Client  = (*Local)(nil)
	_ ca.Backend = (*Local)(nil)
)

// NewLocal creates a client of db.
func NewLocal(db *Database, cfg LocalConfig) *Local {
	return &Local{
		db:         db,
		dispatcher: ca.NewDispatcher(),
		logger:     cfg.Logger,
		channels:   make(map[chanKey]*localChannel),
	}
}

// GetPV returns the channel for name in the given form, creating it on first
// use. It waits at most connTimeout for the connection.
func (l *Local) GetPV(name string, form ca.Form, connTimeout time.Duration) ca.PV {
	key := chanKey{name: name, form: form}

	l.mu.Lock()
	lc, ok := l.channels[key]
	if !ok {
		lc = &localChannel{ch: ca.NewChannel(name, form, l, l.dispatcher)}
		l.channels[key] = lc
		if !l.closed {
			go l.connect(lc)
		}
	}
	l.mu.Unlock()

	if connTimeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), connTimeout)
		defer cancel()
		_ = lc.ch.WaitConnected(ctx)
	}
	return lc.ch
}

func (l *Local) connect(lc *localChannel) {
	ch := lc.ch
	rec, err := l.db.Lookup(ch.Name())
	if err != nil {
		l.debug("channel not found", "name", ch.Name(), "error", err)
		return
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	ch.SetConnected(rec.Info())
	l.mu.Unlock()

	cancel := rec.Monitor(ch.Form(), func(s Snapshot) {
		ch.Update(eventFromSnapshot(s))
	})

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		cancel()
		return
	}
	lc.cancel = cancel
	l.debug("channel connected", "name", ch.Name(), "path", rec.Node().String(), "kind", rec.Kind())
}

// Put writes to the record behind ch.
func (l *Local) Put(ch *ca.Channel, value any, opts ca.PutOptions) error {
	rec, err := l.db.Lookup(ch.Name())
	if err != nil {
		return err
	}
	return rec.Put(value, opts)
}

// Close disconnects every channel and stops callback delivery.
func (l *Local) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	channels := make([]*localChannel, 0, len(l.channels))
	for _, lc := range l.channels {
		channels = append(channels, lc)
	}
	l.mu.Unlock()

	for _, lc := range channels {
		if lc.cancel != nil {
			lc.cancel()
		}
		lc.ch.SetDisconnected()
	}
	l.dispatcher.Close()
	return nil
}

func (l *Local) debug(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Debug(msg, args...)
	}
}

func eventFromSnapshot(s Snapshot) ca.Event {
	return ca.Event{
		Value:     s.Value,
		CharValue: s.CharValue,
		Status:    s.Status,
		Severity:  s.Severity,
		Timestamp: s.Timestamp,
	}
}
