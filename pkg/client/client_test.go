package client

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpswtree/catree/pkg/ca"
	"github.com/cpswtree/catree/pkg/chname"
	"github.com/cpswtree/catree/pkg/connection"
	"github.com/cpswtree/catree/pkg/log"
	"github.com/cpswtree/catree/pkg/server"
	"github.com/cpswtree/catree/pkg/softioc"
	"github.com/cpswtree/catree/pkg/transport"
	"github.com/cpswtree/catree/pkg/tree"
	"github.com/cpswtree/catree/pkg/wire"
)

const waitTimeout = 2 * time.Second

type recorder struct {
	mu  sync.Mutex
	evs []ca.Event
}

func (r *recorder) OnEvent(ev ca.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evs = append(r.evs, ev)
}

func (r *recorder) last() (ca.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.evs) == 0 {
		return ca.Event{}, false
	}
	return r.evs[len(r.evs)-1], true
}

type captureLogger struct {
	mu     sync.Mutex
	events []log.Event
}

func (l *captureLogger) Log(ev log.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func testDB(t *testing.T, init int) *softioc.Database {
	t.Helper()
	root := tree.NewRoot()
	dev := tree.NewDev("dev")
	require.NoError(t, root.Add(dev))
	require.NoError(t, dev.Add(
		tree.NewVar("cnt", tree.VarSpec{SizeBits: 32, Init: init}),
		tree.NewVar("mode", tree.VarSpec{Enums: []string{"Off", "On"}}),
		tree.NewCmd("clear", tree.SeqStep{Path: "cnt", Value: 0}),
	))
	db, err := softioc.NewDatabase(root, softioc.Config{Namer: chname.DefaultNamer()})
	require.NoError(t, err)
	return db
}

func name(path, suffix string) string {
	return chname.DefaultNamer().Hash(chname.String(path), suffix)
}

func startServer(t *testing.T, addr string, init int) *server.Server {
	t.Helper()
	srv := server.New(testDB(t, init), server.Config{Address: addr, Name: "test-ioc"})
	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(func() { _ = srv.Stop() })
	return srv
}

func newClient(t *testing.T, srv *server.Server, plog log.Logger) *Client {
	t.Helper()
	addr, err := srv.Addr()
	require.NoError(t, err)
	return newClientAt(t, addr.String(), plog)
}

func newClientAt(t *testing.T, addr string, plog log.Logger) *Client {
	t.Helper()
	c := New(Config{
		Address:        addr,
		ConnectTimeout: time.Second,
		RequestTimeout: time.Second,
		Backoff: connection.BackoffConfig{
			Initial: 10 * time.Millisecond,
			Max:     50 * time.Millisecond,
			Jitter:  -1,
		},
		Transport:      transport.ConnectionConfig{DisableKeepAlive: true},
		ProtocolLogger: plog,
	})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestGetPVAndValue(t *testing.T) {
	srv := startServer(t, "127.0.0.1:0", 12)
	c := newClient(t, srv, nil)

	pv := c.GetPV(name("/dev/cnt", chname.SuffixRead), ca.FormNative, waitTimeout)
	require.True(t, pv.Connected())
	assert.True(t, c.Connected())
	assert.Equal(t, ca.TypeLong, pv.Type())
	assert.Equal(t, 1, pv.Count())

	v, ok := pv.Get(waitTimeout, false)
	require.True(t, ok)
	assert.Equal(t, int64(12), v)

	s, ok := pv.Get(0, true)
	require.True(t, ok)
	assert.Equal(t, []byte("12"), s)

	assert.Same(t, pv, c.GetPV(name("/dev/cnt", chname.SuffixRead), ca.FormNative, 0))
}

func TestPutAndMonitor(t *testing.T) {
	srv := startServer(t, "127.0.0.1:0", 0)
	c := newClient(t, srv, nil)

	rd := c.GetPV(name("/dev/mode", chname.SuffixRead), ca.FormCtrl, waitTimeout)
	st := c.GetPV(name("/dev/mode", chname.SuffixWrite), ca.FormNative, waitTimeout)
	require.True(t, rd.Connected())
	require.True(t, st.Connected())
	assert.Equal(t, []string{"Off", "On"}, rd.EnumStrs())

	_, ok := rd.Get(waitTimeout, false)
	require.True(t, ok)

	rec := &recorder{}
	rd.AddCallback(rec, false)

	require.NoError(t, st.Put("On"))

	require.Eventually(t, func() bool {
		ev, ok := rec.last()
		return ok && ev.Value == int64(1)
	}, waitTimeout, 5*time.Millisecond)

	ev, _ := rec.last()
	assert.Equal(t, []byte("On"), ev.CharValue)
	assert.Equal(t, ca.TypeEnum, ev.Type)
	assert.Equal(t, []string{"Off", "On"}, ev.EnumStrs)
	assert.False(t, ev.Timestamp.IsZero())
}

func TestExecute(t *testing.T) {
	srv := startServer(t, "127.0.0.1:0", 5)
	c := newClient(t, srv, nil)

	rd := c.GetPV(name("/dev/cnt", chname.SuffixRead), ca.FormNative, waitTimeout)
	ex := c.GetPV(name("/dev/clear", chname.SuffixExec), ca.FormNative, waitTimeout)
	require.True(t, ex.Connected())

	require.NoError(t, ex.Put("Run"))
	require.Eventually(t, func() bool {
		v, ok := rd.Get(0, false)
		return ok && v == int64(0)
	}, waitTimeout, 5*time.Millisecond)
}

func TestPutRejected(t *testing.T) {
	srv := startServer(t, "127.0.0.1:0", 0)
	c := newClient(t, srv, nil)

	rd := c.GetPV(name("/dev/cnt", chname.SuffixRead), ca.FormNative, waitTimeout)
	require.True(t, rd.Connected())

	err := rd.Put(1)
	require.ErrorIs(t, err, ca.ErrPutFailed)
	var se *wire.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, wire.StatusReadOnly, se.Status)

	st := c.GetPV(name("/dev/mode", chname.SuffixWrite), ca.FormNative, waitTimeout)
	err = st.Put("Maybe")
	require.ErrorAs(t, err, &se)
	assert.Equal(t, wire.StatusInvalidValue, se.Status)
}

func TestUnknownChannel(t *testing.T) {
	srv := startServer(t, "127.0.0.1:0", 0)
	c := newClient(t, srv, nil)

	pv := c.GetPV("CPSW:NOPE", ca.FormNative, 50*time.Millisecond)
	assert.False(t, pv.Connected())
	assert.ErrorIs(t, pv.Put(1), ca.ErrNotConnected)
	_, ok := pv.Get(0, false)
	assert.False(t, ok)
}

func TestNoServer(t *testing.T) {
	// Reserve a port, then free it so nothing listens there.
	srv := startServer(t, "127.0.0.1:0", 0)
	addr, err := srv.Addr()
	require.NoError(t, err)
	require.NoError(t, srv.Stop())

	c := newClientAt(t, addr.String(), nil)
	pv := c.GetPV(name("/dev/cnt", chname.SuffixRead), ca.FormNative, 50*time.Millisecond)
	assert.False(t, pv.Connected())
	assert.False(t, c.Connected())
}

func TestReconnect(t *testing.T) {
	first := startServer(t, "127.0.0.1:0", 1)
	addr, err := first.Addr()
	require.NoError(t, err)
	c := newClient(t, first, nil)

	pv := c.GetPV(name("/dev/cnt", chname.SuffixRead), ca.FormNative, waitTimeout)
	v, ok := pv.Get(waitTimeout, false)
	require.True(t, ok)
	assert.Equal(t, int64(1), v)

	require.NoError(t, first.Stop())
	require.Eventually(t, func() bool { return !pv.Connected() }, waitTimeout, 5*time.Millisecond)
	assert.ErrorIs(t, pv.Put(3), ca.ErrNotConnected)

	startServer(t, addr.String(), 2)
	require.Eventually(t, func() bool {
		v, ok := pv.Get(0, false)
		return ok && v == int64(2)
	}, 3*waitTimeout, 10*time.Millisecond)
	assert.True(t, c.Connected())
}

func TestClose(t *testing.T) {
	srv := startServer(t, "127.0.0.1:0", 0)
	c := newClient(t, srv, nil)

	pv := c.GetPV(name("/dev/cnt", chname.SuffixRead), ca.FormNative, waitTimeout)
	require.True(t, pv.Connected())

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	assert.False(t, pv.Connected())
	assert.False(t, c.Connected())
	assert.ErrorIs(t, pv.Put(1), ca.ErrNotConnected)
	require.Eventually(t, func() bool { return srv.SessionCount() == 0 }, waitTimeout, 5*time.Millisecond)
}

func TestClientProtocolLog(t *testing.T) {
	srv := startServer(t, "127.0.0.1:0", 0)
	plog := &captureLogger{}
	c := newClient(t, srv, plog)

	rd := name("/dev/cnt", chname.SuffixRead)
	pv := c.GetPV(rd, ca.FormNative, waitTimeout)
	_, ok := pv.Get(waitTimeout, false)
	require.True(t, ok)

	plog.mu.Lock()
	defer plog.mu.Unlock()

	var ops []wire.Operation
	var channelUp bool
	for _, ev := range plog.events {
		assert.Equal(t, log.RoleClient, ev.LocalRole, "event %+v", ev)
		if ev.Message != nil && ev.Direction == log.DirectionOut && ev.Message.Operation != nil {
			ops = append(ops, *ev.Message.Operation)
		}
		if ev.StateChange != nil && ev.StateChange.Entity == log.StateEntityChannel {
			channelUp = ev.Channel == rd && ev.Path == "/dev/cnt" && ev.StateChange.NewState == "CONNECTED"
		}
	}
	assert.Equal(t, []wire.Operation{wire.OpHello, wire.OpSearch, wire.OpMonitor}, ops)
	assert.True(t, channelUp)
}
