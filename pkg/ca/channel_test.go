package ca

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu   sync.Mutex
	puts []any
	opts []PutOptions
	err  error
}

func (b *fakeBackend) Put(ch *Channel, value any, opts PutOptions) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.puts = append(b.puts, value)
	b.opts = append(b.opts, opts)
	return b.err
}

type eventSink struct {
	ch chan Event
}

func newSink() *eventSink { return &eventSink{ch: make(chan Event, 16)} }

func (s *eventSink) OnEvent(ev Event) { s.ch <- ev }

func (s *eventSink) next(t *testing.T) Event {
	t.Helper()
	select {
	case ev := <-s.ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
		return Event{}
	}
}

func newTestChannel(t *testing.T, form Form) (*Channel, *fakeBackend) {
	t.Helper()
	d := NewDispatcher()
	t.Cleanup(d.Close)
	b := &fakeBackend{}
	return NewChannel("TEST:PV", form, b, d), b
}

func TestChannelGetBeforeConnect(t *testing.T) {
	ch, _ := newTestChannel(t, FormNative)

	v, ok := ch.Get(0, false)
	assert.False(t, ok)
	assert.Nil(t, v)
	assert.False(t, ch.Connected())
	assert.Equal(t, TypeUnknown, ch.Type())
}

func TestChannelGetWaitsForValue(t *testing.T) {
	ch, _ := newTestChannel(t, FormNative)

	go func() {
		time.Sleep(20 * time.Millisecond)
		ch.SetConnected(Info{Type: TypeLong, Count: 1})
		ch.Update(Event{Value: int64(42), CharValue: []byte("42")})
	}()

	v, ok := ch.Get(time.Second, false)
	require.True(t, ok)
	assert.Equal(t, int64(42), v)

	s, ok := ch.Get(0, true)
	require.True(t, ok)
	assert.Equal(t, []byte("42"), s)
}

func TestChannelGetTimeout(t *testing.T) {
	ch, _ := newTestChannel(t, FormNative)

	start := time.Now()
	_, ok := ch.Get(30*time.Millisecond, false)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestChannelCallbacks(t *testing.T) {
	ch, _ := newTestChannel(t, FormNative)
	ch.SetConnected(Info{Type: TypeEnum, Count: 1, EnumStrs: []string{"Off", "On"}})

	plain := newSink()
	ctrl := newSink()
	idxPlain := ch.AddCallback(plain, false)
	idxCtrl := ch.AddCallback(ctrl, true)
	assert.NotEqual(t, idxPlain, idxCtrl)

	now := time.Now()
	ch.Update(Event{Value: int64(1), CharValue: []byte("1"), Timestamp: now})

	ev := plain.next(t)
	assert.Equal(t, "TEST:PV", ev.PVName)
	assert.Equal(t, int64(1), ev.Value)
	assert.Equal(t, TypeEnum, ev.Type)
	assert.Equal(t, idxPlain, ev.CallbackIndex)
	assert.Nil(t, ev.EnumStrs)

	ev = ctrl.next(t)
	assert.Equal(t, []string{"Off", "On"}, ev.EnumStrs)
	assert.Equal(t, idxCtrl, ev.CallbackIndex)

	ch.RemoveCallback(idxPlain)
	ch.Update(Event{Value: int64(0)})
	ctrl.next(t)
	select {
	case <-plain.ch:
		t.Fatal("removed callback was called")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestChannelCtrlFormCarriesEnumStrs(t *testing.T) {
	ch, _ := newTestChannel(t, FormCtrl)
	ch.SetConnected(Info{Type: TypeEnum, Count: 1, EnumStrs: []string{"A", "B"}})

	sink := newSink()
	ch.AddCallback(sink, false)
	ch.Update(Event{Value: int64(1), CharValue: []byte("B")})

	ev := sink.next(t)
	assert.Equal(t, []string{"A", "B"}, ev.EnumStrs)
	assert.Equal(t, []string{"A", "B"}, ch.EnumStrs())
}

func TestChannelPut(t *testing.T) {
	ch, b := newTestChannel(t, FormNative)

	assert.ErrorIs(t, ch.Put(1), ErrNotConnected)

	ch.SetConnected(Info{Type: TypeLong, Count: 4})
	require.NoError(t, ch.Put([]int64{1, 2}, WithRange(1, 2)))
	require.NoError(t, ch.Put(5))

	require.Len(t, b.puts, 2)
	assert.Equal(t, PutOptions{From: 1, To: 2}, b.opts[0])
	assert.Equal(t, PutOptions{From: -1, To: -1}, b.opts[1])
	assert.True(t, b.opts[0].HasRange())
	assert.False(t, b.opts[1].HasRange())

	b.err = errors.New("boom")
	assert.Error(t, ch.Put(1))
}

func TestChannelWaitConnected(t *testing.T) {
	ch, _ := newTestChannel(t, FormNative)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, ch.WaitConnected(ctx), context.DeadlineExceeded)

	go ch.SetConnected(Info{Type: TypeLong})
	require.NoError(t, ch.WaitConnected(context.Background()))
}

func TestChannelDisconnectDropsValue(t *testing.T) {
	ch, _ := newTestChannel(t, FormNative)
	ch.SetConnected(Info{Type: TypeLong})
	ch.Update(Event{Value: int64(3)})

	_, ok := ch.Get(0, false)
	require.True(t, ok)

	ch.SetDisconnected()
	_, ok = ch.Get(0, false)
	assert.False(t, ok)
}

func TestDispatcherOrder(t *testing.T) {
	d := NewDispatcher()
	defer d.Close()

	var mu sync.Mutex
	var got []int
	done := make(chan struct{})
	for i := 0; i < 100; i++ {
		i := i
		d.Submit(func() {
			mu.Lock()
			got = append(got, i)
			n := len(got)
			mu.Unlock()
			if n == 100 {
				close(done)
			}
		})
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not drain")
	}
	for i, v := range got {
		require.Equal(t, i, v)
	}
}

func TestDispatcherClose(t *testing.T) {
	d := NewDispatcher()
	d.Close()
	d.Close()

	select {
	case <-d.Done():
	case <-time.After(time.Second):
		t.Fatal("dispatcher goroutine did not exit")
	}
	assert.False(t, d.Submit(func() {}))
}
