package connection

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func fastConfig() ManagerConfig {
	return ManagerConfig{
		Backoff: BackoffConfig{
			Initial:    20 * time.Millisecond,
			Max:        80 * time.Millisecond,
			Multiplier: 2.0,
			Jitter:     -1,
		},
		ConnectTimeout: time.Second,
	}
}

func waitState(t *testing.T, m *Manager, want State, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if m.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("State() = %v, want %v", m.State(), want)
}

func TestBackoff(t *testing.T) {
	t.Run("DefaultSequence", func(t *testing.T) {
		b := NewBackoff(DefaultBackoffConfig())

		expected := []time.Duration{
			1 * time.Second,
			2 * time.Second,
			4 * time.Second,
			8 * time.Second,
			16 * time.Second,
			30 * time.Second,
			30 * time.Second, // Should stay at max
		}

		for i, exp := range expected {
			base := b.Current()
			_ = b.Next()

			if base != exp {
				t.Errorf("Attempt %d: base = %v, want %v", i, base, exp)
			}
		}
	})

	t.Run("Jitter", func(t *testing.T) {
		upper := time.Duration(float64(time.Second) * 1.25)

		samples := make([]time.Duration, 10)
		for i := range samples {
			b := NewBackoff(DefaultBackoffConfig())
			samples[i] = b.Next()
		}

		for i, s := range samples {
			if s < time.Second || s > upper {
				t.Errorf("Sample %d: %v out of expected range [1s, 1.25s]", i, s)
			}
		}

		allSame := true
		for i := 1; i < len(samples); i++ {
			if samples[i] != samples[0] {
				allSame = false
				break
			}
		}
		if allSame {
			t.Error("All jittered samples are identical - jitter may not be working")
		}
	})

	t.Run("Reset", func(t *testing.T) {
		b := NewBackoff(BackoffConfig{})

		for i := 0; i < 5; i++ {
			b.Next()
		}

		if b.Current() <= InitialBackoff {
			t.Error("Backoff should have increased")
		}

		b.Reset()

		if b.Current() != InitialBackoff {
			t.Errorf("Current() = %v after reset, want %v", b.Current(), InitialBackoff)
		}
		if b.Attempts() != 0 {
			t.Errorf("Attempts() = %d after reset, want 0", b.Attempts())
		}
	})

	t.Run("Attempts", func(t *testing.T) {
		b := NewBackoff(BackoffConfig{})

		if b.Attempts() != 0 {
			t.Errorf("Initial Attempts() = %d, want 0", b.Attempts())
		}

		for i := 1; i <= 5; i++ {
			b.Next()
			if b.Attempts() != i {
				t.Errorf("After %d calls, Attempts() = %d", i, b.Attempts())
			}
		}
	})

	t.Run("CustomConfig", func(t *testing.T) {
		b := NewBackoff(BackoffConfig{
			Initial:    100 * time.Millisecond,
			Max:        500 * time.Millisecond,
			Multiplier: 2.0,
			Jitter:     -1,
		})

		expected := []time.Duration{
			100 * time.Millisecond,
			200 * time.Millisecond,
			400 * time.Millisecond,
			500 * time.Millisecond,
			500 * time.Millisecond,
		}

		for i, exp := range expected {
			if got := b.Next(); got != exp {
				t.Errorf("Attempt %d: got %v, want %v", i, got, exp)
			}
		}
	})

	t.Run("MaxBelowInitial", func(t *testing.T) {
		b := NewBackoff(BackoffConfig{Initial: time.Second, Max: time.Millisecond, Jitter: -1})
		if got := b.Next(); got != time.Second {
			t.Errorf("Next() = %v, want 1s", got)
		}
		if got := b.Next(); got != time.Second {
			t.Errorf("Next() = %v, want 1s", got)
		}
	})
}

func TestSequence(t *testing.T) {
	seq := Sequence(DefaultBackoffConfig())

	if len(seq) != 6 {
		t.Fatalf("Sequence() has %d elements, want 6", len(seq))
	}
	if seq[0] != 1*time.Second {
		t.Errorf("First element = %v, want 1s", seq[0])
	}
	if seq[len(seq)-1] != MaxBackoff {
		t.Errorf("Last element = %v, want %v", seq[len(seq)-1], MaxBackoff)
	}
}

func TestManager(t *testing.T) {
	t.Run("InitialState", func(t *testing.T) {
		m := NewManager(func(ctx context.Context) error { return nil }, ManagerConfig{})
		defer m.Close()

		if m.State() != StateDisconnected {
			t.Errorf("Initial state = %v, want StateDisconnected", m.State())
		}
		if m.IsConnected() {
			t.Error("IsConnected() = true, want false")
		}
	})

	t.Run("SuccessfulConnect", func(t *testing.T) {
		connectCalled := false
		m := NewManager(func(ctx context.Context) error {
			connectCalled = true
			return nil
		}, ManagerConfig{})
		defer m.Close()

		var connectedCalled bool
		m.OnConnected(func() {
			connectedCalled = true
		})

		if err := m.Connect(context.Background()); err != nil {
			t.Fatalf("Connect() error = %v", err)
		}

		if !connectCalled {
			t.Error("Connect function was not called")
		}
		if !connectedCalled {
			t.Error("OnConnected callback was not called")
		}
		if m.State() != StateConnected {
			t.Errorf("State() = %v, want StateConnected", m.State())
		}
	})

	t.Run("FailedConnect", func(t *testing.T) {
		expectedErr := errors.New("connection failed")
		m := NewManager(func(ctx context.Context) error {
			return expectedErr
		}, ManagerConfig{})
		defer m.Close()

		err := m.Connect(context.Background())
		if !errors.Is(err, expectedErr) {
			t.Errorf("Connect() error = %v, want %v", err, expectedErr)
		}
		if m.State() != StateDisconnected {
			t.Errorf("State() = %v, want StateDisconnected", m.State())
		}
	})

	t.Run("AlreadyConnected", func(t *testing.T) {
		m := NewManager(func(ctx context.Context) error { return nil }, ManagerConfig{})
		defer m.Close()

		_ = m.Connect(context.Background())

		if err := m.Connect(context.Background()); !errors.Is(err, ErrAlreadyConnected) {
			t.Errorf("Second Connect() error = %v, want ErrAlreadyConnected", err)
		}
	})

	t.Run("ConnectAfterClose", func(t *testing.T) {
		m := NewManager(func(ctx context.Context) error { return nil }, ManagerConfig{})
		m.Close()

		if err := m.Connect(context.Background()); !errors.Is(err, ErrConnectionClosed) {
			t.Errorf("Connect() error = %v, want ErrConnectionClosed", err)
		}
		if m.State() != StateClosed {
			t.Errorf("State() = %v, want StateClosed", m.State())
		}
	})

	t.Run("Disconnect", func(t *testing.T) {
		m := NewManager(func(ctx context.Context) error { return nil }, ManagerConfig{})
		m.SetAutoReconnect(false)
		defer m.Close()

		_ = m.Connect(context.Background())

		var disconnectedCalled bool
		m.OnDisconnected(func() {
			disconnectedCalled = true
		})

		m.Disconnect()

		if !disconnectedCalled {
			t.Error("OnDisconnected callback was not called")
		}
		if m.State() != StateDisconnected {
			t.Errorf("State() = %v, want StateDisconnected", m.State())
		}
	})

	t.Run("StateChangeCallback", func(t *testing.T) {
		m := NewManager(func(ctx context.Context) error { return nil }, ManagerConfig{})
		m.SetAutoReconnect(false)
		defer m.Close()

		var transitions []struct{ old, new State }
		m.OnStateChange(func(old, new State) {
			transitions = append(transitions, struct{ old, new State }{old, new})
		})

		_ = m.Connect(context.Background())
		m.Disconnect()

		expected := []struct{ old, new State }{
			{StateDisconnected, StateConnecting},
			{StateConnecting, StateConnected},
			{StateConnected, StateDisconnected},
		}

		if len(transitions) != len(expected) {
			t.Fatalf("Got %d transitions, want %d", len(transitions), len(expected))
		}

		for i, exp := range expected {
			if transitions[i].old != exp.old || transitions[i].new != exp.new {
				t.Errorf("Transition %d: got %v->%v, want %v->%v",
					i, transitions[i].old, transitions[i].new, exp.old, exp.new)
			}
		}
	})
}

func TestManagerStart(t *testing.T) {
	t.Run("ImmediateFirstAttempt", func(t *testing.T) {
		var connectCount atomic.Int32
		m := NewManager(func(ctx context.Context) error {
			connectCount.Add(1)
			return nil
		}, ManagerConfig{})
		defer m.Close()

		m.Start()

		// Default backoff is 1s; an immediate attempt lands well before it.
		waitState(t, m, StateConnected, 500*time.Millisecond)
		if connectCount.Load() != 1 {
			t.Errorf("Connect called %d times, want 1", connectCount.Load())
		}
		if m.BackoffAttempts() != 0 {
			t.Errorf("BackoffAttempts() = %d, want 0", m.BackoffAttempts())
		}
	})

	t.Run("RetriesUntilSuccess", func(t *testing.T) {
		var connectCount atomic.Int32
		m := NewManager(func(ctx context.Context) error {
			if connectCount.Add(1) < 3 {
				return errors.New("not yet")
			}
			return nil
		}, fastConfig())
		defer m.Close()

		var mu sync.Mutex
		var delays []time.Duration
		m.OnReconnecting(func(attempt int, delay time.Duration) {
			mu.Lock()
			delays = append(delays, delay)
			mu.Unlock()
		})

		m.Start()
		waitState(t, m, StateConnected, 2*time.Second)

		if got := connectCount.Load(); got != 3 {
			t.Errorf("Connect called %d times, want 3", got)
		}

		mu.Lock()
		defer mu.Unlock()
		want := []time.Duration{20 * time.Millisecond, 40 * time.Millisecond}
		if len(delays) != len(want) {
			t.Fatalf("Got %d reconnect delays, want %d", len(delays), len(want))
		}
		for i := range want {
			if delays[i] != want[i] {
				t.Errorf("delay %d = %v, want %v", i, delays[i], want[i])
			}
		}
	})

	t.Run("StartTwice", func(t *testing.T) {
		var connectCount atomic.Int32
		m := NewManager(func(ctx context.Context) error {
			connectCount.Add(1)
			return nil
		}, fastConfig())
		defer m.Close()

		m.Start()
		waitState(t, m, StateConnected, time.Second)
		m.Start()
		time.Sleep(50 * time.Millisecond)

		if got := connectCount.Load(); got != 1 {
			t.Errorf("Connect called %d times, want 1", got)
		}
	})

	t.Run("CloseStopsRetries", func(t *testing.T) {
		m := NewManager(func(ctx context.Context) error {
			return errors.New("down")
		}, fastConfig())

		m.Start()
		time.Sleep(50 * time.Millisecond)

		done := make(chan struct{})
		go func() {
			m.Close()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Close() did not return")
		}
		if m.State() != StateClosed {
			t.Errorf("State() = %v, want StateClosed", m.State())
		}
	})
}

func TestManagerReconnect(t *testing.T) {
	t.Run("AutoReconnectOnConnectionLost", func(t *testing.T) {
		var connectCount atomic.Int32
		m := NewManager(func(ctx context.Context) error {
			connectCount.Add(1)
			return nil
		}, fastConfig())
		defer m.Close()

		if err := m.Connect(context.Background()); err != nil {
			t.Fatalf("Initial Connect() error = %v", err)
		}

		m.NotifyConnectionLost()
		waitState(t, m, StateConnected, time.Second)

		if connectCount.Load() < 2 {
			t.Errorf("Connect was only called %d times, want at least 2", connectCount.Load())
		}
		if m.BackoffAttempts() != 0 {
			t.Errorf("BackoffAttempts() = %d after success, want 0", m.BackoffAttempts())
		}
	})

	t.Run("DisabledAutoReconnect", func(t *testing.T) {
		var connectCount atomic.Int32
		m := NewManager(func(ctx context.Context) error {
			connectCount.Add(1)
			return nil
		}, fastConfig())
		m.SetAutoReconnect(false)
		m.StartReconnectLoop()
		defer m.Close()

		_ = m.Connect(context.Background())
		m.Disconnect()

		time.Sleep(100 * time.Millisecond)

		if m.State() != StateDisconnected {
			t.Errorf("State() = %v, want StateDisconnected (no auto-reconnect)", m.State())
		}
		if connectCount.Load() != 1 {
			t.Errorf("Connect called %d times, want 1 (no reconnection)", connectCount.Load())
		}
	})

	t.Run("LostWhileDisconnectedIgnored", func(t *testing.T) {
		var connectCount atomic.Int32
		m := NewManager(func(ctx context.Context) error {
			connectCount.Add(1)
			return nil
		}, fastConfig())
		defer m.Close()

		m.NotifyConnectionLost()
		time.Sleep(50 * time.Millisecond)

		if m.State() != StateDisconnected {
			t.Errorf("State() = %v, want StateDisconnected", m.State())
		}
		if connectCount.Load() != 0 {
			t.Errorf("Connect called %d times, want 0", connectCount.Load())
		}
	})
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateDisconnected, "DISCONNECTED"},
		{StateConnecting, "CONNECTING"},
		{StateConnected, "CONNECTED"},
		{StateReconnecting, "RECONNECTING"},
		{StateClosed, "CLOSED"},
		{State(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.state.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
