package transport

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Keep-alive defaults. A dead peer is noticed after at most
// Interval*MaxMissed + Timeout.
const (
	DefaultPingInterval = 15 * time.Second
	DefaultPongTimeout  = 5 * time.Second
	DefaultMaxMissed    = 3
)

// KeepAliveConfig configures keep-alive behavior.
type KeepAliveConfig struct {
	// Interval between pings.
	Interval time.Duration

	// Timeout is how long a ping may stay unanswered before it counts as missed.
	Timeout time.Duration

	// MaxMissed is the number of missed pongs that declares the peer dead.
	MaxMissed int
}

// DefaultKeepAliveConfig returns the default keep-alive configuration.
func DefaultKeepAliveConfig() KeepAliveConfig {
	return KeepAliveConfig{
		Interval:  DefaultPingInterval,
		Timeout:   DefaultPongTimeout,
		MaxMissed: DefaultMaxMissed,
	}
}

// DetectionDelay is the longest time a dead peer can go unnoticed.
func (c KeepAliveConfig) DetectionDelay() time.Duration {
	return c.Interval*time.Duration(c.MaxMissed) + c.Timeout
}

func (c KeepAliveConfig) withDefaults() KeepAliveConfig {
	if c.Interval <= 0 {
		c.Interval = DefaultPingInterval
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultPongTimeout
	}
	if c.MaxMissed <= 0 {
		c.MaxMissed = DefaultMaxMissed
	}
	return c
}

// KeepAlive sends pings and tracks the matching pongs.
type KeepAlive struct {
	config KeepAliveConfig
	ping   func(seq uint32) error
	onDead func()

	seq    atomic.Uint32
	pongCh chan uint32

	mu      sync.Mutex
	pending uint32
	sentAt  time.Time
	missed  int
	rtt     time.Duration
}

// NewKeepAlive creates a keep-alive that sends pings with ping and calls
// onDead once MaxMissed pongs in a row did not arrive.
func NewKeepAlive(config KeepAliveConfig, ping func(seq uint32) error, onDead func()) *KeepAlive {
	return &KeepAlive{
		config: config.withDefaults(),
		ping:   ping,
		onDead: onDead,
		pongCh: make(chan uint32, 4),
	}
}

// Run pings until ctx is done or the peer is declared dead.
func (k *KeepAlive) Run(ctx context.Context) {
	ticker := time.NewTicker(k.config.Interval)
	defer ticker.Stop()

	k.sendPing()
	for {
		select {
		case <-ctx.Done():
			return
		case seq := <-k.pongCh:
			k.handlePong(seq)
		case <-ticker.C:
			if k.expire() {
				if k.onDead != nil {
					k.onDead()
				}
				return
			}
			k.sendPing()
		}
	}
}

// Pong reports a received pong.
func (k *KeepAlive) Pong(seq uint32) {
	select {
	case k.pongCh <- seq:
	default:
	}
}

// RTT returns the round-trip time of the last answered ping.
func (k *KeepAlive) RTT() time.Duration {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.rtt
}

// Missed returns the number of consecutive unanswered pings.
func (k *KeepAlive) Missed() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.missed
}

func (k *KeepAlive) sendPing() {
	seq := k.seq.Add(1)

	k.mu.Lock()
	k.pending = seq
	k.sentAt = time.Now()
	k.mu.Unlock()

	// A failed send is left to the pong timeout.
	_ = k.ping(seq)
}

// expire counts an overdue ping as missed and reports whether the peer is dead.
func (k *KeepAlive) expire() bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.pending != 0 && time.Since(k.sentAt) >= k.config.Timeout {
		k.missed++
		k.pending = 0
	}
	return k.missed >= k.config.MaxMissed
}

func (k *KeepAlive) handlePong(seq uint32) {
	k.mu.Lock()
	defer k.mu.Unlock()

	// Late pongs of earlier pings are ignored.
	if k.pending == 0 || seq != k.pending {
		return
	}
	k.rtt = time.Since(k.sentAt)
	k.pending = 0
	k.missed = 0
}
