package log

// Logger receives protocol events from servers, clients and transports.
// Implementations must be safe for concurrent use and must not block for long:
// Log is called on the goroutines that move frames.
type Logger interface {
	Log(event Event)
}

// NoopLogger discards every event. The zero value is ready to use.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

// LoggerFunc adapts a function to the Logger interface.
type LoggerFunc func(Event)

// Log calls f(event).
func (f LoggerFunc) Log(event Event) { f(event) }

type tee []Logger

func (t tee) Log(event Event) {
	for _, l := range t {
		l.Log(event)
	}
}

// Tee returns a Logger that hands every event to each of loggers in order.
// Nil loggers are skipped. With no remaining logger Tee returns NoopLogger,
// with one it returns that logger unchanged.
func Tee(loggers ...Logger) Logger {
	var out tee
	for _, l := range loggers {
		if l != nil {
			out = append(out, l)
		}
	}
	switch len(out) {
	case 0:
		return NoopLogger{}
	case 1:
		return out[0]
	}
	return out
}

type selector struct {
	next  Logger
	match func(Event) bool
}

func (s selector) Log(event Event) {
	if s.match(event) {
		s.next.Log(event)
	}
}

// Select returns a Logger that passes to l only the events match accepts.
// Filter.Match can serve as match.
func Select(l Logger, match func(Event) bool) Logger {
	return selector{next: l, match: match}
}

// WithoutFrames drops transport frame events. Wire events carry the same
// traffic decoded, so captures stay small.
func WithoutFrames(l Logger) Logger {
	return Select(l, func(ev Event) bool { return ev.Frame == nil })
}

var (
	_ Logger = NoopLogger{}
	_ Logger = LoggerFunc(nil)
	_ Logger = tee(nil)
	_ Logger = selector{}
)
