package adapt

import "sync"

// Widget receives decoded values from a Var.
type Widget interface {
	// AsyncUpdateWidget is called with every decoded value, possibly from the
	// client's dispatcher goroutine.
	AsyncUpdateWidget(value any)
}

// WidgetFunc adapts a function to Widget.
type WidgetFunc func(value any)

// AsyncUpdateWidget calls f(value).
func (f WidgetFunc) AsyncUpdateWidget(value any) { f(value) }

// Serialize wraps w so that concurrent updates are delivered one at a time.
func Serialize(w Widget) Widget {
	return &serialWidget{w: w}
}

type serialWidget struct {
	mu sync.Mutex
	w  Widget
}

func (s *serialWidget) AsyncUpdateWidget(value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w.AsyncUpdateWidget(value)
}
