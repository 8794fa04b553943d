package adapt

// Stream is the stream leaf type. Channel access cannot carry streams, so
// none is ever produced.
type Stream struct{}

// NewStream always fails.
func NewStream(p *Path) (*Stream, error) {
	return nil, &UnsupportedError{Op: opNewStream, Path: p.String()}
}
