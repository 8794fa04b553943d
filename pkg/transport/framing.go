package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/cpswtree/catree/pkg/log"
)

// Every message travels as one frame: a 4-byte big-endian payload length
// followed by the CBOR payload.
const (
	LengthPrefixSize = 4

	// DefaultMaxMessageSize bounds a payload. Array channels of a few thousand
	// elements fit one frame.
	DefaultMaxMessageSize = 1 << 20

	// MaxLogFrameDataSize bounds the payload bytes copied into a frame event.
	MaxLogFrameDataSize = 4096
)

var (
	ErrMessageTooLarge = errors.New("message too large")
	ErrMessageEmpty    = errors.New("message is empty")
	ErrFrameTruncated  = errors.New("frame truncated")
)

// FrameSize returns the size on the wire of a payload of n bytes.
func FrameSize(n int) int { return LengthPrefixSize + n }

// Framer reads and writes frames on a stream. One goroutine may read while
// any number write.
type Framer struct {
	r      io.Reader
	w      io.Writer
	max    uint32
	hdr    [LengthPrefixSize]byte
	wmu    sync.Mutex
	logger log.Logger
	connID string
	role   log.Role
}

// FramerOption configures a Framer.
type FramerOption func(*Framer)

// WithMaxMessageSize bounds payloads in both directions. Zero keeps
// DefaultMaxMessageSize.
func WithMaxMessageSize(n uint32) FramerOption {
	return func(f *Framer) {
		if n > 0 {
			f.max = n
		}
	}
}

// WithFrameLog reports every frame to l as a transport event of connection
// connID seen from role. A nil l disables frame events.
func WithFrameLog(l log.Logger, connID string, role log.Role) FramerOption {
	return func(f *Framer) {
		f.logger, f.connID, f.role = l, connID, role
	}
}

// NewFramer frames messages on rw.
func NewFramer(rw io.ReadWriter, opts ...FramerOption) *Framer {
	f := &Framer{r: rw, w: rw, max: DefaultMaxMessageSize}
	for _, o := range opts {
		o(f)
	}
	return f
}

func (f *Framer) check(n uint64) error {
	if n == 0 {
		return ErrMessageEmpty
	}
	if n > uint64(f.max) {
		return fmt.Errorf("%w: %d > %d", ErrMessageTooLarge, n, f.max)
	}
	return nil
}

// WriteFrame sends payload as one frame with a single write.
func (f *Framer) WriteFrame(payload []byte) error {
	if err := f.check(uint64(len(payload))); err != nil {
		return err
	}
	frame := make([]byte, FrameSize(len(payload)))
	binary.BigEndian.PutUint32(frame, uint32(len(payload)))
	copy(frame[LengthPrefixSize:], payload)

	f.wmu.Lock()
	_, err := f.w.Write(frame)
	f.wmu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	f.logFrame(log.DirectionOut, payload)
	return nil
}

// ReadFrame returns the next payload. A clean end of stream before a frame
// starts is io.EOF; a stream ending inside a frame is ErrFrameTruncated.
func (f *Framer) ReadFrame() ([]byte, error) {
	if _, err := io.ReadFull(f.r, f.hdr[:]); err != nil {
		switch {
		case err == io.EOF:
			return nil, io.EOF
		case errors.Is(err, io.ErrUnexpectedEOF):
			return nil, ErrFrameTruncated
		}
		return nil, fmt.Errorf("failed to read length prefix: %w", err)
	}
	n := binary.BigEndian.Uint32(f.hdr[:])
	if err := f.check(uint64(n)); err != nil {
		return nil, err
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(f.r, payload); err != nil {
		if err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrFrameTruncated
		}
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	f.logFrame(log.DirectionIn, payload)
	return payload, nil
}

func (f *Framer) logFrame(dir log.Direction, payload []byte) {
	if f.logger == nil {
		return
	}
	f.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: f.connID,
		Direction:    dir,
		Layer:        log.LayerTransport,
		Category:     log.CategoryMessage,
		LocalRole:    f.role,
		Frame:        log.NewFrameEvent(payload, MaxLogFrameDataSize),
	})
}
