package transport

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"sync"
	"testing"

	"github.com/cpswtree/catree/pkg/log"
	"github.com/cpswtree/catree/pkg/wire"
)

func TestFrameRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{"single byte", []byte{0x42}},
		{"binary data", []byte{0x00, 0xFF, 0x7F, 0x80}},
		{"array channel", bytes.Repeat([]byte("x"), 4*4096)},
		{"max size message", bytes.Repeat([]byte("y"), DefaultMaxMessageSize)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := new(bytes.Buffer)

			if err := NewFramer(buf).WriteFrame(tt.payload); err != nil {
				t.Fatalf("WriteFrame failed: %v", err)
			}
			if buf.Len() != FrameSize(len(tt.payload)) {
				t.Errorf("frame size = %d, want %d", buf.Len(), FrameSize(len(tt.payload)))
			}
			if got := binary.BigEndian.Uint32(buf.Bytes()[:LengthPrefixSize]); got != uint32(len(tt.payload)) {
				t.Errorf("length prefix = %d, want %d", got, len(tt.payload))
			}

			got, err := NewFramer(buf).ReadFrame()
			if err != nil {
				t.Fatalf("ReadFrame failed: %v", err)
			}
			if !bytes.Equal(got, tt.payload) {
				t.Errorf("payload mismatch: got %d bytes, want %d bytes", len(got), len(tt.payload))
			}
		})
	}
}

func TestFramerRejectsOnWrite(t *testing.T) {
	writer := NewFramer(new(bytes.Buffer), WithMaxMessageSize(100))

	if err := writer.WriteFrame(nil); !errors.Is(err, ErrMessageEmpty) {
		t.Errorf("nil payload: expected ErrMessageEmpty, got %v", err)
	}
	if err := writer.WriteFrame(bytes.Repeat([]byte("x"), 101)); !errors.Is(err, ErrMessageTooLarge) {
		t.Errorf("oversized payload: expected ErrMessageTooLarge, got %v", err)
	}
}

func TestFramerReadErrors(t *testing.T) {
	frame := func(length uint32, payload []byte) []byte {
		var b [LengthPrefixSize]byte
		binary.BigEndian.PutUint32(b[:], length)
		return append(b[:], payload...)
	}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"eof", nil, io.EOF},
		{"empty length", frame(0, nil), ErrMessageEmpty},
		{"too large", frame(1000, bytes.Repeat([]byte("x"), 1000)), ErrMessageTooLarge},
		{"truncated length", []byte{0x00, 0x01}, ErrFrameTruncated},
		{"truncated payload", frame(100, bytes.Repeat([]byte("x"), 50)), ErrFrameTruncated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := NewFramer(bytes.NewBuffer(tt.data), WithMaxMessageSize(100))
			_, err := reader.ReadFrame()
			if !errors.Is(err, tt.want) {
				t.Errorf("ReadFrame() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFramerOverPipe(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	left := NewFramer(a)
	right := NewFramer(b)

	req, err := wire.EncodeRequest(&wire.Request{MessageID: 1, Operation: wire.OpSearch, Name: "CPSW:ABC"})
	if err != nil {
		t.Fatalf("EncodeRequest failed: %v", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- left.WriteFrame(req) }()

	got, err := right.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}

	decoded, err := wire.DecodeRequest(got)
	if err != nil {
		t.Fatalf("DecodeRequest failed: %v", err)
	}
	if decoded.Name != "CPSW:ABC" {
		t.Errorf("Name = %q, want %q", decoded.Name, "CPSW:ABC")
	}
}

func TestFramerConcurrentWrites(t *testing.T) {
	buf := new(bytes.Buffer)
	writer := NewFramer(buf)

	const writers, frames = 8, 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(b byte) {
			defer wg.Done()
			for j := 0; j < frames; j++ {
				_ = writer.WriteFrame(bytes.Repeat([]byte{b}, 16))
			}
		}(byte('a' + i))
	}
	wg.Wait()

	reader := NewFramer(buf)
	for n := 0; n < writers*frames; n++ {
		got, err := reader.ReadFrame()
		if err != nil {
			t.Fatalf("frame %d: %v", n, err)
		}
		if !bytes.Equal(got, bytes.Repeat(got[:1], 16)) {
			t.Fatalf("frame %d interleaved: %q", n, got)
		}
	}
}

// capturingLogger captures log events for testing.
type capturingLogger struct {
	mu     sync.Mutex
	events []log.Event
}

func (l *capturingLogger) Log(event log.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *capturingLogger) Events() []log.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]log.Event(nil), l.events...)
}

func TestFramerLogsFrames(t *testing.T) {
	buf := new(bytes.Buffer)
	logger := &capturingLogger{}

	framer := NewFramer(buf, WithFrameLog(logger, "conn-789", log.RoleClient))

	if err := framer.WriteFrame([]byte("hello")); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}
	if _, err := framer.ReadFrame(); err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}

	events := logger.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Direction != log.DirectionOut || events[1].Direction != log.DirectionIn {
		t.Errorf("directions = %v, %v", events[0].Direction, events[1].Direction)
	}
	for _, e := range events {
		if e.LocalRole != log.RoleClient {
			t.Errorf("LocalRole = %v, want client", e.LocalRole)
		}
		if e.ConnectionID != "conn-789" {
			t.Errorf("ConnectionID = %q, want %q", e.ConnectionID, "conn-789")
		}
		if e.Layer != log.LayerTransport || e.Frame == nil {
			t.Fatalf("unexpected event %+v", e)
		}
		if e.Frame.Size != FrameSize(5) || string(e.Frame.Data) != "hello" {
			t.Errorf("Frame = %+v", e.Frame)
		}
	}
}

func TestFramerLogsTruncatedData(t *testing.T) {
	logger := &capturingLogger{}

	writer := NewFramer(new(bytes.Buffer), WithFrameLog(logger, "conn-trunc", log.RoleServer))

	largePayload := bytes.Repeat([]byte("x"), MaxLogFrameDataSize+100)
	if err := writer.WriteFrame(largePayload); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}

	events := logger.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.Frame.Size != FrameSize(len(largePayload)) {
		t.Errorf("Frame.Size = %d, want %d", e.Frame.Size, FrameSize(len(largePayload)))
	}
	if len(e.Frame.Data) != MaxLogFrameDataSize || !e.Frame.Truncated {
		t.Errorf("Frame.Data length = %d, truncated = %v", len(e.Frame.Data), e.Frame.Truncated)
	}
}

func TestFramerZeroMaxKeepsDefault(t *testing.T) {
	f := NewFramer(new(bytes.Buffer), WithMaxMessageSize(0))
	if f.max != DefaultMaxMessageSize {
		t.Errorf("max = %d, want %d", f.max, DefaultMaxMessageSize)
	}
	if err := f.WriteFrame(bytes.Repeat([]byte("z"), 2048)); err != nil {
		t.Errorf("WriteFrame failed: %v", err)
	}
}

type discardRW struct{ io.Writer }

func (discardRW) Read([]byte) (int, error) { return 0, io.EOF }

func BenchmarkFrameWrite(b *testing.B) {
	writer := NewFramer(discardRW{io.Discard})
	payload := bytes.Repeat([]byte("x"), 100)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = writer.WriteFrame(payload)
	}
}
