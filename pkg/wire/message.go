package wire

import (
	"fmt"
	"slices"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/cpswtree/catree/pkg/ca"
)

// CBOR map keys. Every message type owns a discriminating key: requests
// KeyOperation, responses KeyStatus, updates KeyMonitorID, control messages
// KeyControlType.
const (
	KeyMessageID = 1

	// Request keys
	KeyOperation = 2
	KeyName      = 3
	KeyForm      = 4
	KeyValue     = 5
	KeyRange     = 6
	KeyVersion   = 7
	KeyTarget    = 8

	// Response keys
	KeyStatus  = 10
	KeyPayload = 11

	// Update keys
	KeyMonitorID = 12
	KeySnapshot  = 13

	// Control keys
	KeyControlType = 14
	KeySequence    = 15
)

// UpdateMessageID is the message ID of every update.
const UpdateMessageID uint32 = 0

// Request is a client request.
//
// CBOR encoding:
//
//	{
//	  1: messageId,   // uint32, non-zero
//	  2: operation,   // uint8
//	  3: name,        // channel name (Search, Get, Put, Monitor)
//	  4: form,        // 0=native, 1=ctrl (Get, Monitor)
//	  5: value,       // Put value
//	  6: [from, to],  // Put element range
//	  7: version,     // Hello protocol version
//	  8: target       // Cancel: monitor ID
//	}
type Request struct {
	MessageID uint32    `cbor:"1,keyasint"`
	Operation Operation `cbor:"2,keyasint"`
	Name      string    `cbor:"3,keyasint,omitempty"`
	Form      ca.Form   `cbor:"4,keyasint,omitempty"`
	Value     any       `cbor:"5,keyasint"`
	Range     *Range    `cbor:"6,keyasint,omitempty"`
	Version   string    `cbor:"7,keyasint,omitempty"`
	Target    uint32    `cbor:"8,keyasint,omitempty"`
}

// Range is an inclusive element range. Negative bounds mean "not given".
type Range struct {
	_    struct{} `cbor:",toarray"`
	From int32
	To   int32
}

// NewRange converts put options to a Range, nil when no range is given.
func NewRange(opts ca.PutOptions) *Range {
	if !opts.HasRange() {
		return nil
	}
	return &Range{From: int32(opts.From), To: int32(opts.To)}
}

// PutOptions converts r back to put options.
func (r *Range) PutOptions() ca.PutOptions {
	if r == nil {
		return ca.NewPutOptions()
	}
	return ca.NewPutOptions(ca.WithRange(int(r.From), int(r.To)))
}

// Validate checks if the request is valid.
func (r *Request) Validate() error {
	if r.MessageID == UpdateMessageID {
		return fmt.Errorf("messageId 0 is reserved for updates")
	}
	if !r.Operation.IsValid() {
		return fmt.Errorf("invalid operation: %d", r.Operation)
	}
	if r.Operation.NeedsName() && r.Name == "" {
		return fmt.Errorf("%s request without channel name", r.Operation)
	}
	if r.Operation == OpCancel && r.Target == UpdateMessageID {
		return fmt.Errorf("cancel without target monitor")
	}
	return nil
}

// Response answers a request.
//
// CBOR encoding:
//
//	{
//	  1: messageId,    // matches the request
//	  10: status,      // 0=success, or error code
//	  11: payload      // operation-specific data, or ErrorPayload
//	}
type Response struct {
	MessageID uint32          `cbor:"1,keyasint"`
	Status    Status          `cbor:"10,keyasint"`
	Payload   cbor.RawMessage `cbor:"11,keyasint,omitempty"`
}

// NewResponse creates a response carrying payload (nil for none).
func NewResponse(messageID uint32, status Status, payload any) (*Response, error) {
	resp := &Response{MessageID: messageID, Status: status}
	if payload != nil {
		data, err := Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode payload: %w", err)
		}
		resp.Payload = data
	}
	return resp, nil
}

// NewErrorResponse creates a failure response with a message.
func NewErrorResponse(messageID uint32, status Status, msg string) *Response {
	resp, err := NewResponse(messageID, status, &ErrorPayload{Message: msg})
	if err != nil {
		return &Response{MessageID: messageID, Status: status}
	}
	return resp
}

// IsSuccess returns true if the response indicates success.
func (r *Response) IsSuccess() bool {
	return r.Status.IsSuccess()
}

// DecodePayload decodes the payload into v. A missing payload leaves v
// untouched.
func (r *Response) DecodePayload(v any) error {
	if len(r.Payload) == 0 {
		return nil
	}
	return Unmarshal(r.Payload, v)
}

// Err returns nil for success and a *StatusError otherwise.
func (r *Response) Err() error {
	if r.IsSuccess() {
		return nil
	}
	var ep ErrorPayload
	_ = r.DecodePayload(&ep)
	return &StatusError{Status: r.Status, Message: ep.Message}
}

// HelloPayload answers a Hello request.
type HelloPayload struct {
	Version      string `cbor:"1,keyasint"`
	RecordPrefix string `cbor:"2,keyasint,omitempty"`
	Server       string `cbor:"3,keyasint,omitempty"`
}

// SearchPayload answers a Search request.
type SearchPayload struct {
	Type     ca.Type  `cbor:"1,keyasint"`
	Count    int      `cbor:"2,keyasint"`
	EnumStrs []string `cbor:"3,keyasint,omitempty"`
	Path     string   `cbor:"4,keyasint,omitempty"`
	Kind     string   `cbor:"5,keyasint,omitempty"`
}

// Info returns the channel metadata.
func (p *SearchPayload) Info() ca.Info {
	return ca.Info{Type: p.Type, Count: p.Count, EnumStrs: slices.Clone(p.EnumStrs)}
}

// ErrorPayload carries a human-readable error message.
type ErrorPayload struct {
	Message string `cbor:"1,keyasint,omitempty"`
}

// Snapshot is a channel value as sent in Get responses and updates.
type Snapshot struct {
	Value     any    `cbor:"1,keyasint"`
	CharValue []byte `cbor:"2,keyasint,omitempty"`
	Status    int    `cbor:"3,keyasint,omitempty"`
	Severity  int    `cbor:"4,keyasint,omitempty"`

	// Timestamp is in Unix nanoseconds.
	Timestamp int64 `cbor:"5,keyasint,omitempty"`
}

// Time returns the snapshot timestamp.
func (s *Snapshot) Time() time.Time {
	if s.Timestamp == 0 {
		return time.Time{}
	}
	return time.Unix(0, s.Timestamp)
}

// Event converts the snapshot to a client event for a channel of type t.
func (s *Snapshot) Event(t ca.Type) ca.Event {
	return ca.Event{
		Value:     NativeValue(t, s.Value),
		CharValue: s.CharValue,
		Status:    s.Status,
		Severity:  s.Severity,
		Timestamp: s.Time(),
	}
}

// Update is a monitored value change.
//
// CBOR encoding:
//
//	{
//	  1: 0,            // messageId 0 = update
//	  12: monitorId,   // the Monitor request's messageId
//	  13: snapshot
//	}
type Update struct {
	MonitorID uint32   `cbor:"12,keyasint"`
	Snapshot  Snapshot `cbor:"13,keyasint"`
}

// ControlMessage is a transport-level control message.
type ControlMessage struct {
	Type     ControlMessageType `cbor:"14,keyasint"`
	Sequence uint32             `cbor:"15,keyasint,omitempty"`
}

// ControlMessageType represents the type of control message.
type ControlMessageType uint8

const (
	// ControlPing is sent to check connection liveness.
	ControlPing ControlMessageType = 1

	// ControlPong is the response to a ping.
	ControlPong ControlMessageType = 2

	// ControlClose initiates graceful connection close.
	ControlClose ControlMessageType = 3
)

// String returns the control message type name.
func (t ControlMessageType) String() string {
	switch t {
	case ControlPing:
		return "ping"
	case ControlPong:
		return "pong"
	case ControlClose:
		return "close"
	default:
		return "unknown"
	}
}

// NativeValue restores the Go type of a decoded value for a channel of
// type t: int64 for integer and enum channels, float64 for doubles, string
// for strings, and slices of these for arrays. Values that do not convert
// are returned unchanged.
func NativeValue(t ca.Type, v any) any {
	switch t {
	case ca.TypeShort, ca.TypeLong, ca.TypeInt64, ca.TypeEnum:
		if v == nil {
			return int64(0)
		}
		if xs, ok := v.([]any); ok {
			return convertAll(xs, toInt64)
		}
		if n, ok := toInt64(v); ok {
			return n
		}
	case ca.TypeDouble:
		if v == nil {
			return float64(0)
		}
		if xs, ok := v.([]any); ok {
			return convertAll(xs, toFloat64)
		}
		if f, ok := toFloat64(v); ok {
			return f
		}
	case ca.TypeString:
		switch x := v.(type) {
		case nil:
			return ""
		case []byte:
			return string(x)
		}
	}
	return v
}

func convertAll[T any](xs []any, conv func(any) (T, bool)) any {
	out := make([]T, len(xs))
	for i, x := range xs {
		c, ok := conv(x)
		if !ok {
			return xs
		}
		out[i] = c
	}
	return out
}

func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case uint64:
		return int64(x), true
	case int:
		return int64(x), true
	case float64:
		return int64(x), x == float64(int64(x))
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	}
	return 0, false
}
