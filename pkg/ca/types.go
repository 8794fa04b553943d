package ca

import (
	"context"
	"errors"
	"time"
)

// Client errors.
var (
	ErrNotConnected = errors.New("channel not connected")
	ErrClosed       = errors.New("client closed")
	ErrPutFailed    = errors.New("put failed")
)

// Form selects the representation a channel is opened with.
type Form uint8

const (
	// FormNative delivers raw values only.
	FormNative Form = iota

	// FormCtrl adds control metadata (enum strings).
	FormCtrl
)

// String returns the form name.
func (f Form) String() string {
	switch f {
	case FormNative:
		return "native"
	case FormCtrl:
		return "ctrl"
	default:
		return "unknown"
	}
}

// Type is the native type of a channel.
type Type string

const (
	TypeUnknown Type = ""
	TypeShort   Type = "short"
	TypeLong    Type = "long"
	TypeInt64   Type = "int64"
	TypeDouble  Type = "double"
	TypeString  Type = "string"
	TypeEnum    Type = "enum"
)

// Event is one value update, the keyword bundle handed to callbacks.
type Event struct {
	// PVName is the channel name.
	PVName string

	// Value is the raw value in the channel's native type: int64 for integer
	// and enum channels, float64 for doubles, string for strings; slices for
	// array channels.
	Value any

	// CharValue is the value rendered as ASCII characters. For enum channels
	// opened in FormCtrl this is the enum string.
	CharValue []byte

	// Type is the native type.
	Type Type

	// Count is the element count.
	Count int

	// Status and Severity are the alarm status and severity.
	Status   int
	Severity int

	// Timestamp is the server timestamp of the value.
	Timestamp time.Time

	// EnumStrs holds the enum strings; only set for FormCtrl channels or
	// callbacks registered with control variables.
	EnumStrs []string

	// CallbackIndex identifies the callback registration that receives the event.
	CallbackIndex int
}

// Callback receives value updates.
type Callback interface {
	OnEvent(ev Event)
}

// CallbackFunc adapts a function to Callback.
type CallbackFunc func(ev Event)

// OnEvent calls f(ev).
func (f CallbackFunc) OnEvent(ev Event) { f(ev) }

// PutOptions are the optional arguments of a put.
type PutOptions struct {
	// From and To select an inclusive element range of an array channel.
	// Negative values mean "not given".
	From int
	To   int
}

// PutOption configures a put.
type PutOption func(*PutOptions)

// WithRange restricts a put to the elements from..to (inclusive). Negative
// indices mean "not given"; bounds are checked by the server.
func WithRange(from, to int) PutOption {
	return func(o *PutOptions) {
		o.From = from
		o.To = to
	}
}

// NewPutOptions applies opts to the defaults.
func NewPutOptions(opts ...PutOption) PutOptions {
	o := PutOptions{From: -1, To: -1}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// HasRange reports whether a range was given.
func (o PutOptions) HasRange() bool {
	return o.From >= 0 || o.To >= 0
}

// PV is a live handle to a named process variable.
type PV interface {
	// Name returns the channel name.
	Name() string

	// Form returns the representation the channel was opened with.
	Form() Form

	// Type returns the native type, TypeUnknown until connected.
	Type() Type

	// Count returns the element count, 0 until connected.
	Count() int

	// EnumStrs returns the enum strings of an enum channel.
	EnumStrs() []string

	// Connected reports the current connection state.
	Connected() bool

	// WaitConnected blocks until the channel is connected or ctx is done.
	WaitConnected(ctx context.Context) error

	// Get returns the latest value, waiting at most timeout for one to
	// arrive. A zero timeout never waits. With asString the CharValue is
	// returned as []byte. ok is false when no value is available.
	Get(timeout time.Duration, asString bool) (value any, ok bool)

	// AddCallback registers cb for value updates and returns its index.
	AddCallback(cb Callback, withCtrlVars bool) int

	// RemoveCallback removes a registration.
	RemoveCallback(index int)

	// Put writes a value. It does not wait for the server to process it
	// unless the client documents otherwise.
	Put(value any, opts ...PutOption) error
}

// Client opens PVs.
type Client interface {
	// GetPV returns the PV for name, opening it if needed. It waits at most
	// connTimeout for the connection; zero never waits.
	GetPV(name string, form Form, connTimeout time.Duration) PV

	// Close releases all channels and stops callback delivery.
	Close() error
}
