package wire

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder mode for protocol messages.
// Configured for deterministic encoding with integer keys.
var encMode cbor.EncMode

// decMode is the CBOR decoder mode for protocol messages.
var decMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}

	// Lenient for forward compatibility
	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder mode: %v", err))
	}
}

// Marshal encodes a value to CBOR bytes.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR bytes into a value.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// NewEncoder creates a new CBOR encoder that writes to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder creates a new CBOR decoder that reads from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return decMode.NewDecoder(r)
}

// EncodeRequest encodes a request message to CBOR bytes.
func EncodeRequest(req *Request) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return Marshal(req)
}

// DecodeRequest decodes CBOR bytes into a request message.
func DecodeRequest(data []byte) (*Request, error) {
	var req Request
	if err := Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to decode request: %w", err)
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return &req, nil
}

// EncodeResponse encodes a response message to CBOR bytes.
func EncodeResponse(resp *Response) ([]byte, error) {
	return Marshal(resp)
}

// DecodeResponse decodes CBOR bytes into a response message.
func DecodeResponse(data []byte) (*Response, error) {
	var resp Response
	if err := Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &resp, nil
}

// updateWire is the on-wire form of an Update, which adds messageId 0.
type updateWire struct {
	MessageID uint32   `cbor:"1,keyasint"`
	MonitorID uint32   `cbor:"12,keyasint"`
	Snapshot  Snapshot `cbor:"13,keyasint"`
}

// EncodeUpdate encodes an update message to CBOR bytes.
func EncodeUpdate(u *Update) ([]byte, error) {
	return Marshal(updateWire{
		MessageID: UpdateMessageID,
		MonitorID: u.MonitorID,
		Snapshot:  u.Snapshot,
	})
}

// DecodeUpdate decodes CBOR bytes into an update message.
func DecodeUpdate(data []byte) (*Update, error) {
	var w updateWire
	if err := Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to decode update: %w", err)
	}
	if w.MessageID != UpdateMessageID {
		return nil, fmt.Errorf("not an update message: messageId=%d", w.MessageID)
	}
	return &Update{MonitorID: w.MonitorID, Snapshot: w.Snapshot}, nil
}

// EncodeControlMessage encodes a control message (ping/pong/close) to CBOR bytes.
func EncodeControlMessage(msg *ControlMessage) ([]byte, error) {
	return Marshal(msg)
}

// DecodeControlMessage decodes CBOR bytes into a control message.
func DecodeControlMessage(data []byte) (*ControlMessage, error) {
	var msg ControlMessage
	if err := Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode control message: %w", err)
	}
	return &msg, nil
}

// MessageType represents the type of a decoded message.
type MessageType int

const (
	MessageTypeUnknown MessageType = iota
	MessageTypeRequest
	MessageTypeResponse
	MessageTypeUpdate
	MessageTypeControl
)

// String returns the message type name.
func (t MessageType) String() string {
	switch t {
	case MessageTypeRequest:
		return "request"
	case MessageTypeResponse:
		return "response"
	case MessageTypeUpdate:
		return "update"
	case MessageTypeControl:
		return "control"
	default:
		return "unknown"
	}
}

// PeekMessageType classifies CBOR data by its discriminating key without
// decoding the payload.
func PeekMessageType(data []byte) (MessageType, error) {
	var peek struct {
		Operation   *uint8  `cbor:"2,keyasint"`
		Status      *uint8  `cbor:"10,keyasint"`
		MonitorID   *uint32 `cbor:"12,keyasint"`
		ControlType *uint8  `cbor:"14,keyasint"`
	}
	if err := Unmarshal(data, &peek); err != nil {
		return MessageTypeUnknown, fmt.Errorf("failed to peek message: %w", err)
	}

	switch {
	case peek.ControlType != nil:
		return MessageTypeControl, nil
	case peek.MonitorID != nil:
		return MessageTypeUpdate, nil
	case peek.Status != nil:
		return MessageTypeResponse, nil
	case peek.Operation != nil:
		return MessageTypeRequest, nil
	}
	return MessageTypeUnknown, nil
}
