package wire

import (
	"errors"
	"reflect"
	"testing"

	"github.com/cpswtree/catree/pkg/ca"
)

func TestRequestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{
			name: "hello",
			req:  Request{MessageID: 1, Operation: OpHello, Version: "1.0"},
		},
		{
			name: "search",
			req:  Request{MessageID: 2, Operation: OpSearch, Name: "CPSW:ABCDEF"},
		},
		{
			name: "get ctrl",
			req:  Request{MessageID: 3, Operation: OpGet, Name: "CPSW:ABCDEF", Form: ca.FormCtrl},
		},
		{
			name: "put with range",
			req: Request{
				MessageID: 4,
				Operation: OpPut,
				Name:      "CPSW:ABCDEF",
				Value:     []any{uint64(1), int64(-2)},
				Range:     &Range{From: 0, To: 1},
			},
		},
		{
			name: "monitor",
			req:  Request{MessageID: 5, Operation: OpMonitor, Name: "CPSW:ABCDEF", Form: ca.FormCtrl},
		},
		{
			name: "cancel",
			req:  Request{MessageID: 6, Operation: OpCancel, Target: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeRequest(&tt.req)
			if err != nil {
				t.Fatalf("EncodeRequest failed: %v", err)
			}

			decoded, err := DecodeRequest(data)
			if err != nil {
				t.Fatalf("DecodeRequest failed: %v", err)
			}

			if decoded.MessageID != tt.req.MessageID {
				t.Errorf("MessageID mismatch: got %d, want %d", decoded.MessageID, tt.req.MessageID)
			}
			if decoded.Operation != tt.req.Operation {
				t.Errorf("Operation mismatch: got %v, want %v", decoded.Operation, tt.req.Operation)
			}
			if decoded.Name != tt.req.Name {
				t.Errorf("Name mismatch: got %q, want %q", decoded.Name, tt.req.Name)
			}
			if decoded.Form != tt.req.Form {
				t.Errorf("Form mismatch: got %v, want %v", decoded.Form, tt.req.Form)
			}
			if decoded.Version != tt.req.Version {
				t.Errorf("Version mismatch: got %q, want %q", decoded.Version, tt.req.Version)
			}
			if decoded.Target != tt.req.Target {
				t.Errorf("Target mismatch: got %d, want %d", decoded.Target, tt.req.Target)
			}
			if !reflect.DeepEqual(decoded.Range, tt.req.Range) {
				t.Errorf("Range mismatch: got %+v, want %+v", decoded.Range, tt.req.Range)
			}
			if tt.req.Value != nil && !reflect.DeepEqual(decoded.Value, tt.req.Value) {
				t.Errorf("Value mismatch: got %#v, want %#v", decoded.Value, tt.req.Value)
			}
		})
	}
}

func TestPutZeroValueSurvives(t *testing.T) {
	req := Request{MessageID: 1, Operation: OpPut, Name: "X", Value: 0}
	data, err := EncodeRequest(&req)
	if err != nil {
		t.Fatalf("EncodeRequest failed: %v", err)
	}
	decoded, err := DecodeRequest(data)
	if err != nil {
		t.Fatalf("DecodeRequest failed: %v", err)
	}
	if decoded.Value != uint64(0) {
		t.Errorf("Value: got %#v, want uint64(0)", decoded.Value)
	}
	if decoded.Range != nil {
		t.Errorf("Range: got %+v, want nil", decoded.Range)
	}
}

func TestRange(t *testing.T) {
	if r := NewRange(ca.NewPutOptions()); r != nil {
		t.Errorf("NewRange without range: got %+v, want nil", r)
	}

	r := NewRange(ca.NewPutOptions(ca.WithRange(2, -1)))
	if r == nil || r.From != 2 || r.To != -1 {
		t.Fatalf("NewRange: got %+v", r)
	}
	opts := r.PutOptions()
	if opts.From != 2 || opts.To != -1 || !opts.HasRange() {
		t.Errorf("PutOptions: got %+v", opts)
	}

	var none *Range
	if none.PutOptions().HasRange() {
		t.Errorf("nil Range should give no range")
	}
}

func TestResponseRoundTrip(t *testing.T) {
	resp, err := NewResponse(7, StatusSuccess, &SearchPayload{
		Type:     ca.TypeEnum,
		Count:    1,
		EnumStrs: []string{"Off", "On"},
		Path:     "/dev/mode",
		Kind:     "read",
	})
	if err != nil {
		t.Fatalf("NewResponse failed: %v", err)
	}

	data, err := EncodeResponse(resp)
	if err != nil {
		t.Fatalf("EncodeResponse failed: %v", err)
	}
	decoded, err := DecodeResponse(data)
	if err != nil {
		t.Fatalf("DecodeResponse failed: %v", err)
	}

	if decoded.MessageID != 7 {
		t.Errorf("MessageID mismatch: got %d, want 7", decoded.MessageID)
	}
	if err := decoded.Err(); err != nil {
		t.Errorf("Err() = %v, want nil", err)
	}

	var sp SearchPayload
	if err := decoded.DecodePayload(&sp); err != nil {
		t.Fatalf("DecodePayload failed: %v", err)
	}
	info := sp.Info()
	if info.Type != ca.TypeEnum || info.Count != 1 {
		t.Errorf("Info mismatch: got %+v", info)
	}
	if !reflect.DeepEqual(info.EnumStrs, []string{"Off", "On"}) {
		t.Errorf("EnumStrs mismatch: got %v", info.EnumStrs)
	}
	if sp.Path != "/dev/mode" || sp.Kind != "read" {
		t.Errorf("Path/Kind mismatch: got %q/%q", sp.Path, sp.Kind)
	}
}

func TestErrorResponse(t *testing.T) {
	data, err := EncodeResponse(NewErrorResponse(3, StatusOutOfRange, "256 does not fit 8 bits"))
	if err != nil {
		t.Fatalf("EncodeResponse failed: %v", err)
	}
	decoded, err := DecodeResponse(data)
	if err != nil {
		t.Fatalf("DecodeResponse failed: %v", err)
	}

	err = decoded.Err()
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("Err() = %v, want *StatusError", err)
	}
	if se.Status != StatusOutOfRange {
		t.Errorf("Status mismatch: got %v", se.Status)
	}
	if se.Message != "256 does not fit 8 bits" {
		t.Errorf("Message mismatch: got %q", se.Message)
	}
	if got := se.Error(); got != "status OUT_OF_RANGE: 256 does not fit 8 bits" {
		t.Errorf("Error() = %q", got)
	}
}

func TestEmptyPayload(t *testing.T) {
	resp, err := NewResponse(1, StatusSuccess, nil)
	if err != nil {
		t.Fatalf("NewResponse failed: %v", err)
	}
	if len(resp.Payload) != 0 {
		t.Errorf("Payload should be empty, got %d bytes", len(resp.Payload))
	}
	hp := HelloPayload{Version: "keep"}
	if err := resp.DecodePayload(&hp); err != nil {
		t.Fatalf("DecodePayload failed: %v", err)
	}
	if hp.Version != "keep" {
		t.Errorf("DecodePayload should leave v untouched")
	}
}

func TestUpdateRoundTrip(t *testing.T) {
	u := Update{
		MonitorID: 5001,
		Snapshot: Snapshot{
			Value:     int64(-1),
			CharValue: []byte("-1"),
			Severity:  2,
			Timestamp: 1714564800123456789,
		},
	}

	data, err := EncodeUpdate(&u)
	if err != nil {
		t.Fatalf("EncodeUpdate failed: %v", err)
	}
	decoded, err := DecodeUpdate(data)
	if err != nil {
		t.Fatalf("DecodeUpdate failed: %v", err)
	}

	if decoded.MonitorID != u.MonitorID {
		t.Errorf("MonitorID mismatch: got %d, want %d", decoded.MonitorID, u.MonitorID)
	}
	ev := decoded.Snapshot.Event(ca.TypeShort)
	if ev.Value != int64(-1) {
		t.Errorf("Value mismatch: got %#v", ev.Value)
	}
	if string(ev.CharValue) != "-1" {
		t.Errorf("CharValue mismatch: got %q", ev.CharValue)
	}
	if ev.Severity != 2 {
		t.Errorf("Severity mismatch: got %d", ev.Severity)
	}
	if ev.Timestamp.UnixNano() != u.Snapshot.Timestamp {
		t.Errorf("Timestamp mismatch: got %v", ev.Timestamp)
	}
}

func TestDecodeUpdateRejectsRequest(t *testing.T) {
	data, err := EncodeRequest(&Request{MessageID: 9, Operation: OpHello})
	if err != nil {
		t.Fatalf("EncodeRequest failed: %v", err)
	}
	if _, err := DecodeUpdate(data); err == nil {
		t.Errorf("DecodeUpdate should reject a request")
	}
}

func TestControlMessageRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  ControlMessage
	}{
		{
			name: "ping",
			msg:  ControlMessage{Type: ControlPing, Sequence: 1},
		},
		{
			name: "pong",
			msg:  ControlMessage{Type: ControlPong, Sequence: 1},
		},
		{
			name: "close",
			msg:  ControlMessage{Type: ControlClose},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeControlMessage(&tt.msg)
			if err != nil {
				t.Fatalf("EncodeControlMessage failed: %v", err)
			}

			decoded, err := DecodeControlMessage(data)
			if err != nil {
				t.Fatalf("DecodeControlMessage failed: %v", err)
			}

			if decoded.Type != tt.msg.Type {
				t.Errorf("Type mismatch: got %v, want %v", decoded.Type, tt.msg.Type)
			}
			if decoded.Sequence != tt.msg.Sequence {
				t.Errorf("Sequence mismatch: got %d, want %d", decoded.Sequence, tt.msg.Sequence)
			}
		})
	}
}

func TestRequestValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{
			name:    "valid get",
			req:     Request{MessageID: 1, Operation: OpGet, Name: "X"},
			wantErr: false,
		},
		{
			name:    "hello needs no name",
			req:     Request{MessageID: 1, Operation: OpHello},
			wantErr: false,
		},
		{
			name:    "messageId 0 reserved",
			req:     Request{MessageID: 0, Operation: OpGet, Name: "X"},
			wantErr: true,
		},
		{
			name:    "invalid operation",
			req:     Request{MessageID: 1, Operation: Operation(99)},
			wantErr: true,
		},
		{
			name:    "put without name",
			req:     Request{MessageID: 1, Operation: OpPut, Value: 1},
			wantErr: true,
		},
		{
			name:    "cancel without target",
			req:     Request{MessageID: 1, Operation: OpCancel},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPeekMessageType(t *testing.T) {
	mustEncode := func(data []byte, err error) []byte {
		t.Helper()
		if err != nil {
			t.Fatalf("encode failed: %v", err)
		}
		return data
	}

	ok, _ := NewResponse(1, StatusSuccess, nil)
	tests := []struct {
		name string
		data []byte
		want MessageType
	}{
		{"request", mustEncode(EncodeRequest(&Request{MessageID: 1, Operation: OpGet, Name: "X"})), MessageTypeRequest},
		{"success response", mustEncode(EncodeResponse(ok)), MessageTypeResponse},
		{"error response", mustEncode(EncodeResponse(NewErrorResponse(2, StatusInternal, "x"))), MessageTypeResponse},
		{"update", mustEncode(EncodeUpdate(&Update{MonitorID: 3})), MessageTypeUpdate},
		{"control", mustEncode(EncodeControlMessage(&ControlMessage{Type: ControlPing})), MessageTypeControl},
		{"empty map", mustEncode(Marshal(map[int]int{})), MessageTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PeekMessageType(tt.data)
			if err != nil {
				t.Fatalf("PeekMessageType failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("PeekMessageType() = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := PeekMessageType([]byte{0xff}); err == nil {
		t.Errorf("PeekMessageType should fail on garbage")
	}
}

func TestUnknownFieldsIgnored(t *testing.T) {
	// A message from a newer protocol version with an extra field.
	msg := map[int]any{
		1:  uint32(1),
		2:  uint8(OpGet),
		3:  "CPSW:ABC",
		99: "future field",
	}

	data, err := Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	decoded, err := DecodeRequest(data)
	if err != nil {
		t.Fatalf("DecodeRequest should succeed with unknown fields: %v", err)
	}
	if decoded.Name != "CPSW:ABC" {
		t.Errorf("Name mismatch: got %q", decoded.Name)
	}
}

func TestCBORCompactness(t *testing.T) {
	req := Request{MessageID: 12345, Operation: OpGet, Name: "CPSW:0123456789ABCDEF0123456789ABCDEF01234567"}

	data, err := EncodeRequest(&req)
	if err != nil {
		t.Fatalf("EncodeRequest failed: %v", err)
	}

	// Name (45 bytes + 2 header) plus a handful of bytes of framing.
	if len(data) > 60 {
		t.Errorf("CBOR encoding too large: %d bytes (expected <= 60)", len(data))
	}
	t.Logf("CBOR size: %d bytes", len(data))
}
