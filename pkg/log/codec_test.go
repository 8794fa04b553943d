package log

import (
	"bytes"
	"testing"
	"time"

	"github.com/cpswtree/catree/pkg/wire"
)

func TestEventRoundTrip(t *testing.T) {
	ts := time.Date(2025, 3, 4, 10, 20, 30, 123456789, time.UTC)
	op := wire.OpPut
	elapsed := 1500 * time.Microsecond
	events := []Event{
		{
			Timestamp: ts, ConnectionID: "conn-1", Direction: DirectionIn,
			Layer: LayerWire, Category: CategoryMessage, LocalRole: RoleServer,
			RemoteAddr: "10.0.0.7:40123", Channel: "CPSW:0A1B",
			Message: &MessageEvent{Type: MessageTypeRequest, MessageID: 9, Operation: &op, Name: "CPSW:0A1B", Payload: "Auto"},
		},
		{
			Timestamp: ts, ConnectionID: "conn-1", Direction: DirectionOut,
			Layer: LayerWire, Category: CategoryMessage,
			Message: &MessageEvent{Type: MessageTypeResponse, MessageID: 9, ProcessingTime: &elapsed},
		},
		{
			Timestamp: ts, Layer: LayerChannel, Category: CategoryState, LocalRole: RoleClient,
			Channel: "CPSW:0A1B", Path: "/mmio/Mode",
			StateChange: &StateChangeEvent{Entity: StateEntityChannel, OldState: "searching", NewState: "connected"},
		},
		{
			Timestamp: ts, Layer: LayerTransport, Category: CategoryControl,
			ControlMsg: &ControlMsgEvent{Type: ControlMsgPong, Sequence: 3},
		},
	}

	for _, want := range events {
		data, err := EncodeEvent(want)
		if err != nil {
			t.Fatalf("EncodeEvent: %v", err)
		}
		got, err := DecodeEvent(data)
		if err != nil {
			t.Fatalf("DecodeEvent: %v", err)
		}
		if !got.Timestamp.Equal(want.Timestamp) {
			t.Errorf("timestamp %v, want %v", got.Timestamp, want.Timestamp)
		}
		if got.ConnectionID != want.ConnectionID || got.Direction != want.Direction ||
			got.Layer != want.Layer || got.Category != want.Category || got.LocalRole != want.LocalRole ||
			got.Channel != want.Channel || got.Path != want.Path || got.RemoteAddr != want.RemoteAddr {
			t.Errorf("header mismatch: got %+v, want %+v", got, want)
		}
	}
}

func TestEventPayloadsSurvive(t *testing.T) {
	op := wire.OpMonitor
	code := 3
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	for _, ev := range []Event{
		{Message: &MessageEvent{Operation: &op, Name: "CPSW:FF"}},
		{Frame: NewFrameEvent(bytes.Repeat([]byte{0xAA}, 100), 16)},
		{Error: &ErrorEventData{Layer: LayerWire, Message: "bad value", Code: &code, Context: "put"}},
	} {
		if err := enc.Encode(ev); err != nil {
			t.Fatal(err)
		}
	}

	dec := NewDecoder(&buf)
	var msg, frame, errEv Event
	for _, ev := range []*Event{&msg, &frame, &errEv} {
		if err := dec.Decode(ev); err != nil {
			t.Fatal(err)
		}
	}

	if msg.Message == nil || msg.Message.Operation == nil || *msg.Message.Operation != wire.OpMonitor || msg.Message.Name != "CPSW:FF" {
		t.Errorf("message: %+v", msg.Message)
	}
	if frame.Frame == nil || frame.Frame.Size != 104 || len(frame.Frame.Data) != 16 || !frame.Frame.Truncated {
		t.Errorf("frame: %+v", frame.Frame)
	}
	if errEv.Error == nil || errEv.Error.Code == nil || *errEv.Error.Code != 3 || errEv.Error.Context != "put" {
		t.Errorf("error: %+v", errEv.Error)
	}
}

func TestEventUsesIntegerKeys(t *testing.T) {
	data, err := EncodeEvent(Event{Timestamp: time.Now(), ConnectionID: "c", Channel: "CPSW:01"})
	if err != nil {
		t.Fatal(err)
	}
	var keyed map[uint64]any
	if err := decMode.Unmarshal(data, &keyed); err != nil {
		t.Fatalf("not an integer-keyed map: %v", err)
	}
	for _, k := range []uint64{1, 2, 3, 4, 5, 8} {
		if _, ok := keyed[k]; !ok {
			t.Errorf("key %d missing", k)
		}
	}
	if _, ok := keyed[9]; ok {
		t.Error("empty path should be omitted")
	}
}
