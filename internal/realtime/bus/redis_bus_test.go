package bus

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/weave-backend/internal/realtime"
)

func TestEnvelopeRoundTripKeepsPayloadBytes(t *testing.T) {
	u := uuid.New()
	raw, err := Encode(realtime.Message{UserID: u, Event: realtime.EventThreadUpdated, Data: map[string]any{"threadId": "x"}})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	msg, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if msg.UserID != u || msg.Event != realtime.EventThreadUpdated {
		t.Fatalf("decoded: %+v", msg)
	}
	data, ok := msg.Data.(json.RawMessage)
	if !ok || string(data) != `{"threadId":"x"}` {
		t.Fatalf("payload: %#v", msg.Data)
	}
}

func TestDecodeBroadcastEnvelope(t *testing.T) {
	raw, err := Encode(realtime.Message{Event: realtime.EventNotification})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	msg, err := Decode(raw)
	if err != nil || !msg.Broadcast() {
		t.Fatalf("broadcast envelope: %+v %v", msg, err)
	}
}

func TestDecodeRejectsMissingEvent(t *testing.T) {
	if _, err := Decode([]byte(`{"userId":"","data":1}`)); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := Encode(realtime.Message{}); err == nil {
		t.Fatalf("expected encode error")
	}
}
