package queue

import "testing"

func TestEncodeDecodeMessage(t *testing.T) {
	msg := Message{
		DocumentID: "doc-1",
		OwnerID:    "owner-1",
		Action:     ActionIngested,
		RequestID:  "req-1",
		OccurredAt: "2025-06-01T10:00:00Z",
		Version:    1,
	}

	payload, err := EncodeMessage(msg)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := DecodeMessage(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != msg {
		t.Fatalf("round trip = %+v, want %+v", got, msg)
	}
}

func TestDecodeMessageRejectsGarbage(t *testing.T) {
	if _, err := DecodeMessage([]byte("not json")); err == nil {
		t.Fatal("expected error")
	}
}
