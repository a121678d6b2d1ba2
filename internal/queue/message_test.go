package queue

import (
	"errors"
	"testing"
)

func TestEncodeStampsVersion(t *testing.T) {
	payload, err := EncodeMessage(Message{To: "jane@example.com", Subject: "Reset", Body: "link"})
	if err != nil {
		t.Fatalf("encode message: %v", err)
	}
	got, err := DecodeMessage(payload)
	if err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if got.Version != MessageVersion || got.To != "jane@example.com" {
		t.Fatalf("unexpected message: %+v", got)
	}
}

func TestDecodeRejectsMissingRecipient(t *testing.T) {
	if _, err := DecodeMessage([]byte(`{"subject":"x"}`)); !errors.Is(err, ErrMissingRecipient) {
		t.Fatalf("expected ErrMissingRecipient, got %v", err)
	}
	if _, err := DecodeMessage([]byte(`{bad`)); err == nil {
		t.Fatalf("expected decode error")
	}
}
