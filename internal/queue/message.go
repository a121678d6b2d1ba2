package queue

import (
	"encoding/json"
	"errors"
	"strings"
)

// MessageVersion is written into every encoded message.
const MessageVersion = 1

// ErrMissingRecipient marks a message that can never be delivered.
var ErrMissingRecipient = errors.New("queue message has no recipient")

// Message is one outbound e-mail waiting for the mail worker.
type Message struct {
	To         string `json:"to"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
	EnqueuedAt string `json:"enqueuedAt"`
	Version    int    `json:"version"`
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	if msg.Version == 0 {
		msg.Version = MessageVersion
	}
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	if strings.TrimSpace(msg.To) == "" {
		return Message{}, ErrMissingRecipient
	}
	return msg, nil
}
