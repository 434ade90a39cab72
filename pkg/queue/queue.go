package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// QueueService publishes typed messages.
type QueueService interface {
	PublishMessage(ctx context.Context, msgType string, payload interface{}) error
}

// Message is the envelope pushed onto a list.
type Message struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// ParseMessage decodes a raw list entry and its payload.
func ParseMessage[T any](raw []byte) (*Message, *T, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, nil, fmt.Errorf("unmarshal message: %w", err)
	}
	var payload T
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return &msg, nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return &msg, &payload, nil
}
