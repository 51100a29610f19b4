package notification

import (
	"context"
	"time"
)

// Event is the payload fanned out to the message broker alongside the
// stored notification record.
type Event struct {
	Type       string            `json:"type"`
	UserID     int64             `json:"user_id"`
	Title      string            `json:"title"`
	Message    string            `json:"message"`
	Data       map[string]string `json:"data,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// Publisher delivers events to external consumers. Implemented by the
// AMQP client in the infrastructure layer.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
