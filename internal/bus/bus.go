// Package bus provides event bus implementations for dataset lifecycle
// notifications.
package bus

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"
)

// Handler is a function that handles events.
type Handler func(ctx context.Context, event Event) error

// Bus defines the interface for event bus implementations.
type Bus interface {
	// Publish publishes an event to a topic.
	Publish(ctx context.Context, topic string, event Event) error

	// Subscribe subscribes to events on a topic.
	Subscribe(ctx context.Context, topic string, handler Handler) error

	// Close closes the bus and releases resources.
	Close() error
}

// Event represents a bus event.
type Event struct {
	// ID is the unique event identifier.
	ID string `json:"id"`

	// Type is the event type (e.g., "dataset.validated").
	Type string `json:"type"`

	// Source is the component that generated the event.
	Source string `json:"source"`

	// Timestamp is when the event was created.
	Timestamp int64 `json:"timestamp"`

	// Payload contains the event data.
	Payload any `json:"payload"`
}

// NewEvent creates an event with a generated id and current timestamp.
func NewEvent(eventType, source string, payload any) Event {
	return Event{
		ID:        newEventID(),
		Type:      eventType,
		Source:    source,
		Timestamp: time.Now().Unix(),
		Payload:   payload,
	}
}

func newEventID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Topics for dataset lifecycle events.
const (
	// TopicDatasetValidated fires after a dataset passes validation.
	TopicDatasetValidated = "dataset.validated"

	// TopicDatasetInvalid fires when validation finds a fatal error.
	TopicDatasetInvalid = "dataset.invalid"

	// TopicEvalCompleted fires after a retrieval evaluation run.
	TopicEvalCompleted = "eval.completed"
)
