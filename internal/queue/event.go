package queue

import (
	"context"
	"encoding/json"
	"time"
)

type EventType string

const (
	EventDocumentCreated   EventType = "document.created"
	EventDocumentSaved     EventType = "document.saved"
	EventCheckpointCreated EventType = "checkpoint.created"
	EventDocumentRestored  EventType = "document.restored"
)

// Event is a change to a document published for downstream consumers.
type Event struct {
	Type         EventType `json:"type"`
	DocumentID   string    `json:"document_id"`
	Owner        string    `json:"owner"`
	CheckpointID string    `json:"checkpoint_id,omitempty"`
	At           time.Time `json:"at"`
}

func (e Event) MarshalBinary() ([]byte, error) {
	return json.Marshal(e)
}

// EventQueue publishes document events.
type EventQueue interface {
	// Publish appends an event to the queue. It returns once the event is
	// accepted by the broker.
	Publish(ctx context.Context, event Event) error
	Close() error
}

var _ EventQueue = NopQueue{}

// NopQueue drops every event.
type NopQueue struct{}

func (NopQueue) Publish(context.Context, Event) error { return nil }

func (NopQueue) Close() error { return nil }
