// Package bus carries ingestion events from producers to the indexing
// consumer. Implementations exist for in-process use (memory) and for
// multi-service deployments (kafka).
package bus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/T-rav/hydra/internal/pkg/errors"
)

// Handler processes one event. Returning an error logs the failure but
// never stops delivery to other handlers.
type Handler func(ctx context.Context, event Event) error

// Bus is a publish/subscribe event transport.
type Bus interface {
	// Publish sends an event to all subscribers of a topic.
	Publish(ctx context.Context, topic string, event Event) error

	// Subscribe registers a handler for events on a topic.
	Subscribe(ctx context.Context, topic string, handler Handler) error

	// Close shuts down the bus and releases resources.
	Close() error
}

// Event is one bus message. Payload is kept as raw JSON so memory and
// kafka transports deliver identical shapes to handlers.
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Source    string          `json:"source"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Ingestion topics.
const (
	// TopicChunkIngest carries new or updated chunks for indexing.
	TopicChunkIngest = "hydra.chunk.ingest"

	// TopicDocumentDelete carries document removal requests.
	TopicDocumentDelete = "hydra.document.delete"
)

// NewEvent builds an event with a fresh ID and the payload marshaled to
// JSON.
func NewEvent(eventType, source string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, errors.Wrap(errors.CodeInternal, "marshaling event payload", err)
	}
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    source,
		Timestamp: time.Now().Unix(),
		Payload:   data,
	}, nil
}

// DecodePayload unmarshals the event payload into v.
func (e Event) DecodePayload(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return errors.Wrap(errors.CodeInternal, "decoding event payload", err)
	}
	return nil
}
