package observability

import (
	"context"
	"sync"
	"time"
)

// Publisher is satisfied by the rabbitmq publisher.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// EventEnvelope wraps lifecycle events published by the client.
type EventEnvelope struct {
	EventType  string         `json:"event_type"`
	EventName  string         `json:"event_name"`
	OccurredAt string         `json:"occurred_at"`
	RequestID  string         `json:"request_id,omitempty"`
	TraceID    string         `json:"trace_id,omitempty"`
	Payload    map[string]any `json:"payload"`
}

var (
	publisherMu      sync.RWMutex
	defaultPublisher Publisher
)

func SetPublisher(publisher Publisher) {
	publisherMu.Lock()
	defer publisherMu.Unlock()
	defaultPublisher = publisher
}

// PublishEvent sends an envelope through the configured publisher. Without
// one it is a no-op.
func PublishEvent(ctx context.Context, routingKey string, envelope EventEnvelope) error {
	publisherMu.RLock()
	publisher := defaultPublisher
	publisherMu.RUnlock()
	if publisher == nil {
		return nil
	}
	if envelope.OccurredAt == "" {
		envelope.OccurredAt = time.Now().UTC().Format(time.RFC3339Nano)
	}

	err := publisher.Publish(ctx, routingKey, envelope)
	if err != nil {
		IncEventPublishError()
	}
	return err
}
