package mocks

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"chat-client/internal/observability"
	"chat-client/internal/telemetry"
)

var (
	_ telemetry.Publisher     = (*PublisherMock)(nil)
	_ observability.Publisher = (*PublisherMock)(nil)
)

// PublisherMock stands in for the rabbitmq publisher behind audit records
// and channel lifecycle events. Every published event is kept so tests can
// inspect what reached a routing key after the fact.
type PublisherMock struct {
	mock.Mock

	mu        sync.Mutex
	published map[string][]any
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	m.mu.Lock()
	if m.published == nil {
		m.published = make(map[string][]any)
	}
	m.published[routingKey] = append(m.published[routingKey], event)
	m.mu.Unlock()

	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

// EventNames lists the lifecycle event names published on routingKey, in
// publish order.
func (m *PublisherMock) EventNames(routingKey string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var names []string
	for _, event := range m.published[routingKey] {
		if envelope, ok := event.(observability.EventEnvelope); ok {
			names = append(names, envelope.EventName)
		}
	}
	return names
}

// Audits returns the audit envelopes published on routingKey.
func (m *PublisherMock) Audits(routingKey string) []telemetry.AuditEnvelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []telemetry.AuditEnvelope
	for _, event := range m.published[routingKey] {
		if envelope, ok := event.(telemetry.AuditEnvelope); ok {
			out = append(out, envelope)
		}
	}
	return out
}
