package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chat-client/internal/mocks"
	"chat-client/internal/telemetry"
)

func TestAuditEmitterPublishesEnvelope(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := telemetry.NewAuditEmitter(publisher, "audit.chat-client", "chat-client", "test")
	ctx := telemetry.WithRequestID(context.Background(), "req-1")
	userID := 3

	publisher.On("Publish", mock.Anything, "audit.chat-client", mock.MatchedBy(func(event any) bool {
		env, ok := event.(telemetry.AuditEnvelope)
		return ok &&
			env.RequestID == "req-1" &&
			env.Service == "chat-client" &&
			env.Payload.Text == "Room created" &&
			env.Payload.RoomID == 9 &&
			*env.UserID == 3
	})).Return(nil).Once()

	emitter.Emit(ctx, "INFO", "Room created", 9, &userID)

	publisher.AssertExpectations(t)
	audits := publisher.Audits("audit.chat-client")
	require.Len(t, audits, 1)
	require.Equal(t, "INFO", audits[0].Payload.Level)
	require.Equal(t, "audit_log", audits[0].EventType)
}

func TestAuditEmitterSwallowsPublishError(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := telemetry.NewAuditEmitter(publisher, "k", "s", "e")
	publisher.On("Publish", mock.Anything, "k", mock.Anything).Return(context.DeadlineExceeded).Once()

	require.NotPanics(t, func() { emitter.Emit(context.Background(), "ERROR", "boom", 0, nil) })
	publisher.AssertExpectations(t)
}

func TestNilEmitterIsSafe(t *testing.T) {
	var emitter *telemetry.AuditEmitter
	require.NotPanics(t, func() { emitter.Emit(context.Background(), "INFO", "noop", 0, nil) })
}

func TestNewRequestKeepsExistingID(t *testing.T) {
	ctx := telemetry.WithRequestID(context.Background(), "fixed")
	require.Equal(t, "fixed", telemetry.RequestIDFromContext(telemetry.NewRequest(ctx)))
	require.NotEmpty(t, telemetry.RequestIDFromContext(telemetry.NewRequest(context.Background())))
}
