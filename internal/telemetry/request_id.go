package telemetry

import (
	"context"

	"github.com/google/uuid"
)

type requestIDKey struct{}

// WithRequestID tags ctx so the REST call and the audit record of one user
// action share an id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// NewRequest returns ctx tagged with a fresh request id, keeping an existing one.
func NewRequest(ctx context.Context) context.Context {
	if RequestIDFromContext(ctx) != "" {
		return ctx
	}
	return WithRequestID(ctx, uuid.NewString())
}

func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
