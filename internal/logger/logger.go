package logger

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type ctxKey string

const (
	requestIDKey ctxKey = "requestID"
	userIDKey    ctxKey = "externalUserID"
)

// GenerateRequestID creates a new UUID for tracing requests.
func GenerateRequestID() string {
	return uuid.NewString()
}

// WithRequestID returns a new context containing the request ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext extracts the request ID from the context, if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id, true
	}
	return "", false
}

// WithExternalUserID returns a new context tagged with the session's
// external user id. Session-scoped controllers carry this so every log
// line of a connect attempt can be traced to one browser session.
func WithExternalUserID(ctx context.Context, externalUserID string) context.Context {
	return context.WithValue(ctx, userIDKey, externalUserID)
}

// FromContext returns a logger that includes the request_id and
// external_user_id attributes when present.
func FromContext(ctx context.Context) *slog.Logger {
	log := slog.Default()
	if id, ok := RequestIDFromContext(ctx); ok {
		log = log.With("request_id", id)
	}
	if id, ok := ctx.Value(userIDKey).(string); ok {
		log = log.With("external_user_id", id)
	}
	return log
}
