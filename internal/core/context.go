package core

import "context"

type ctxKey int

const correlationIDKey ctxKey = iota

// WithCorrelationID returns a context carrying the correlation ID of
// the current request. The same ID doubles as the session ID of an
// authentication attempt.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationID retrieves the correlation ID, or "" when the context
// carries none.
func CorrelationID(ctx context.Context) string {
	id, ok := ctx.Value(correlationIDKey).(string)
	if !ok {
		return ""
	}
	return id
}
