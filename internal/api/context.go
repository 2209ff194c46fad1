package api

import "context"

// requestIDContextKey is the context key for the request ID (for logging).
type requestIDContextKey struct{}

// WithRequestID returns a new context with the request ID attached.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, id)
}

// RequestIDFromContext extracts the request ID from the context.
// Returns "" if not present.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}
