// Package obslog provides structured logging built on log/slog, generalizing
// the internal/log + internal/requestid packages from a single
// "request_id" concept to a single "trace id" threaded through
// callbacks, executions, and routing decisions (spec §9).
package obslog

import "context"

type traceCtxKey struct{}

// WithTraceID returns a copy of ctx carrying traceID for later log
// enrichment by ContextHandler.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceCtxKey{}, traceID)
}

// TraceIDFromContext extracts the trace id from ctx, or "" if absent.
func TraceIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(traceCtxKey{}).(string)
	return id
}
