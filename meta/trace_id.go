package meta

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// NewTraceID returns the trace ID for the given context.
// If no otel trace ID is available, it generates a new UUID-based ID so
// logs and invocation records stay correlated even without tracing set up.
func NewTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	traceID := span.SpanContext().TraceID()

	if traceID.IsValid() {
		return traceID.String()
	}

	return fmt.Sprintf("man-%s", uuid.New().String())
}
