package wrapper

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rise-and-shine/repokit/repofactory"
	"github.com/rise-and-shine/repokit/repometa"
)

// TracingDecorator opens a span around every invocation. Spans are named
// repository.Method and record failures with an error status.
type TracingDecorator struct {
	tracer trace.Tracer
}

// NewTracingDecorator builds a tracing decorator on the global tracer
// provider.
func NewTracingDecorator() *TracingDecorator {
	return &TracingDecorator{tracer: otel.Tracer("repokit/repository")}
}

func (d *TracingDecorator) Decorate(repository string, m repometa.Method, next repofactory.CallFunc) repofactory.CallFunc {
	spanName := repository + "." + m.Name

	return func(ctx context.Context, args []any) (any, error) {
		ctx, span := d.tracer.Start(ctx, spanName)
		defer span.End()

		out, err := next(ctx, args)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return out, err
	}
}
