// Package tracing bootstraps the OpenTelemetry pipeline that instrumented
// code reports into. Packages such as repofactory/wrapper create spans
// through the global tracer provider; until an application calls
// InitGlobalTracer those spans are silently dropped.
package tracing

import (
	"context"
	"net"

	"github.com/code19m/errx"
	"github.com/creasty/defaults"
	"github.com/spf13/cast"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.23.1"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/rise-and-shine/repokit/val"
)

// InitGlobalTracer installs a tracer provider exporting to the configured
// OTLP gRPC endpoint and sets the W3C trace-context propagator. It returns
// a shutdown function that flushes queued spans; call it with defer.
//
// With cfg.Disable set the global provider is replaced by a no-op one and
// shutdown does nothing.
func InitGlobalTracer(cfg Config, serviceName, serviceVersion string) (func(context.Context) error, error) {
	if err := defaults.Set(&cfg); err != nil {
		return nil, errx.Wrap(err)
	}

	if cfg.Disable {
		otel.SetTracerProvider(noop.NewTracerProvider())
		return func(context.Context) error { return nil }, nil
	}

	if err := val.ValidateSchema(cfg); err != nil {
		return nil, err
	}

	exporterAddr := net.JoinHostPort(cfg.ExporterHost, cast.ToString(cfg.ExporterPort))

	exporter, err := otlptrace.New(context.Background(), otlptracegrpc.NewClient(
		otlptracegrpc.WithInsecure(),
		otlptracegrpc.WithEndpoint(exporterAddr),
		otlptracegrpc.WithReconnectionPeriod(reconnectionPeriod),
		otlptracegrpc.WithTimeout(exportTimeout),
	))
	if err != nil {
		return nil, errx.Wrap(err)
	}

	attrs := make([]attribute.KeyValue, 0, len(cfg.Tags)+2)
	for k, v := range cfg.Tags {
		attrs = append(attrs, attribute.String(k, v))
	}
	attrs = append(attrs,
		semconv.ServiceNameKey.String(serviceName),
		semconv.ServiceVersionKey.String(serviceVersion),
	)

	tp := trace.NewTracerProvider(
		trace.WithSampler(
			trace.ParentBased(trace.TraceIDRatioBased(cfg.SampleRate)),
		),
		trace.WithSpanProcessor(trace.NewBatchSpanProcessor(
			exporter,
			trace.WithMaxQueueSize(maxQueueSize),
			trace.WithBatchTimeout(batchTimeout),
			trace.WithMaxExportBatchSize(maxExportBatchSize),
		)),
		trace.WithResource(
			resource.NewWithAttributes(semconv.SchemaURL, attrs...),
		),
	)

	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)
	otel.SetTracerProvider(tp)

	// Shutting down the provider flushes the batch processor before the
	// exporter connection is torn down.
	return tp.Shutdown, nil
}
