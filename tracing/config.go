package tracing

import "time"

const (
	reconnectionPeriod = 30 * time.Second
	exportTimeout      = 30 * time.Second
	batchTimeout       = 30 * time.Second
	maxQueueSize       = 10000
	maxExportBatchSize = 1024
)

// Config holds the settings for span export. It is typically loaded from a
// configuration file and validated by InitGlobalTracer itself.
type Config struct {
	// Disable turns tracing off entirely. Spans created by instrumented
	// code still exist but are never recorded or exported.
	Disable bool `yaml:"disable" default:"false"`

	// SampleRate is the fraction of new traces to sample, between 0.0
	// (none) and 1.0 (all). Child spans follow their parent's decision.
	SampleRate float64 `yaml:"sample_rate" default:"1" validate:"min=0,max=1"`

	// ExporterHost is the hostname or IP address of the OTLP gRPC
	// collector endpoint.
	ExporterHost string `yaml:"exporter_host" validate:"required"`

	// ExporterPort is the port of the OTLP gRPC collector endpoint.
	ExporterPort int `yaml:"exporter_port" validate:"required"`

	// Tags are added as resource attributes to every exported span.
	Tags map[string]string `yaml:"tags"`
}
