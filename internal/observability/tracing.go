package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const tracerName = "roundtable"

// TracingConfig controls tracing initialization.
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`

	// SampleRatio is the fraction of turns to trace, (0,1]. Zero means
	// always sample.
	SampleRatio float64 `yaml:"sample_ratio"`
}

// InitTracing initializes the global tracer provider. Disabled tracing gets
// a no-op tracer with zero overhead; exporters are wired by the embedding
// service, not here.
func InitTracing(ctx context.Context, cfg TracingConfig) (trace.TracerProvider, error) {
	if !cfg.Enabled {
		return noop.NewTracerProvider(), nil
	}

	sampler := sdktrace.AlwaysSample()
	if cfg.SampleRatio > 0 && cfg.SampleRatio < 1 {
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRatio)
	}

	provider := sdktrace.NewTracerProvider(sdktrace.WithSampler(sampler))
	otel.SetTracerProvider(provider)
	return provider, nil
}

// Tracer returns a named tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}
