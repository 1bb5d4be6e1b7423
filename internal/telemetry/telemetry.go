// Package telemetry builds the tracer provider used for per-connection spans.
package telemetry

import (
	"context"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const ServiceName = "scratch-http-server"

// Provider is a tracer provider which must be shut down to flush spans.
type Provider interface {
	trace.TracerProvider
	Shutdown(context.Context) error
}

type noopProvider struct {
	trace.TracerProvider
}

func (noopProvider) Shutdown(context.Context) error {
	return nil
}

// Noop returns the global provider, which drops spans unless something else
// installed a real one.
func Noop() Provider {
	return noopProvider{TracerProvider: otel.GetTracerProvider()}
}

// NewStdout returns a provider exporting every span as JSON to out.
func NewStdout(ctx context.Context, out io.Writer) (Provider, error) {
	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(out),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(
		ctx,
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceName(ServiceName),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	return tp, nil
}
