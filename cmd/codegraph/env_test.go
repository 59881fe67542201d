package main

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"codegraph/internal/config"
	"codegraph/internal/logging"
)

func TestStartTracing(t *testing.T) {
	t.Run("disabled without endpoint", func(t *testing.T) {
		before := otel.GetTracerProvider()
		a := &app{cfg: &config.ProjectConfig{}, logger: logging.Discard()}

		stop, err := a.startTracing(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		stop()
		if otel.GetTracerProvider() != before {
			t.Fatalf("tracer provider should be untouched")
		}
	})

	t.Run("installs exporting provider", func(t *testing.T) {
		t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })
		a := &app{
			cfg:    &config.ProjectConfig{Tracing: config.TracingConfig{Endpoint: "localhost:4317", Insecure: true}},
			logger: logging.Discard(),
		}

		stop, err := a.startTracing(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer stop()
		if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
			t.Fatalf("expected sdk tracer provider, got %T", otel.GetTracerProvider())
		}
	})
}
