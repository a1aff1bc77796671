// Package tracing wires OpenTelemetry spans around search, retrieval,
// embedding and profile rebuilds.
package tracing

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

const instrumentation = "b2bsearch"

// Config controls the tracer provider.
type Config struct {
	Enabled     bool
	ServiceName string
	Version     string
	Environment string
	// Processors receive ended spans. Tests pass a tracetest.SpanRecorder.
	Processors []sdktrace.SpanProcessor
}

// Provider owns the installed SDK tracer provider, if any.
type Provider struct {
	tp *sdktrace.TracerProvider
}

// Setup installs an SDK tracer provider globally when enabled. Disabled
// setup leaves the global no-op provider in place.
func Setup(cfg Config, logger *zap.Logger) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{}, nil
	}
	if cfg.ServiceName == "" {
		return nil, errors.New("tracing: service name is required")
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.Version),
		attribute.String("deployment.environment", cfg.Environment),
	)

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	}
	for _, p := range cfg.Processors {
		opts = append(opts, sdktrace.WithSpanProcessor(p))
	}
	tp := sdktrace.NewTracerProvider(opts...)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if logger != nil {
		logger.Info("Tracing enabled", zap.String("service", cfg.ServiceName))
	}
	return &Provider{tp: tp}, nil
}

// Enabled reports whether an SDK provider is installed.
func (p *Provider) Enabled() bool { return p != nil && p.tp != nil }

// Shutdown flushes and stops the provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if !p.Enabled() {
		return nil
	}
	if err := p.tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown tracer provider: %w", err)
	}
	return nil
}
