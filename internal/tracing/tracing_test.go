package tracing

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	prev := otel.GetTracerProvider()
	rec := tracetest.NewSpanRecorder()
	p, err := Setup(Config{Enabled: true, ServiceName: "b2bsearch-test", Processors: []sdktrace.SpanProcessor{rec}}, nil)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	t.Cleanup(func() {
		_ = p.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return rec
}

func TestStartSpan_RecordsNameAndAttributes(t *testing.T) {
	rec := setupRecorder(t)

	ctx, end := StartSpan(context.Background(), "search.compile", attribute.String("strategy", "hybrid"))
	SetAttributes(ctx, attribute.Int("clauses", 4))
	end(nil)

	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	s := spans[0]
	if s.Name() != "search.compile" {
		t.Errorf("name = %q", s.Name())
	}
	got := map[attribute.Key]bool{}
	for _, a := range s.Attributes() {
		got[a.Key] = true
	}
	if !got["strategy"] || !got["clauses"] {
		t.Errorf("missing attributes: %v", s.Attributes())
	}
	if s.Status().Code == codes.Error {
		t.Error("unexpected error status")
	}
}

func TestStartSpan_RecordsError(t *testing.T) {
	rec := setupRecorder(t)

	_, end := StartSpan(context.Background(), "search.retrieve")
	end(errors.New("timeout"))

	s := rec.Ended()[0]
	if s.Status().Code != codes.Error || s.Status().Description != "timeout" {
		t.Errorf("status = %+v", s.Status())
	}
	if len(s.Events()) == 0 {
		t.Error("expected recorded error event")
	}
}

func TestSetup_Disabled(t *testing.T) {
	p, err := Setup(Config{}, nil)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if p.Enabled() {
		t.Error("disabled setup must not install a provider")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}

func TestSetup_RequiresServiceName(t *testing.T) {
	if _, err := Setup(Config{Enabled: true}, nil); err == nil {
		t.Fatal("expected error")
	}
}
