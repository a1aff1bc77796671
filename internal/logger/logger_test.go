package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	for _, env := range []string{"prod", "local", "dev", "docker"} {
		if _, err := NewLogger(env, ""); err != nil {
			t.Errorf("NewLogger(%q): %v", env, err)
		}
	}
	if _, err := NewLogger("staging", ""); err == nil {
		t.Error("expected error for unknown env")
	}
	if _, err := NewLogger("prod", "loud"); err == nil {
		t.Error("expected error for bad level")
	}
}

func TestNewLogger_LevelOverride(t *testing.T) {
	l, err := NewLogger("prod", "warn")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if l.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info must be disabled at warn level")
	}
}

func TestContextLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := ContextWithLogger(context.Background(), zap.New(core))

	FromContext(ctx).Info("hello")
	if logs.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", logs.Len())
	}

	fallback := zap.New(core).With(zap.String("src", "fallback"))
	FromContextOr(context.Background(), fallback).Info("x")
	if got := logs.All()[1].ContextMap()["src"]; got != "fallback" {
		t.Errorf("expected fallback logger, got %v", got)
	}
	if FromContext(context.Background()) == nil {
		t.Error("FromContext must never return nil")
	}
}

func TestWith_ChainsFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx, _ := With(context.Background(), zap.New(core), zap.String("request_id", "r1"))
	ctx, l := With(ctx, zap.NewNop(), zap.String("user_type", "healthcare"))

	l.Info("a")
	FromContext(ctx).Info("b")

	for _, e := range logs.All() {
		m := e.ContextMap()
		if m["request_id"] != "r1" || m["user_type"] != "healthcare" {
			t.Errorf("entry %q missing fields: %v", e.Message, m)
		}
	}
	if logs.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", logs.Len())
	}
}
