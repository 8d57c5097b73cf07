package telemetry

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogFieldsReachLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	prev := SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(prev) })

	Info("slide.generated", map[string]any{"groups": 4, "strategy": "marker_text"})
	Warn("slide.consultant.defaulted", map[string]any{"name": "Jane Doe", "err": errors.New("cv not found")})

	entries := logs.AllUntimed()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Message != "slide.generated" || entries[0].Level != zapcore.InfoLevel {
		t.Fatalf("unexpected first entry: %+v", entries[0].Entry)
	}
	ctx := entries[0].ContextMap()
	if ctx["groups"] != int64(4) || ctx["strategy"] != "marker_text" {
		t.Fatalf("unexpected fields: %v", ctx)
	}
	if entries[1].Level != zapcore.WarnLevel {
		t.Fatalf("expected warn, got %s", entries[1].Level)
	}
	if got := entries[1].ContextMap()["err"]; got != "cv not found" {
		t.Fatalf("err field = %v", got)
	}
}

func TestNewFallsBackToInfo(t *testing.T) {
	logger, err := New("loud")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("debug should be disabled for unknown level")
	}
	if !logger.Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("info should be enabled")
	}
}

func TestSetLoggerNil(t *testing.T) {
	prev := SetLogger(nil)
	t.Cleanup(func() { SetLogger(prev) })
	Info("dropped", nil)
	if Logger() == nil {
		t.Fatalf("expected nop logger")
	}
}
