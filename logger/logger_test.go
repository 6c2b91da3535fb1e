package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatal("expected a log line, got none")
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, line)
	}
	return m
}

func TestNewInvalidLevel(t *testing.T) {
	cfg := &Config{Level: "invalid-level", Format: "json"}
	if l := New(cfg, "test"); l == nil {
		t.Fatal("expected logger to be created even with invalid level")
	}
}

func TestNewFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")

	l := NewFromEnv("env-svc")
	if !l.DebugEnabled() {
		t.Error("expected LOG_LEVEL=debug to enable debug events")
	}
}

func TestNewWithWriter_Fields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "debug", "svc").WithComponent("workpool")

	l.Debug("task handed off", Fields(FieldPool, "p1", FieldWorker, 3))

	m := decodeLine(t, &buf)
	if m["message"] != "task handed off" {
		t.Errorf("unexpected message %v", m["message"])
	}
	if m[FieldComponent] != "workpool" {
		t.Errorf("expected component=workpool, got %v", m[FieldComponent])
	}
	if m[FieldPool] != "p1" {
		t.Errorf("expected pool=p1, got %v", m[FieldPool])
	}
	if m[FieldWorker] != float64(3) {
		t.Errorf("expected worker=3, got %v", m[FieldWorker])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "warn", "svc")

	l.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at warn level, got %q", buf.String())
	}
	if l.DebugEnabled() {
		t.Error("debug should be disabled at warn level")
	}

	l.Warn("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("expected warn line, got %q", buf.String())
	}
}

func TestWithContext_AddsTraceIDs(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	var buf bytes.Buffer
	NewWithWriter(&buf, "info", "svc").WithContext(ctx).Info("traced")

	m := decodeLine(t, &buf)
	if m["trace_id"] != span.SpanContext().TraceID().String() {
		t.Errorf("expected trace_id %s, got %v", span.SpanContext().TraceID(), m["trace_id"])
	}
}

func TestWithContext_NoSpan(t *testing.T) {
	l := NewWithWriter(&bytes.Buffer{}, "info", "svc")
	if got := l.WithContext(context.Background()); got != l {
		t.Error("expected the same logger when ctx carries no span")
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter(&buf, "info", "svc").WithError(os.ErrNotExist).Error("failed")

	m := decodeLine(t, &buf)
	if m["error"] != os.ErrNotExist.Error() {
		t.Errorf("expected error field, got %v", m["error"])
	}
}

func TestRegistry(t *testing.T) {
	custom := NewWithWriter(&bytes.Buffer{}, "info", "svc")
	Register("custom-component", custom)
	defer Unregister("custom-component")

	if Get("custom-component") != custom {
		t.Error("expected registered logger")
	}
	if Get("unregistered-component") == nil {
		t.Error("expected fallback logger")
	}
}

func TestFields_OddCount(t *testing.T) {
	m := Fields("a", 1, "b")
	if len(m) != 1 || m["a"] != 1 {
		t.Errorf("unexpected fields %v", m)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", Config{}, false},
		{"bad level", Config{Level: "loud", Format: "json"}, true},
		{"bad format", Config{Level: "info", Format: "xml"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			if cfg.Level == "" {
				cfg.ApplyDefaults()
			}
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestInit_ReplacesGlobal(t *testing.T) {
	prev := GetGlobalLogger()
	t.Cleanup(func() { SetGlobalLogger(prev) })

	Init(Config{Level: "debug", Format: "json"})
	if !GetGlobalLogger().DebugEnabled() {
		t.Error("expected Init to install a debug-level global logger")
	}
	if !Get("pstream").DebugEnabled() {
		t.Error("component fallback should follow the global logger")
	}
}
