package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"testing"
)

func jsonLogger(buf *bytes.Buffer, component string) *Logger {
	return New(Config{
		Component: component,
		Handler:   slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	})
}

func lastRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var rec map[string]any
	if err := json.Unmarshal(lines[len(lines)-1], &rec); err != nil {
		t.Fatalf("decode log record: %v", err)
	}
	return rec
}

func TestLoggerTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := jsonLogger(&buf, ComponentLedger)

	logger.Info("payment saved", FieldPaymentID, "p1")
	rec := lastRecord(t, &buf)
	if rec[FieldComponent] != ComponentLedger {
		t.Errorf("component = %v, want %s", rec[FieldComponent], ComponentLedger)
	}
	if rec[FieldPaymentID] != "p1" {
		t.Errorf("payment_id = %v, want p1", rec[FieldPaymentID])
	}

	logger.WithComponent(ComponentAMQP).Warn("publish failed")
	if got := lastRecord(t, &buf)[FieldComponent]; got != ComponentAMQP {
		t.Errorf("child component = %v, want %s", got, ComponentAMQP)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLogHTTPEndLevelFollowsStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{200, "INFO"},
		{404, "WARN"},
		{503, "ERROR"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		ctx := NewContext(context.Background(), jsonLogger(&buf, ComponentHTTP))
		req := httptest.NewRequest("GET", "/api/clients?x=1", nil)

		LogHTTPEnd(ctx, req, tt.status, 12, "10.0.0.1")

		rec := lastRecord(t, &buf)
		if rec["level"] != tt.level {
			t.Errorf("status %d: level = %v, want %s", tt.status, rec["level"], tt.level)
		}
		if rec[FieldPath] != "/api/clients" || rec[FieldQuery] != "x=1" {
			t.Errorf("status %d: path/query = %v %v", tt.status, rec[FieldPath], rec[FieldQuery])
		}
		if rec[FieldClientIP] != "10.0.0.1" {
			t.Errorf("status %d: client_ip = %v", tt.status, rec[FieldClientIP])
		}
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	logger := FromContext(context.Background())
	if logger == nil || logger.Component() != ComponentApp {
		t.Fatalf("FromContext without logger = %+v, want app logger", logger)
	}
}
