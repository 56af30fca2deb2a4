package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestLogger_WritesServiceAndArgs(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelInfo, "dynamic-arb", func(context.Context) string { return "abc123" })

	log.Info(context.Background(), "triggering executor", "profit_pct", "1.25")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid json record %q: %v", buf.String(), err)
	}

	if rec["msg"] != "triggering executor" {
		t.Errorf("msg = %v", rec["msg"])
	}
	if rec["service"] != "dynamic-arb" {
		t.Errorf("service = %v", rec["service"])
	}
	if rec["profit_pct"] != "1.25" {
		t.Errorf("profit_pct = %v", rec["profit_pct"])
	}
	if rec["trace_id"] != "abc123" {
		t.Errorf("trace_id = %v", rec["trace_id"])
	}
	if _, ok := rec["file"]; !ok {
		t.Error("expected file attribute")
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelWarn, "svc", nil)

	log.Debug(context.Background(), "hidden")
	log.Info(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected nothing below warn, got %q", buf.String())
	}

	log.Error(context.Background(), "shown")
	if buf.Len() == 0 {
		t.Fatal("expected error record")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
