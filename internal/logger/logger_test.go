package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var records []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("invalid JSON record %q: %v", line, err)
		}
		records = append(records, rec)
	}
	return records
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelWarn, "test", nil)
	ctx := context.Background()

	log.Debug(ctx, "debug msg")
	log.Info(ctx, "info msg")
	log.Warn(ctx, "warn msg")
	log.Error(ctx, "error msg")

	records := decodeLines(t, &buf)
	if len(records) != 2 {
		t.Fatalf("got %d records at warn level, want 2", len(records))
	}
	if records[0]["msg"] != "warn msg" || records[1]["msg"] != "error msg" {
		t.Errorf("unexpected records: %v", records)
	}
}

func TestLogger_ServiceAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelInfo, "arbengine", nil)

	log.Info(context.Background(), "block received", "number", 123)

	records := decodeLines(t, &buf)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0]["service"] != "arbengine" {
		t.Errorf("service = %v", records[0]["service"])
	}
	if records[0]["number"] != float64(123) {
		t.Errorf("number = %v", records[0]["number"])
	}
}

func TestLogger_TraceID(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelInfo, "test", func(ctx context.Context) string {
		return "abc123"
	})

	log.Info(context.Background(), "hello")

	records := decodeLines(t, &buf)
	if records[0]["trace_id"] != "abc123" {
		t.Errorf("trace_id = %v", records[0]["trace_id"])
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelInfo, "test", nil).With("venue", "uniswap_v2")

	log.Info(context.Background(), "state read")

	records := decodeLines(t, &buf)
	if records[0]["venue"] != "uniswap_v2" {
		t.Errorf("venue = %v", records[0]["venue"])
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"nonsense", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
