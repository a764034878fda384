package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func bufferLogger(buf *bytes.Buffer, level slog.Level) *Logger {
	return New(Config{Component: ComponentApp, Handler: NewTextHandler(buf, level)})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{" INFO ", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoggerAddsComponentOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := bufferLogger(&buf, slog.LevelInfo).WithComponent(ComponentWorker)

	logger.Info("hello", FieldChart, "Balance")

	out := buf.String()
	if strings.Count(out, "component=") != 1 || !strings.Contains(out, "component=worker") {
		t.Fatalf("expected a single worker component, got %q", out)
	}
	if !strings.Contains(out, "chart=Balance") {
		t.Fatalf("expected chart field, got %q", out)
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := bufferLogger(&buf, slog.LevelWarn)

	logger.Info("hidden")
	logger.Debug("hidden")
	logger.Warn("shown")

	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := bufferLogger(&buf, slog.LevelInfo)

	ctx := WithLogger(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Fatal("expected logger from context")
	}
	if got := FromContext(context.Background()).Component(); got != "unknown" {
		t.Fatalf("expected fallback component, got %q", got)
	}
}

func TestChartLogger(t *testing.T) {
	var buf bytes.Buffer
	cl := NewChartLogger(bufferLogger(&buf, slog.LevelInfo))

	cl.LogChartUpdated(context.Background(), "Balance", "line", "ds-1", "block-1", 12, 4, 35)
	cl.LogError(context.Background(), "Chart failed", errors.New("boom"), OpQuery, nil)

	out := buf.String()
	for _, want := range []string{
		"component=updater",
		"chart=Balance",
		"chart_kind=line",
		"data_source=ds-1",
		"block_id=block-1",
		"records=12",
		"points=4",
		"duration_ms=35",
		"operation=write",
		"error=boom",
		"operation=query",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}
}
