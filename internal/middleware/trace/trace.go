// Package trace tags chart runs and outbound API calls with identifiers so
// their log lines can be correlated.
package trace

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	applog "chartsync/internal/log"

	"github.com/google/uuid"
)

// ContextKey type for context keys
type ContextKey string

const (
	// RunIDKey is the context key for the chart run ID
	RunIDKey ContextKey = "run_id"
)

// Transport logs every outbound request with its status and duration.
type Transport struct {
	Base http.RoundTripper

	logger *applog.Logger
	total  atomic.Int64
}

// NewTransport wraps base, defaulting to http.DefaultTransport. Request logs
// carry the logger's component.
func NewTransport(base http.RoundTripper, logger *applog.Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Transport{Base: base, logger: logger}
}

// RoundTrip implements http.RoundTripper
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	requestID := GenerateID("req")
	start := time.Now()
	t.total.Add(1)

	resp, err := t.Base.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		t.logger.WarnContext(ctx, "API request failed",
			"run_id", RunID(ctx),
			"request_id", requestID,
			"method", req.Method,
			"path", req.URL.Path,
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return nil, err
	}

	logf := t.logger.DebugContext
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		logf = t.logger.WarnContext
	} else if resp.StatusCode >= 500 {
		logf = t.logger.ErrorContext
	}

	logf(ctx, "API request completed",
		"run_id", RunID(ctx),
		"request_id", requestID,
		"method", req.Method,
		"path", req.URL.Path,
		"status_code", resp.StatusCode,
		"duration_ms", duration.Milliseconds())
	return resp, nil
}

// Requests returns how many requests went through the transport.
func (t *Transport) Requests() int64 {
	return t.total.Load()
}

// GenerateID creates a random identifier with the given prefix.
func GenerateID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

// WithRunID returns ctx carrying a run ID. An existing ID is kept.
func WithRunID(ctx context.Context) (context.Context, string) {
	if id := RunID(ctx); id != "" {
		return ctx, id
	}
	id := GenerateID("run")
	return context.WithValue(ctx, RunIDKey, id), id
}

// RunID extracts the run ID from context
func RunID(ctx context.Context) string {
	if id, ok := ctx.Value(RunIDKey).(string); ok {
		return id
	}
	return ""
}
