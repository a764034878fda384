package log

import (
	"context"
	"log/slog"
)

// ContextKey type for context keys
type ContextKey string

const (
	// LoggerContextKey is the context key for the logger
	LoggerContextKey ContextKey = "logger"
)

// WithLogger returns a copy of ctx carrying logger
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext extracts a logger from the context
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	// Return default logger if not found
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// ChartLogger provides chart update logging with context awareness
type ChartLogger struct {
	logger *Logger
}

// NewChartLogger creates a new chart logger
func NewChartLogger(logger *Logger) *ChartLogger {
	return &ChartLogger{
		logger: logger.WithComponent(ComponentUpdater),
	}
}

// LogChartUpdated logs a committed chart write
func (cl *ChartLogger) LogChartUpdated(ctx context.Context, title, kind, dataSource, blockID string, records, points int, durationMs int64) {
	fields := NewFields().
		WithChart(title, kind, dataSource).
		WithResult(blockID, records, points, durationMs).
		WithOperation(OpWrite)

	cl.logger.InfoContext(ctx, "Chart updated", fields.ToSlice()...)
}

// LogError logs an error with structured context
func (cl *ChartLogger) LogError(ctx context.Context, msg string, err error, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	allFields := fields.
		WithError(err).
		WithOperation(operation)

	cl.logger.ErrorContext(ctx, msg, allFields.ToSlice()...)
}
