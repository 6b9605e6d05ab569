// Package logger provides structured logging utilities.
package logger

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with additional context.
type Logger struct {
	*slog.Logger
}

// New creates a new logger with the specified level and format.
func New(level, format string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithContext returns a logger carrying the request ID from ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if reqID := ctx.Value(requestIDKey{}); reqID != nil {
		return &Logger{
			Logger: l.With("request_id", reqID),
		}
	}
	return l
}

type requestIDKey struct{}

// ContextWithRequestID stores a request ID on the context for WithContext.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// WithProvider returns a logger with search-provider context.
func (l *Logger) WithProvider(provider string) *Logger {
	return &Logger{
		Logger: l.With("provider", provider),
	}
}

// WithStage returns a logger with pipeline-stage context.
func (l *Logger) WithStage(stage string) *Logger {
	return &Logger{
		Logger: l.With("stage", stage),
	}
}

// WithError returns a logger with error context.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{
		Logger: l.With("error", err.Error()),
	}
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Default returns the default logger.
func Default() *Logger {
	return New("info", "text")
}
