package logger

import (
	"context"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		level  string
		format string
	}{
		{"debug text", "debug", "text"},
		{"info json", "info", "json"},
		{"warn text", "warn", "text"},
		{"error json", "error", "json"},
		{"unknown level defaults to info", "bogus", "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(tt.level, tt.format)
			if l == nil {
				t.Fatal("New() returned nil")
			}
			if l.Logger == nil {
				t.Fatal("New() returned logger with nil slog.Logger")
			}
		})
	}
}

func TestLogger_WithContext(t *testing.T) {
	l := New("info", "text")

	// Context without request ID returns the same logger
	if got := l.WithContext(context.Background()); got != l {
		t.Error("WithContext() without request ID should return the receiver")
	}

	ctx := ContextWithRequestID(context.Background(), "req-123")
	got := l.WithContext(ctx)
	if got == nil || got == l {
		t.Error("WithContext() with request ID should return a derived logger")
	}
}

func TestLogger_With(t *testing.T) {
	l := New("info", "text")

	if l.WithProvider("dense") == nil {
		t.Error("WithProvider() returned nil")
	}
	if l.WithStage("fusion") == nil {
		t.Error("WithStage() returned nil")
	}
	if l.WithError(context.Canceled) == nil {
		t.Error("WithError() returned nil")
	}
}
