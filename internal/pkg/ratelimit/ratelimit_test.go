package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_Allow(t *testing.T) {
	l := New(Config{RequestsPerSecond: 1, Burst: 2})

	// Burst of 2 allowed immediately
	if !l.Allow("llm") {
		t.Error("first call should be allowed")
	}
	if !l.Allow("llm") {
		t.Error("second call within burst should be allowed")
	}
	if l.Allow("llm") {
		t.Error("third call should be rate limited")
	}

	// Separate target has its own budget
	if !l.Allow("rerank") {
		t.Error("independent target should be allowed")
	}
}

func TestLimiter_WaitCancellation(t *testing.T) {
	l := New(Config{RequestsPerSecond: 0.001, Burst: 1})

	// Drain the burst
	if err := l.Wait(context.Background(), "llm"); err != nil {
		t.Fatalf("initial wait failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx, "llm"); err == nil {
		t.Error("expected context deadline error while rate limited")
	}
}

func TestNew_Defaults(t *testing.T) {
	l := New(Config{})
	if l == nil {
		t.Fatal("New() returned nil")
	}
	if !l.Allow("any") {
		t.Error("default config should allow an initial call")
	}
}
