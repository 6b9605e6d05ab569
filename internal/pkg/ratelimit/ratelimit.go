// Package ratelimit provides rate limiting for outbound model calls.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter provides per-target rate limiting for outbound calls
// (LLM completions, embeddings, rerank scoring).
type Limiter struct {
	mu      sync.RWMutex
	targets map[string]*rate.Limiter
	rate    rate.Limit
	burst   int
}

// Config configures the limiter.
type Config struct {
	// RequestsPerSecond is the rate limit per target.
	RequestsPerSecond float64

	// Burst is the maximum burst size.
	Burst int
}

// DefaultConfig returns sensible defaults for remote model endpoints.
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 10,
		Burst:             20,
	}
}

// New creates a new limiter.
func New(cfg Config) *Limiter {
	if cfg.RequestsPerSecond <= 0 {
		cfg = DefaultConfig()
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(cfg.RequestsPerSecond) * 2
	}
	return &Limiter{
		targets: make(map[string]*rate.Limiter),
		rate:    rate.Limit(cfg.RequestsPerSecond),
		burst:   cfg.Burst,
	}
}

// Wait blocks until the target may issue another call or ctx is done.
func (l *Limiter) Wait(ctx context.Context, target string) error {
	return l.limiterFor(target).Wait(ctx)
}

// Allow reports whether the target may issue a call right now.
func (l *Limiter) Allow(target string) bool {
	return l.limiterFor(target).Allow()
}

func (l *Limiter) limiterFor(target string) *rate.Limiter {
	l.mu.RLock()
	lim, ok := l.targets[target]
	l.mu.RUnlock()
	if ok {
		return lim
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok = l.targets[target]; ok {
		return lim
	}
	lim = rate.NewLimiter(l.rate, l.burst)
	l.targets[target] = lim
	return lim
}
