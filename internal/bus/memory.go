package bus

import (
	"context"
	"sync"
	"time"

	"github.com/T-rav/hydra/internal/pkg/errors"
	"github.com/T-rav/hydra/internal/pkg/logger"
)

// MemoryBus is an in-process Bus backed by a handler map. Delivery is
// asynchronous; Close waits for in-flight handlers to drain.
type MemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	closed   bool

	inflight sync.WaitGroup
	log      *logger.Logger
}

// NewMemoryBus creates an in-process bus.
func NewMemoryBus(log *logger.Logger) *MemoryBus {
	return &MemoryBus{
		handlers: make(map[string][]Handler),
		log:      log,
	}
}

// Publish fans the event out to all topic handlers. A topic with no
// subscribers drops the event silently.
func (b *MemoryBus) Publish(ctx context.Context, topic string, event Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return errors.New(errors.CodeUnavailable, "bus is closed")
	}

	for _, handler := range b.handlers[topic] {
		b.inflight.Add(1)
		go func(h Handler) {
			defer b.inflight.Done()
			if err := h(ctx, event); err != nil {
				b.log.Warn("bus handler failed", "topic", topic, "event_type", event.Type, "error", err)
			}
		}(handler)
	}
	return nil
}

// Subscribe implements Bus.
func (b *MemoryBus) Subscribe(_ context.Context, topic string, handler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return errors.New(errors.CodeUnavailable, "bus is closed")
	}
	b.handlers[topic] = append(b.handlers[topic], handler)
	return nil
}

// Close stops accepting events and waits briefly for in-flight handlers.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		b.log.Warn("bus drain timeout, some handlers may not have completed")
	}

	b.mu.Lock()
	b.handlers = nil
	b.mu.Unlock()
	return nil
}
