package bus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/T-rav/hydra/internal/config"
	"github.com/T-rav/hydra/internal/pkg/logger"
)

func TestMemoryBusPublishSubscribe(t *testing.T) {
	b := NewMemoryBus(logger.Default())
	defer b.Close()

	type payload struct {
		DocumentID string `json:"document_id"`
	}

	var mu sync.Mutex
	var got []payload
	err := b.Subscribe(context.Background(), TopicChunkIngest, func(_ context.Context, e Event) error {
		var p payload
		if err := e.DecodePayload(&p); err != nil {
			return err
		}
		mu.Lock()
		got = append(got, p)
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	event, err := NewEvent("chunk.ingest", "test", payload{DocumentID: "doc-1"})
	if err != nil {
		t.Fatalf("new event: %v", err)
	}
	if event.ID == "" {
		t.Error("event ID not assigned")
	}
	if err := b.Publish(context.Background(), TopicChunkIngest, event); err != nil {
		t.Fatalf("publish: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("handler never received event")
		case <-time.After(10 * time.Millisecond):
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if got[0].DocumentID != "doc-1" {
		t.Errorf("payload = %+v", got[0])
	}
}

func TestMemoryBusNoSubscribers(t *testing.T) {
	b := NewMemoryBus(logger.Default())
	defer b.Close()

	event, _ := NewEvent("chunk.ingest", "test", map[string]string{"k": "v"})
	if err := b.Publish(context.Background(), "unsubscribed.topic", event); err != nil {
		t.Fatalf("publish to empty topic should not error: %v", err)
	}
}

func TestMemoryBusClosed(t *testing.T) {
	b := NewMemoryBus(logger.Default())
	if err := b.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	event, _ := NewEvent("chunk.ingest", "test", nil)
	if err := b.Publish(context.Background(), TopicChunkIngest, event); err == nil {
		t.Error("publish on closed bus should error")
	}
	if err := b.Subscribe(context.Background(), TopicChunkIngest, nil); err == nil {
		t.Error("subscribe on closed bus should error")
	}
}

func TestMemoryBusFanOut(t *testing.T) {
	b := NewMemoryBus(logger.Default())
	defer b.Close()

	var mu sync.Mutex
	counts := map[int]int{}
	for i := 0; i < 3; i++ {
		i := i
		if err := b.Subscribe(context.Background(), TopicDocumentDelete, func(context.Context, Event) error {
			mu.Lock()
			counts[i]++
			mu.Unlock()
			return nil
		}); err != nil {
			t.Fatalf("subscribe %d: %v", i, err)
		}
	}

	event, _ := NewEvent("document.delete", "test", map[string]string{"document_id": "d"})
	if err := b.Publish(context.Background(), TopicDocumentDelete, event); err != nil {
		t.Fatalf("publish: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		done := len(counts) == 3
		mu.Unlock()
		if done {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("fan-out incomplete: %v", counts)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestFactory(t *testing.T) {
	cases := []struct {
		name    string
		cfg     config.BusConfig
		wantErr bool
	}{
		{"memory", config.BusConfig{Type: "memory"}, false},
		{"default empty", config.BusConfig{}, false},
		{"kafka without brokers", config.BusConfig{Type: "kafka"}, true},
		{"unknown type", config.BusConfig{Type: "rabbitmq"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := New(tc.cfg, logger.Default())
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			b.Close()
		})
	}
}
