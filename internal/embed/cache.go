package embed

import (
	"context"
	"sync"

	"github.com/T-rav/hydra/internal/pkg/hash"
)

// Cache stores embeddings keyed by text hash.
type Cache interface {
	Get(ctx context.Context, text string) ([]float32, bool)
	Put(ctx context.Context, text string, vector []float32)
}

// MemoryCache is an in-process LRU embedding cache.
type MemoryCache struct {
	mu      sync.RWMutex
	cache   map[string][]float32
	maxSize int
	order   []string // LRU order, oldest first
}

// NewMemoryCache creates a new in-memory cache.
func NewMemoryCache(maxSize int) *MemoryCache {
	if maxSize <= 0 {
		maxSize = 10000
	}
	return &MemoryCache{
		cache:   make(map[string][]float32),
		maxSize: maxSize,
		order:   make([]string, 0, maxSize),
	}
}

// Get retrieves an embedding from cache. A hit promotes the entry to
// most recently used.
func (c *MemoryCache) Get(_ context.Context, text string) ([]float32, bool) {
	key := hash.SHA256String(text)

	c.mu.RLock()
	vec, ok := c.cache[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	c.mu.Lock()
	c.moveToEnd(key)
	c.mu.Unlock()

	// Return a copy to prevent external mutation
	vecCopy := make([]float32, len(vec))
	copy(vecCopy, vec)
	return vecCopy, true
}

// Put stores an embedding, evicting the least recently used entry when
// full.
func (c *MemoryCache) Put(_ context.Context, text string, vector []float32) {
	key := hash.SHA256String(text)

	// Copy to avoid external mutations
	vecCopy := make([]float32, len(vector))
	copy(vecCopy, vector)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.cache[key]; exists {
		c.cache[key] = vecCopy
		c.moveToEnd(key)
		return
	}

	for len(c.cache) >= c.maxSize && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.cache, oldest)
	}

	c.cache[key] = vecCopy
	c.order = append(c.order, key)
}

// moveToEnd moves a key to the end of the LRU order (must hold lock).
func (c *MemoryCache) moveToEnd(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			c.order = append(c.order, key)
			return
		}
	}
}

// Len returns the number of cached embeddings.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// CachingEmbedder wraps an Embedder with a cache.
type CachingEmbedder struct {
	inner Embedder
	cache Cache
}

// WithCache wraps embedder so repeated texts skip the provider call.
func WithCache(embedder Embedder, cache Cache) *CachingEmbedder {
	return &CachingEmbedder{inner: embedder, cache: cache}
}

// Embed implements Embedder.
func (e *CachingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := e.cache.Get(ctx, text); ok {
		return vec, nil
	}

	vec, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	e.cache.Put(ctx, text, vec)
	return vec, nil
}
