package embed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/T-rav/hydra/internal/pkg/hash"
	"github.com/T-rav/hydra/internal/pkg/logger"
)

// RedisCache is a Redis-backed embedding cache shared across processes.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewRedisCache creates a cache from a Redis URL
// (e.g. "redis://localhost:6379/0"). ttl of zero means no expiry.
func NewRedisCache(url string, ttl time.Duration, log *logger.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	return &RedisCache{
		client: redis.NewClient(opts),
		ttl:    ttl,
		log:    log,
	}, nil
}

// Ping verifies the Redis connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Get implements Cache. Failures degrade to a miss.
func (c *RedisCache) Get(ctx context.Context, text string) ([]float32, bool) {
	key := hash.CacheKey("embed", text)

	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.log.Debug("redis cache get failed", "error", err)
		return nil, false
	}

	var vec []float32
	if err := json.Unmarshal(data, &vec); err != nil {
		c.log.Debug("redis cache entry corrupt", "key", key, "error", err)
		return nil, false
	}

	return vec, true
}

// Put implements Cache. Failures are logged and dropped; the cache is
// an optimization, not a dependency.
func (c *RedisCache) Put(ctx context.Context, text string, vector []float32) {
	key := hash.CacheKey("embed", text)

	data, err := json.Marshal(vector)
	if err != nil {
		c.log.Debug("redis cache marshal failed", "error", err)
		return
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Debug("redis cache set failed", "key", key, "error", err)
	}
}
