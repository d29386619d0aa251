package encode

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/beirkit/beirkit/internal/pkg/logger"
)

// RedisCache provides Redis-backed persistence for embeddings, shared
// across processes and runs.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	log    *logger.Logger
}

// NewRedisCache creates a new Redis cache backend.
// Returns error if connection fails.
func NewRedisCache(url string, ttl time.Duration, log *logger.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &RedisCache{
		client: client,
		prefix: "beirkit:emb:",
		ttl:    ttl,
		log:    log,
	}, nil
}

// Get retrieves an embedding. Redis failures are treated as misses so a
// flaky cache never fails an encode.
func (c *RedisCache) Get(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err != redis.Nil && c.log != nil {
			c.log.WithError(err).Warn("redis cache get")
		}
		return nil, false
	}

	var emb []float32
	if err := json.Unmarshal(data, &emb); err != nil {
		if c.log != nil {
			c.log.WithError(err).Warn("redis cache decode")
		}
		return nil, false
	}
	return emb, true
}

// Set stores an embedding with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, key string, embedding []float32) {
	data, err := json.Marshal(embedding)
	if err != nil {
		return
	}

	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil && c.log != nil {
		c.log.WithError(err).Warn("redis cache set")
	}
}

// Close releases the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
