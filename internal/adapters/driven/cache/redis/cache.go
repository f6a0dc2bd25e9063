// Package redis provides a query cache shared between server instances.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/core/ports/driven"
	"github.com/custodia-labs/lexground/internal/logger"
)

// Ensure Cache implements the interface.
var _ driven.QueryCache = (*Cache)(nil)

// keyPrefix namespaces cache keys: lexground:retrieve:{key}
const keyPrefix = "lexground:retrieve:"

// Cache stores responses as JSON with native key expiry. Size is bounded by
// the server's maxmemory policy, not here.
type Cache struct {
	client *redis.Client
}

// New wraps an existing client.
func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Open parses a redis:// URL and checks the server answers.
func Open(ctx context.Context, url string) (*Cache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("%w: redis url: %w", domain.ErrInvalidInput, err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return New(client), nil
}

// Get returns the cached response. Redis errors count as misses so a cache
// outage never fails a retrieval.
func (c *Cache) Get(ctx context.Context, key string) (*domain.RetrievalResponse, bool) {
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		logger.Warn("redis cache get: %v", err)
		return nil, false
	}

	var resp domain.RetrievalResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		logger.Warn("redis cache: dropping undecodable entry: %v", err)
		c.client.Del(ctx, keyPrefix+key)
		return nil, false
	}
	return &resp, true
}

// Set stores value under key with ttl. A non-positive ttl stores nothing.
func (c *Cache) Set(ctx context.Context, key string, value *domain.RetrievalResponse, ttl time.Duration) error {
	if value == nil || ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshalling response: %w", err)
	}
	if err := c.client.Set(ctx, keyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis cache set: %w", err)
	}
	return nil
}

// Len counts live keys under the cache prefix, or -1 on error.
func (c *Cache) Len(ctx context.Context) int {
	n := 0
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		logger.Warn("redis cache len: %v", err)
		return -1
	}
	return n
}

// Close closes the client.
func (c *Cache) Close() error {
	return c.client.Close()
}
