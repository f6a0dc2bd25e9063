// Package memory provides the process-local query cache.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/core/ports/driven"
)

// Ensure Cache implements the interface.
var _ driven.QueryCache = (*Cache)(nil)

// DefaultMaxEntries bounds the cache when no size is configured.
const DefaultMaxEntries = 500

type entry struct {
	value   domain.RetrievalResponse
	created time.Time
	expires time.Time
}

// Cache is a size-bounded map with per-entry expiry. When full, expired
// entries go first, then the single oldest entry by creation time.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]entry
	maxEntries int
	now        func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New creates a cache holding at most maxEntries responses.
func New(maxEntries int, opts ...Option) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	c := &Cache{
		entries:    make(map[string]entry),
		maxEntries: maxEntries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns a copy of the cached response. Expired entries are removed.
func (c *Cache) Get(_ context.Context, key string) (*domain.RetrievalResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, key)
		return nil, false
	}
	value := e.value
	return &value, true
}

// Set stores a copy of value. A non-positive ttl stores nothing.
func (c *Cache) Set(_ context.Context, key string, value *domain.RetrievalResponse, ttl time.Duration) error {
	if value == nil || ttl <= 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evict(now)
	}
	c.entries[key] = entry{value: *value, created: now, expires: now.Add(ttl)}
	return nil
}

// Len returns the number of live entries.
func (c *Cache) Len(_ context.Context) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for _, e := range c.entries {
		if now.Before(e.expires) {
			n++
		}
	}
	return n
}

// evict drops expired entries, or the oldest one if none expired.
// Callers hold mu.
func (c *Cache) evict(now time.Time) {
	var (
		oldestKey string
		oldest    time.Time
		expired   bool
	)
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
			expired = true
			continue
		}
		if oldestKey == "" || e.created.Before(oldest) || (e.created.Equal(oldest) && k < oldestKey) {
			oldestKey, oldest = k, e.created
		}
	}
	if !expired && oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
