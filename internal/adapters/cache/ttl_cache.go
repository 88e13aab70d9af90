package cache

import (
	"bus-arrival-service/internal/platform/clock"
	"bus-arrival-service/internal/platform/metrics"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bluele/gcache"
	"golang.org/x/sync/singleflight"
)

// In-memory LRU cache with lazy TTL expiry.
//
// Concurrent misses for the same key share one load. Instances are built at
// startup and injected; Clear resets them between tests.
type TTLCache[V any] struct {
	name    string
	lru     gcache.Cache
	group   singleflight.Group
	metrics *metrics.Metrics
}

// NewTTLCache builds a cache holding at most size entries for ttl each.
// A nil clk uses the system clock.
func NewTTLCache[V any](name string, size int, ttl time.Duration, clk clock.Clock, m *metrics.Metrics) *TTLCache[V] {
	if size < 1 {
		size = 1
	}

	b := gcache.New(size).LRU().Expiration(ttl)
	if clk != nil {
		b = b.Clock(clk)
	}

	return &TTLCache[V]{
		name:    name,
		lru:     b.Build(),
		metrics: m,
	}
}

// Get returns the live entry for key and records a hit or miss.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	v, ok := c.peek(key)
	c.metrics.CacheLookup(c.name, ok)
	return v, ok
}

func (c *TTLCache[V]) peek(key string) (V, bool) {
	var zero V

	raw, err := c.lru.Get(key)
	if err != nil {
		return zero, false
	}
	v, ok := raw.(V)
	if !ok {
		return zero, false
	}
	return v, true
}

func (c *TTLCache[V]) Set(key string, v V) {
	// gcache only fails Set for a nil serialize func, which is never configured.
	_ = c.lru.Set(key, v)
}

// GetOrLoad returns the cached value for key, calling load on a miss.
// Failed loads are not cached.
func (c *TTLCache[V]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	res, err, _ := c.group.Do(key, func() (any, error) {
		if v, ok := c.peek(key); ok {
			return v, nil
		}
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.Set(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, fmt.Errorf("%s cache: load %q: %w", c.name, key, err)
	}

	v, ok := res.(V)
	if !ok {
		var zero V
		return zero, errors.New(c.name + " cache: unexpected value type")
	}
	return v, nil
}

// Len reports the number of unexpired entries. Expiry is judged by the
// cache's clock, so counting goes through Get rather than gcache's Len,
// which reads the system clock. Counted entries become most recently used.
func (c *TTLCache[V]) Len() int {
	n := 0
	for _, k := range c.lru.Keys(false) {
		key, ok := k.(string)
		if !ok {
			continue
		}
		if _, ok := c.peek(key); ok {
			n++
		}
	}
	return n
}

// Clear drops every entry.
func (c *TTLCache[V]) Clear() {
	c.lru.Purge()
}
