package providers

import (
	"sync"
	"time"

	"pumpfun-radar/internal/observability"
)

// Entries are immutable after insert; staleness is bounded by the TTL.
const (
	tokenCacheTTL  = 30 * time.Second
	holderCacheTTL = 60 * time.Second
	mcCacheTTL     = 30 * time.Second
)

type cacheEntry[V any] struct {
	value V
	at    time.Time
}

// ttlCache is a small mutex-guarded TTL cache keyed by the primary
// identifier of an operation (usually the mint).
type ttlCache[V any] struct {
	name    string
	ttl     time.Duration
	mu      sync.Mutex
	entries map[string]cacheEntry[V]
	now     func() time.Time // injectable for tests
}

func newTTLCache[V any](name string, ttl time.Duration) *ttlCache[V] {
	return &ttlCache[V]{
		name:    name,
		ttl:     ttl,
		entries: make(map[string]cacheEntry[V]),
		now:     time.Now,
	}
}

func (c *ttlCache[V]) get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok || c.now().Sub(entry.at) >= c.ttl {
		var zero V
		return zero, false
	}
	observability.RecordCacheHit(c.name)
	return entry.value, true
}

func (c *ttlCache[V]) put(key string, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry[V]{value: v, at: c.now()}
}
