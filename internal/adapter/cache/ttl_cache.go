package cache

import (
	"sort"
	"sync"
	"time"

	"pharmarag/internal/domain"
)

// TTLCache is a thread-safe key-value cache with per-entry expiry and a hard
// size bound. Eviction prefers expired entries, then oldest by creation time.
// All operations serialize on a single mutex; the workloads this serves are
// bound by upstream I/O, not cache latency.
type TTLCache[V any] struct {
	mu      sync.Mutex
	entries map[string]*entry[V]
	ttl     time.Duration
	maxSize int

	hits          uint64
	misses        uint64
	evictions     uint64
	totalRequests uint64

	now func() time.Time // overridable in tests
}

type entry[V any] struct {
	value     V
	createdAt time.Time
	expiresAt time.Time
}

// New creates a TTLCache. Non-positive ttl defaults to 10 minutes,
// non-positive maxSize to 1000.
func New[V any](ttl time.Duration, maxSize int) *TTLCache[V] {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &TTLCache[V]{
		entries: make(map[string]*entry[V]),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Get returns the cached value for key. An entry whose expiry has passed is
// removed and counted as a miss; an entry expiring exactly now is still valid.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totalRequests++

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		c.misses++
		var zero V
		return zero, false
	}

	c.hits++
	return e.value, true
}

// Set stores value under key with the cache's TTL, evicting first if the
// cache is at capacity.
func (c *TTLCache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxSize {
		c.evict()
	}

	now := c.now()
	c.entries[key] = &entry[V]{
		value:     value,
		createdAt: now,
		expiresAt: now.Add(c.ttl),
	}
}

// evict removes expired entries, then oldest-by-creation entries until one
// slot is free. Caller holds the lock.
func (c *TTLCache[V]) evict() {
	now := c.now()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}

	if len(c.entries) < c.maxSize {
		return
	}

	type aged struct {
		key       string
		createdAt time.Time
	}
	byAge := make([]aged, 0, len(c.entries))
	for k, e := range c.entries {
		byAge = append(byAge, aged{k, e.createdAt})
	}
	sort.Slice(byAge, func(i, j int) bool {
		return byAge[i].createdAt.Before(byAge[j].createdAt)
	})

	remove := len(c.entries) - c.maxSize + 1
	for i := 0; i < remove; i++ {
		delete(c.entries, byAge[i].key)
		c.evictions++
	}
}

// Invalidate removes a single entry. Removing an absent key is a no-op.
func (c *TTLCache[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear removes all entries. Counters are kept; use ResetStats to zero them.
func (c *TTLCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry[V])
}

// ResetStats zeroes the hit/miss/eviction counters.
func (c *TTLCache[V]) ResetStats() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hits, c.misses, c.evictions, c.totalRequests = 0, 0, 0, 0
}

// Size returns the current number of entries, expired or not.
func (c *TTLCache[V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a coherent snapshot of the cache counters.
func (c *TTLCache[V]) Stats() domain.CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var hitRate float64
	if c.totalRequests > 0 {
		hitRate = float64(c.hits) / float64(c.totalRequests) * 100
	}
	return domain.CacheStats{
		Hits:          c.hits,
		Misses:        c.misses,
		Evictions:     c.evictions,
		TotalRequests: c.totalRequests,
		HitRate:       hitRate,
		CurrentSize:   len(c.entries),
		MaxSize:       c.maxSize,
	}
}
