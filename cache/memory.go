package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/simplelru"
)

// cacheEntry holds a cached value with its expiry.
type cacheEntry struct {
	value     string
	expiresAt time.Time
}

// Stats counts cache activity since creation.
type Stats struct {
	Hits        uint64
	Misses      uint64
	Evictions   uint64 // Entries dropped to make room
	Expirations uint64 // Entries dropped because their TTL elapsed
}

// MemoryCache is a bounded, thread-safe in-memory cache with TTL support.
//
// Expiry is lazy: an expired entry stays in memory until a Get for its key
// (or capacity eviction) removes it, but it is never returned. When full, Set
// evicts the least recently used entry.
type MemoryCache struct {
	mu    sync.Mutex
	lru   *simplelru.LRU
	ttl   time.Duration
	now   func() time.Time
	stats Stats
}

// NewMemoryCache creates a cache holding at most size entries, each living ttl.
// If ttl is 0 or negative, entries never expire.
func NewMemoryCache(size int, ttl time.Duration) (*MemoryCache, error) {
	if size <= 0 {
		return nil, fmt.Errorf("cache size must be positive, got %d", size)
	}
	l, err := simplelru.NewLRU(size, nil)
	if err != nil {
		return nil, err
	}
	if ttl < 0 {
		ttl = 0 // No expiration
	}
	return &MemoryCache{
		lru: l,
		ttl: ttl,
		now: time.Now,
	}, nil
}

// Get retrieves a value from the cache and marks it most recently used.
// Returns the value and true if found and not expired, empty string and false otherwise.
func (c *MemoryCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.lru.Peek(key)
	if !ok {
		c.stats.Misses++
		return "", false
	}

	entry := v.(cacheEntry)
	if c.expired(entry, c.now()) {
		c.lru.Remove(key)
		c.stats.Expirations++
		c.stats.Misses++
		return "", false
	}

	c.lru.Get(key) // promote
	c.stats.Hits++
	return entry.value, true
}

// Set stores a value in the cache, evicting the least recently used entry if
// the cache is full. Overwriting an existing key never evicts.
func (c *MemoryCache) Set(key string, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = c.now().Add(c.ttl)
	}

	if evicted := c.lru.Add(key, cacheEntry{value: value, expiresAt: expiresAt}); evicted {
		c.stats.Evictions++
	}
	return nil
}

// Len returns the number of entries in the cache (including expired ones).
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Clear removes all entries from the cache.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}

// Stats returns a copy of the activity counters.
func (c *MemoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Snapshot returns all non-expired entries, least recently used first.
// It does not change recency.
func (c *MemoryCache) Snapshot() []ExportEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	keys := c.lru.Keys()
	entries := make([]ExportEntry, 0, len(keys))

	for _, k := range keys {
		v, ok := c.lru.Peek(k)
		if !ok {
			continue
		}
		entry := v.(cacheEntry)
		if c.expired(entry, now) {
			continue
		}

		exported := ExportEntry{Key: k.(string), Value: entry.value}
		if !entry.expiresAt.IsZero() {
			exported.ExpiresAt = entry.expiresAt.UTC().Format(time.RFC3339)
		}
		entries = append(entries, exported)
	}

	return entries
}

// expired must be called with the lock held.
func (c *MemoryCache) expired(entry cacheEntry, now time.Time) bool {
	return !entry.expiresAt.IsZero() && entry.expiresAt.Before(now)
}

// Verify MemoryCache implements TranslationCache
var _ TranslationCache = (*MemoryCache)(nil)
