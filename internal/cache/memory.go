package cache

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// cacheEntry represents a cached item with expiration
type cacheEntry struct {
	data      string
	expiresAt time.Time
}

// MemoryCache is an in-memory LRU cache with TTL support
type MemoryCache struct {
	cache *lru.Cache[string, *cacheEntry]
	ttl   time.Duration
	now   func() time.Time
	mu    sync.Mutex

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryCache creates a new in-memory cache and starts its cleanup loop
func NewMemoryCache(size int, ttl time.Duration) (*MemoryCache, error) {
	cache, err := lru.New[string, *cacheEntry](size)
	if err != nil {
		return nil, err
	}

	mc := &MemoryCache{
		cache: cache,
		ttl:   ttl,
		now:   time.Now,
		stop:  make(chan struct{}),
	}

	go mc.cleanupLoop()

	return mc, nil
}

// Get retrieves a value from the cache
func (mc *MemoryCache) Get(key string) (string, bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	entry, ok := mc.cache.Get(key)
	if !ok {
		return "", false
	}

	if mc.now().After(entry.expiresAt) {
		mc.cache.Remove(key)
		return "", false
	}

	return entry.data, true
}

// Set stores a value in the cache
func (mc *MemoryCache) Set(key string, value string) {
	mc.mu.Lock()
	mc.cache.Add(key, &cacheEntry{
		data:      value,
		expiresAt: mc.now().Add(mc.ttl),
	})
	mc.mu.Unlock()
}

// Len returns the number of entries, expired ones included
func (mc *MemoryCache) Len() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.cache.Len()
}

// Close stops the cleanup goroutine
func (mc *MemoryCache) Close() {
	mc.stopOnce.Do(func() { close(mc.stop) })
}

// cleanupLoop periodically removes expired entries
func (mc *MemoryCache) cleanupLoop() {
	ticker := time.NewTicker(mc.ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-mc.stop:
			return
		case <-ticker.C:
			mc.removeExpired()
		}
	}
}

// removeExpired removes all expired entries from the cache
func (mc *MemoryCache) removeExpired() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := mc.now()
	for _, key := range mc.cache.Keys() {
		entry, ok := mc.cache.Peek(key)
		if ok && now.After(entry.expiresAt) {
			mc.cache.Remove(key)
		}
	}
}

// NoopCache is a cache that does nothing (used when caching is disabled)
type NoopCache struct{}

// NewNoopCache creates a new no-op cache
func NewNoopCache() *NoopCache {
	return &NoopCache{}
}

// Get always returns not found
func (nc *NoopCache) Get(key string) (string, bool) {
	return "", false
}

// Set does nothing
func (nc *NoopCache) Set(key string, value string) {}

// Close does nothing
func (nc *NoopCache) Close() {}
