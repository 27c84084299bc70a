package airgrid

import (
	"sync"
	"time"
)

// Cache stores cell readings keyed by quantized grid cell and time bucket.
// Implementations must be safe for concurrent use.
type Cache interface {
	Get(key string) (*CellReading, bool)
	Set(key string, reading *CellReading, ttl time.Duration)
}

type cacheEntry struct {
	reading   *CellReading
	expiresAt time.Time
}

// MemoryCache is an in-process Cache with per-entry TTL. Expired entries
// are dropped lazily on read and swept when the map grows past sweepSize.
type MemoryCache struct {
	mu        sync.RWMutex
	entries   map[string]cacheEntry
	sweepSize int
}

const defaultSweepSize = 4096

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries:   make(map[string]cacheEntry),
		sweepSize: defaultSweepSize,
	}
}

// Get returns the cached reading for key, or false if absent or expired.
func (c *MemoryCache) Get(key string) (*CellReading, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; another writer may have refreshed it.
		if cur, ok := c.entries[key]; ok && time.Now().After(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return entry.reading, true
}

// Set stores reading under key for ttl.
func (c *MemoryCache) Set(key string, reading *CellReading, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= c.sweepSize {
		now := time.Now()
		for k, e := range c.entries {
			if now.After(e.expiresAt) {
				delete(c.entries, k)
			}
		}
	}
	c.entries[key] = cacheEntry{reading: reading, expiresAt: time.Now().Add(ttl)}
}

// Len reports the number of entries currently held, including expired
// entries not yet swept.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
