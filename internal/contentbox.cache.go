package internal

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"
)

// ContentCache stores evaluated output of paths declaring @cache.
// Implementations must be safe for concurrent use; one cache may be
// shared by many runtimes.
type ContentCache interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
	Flush()
}

// MemoryContentCache is an in-memory ContentCache with TTL expiry and
// oldest-first eviction.
type MemoryContentCache struct {
	mu        sync.RWMutex
	entries   map[string]*contentCacheEntry
	config    ContentCacheConfig
	stats     ContentCacheStats
	evictList []string
}

type contentCacheEntry struct {
	Value     any
	CreatedAt time.Time
	ExpiresAt time.Time
	HitCount  int
}

// ContentCacheConfig configures the memory cache
type ContentCacheConfig struct {
	// DefaultTTL applies when an entry declares no lifetime. Default: 5 minutes.
	DefaultTTL time.Duration

	// MaxEntries is the maximum number of cached entries. Default: 1000.
	MaxEntries int
}

// ContentCacheStats tracks cache performance metrics
type ContentCacheStats struct {
	Hits       int64
	Misses     int64
	Evictions  int64
	EntryCount int
}

// Content cache defaults
const (
	DefaultContentCacheTTL        = 5 * time.Minute
	DefaultContentCacheMaxEntries = 1000
	contentCacheKeySeparator      = ":"
	contentCacheHashBytes         = 8
)

// DefaultContentCacheConfig returns sensible defaults
func DefaultContentCacheConfig() ContentCacheConfig {
	return ContentCacheConfig{
		DefaultTTL: DefaultContentCacheTTL,
		MaxEntries: DefaultContentCacheMaxEntries,
	}
}

// NewMemoryContentCache creates a new in-memory content cache
func NewMemoryContentCache(config ContentCacheConfig) *MemoryContentCache {
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = DefaultContentCacheTTL
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultContentCacheMaxEntries
	}
	return &MemoryContentCache{
		entries:   make(map[string]*contentCacheEntry),
		config:    config,
		evictList: make([]string, 0, config.MaxEntries),
	}
}

// Get retrieves an entry if present and not expired
func (c *MemoryContentCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		c.stats.Misses++
		return nil, false
	}
	if time.Now().After(entry.ExpiresAt) {
		delete(c.entries, key)
		c.stats.EntryCount = len(c.entries)
		c.stats.Misses++
		return nil, false
	}

	entry.HitCount++
	c.stats.Hits++
	return entry.Value, true
}

// Set stores an entry; a non-positive ttl uses the configured default
func (c *MemoryContentCache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.config.DefaultTTL
	}
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		if len(c.entries) >= c.config.MaxEntries {
			c.evictOldest()
		}
		c.evictList = append(c.evictList, key)
	}
	c.entries[key] = &contentCacheEntry{
		Value:     value,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	c.stats.EntryCount = len(c.entries)
}

// Flush removes all entries
func (c *MemoryContentCache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*contentCacheEntry)
	c.evictList = make([]string, 0, c.config.MaxEntries)
	c.stats.EntryCount = 0
}

// Stats returns current cache statistics
func (c *MemoryContentCache) Stats() ContentCacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// Len returns the number of stored entries
func (c *MemoryContentCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// evictOldest removes the oldest entry
func (c *MemoryContentCache) evictOldest() {
	for len(c.evictList) > 0 {
		oldest := c.evictList[0]
		c.evictList = c.evictList[1:]
		if _, exists := c.entries[oldest]; exists {
			delete(c.entries, oldest)
			c.stats.Evictions++
			return
		}
	}
}

// ContentCacheKey builds a cache key from a path and its entry identifier values
func ContentCacheKey(path string, identifier *OrderedMap) string {
	data, err := json.Marshal(identifier)
	if err != nil {
		return path
	}
	hash := sha256.Sum256(data)
	return path + contentCacheKeySeparator + hex.EncodeToString(hash[:contentCacheHashBytes])
}
