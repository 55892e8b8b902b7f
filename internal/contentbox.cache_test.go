package internal

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryContentCache_Defaults(t *testing.T) {
	cache := NewMemoryContentCache(ContentCacheConfig{})
	assert.Equal(t, DefaultContentCacheTTL, cache.config.DefaultTTL)
	assert.Equal(t, DefaultContentCacheMaxEntries, cache.config.MaxEntries)
}

func TestMemoryContentCache_GetSet(t *testing.T) {
	cache := NewMemoryContentCache(DefaultContentCacheConfig())

	_, ok := cache.Get("missing")
	assert.False(t, ok)

	cache.Set("k", "<p>cached</p>", 0)
	value, ok := cache.Get("k")
	require.True(t, ok)
	assert.Equal(t, "<p>cached</p>", value)

	stats := cache.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.EntryCount)
}

func TestMemoryContentCache_Expiry(t *testing.T) {
	cache := NewMemoryContentCache(DefaultContentCacheConfig())
	cache.Set("k", "v", time.Millisecond)

	time.Sleep(5 * time.Millisecond)
	_, ok := cache.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len())
}

func TestMemoryContentCache_EvictsOldest(t *testing.T) {
	cache := NewMemoryContentCache(ContentCacheConfig{MaxEntries: 2})
	cache.Set("a", 1, 0)
	cache.Set("b", 2, 0)
	cache.Set("c", 3, 0)

	_, ok := cache.Get("a")
	assert.False(t, ok)
	_, ok = cache.Get("c")
	assert.True(t, ok)
	assert.Equal(t, int64(1), cache.Stats().Evictions)
}

func TestMemoryContentCache_Flush(t *testing.T) {
	cache := NewMemoryContentCache(DefaultContentCacheConfig())
	cache.Set("a", 1, 0)
	cache.Flush()
	assert.Equal(t, 0, cache.Len())
}

func TestMemoryContentCache_Concurrent(t *testing.T) {
	cache := NewMemoryContentCache(DefaultContentCacheConfig())
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := anyToString(i % 5)
			cache.Set(key, i, 0)
			_, _ = cache.Get(key)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 5, cache.Len())
}

func TestContentCacheKey(t *testing.T) {
	first := NewOrderedMap()
	first.Set("node", "a")
	second := NewOrderedMap()
	second.Set("node", "b")

	keyA := ContentCacheKey("html/page", first)
	assert.Equal(t, keyA, ContentCacheKey("html/page", first))
	assert.NotEqual(t, keyA, ContentCacheKey("html/page", second))
	assert.NotEqual(t, keyA, ContentCacheKey("html/other", first))
	assert.Contains(t, keyA, "html/page"+contentCacheKeySeparator)
}
