package api

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultCache_BasicGetPut(t *testing.T) {
	cache := NewResultCache(100, time.Hour)
	key := cacheKey("calculate-tin", []byte(`{"a":1}`))

	assert.Nil(t, cache.Get(key))

	body := []byte(`{"area":1}`)
	cache.Put(key, body)
	assert.Equal(t, body, cache.Get(key))

	// Same body under another endpoint is a different key.
	assert.Nil(t, cache.Get(cacheKey("tin-geojson", []byte(`{"a":1}`))))
}

func TestResultCache_TTLExpiration(t *testing.T) {
	cache := NewResultCache(100, 50*time.Millisecond)

	cache.Put("k", []byte("v"))
	assert.NotNil(t, cache.Get("k"))

	time.Sleep(60 * time.Millisecond)
	assert.Nil(t, cache.Get("k"))

	cache.mu.Lock()
	_, exists := cache.entries["k"]
	cache.mu.Unlock()
	assert.False(t, exists)
	assert.Zero(t, cache.Stats().Entries)
}

func TestResultCache_LRUEviction_AccessOrder(t *testing.T) {
	cache := NewResultCache(3, time.Hour)

	cache.Put("a", []byte("1"))
	cache.Put("b", []byte("2"))
	cache.Put("c", []byte("3"))

	// Touch "a" so "b" becomes the oldest.
	require.NotNil(t, cache.Get("a"))
	cache.Put("d", []byte("4"))

	assert.Nil(t, cache.Get("b"))
	assert.NotNil(t, cache.Get("a"))
	assert.NotNil(t, cache.Get("c"))
	assert.NotNil(t, cache.Get("d"))
	assert.Equal(t, int64(1), cache.Stats().Evictions)
}

func TestResultCache_PutRefreshesTTL(t *testing.T) {
	cache := NewResultCache(2, 80*time.Millisecond)
	cache.Put("a", []byte("1"))
	time.Sleep(50 * time.Millisecond)
	cache.Put("a", []byte("2"))
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, []byte("2"), cache.Get("a"))
}

func TestResultCache_UpdateExisting(t *testing.T) {
	cache := NewResultCache(2, time.Hour)
	cache.Put("a", []byte("1"))
	cache.Put("a", []byte("2"))

	assert.Equal(t, []byte("2"), cache.Get("a"))
	assert.Equal(t, 1, cache.Stats().Entries)
}

func TestResultCache_Stats(t *testing.T) {
	cache := NewResultCache(10, time.Minute)
	cache.Put("a", []byte("1"))
	cache.Get("a")
	cache.Get("a")
	cache.Get("missing")

	stats := cache.Stats()
	assert.True(t, stats.Enabled)
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, 10, stats.MaxEntries)
	assert.InDelta(t, 60, stats.TTLSeconds, 0)
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 2.0/3.0, stats.HitRate, 1e-9)
}

func TestResultCache_Disabled(t *testing.T) {
	cache := NewResultCache(0, time.Hour)
	require.Nil(t, cache)

	// A nil cache is inert.
	cache.Put("a", []byte("1"))
	assert.Nil(t, cache.Get("a"))
	assert.Equal(t, CacheStats{}, cache.Stats())
}

func TestResultCache_ConcurrentAccess(t *testing.T) {
	cache := NewResultCache(50, time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("k%d", (n*100+j)%80)
				cache.Put(key, []byte(key))
				cache.Get(key)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, cache.Stats().Entries, 50)
}
