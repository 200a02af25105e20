package api

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"sync/atomic"
	"time"
)

// ResultCache keeps rendered surface responses in memory, keyed by endpoint
// and request hash. Calculations are deterministic, so a hit is the same body
// a recomputation would produce. Entries expire after ttl; the least recently
// used entry is dropped when the cache is full.
type ResultCache struct {
	mu         sync.Mutex
	recency    *list.List // front is most recently used
	entries    map[string]*list.Element
	maxEntries int
	ttl        time.Duration

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

type cachedResponse struct {
	key     string
	body    []byte
	expires time.Time
}

// CacheStats contains cache performance statistics.
type CacheStats struct {
	Enabled    bool    `json:"enabled"`
	Entries    int     `json:"entries"`
	MaxEntries int     `json:"max_entries"`
	TTLSeconds float64 `json:"ttl_seconds"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	Evictions  int64   `json:"evictions"`
	HitRate    float64 `json:"hit_rate"`
}

// NewResultCache creates a cache holding up to maxEntries responses for ttl.
// It returns nil when maxEntries is not positive; a nil cache is disabled.
func NewResultCache(maxEntries int, ttl time.Duration) *ResultCache {
	if maxEntries <= 0 {
		return nil
	}
	return &ResultCache{
		recency:    list.New(),
		entries:    make(map[string]*list.Element, maxEntries),
		maxEntries: maxEntries,
		ttl:        ttl,
	}
}

// cacheKey builds the key for an endpoint and its canonical request body.
func cacheKey(endpoint string, canonical []byte) string {
	sum := sha256.Sum256(canonical)
	return endpoint + "/" + hex.EncodeToString(sum[:])
}

// Get returns a cached response body, or nil on a miss. Expired entries are
// dropped on lookup.
func (c *ResultCache) Get(key string) []byte {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		item := el.Value.(*cachedResponse)
		if time.Now().Before(item.expires) {
			c.recency.MoveToFront(el)
			c.hits.Add(1)
			return item.body
		}
		c.drop(el)
	}
	c.misses.Add(1)
	return nil
}

// Put stores a response body and restarts its ttl.
func (c *ResultCache) Put(key string, body []byte) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := time.Now().Add(c.ttl)
	if el, ok := c.entries[key]; ok {
		item := el.Value.(*cachedResponse)
		item.body, item.expires = body, expires
		c.recency.MoveToFront(el)
		return
	}

	c.entries[key] = c.recency.PushFront(&cachedResponse{key: key, body: body, expires: expires})
	for c.recency.Len() > c.maxEntries {
		c.drop(c.recency.Back())
		c.evictions.Add(1)
	}
}

// drop removes one entry. Callers hold c.mu.
func (c *ResultCache) drop(el *list.Element) {
	item := c.recency.Remove(el).(*cachedResponse)
	delete(c.entries, item.key)
}

// Stats returns cache performance statistics.
func (c *ResultCache) Stats() CacheStats {
	if c == nil {
		return CacheStats{}
	}

	c.mu.Lock()
	entries := c.recency.Len()
	c.mu.Unlock()

	hits, misses := c.hits.Load(), c.misses.Load()
	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return CacheStats{
		Enabled:    true,
		Entries:    entries,
		MaxEntries: c.maxEntries,
		TTLSeconds: c.ttl.Seconds(),
		Hits:       hits,
		Misses:     misses,
		Evictions:  c.evictions.Load(),
		HitRate:    hitRate,
	}
}
