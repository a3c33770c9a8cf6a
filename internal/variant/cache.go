package variant

import (
	"sync"
	"time"
)

const (
	defaultTTL        = 10 * time.Minute
	defaultMaxEntries = 5000
)

type cacheEntry struct {
	values    []string
	expiresAt time.Time
}

// ttlCache is a concurrent map of variant lists keyed by field-scope plus
// normalized query. Expiration is checked lazily on read; when the entry
// count passes the cap the whole map is cleared. Coarse, but a bounded-LRU
// is not warranted for this workload.
type ttlCache struct {
	mu         sync.RWMutex
	entries    map[string]cacheEntry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

func newTTLCache(ttl time.Duration, maxEntries int) *ttlCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &ttlCache{
		entries:    make(map[string]cacheEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// get returns the cached values for key if present and unexpired. Expired
// entries are evicted on the spot.
func (c *ttlCache) get(key string) ([]string, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().After(e.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; another goroutine may have replaced it.
		if cur, ok := c.entries[key]; ok && c.now().After(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e.values, true
}

func (c *ttlCache) set(key string, values []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) > c.maxEntries {
		c.entries = make(map[string]cacheEntry)
	}
	c.entries[key] = cacheEntry{values: values, expiresAt: c.now().Add(c.ttl)}
}

func (c *ttlCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
