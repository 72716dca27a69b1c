package reasoning

import (
	"sync"
	"time"
)

// responseCache keeps raw reasoning responses keyed by request fingerprint.
// It is the only reasoning state shared across concurrent Ask calls, so all
// access goes through the mutex.
type responseCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

type cacheEntry struct {
	text string
	at   time.Time
}

func newResponseCache(ttl time.Duration) *responseCache {
	if ttl <= 0 {
		ttl = 120 * time.Second
	}
	return &responseCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

// get returns the cached response if it is still inside the TTL window.
func (c *responseCache) get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if time.Since(e.at) > c.ttl {
		delete(c.entries, key)
		return "", false
	}
	return e.text, true
}

// set stores a response and evicts entries older than 5x the TTL to bound
// memory across a long session.
func (c *responseCache) set(key, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{text: text, at: time.Now()}

	horizon := 5 * c.ttl
	for k, e := range c.entries {
		if time.Since(e.at) > horizon {
			delete(c.entries, k)
		}
	}
}

func (c *responseCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
