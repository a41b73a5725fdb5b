package envfile

import "sync"

// Cache keeps merged env file contents keyed by plan fingerprint and guards
// access with a RWMutex.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]map[string]string
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]map[string]string)}
}

// Get returns a defensive copy of the entry stored under key.
func (c *Cache) Get(key string) (map[string]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return clonePairs(m), true
}

// Set stores a copy of pairs under key.
func (c *Cache) Set(key string, pairs map[string]string) {
	cp := clonePairs(pairs)

	c.mu.Lock()
	c.entries[key] = cp
	c.mu.Unlock()
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]map[string]string)
	c.mu.Unlock()
}

// Len reports the number of cached plans.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func clonePairs(src map[string]string) map[string]string {
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
