package ai

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/doeshing/dexter/internal/domain"
)

// ResponseCache holds raw completion text keyed by target identity and request payload.
// It lives as long as the client that owns it and is never written to disk.
//
// At capacity, inserting a new key evicts one arbitrary existing entry (whatever
// map iteration yields first). This is not LRU.
type ResponseCache struct {
	mu       sync.RWMutex
	capacity int
	entries  map[string]string
}

// NewResponseCache returns a cache bounded to capacity entries.
func NewResponseCache(capacity int) *ResponseCache {
	if capacity <= 0 {
		capacity = domain.DefaultCacheCapacity
	}
	return &ResponseCache{
		capacity: capacity,
		entries:  make(map[string]string, capacity),
	}
}

// Get returns the cached value for key.
func (c *ResponseCache) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.entries[key]
	return value, ok
}

// Put stores value under key, evicting one entry first when full.
func (c *ResponseCache) Put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		for victim := range c.entries {
			delete(c.entries, victim)
			break
		}
	}
	c.entries[key] = value
}

// Len reports the number of cached entries.
func (c *ResponseCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear drops every entry.
func (c *ResponseCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]string, c.capacity)
}

// cacheKey hashes the target identity together with the serialized request body.
func cacheKey(t domain.Target, payload []byte) string {
	h := sha256.New()
	for _, part := range []string{t.DisplayName, t.BaseURL, string(t.Auth), t.APIKey, t.Model} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
