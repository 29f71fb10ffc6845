// Package idempotency remembers which record a client-supplied request key
// produced, so a retried create returns the original record instead of a
// second copy.
package idempotency

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL is how long a key is remembered.
const DefaultTTL = 24 * time.Hour

type entry struct {
	id   string
	seen time.Time
}

// Cache maps request keys to record ids. Safe for concurrent use. Entries
// expire after the TTL.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

func New(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Lookup returns the record id stored under key, if it has not expired.
func (c *Cache) Lookup(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || c.expired(e) {
		return "", false
	}
	return e.id, true
}

// Remember stores id under key, replacing any earlier entry.
func (c *Cache) Remember(key, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{id: id, seen: c.now()}
}

// Len returns the number of entries, expired ones included until Cleanup.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// CleanupLoop periodically drops expired entries until ctx is done.
func (c *Cache) CleanupLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.Cleanup()
		case <-ctx.Done():
			return
		}
	}
}

func (c *Cache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, key)
		}
	}
}

func (c *Cache) expired(e entry) bool {
	return c.now().Sub(e.seen) > c.ttl
}
