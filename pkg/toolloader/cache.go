package toolloader

import (
	"sync"
	"time"

	"github.com/tpmjs/tpmjs/pkg/tools"
)

type cacheEntry struct {
	tool     *tools.Tool
	cachedAt time.Time
}

// Cache holds resolved tools keyed by conversation and tool reference, with
// a TTL and a periodic sweep of expired entries.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration

	now  func() time.Time
	done chan struct{}
	once sync.Once
}

// NewCache creates a cache whose entries expire after ttl.
func NewCache(ttl time.Duration) *Cache {
	c := &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go c.sweepLoop()
	return c
}

func cacheKey(conversationID string, ref Ref) string {
	return conversationID + "\x00" + ref.String()
}

// Get returns the cached tool for (conversationID, ref) if present and fresh.
func (c *Cache) Get(conversationID string, ref Ref) (*tools.Tool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[cacheKey(conversationID, ref)]
	if !ok || c.now().Sub(e.cachedAt) > c.ttl {
		return nil, false
	}
	return e.tool, true
}

// Put stores a resolved tool for (conversationID, ref).
func (c *Cache) Put(conversationID string, ref Ref, tool *tools.Tool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(conversationID, ref)] = cacheEntry{tool: tool, cachedAt: c.now()}
}

// Invalidate drops every entry belonging to conversationID. Called when a
// conversation is deleted or its agent's collection changes.
func (c *Cache) Invalidate(conversationID string) {
	prefix := conversationID + "\x00"
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(c.entries, key)
		}
	}
}

// Close stops the sweep goroutine.
func (c *Cache) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

func (c *Cache) sweepLoop() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *Cache) sweep() {
	cutoff := c.now().Add(-c.ttl)
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		if e.cachedAt.Before(cutoff) {
			delete(c.entries, key)
		}
	}
}
