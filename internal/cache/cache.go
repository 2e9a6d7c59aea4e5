// Package cache is the local copy of every server-owned collection, split
// into independently invalidated partitions.
//
// Data only enters through Replace, which swaps a whole partition. Invalidate
// keeps the data and only clears the fresh flag so readers keep seeing the
// last known value while a refetch is pending.
package cache

import (
	"sync"
	"time"
)

// Entry is a partition's content. Data holds the decoded REST snapshot
// ([]types.Disaster, []types.SocialMediaPost, ...).
type Entry struct {
	Data      any
	Fresh     bool
	FetchedAt time.Time
}

// Cache is safe for concurrent readers. The synchronization core is its only
// writer.
type Cache struct {
	mu      sync.RWMutex
	entries map[Key]Entry
	now     func() time.Time
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[Key]Entry), now: time.Now}
}

// Get returns the partition entry; ok is false when the partition was never
// loaded (or has been evicted).
func (c *Cache) Get(key Key) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e, ok
}

// Replace overwrites the whole partition and marks it fresh.
func (c *Cache) Replace(key Key, data any) {
	c.mu.Lock()
	c.entries[key] = Entry{Data: data, Fresh: true, FetchedAt: c.now()}
	c.mu.Unlock()
}

// Invalidate marks a loaded partition stale, leaving its data untouched.
// It reports whether the partition was loaded.
func (c *Cache) Invalidate(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return false
	}
	e.Fresh = false
	c.entries[key] = e
	return true
}

// Evict drops a partition entirely.
func (c *Cache) Evict(key Key) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// EvictDisaster drops every partition scoped to disasterID and returns the
// evicted keys.
func (c *Cache) EvictDisaster(disasterID string) []Key {
	if disasterID == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	var evicted []Key
	for k := range c.entries {
		if k.DisasterID == disasterID {
			delete(c.entries, k)
			evicted = append(evicted, k)
		}
	}
	return evicted
}

// Keys lists loaded partitions in no particular order.
func (c *Cache) Keys() []Key {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]Key, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	return keys
}

// Snapshot copies the partition map. Entry data is shared, never mutated.
func (c *Cache) Snapshot() map[Key]Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[Key]Entry, len(c.entries))
	for k, e := range c.entries {
		out[k] = e
	}
	return out
}
