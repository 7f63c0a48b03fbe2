package application

import (
	"sync"
	"time"

	"github.com/example/silab/internal/calendar"
)

// gridCache stores recently projected week grids so repeated calendar reads
// for the same week skip the ledger while nothing changed. Every ledger
// mutation invalidates the whole cache.
type gridCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]gridCacheEntry
}

type gridCacheEntry struct {
	grid      calendar.WeekGrid
	expiresAt time.Time
}

func newGridCache(ttl time.Duration, maxEntries int, now func() time.Time) *gridCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 64
	}
	if now == nil {
		now = time.Now
	}
	return &gridCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]gridCacheEntry),
	}
}

func (c *gridCache) Get(key string) (calendar.WeekGrid, bool) {
	if c == nil {
		return calendar.WeekGrid{}, false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return calendar.WeekGrid{}, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return calendar.WeekGrid{}, false
	}
	return entry.grid, true
}

func (c *gridCache) Store(key string, grid calendar.WeekGrid) {
	if c == nil {
		return
	}
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	if len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[key] = gridCacheEntry{grid: grid, expiresAt: expiry}
}

func (c *gridCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]gridCacheEntry)
	c.mu.Unlock()
}

func (c *gridCache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *gridCache) evictOneLocked() {
	for key := range c.entries {
		delete(c.entries, key)
		return
	}
}
