package winexec

import (
	"sort"
	"sync"
	"time"

	"github.com/doeshing/wintool/internal/domain"
)

// ResultCache keeps read-only command output in memory for a fixed TTL.
// Expired entries are dropped when they are looked up; nothing sweeps in the
// background. The zero TTL disables expiry. Every Clear starts a new
// generation; SetIfCurrent refuses results read before it.
type ResultCache struct {
	mu      sync.Mutex
	entries map[string]domain.CacheEntry
	ttl     time.Duration
	now     func() time.Time
	hits    int64
	misses  int64
	gen     uint64
}

// NewResultCache returns an empty cache.
func NewResultCache(ttl time.Duration) *ResultCache {
	return &ResultCache{
		entries: make(map[string]domain.CacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns a live entry, evicting it first if it has expired.
func (c *ResultCache) Get(key string) (domain.CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		c.misses++
		return domain.CacheEntry{}, false
	}
	if c.expired(entry) {
		delete(c.entries, key)
		c.misses++
		return domain.CacheEntry{}, false
	}
	c.hits++
	return entry, true
}

// Set stores an entry, stamping CreatedAt when it is zero. Last writer wins.
func (c *ResultCache) Set(entry domain.CacheEntry) {
	if entry.Key == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = c.now()
	}
	c.entries[entry.Key] = entry
}

// SetIfCurrent stores entry only when no Clear happened since gen was read
// from Generation. It reports whether the entry was stored.
func (c *ResultCache) SetIfCurrent(entry domain.CacheEntry, gen uint64) bool {
	if entry.Key == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return false
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = c.now()
	}
	c.entries[entry.Key] = entry
	return true
}

// Generation counts the Clear calls so far.
func (c *ResultCache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Clear removes every entry. Safe to call repeatedly.
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
	c.gen++
}

// Len counts stored entries, expired ones included until they are looked up.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Entries lists live entries, oldest first.
func (c *ResultCache) Entries() []domain.CacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries := make([]domain.CacheEntry, 0, len(c.entries))
	for _, entry := range c.entries {
		if !c.expired(entry) {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.Before(entries[j].CreatedAt) })
	return entries
}

// Stats reports hit/miss counters for the current process.
func (c *ResultCache) Stats() domain.CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.CacheStats{
		Entries: len(c.entries),
		Hits:    c.hits,
		Misses:  c.misses,
		TTL:     c.ttl,
	}
}

// SetTTL adjusts expiry at runtime; existing entries are judged by the new TTL.
func (c *ResultCache) SetTTL(ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ttl = ttl
}

func (c *ResultCache) expired(entry domain.CacheEntry) bool {
	return c.ttl > 0 && c.now().Sub(entry.CreatedAt) >= c.ttl
}
