package settings

import (
	"strings"
	"sync"
	"time"

	"github.com/jonathan/preflight/internal/types"
)

// DefaultTTL is how long a resolved settings set stays cached.
const DefaultTTL = 24 * time.Hour

type cacheEntry struct {
	set     *types.SettingsSet
	expires time.Time
}

// Cache holds resolved settings sets keyed by culture. Entries expire after
// the TTL and are replaced wholesale, so readers never see a partial update.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

// NewCache creates a cache. A non-positive ttl selects DefaultTTL.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the unexpired set stored under key.
func (c *Cache) Get(key string) (*types.SettingsSet, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !c.now().Before(entry.expires) {
		c.mu.Lock()
		if cur, ok := c.entries[key]; ok && !c.now().Before(cur.expires) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return entry.set, true
}

// Put stores set under key, replacing any previous entry.
func (c *Cache) Put(key string, set *types.SettingsSet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{set: set, expires: c.now().Add(c.ttl)}
}

// GetOrCompute returns the cached set for key or computes it. Results are
// cached only when compute succeeds.
func (c *Cache) GetOrCompute(key string, compute func() (*types.SettingsSet, error)) (*types.SettingsSet, error) {
	if set, ok := c.Get(key); ok {
		return set, nil
	}
	set, err := compute()
	if err != nil {
		return set, err
	}
	c.Put(key, set)
	return set, nil
}

// Delete drops the entry for key.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// DeleteSuffix drops every entry whose key ends with suffix.
func (c *Cache) DeleteSuffix(suffix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if strings.HasSuffix(key, suffix) {
			delete(c.entries, key)
		}
	}
}

// Len returns the number of entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
