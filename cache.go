package partedfs

import (
	"sync"
	"time"
)

// partCache caches discovered part sets keyed by logical path. Listing the
// delegate remains the ground truth; the cache only short-circuits repeated
// discovery between mutations.
type partCache struct {
	partSets      map[string]*partCacheEntry
	negativeCache map[string]*negativeCacheEntry
	mu            sync.RWMutex
	partTTL       time.Duration
	negativeTTL   time.Duration
	maxEntries    int
	enabled       bool
}

// partCacheEntry stores a cached part set
type partCacheEntry struct {
	parts   []partRef
	expires time.Time
}

// negativeCacheEntry stores information about paths with no discoverable parts
type negativeCacheEntry struct {
	expires time.Time
}

// newPartCache creates a new cache with the specified configuration
func newPartCache(enabled bool, partTTL, negativeTTL time.Duration, maxEntries int) *partCache {
	if !enabled {
		return &partCache{enabled: false}
	}

	return &partCache{
		partSets:      make(map[string]*partCacheEntry),
		negativeCache: make(map[string]*negativeCacheEntry),
		partTTL:       partTTL,
		negativeTTL:   negativeTTL,
		maxEntries:    maxEntries,
		enabled:       true,
	}
}

// getParts retrieves a cached part set if available and not expired
func (c *partCache) getParts(path string) ([]partRef, bool) {
	if !c.enabled {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.partSets[path]
	if !ok {
		return nil, false
	}

	if time.Now().After(entry.expires) {
		return nil, false
	}

	return entry.parts, true
}

// putParts stores a discovered part set in the cache
func (c *partCache) putParts(path string, parts []partRef) {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.partSets) >= c.maxEntries {
		c.evictOldestParts()
	}

	c.partSets[path] = &partCacheEntry{
		parts:   parts,
		expires: time.Now().Add(c.partTTL),
	}
}

// isNegative checks if a path is in the negative cache (known to have no parts)
func (c *partCache) isNegative(path string) bool {
	if !c.enabled {
		return false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.negativeCache[path]
	if !ok {
		return false
	}

	if time.Now().After(entry.expires) {
		return false
	}

	return true
}

// putNegative marks a path as having no discoverable parts
func (c *partCache) putNegative(path string) {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.negativeCache) >= c.maxEntries {
		c.evictOldestNegative()
	}

	c.negativeCache[path] = &negativeCacheEntry{
		expires: time.Now().Add(c.negativeTTL),
	}
}

// invalidate removes a path from all caches
func (c *partCache) invalidate(path string) {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.partSets, path)
	delete(c.negativeCache, path)
}

// invalidateTree removes all cache entries under a given path prefix
func (c *partCache) invalidateTree(pathPrefix string) {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for path := range c.partSets {
		if len(path) >= len(pathPrefix) && path[:len(pathPrefix)] == pathPrefix {
			delete(c.partSets, path)
		}
	}

	for path := range c.negativeCache {
		if len(path) >= len(pathPrefix) && path[:len(pathPrefix)] == pathPrefix {
			delete(c.negativeCache, path)
		}
	}
}

// clear removes all cache entries
func (c *partCache) clear() {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.partSets = make(map[string]*partCacheEntry)
	c.negativeCache = make(map[string]*negativeCacheEntry)
}

// evictOldestParts removes the part-set entry closest to expiry
func (c *partCache) evictOldestParts() {
	var oldestPath string
	var oldestTime time.Time

	for path, entry := range c.partSets {
		if oldestPath == "" || entry.expires.Before(oldestTime) {
			oldestPath = path
			oldestTime = entry.expires
		}
	}

	if oldestPath != "" {
		delete(c.partSets, oldestPath)
	}
}

// evictOldestNegative removes the negative entry closest to expiry
func (c *partCache) evictOldestNegative() {
	var oldestPath string
	var oldestTime time.Time

	for path, entry := range c.negativeCache {
		if oldestPath == "" || entry.expires.Before(oldestTime) {
			oldestPath = path
			oldestTime = entry.expires
		}
	}

	if oldestPath != "" {
		delete(c.negativeCache, oldestPath)
	}
}

// Stats returns cache statistics
func (c *partCache) Stats() CacheStats {
	if !c.enabled {
		return CacheStats{Enabled: false}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	return CacheStats{
		Enabled:           true,
		PartSetCacheSize:  len(c.partSets),
		NegativeCacheSize: len(c.negativeCache),
		MaxEntries:        c.maxEntries,
		PartSetTTL:        c.partTTL,
		NegativeTTL:       c.negativeTTL,
	}
}

// CacheStats contains cache statistics
type CacheStats struct {
	Enabled           bool
	PartSetCacheSize  int
	NegativeCacheSize int
	MaxEntries        int
	PartSetTTL        time.Duration
	NegativeTTL       time.Duration
}
