package cache

import (
	"context"
	"sync"
	"time"

	"github.com/ammiranda/tree_diagram/layout"
)

// maxMemoryEntries bounds the number of diagrams kept by MemoryCache
const maxMemoryEntries = 64

// MemoryCache implements Provider using in-memory storage
type MemoryCache struct {
	mu       sync.RWMutex
	data     map[string]*layout.Diagram
	ttl      time.Duration
	expiries map[string]time.Time
	now      func() time.Time
}

// NewMemoryCache creates a new in-memory cache provider
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		ttl:      5 * time.Minute,
		data:     make(map[string]*layout.Diagram),
		expiries: make(map[string]time.Time),
		now:      time.Now,
	}
}

// Initialize performs any necessary setup for the cache provider
func (c *MemoryCache) Initialize(ctx context.Context) error {
	return nil
}

// GetDiagram retrieves a diagram from cache if available
func (c *MemoryCache) GetDiagram(ctx context.Context, key string) (*layout.Diagram, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	expiry, exists := c.expiries[key]
	if !exists || c.now().After(expiry) {
		return nil, false
	}

	if d, ok := c.data[key]; ok {
		return d, true
	}

	return nil, false
}

// SetDiagram stores a diagram in cache
func (c *MemoryCache) SetDiagram(ctx context.Context, key string, d *layout.Diagram) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, ok := c.data[key]; !ok && len(c.data) >= maxMemoryEntries {
		c.evict(now)
	}
	c.data[key] = d
	c.expiries[key] = now.Add(c.ttl)
}

// evict drops expired entries, or the one closest to expiry when none has expired
func (c *MemoryCache) evict(now time.Time) {
	var oldest string
	var oldestAt time.Time
	for key, expiry := range c.expiries {
		if now.After(expiry) {
			delete(c.data, key)
			delete(c.expiries, key)
			continue
		}
		if oldest == "" || expiry.Before(oldestAt) {
			oldest, oldestAt = key, expiry
		}
	}
	if len(c.data) >= maxMemoryEntries && oldest != "" {
		delete(c.data, oldest)
		delete(c.expiries, oldest)
	}
}

// InvalidateCache removes all cached data
func (c *MemoryCache) InvalidateCache(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = make(map[string]*layout.Diagram)
	c.expiries = make(map[string]time.Time)
	return nil
}

// SetCacheTTL sets the cache time-to-live duration
func (c *MemoryCache) SetCacheTTL(ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ttl = ttl
	// Update all existing expiries
	now := c.now()
	for key := range c.data {
		c.expiries[key] = now.Add(ttl)
	}
}

// Len returns the number of stored entries, expired or not
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
