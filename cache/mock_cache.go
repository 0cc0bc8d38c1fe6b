package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ammiranda/tree_diagram/layout"
)

// MockCache is a cache provider that can be used for testing
type MockCache struct {
	mu              sync.RWMutex
	data            map[string]*layout.Diagram
	ttl             time.Duration
	GetCalls        int
	Hits            int
	SetCalls        int
	InvalidateCalls int
	SetTTLCalls     int
	InitCalls       int
	ShouldFail      bool
}

// NewMockCache creates a new mock cache provider
func NewMockCache() *MockCache {
	return &MockCache{
		data: make(map[string]*layout.Diagram),
		ttl:  5 * time.Minute,
	}
}

// Initialize performs any necessary setup for the cache provider
func (c *MockCache) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.InitCalls++
	if c.ShouldFail {
		return ErrCacheInitialization
	}
	return nil
}

// GetDiagram retrieves a diagram from cache if available
func (c *MockCache) GetDiagram(ctx context.Context, key string) (*layout.Diagram, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.GetCalls++

	if c.ShouldFail {
		return nil, false
	}

	d, ok := c.data[key]
	if ok {
		c.Hits++
	}
	return d, ok
}

// SetDiagram stores a diagram in cache
func (c *MockCache) SetDiagram(ctx context.Context, key string, d *layout.Diagram) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SetCalls++

	if !c.ShouldFail {
		c.data[key] = d
	}
}

// InvalidateCache removes all cached diagrams
func (c *MockCache) InvalidateCache(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.InvalidateCalls++

	if c.ShouldFail {
		return ErrCacheInvalidation
	}
	c.data = make(map[string]*layout.Diagram)
	return nil
}

// SetCacheTTL sets the cache time-to-live duration
func (c *MockCache) SetCacheTTL(ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SetTTLCalls++

	if !c.ShouldFail {
		c.ttl = ttl
	}
}

// Reset resets all counters and state
func (c *MockCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.GetCalls = 0
	c.Hits = 0
	c.SetCalls = 0
	c.InvalidateCalls = 0
	c.SetTTLCalls = 0
	c.InitCalls = 0
	c.ShouldFail = false
	c.data = make(map[string]*layout.Diagram)
}

// GetCallCounts returns the number of times each method was called
func (c *MockCache) GetCallCounts() (get, set, invalidate, setTTL, init int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.GetCalls, c.SetCalls, c.InvalidateCalls, c.SetTTLCalls, c.InitCalls
}

// HitCount returns the number of GetDiagram calls that found an entry
func (c *MockCache) HitCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Hits
}

// SetShouldFail makes the mock cache fail all operations
func (c *MockCache) SetShouldFail(shouldFail bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ShouldFail = shouldFail
}

var (
	// ErrCacheInitialization is returned when the mock cache is configured to fail
	ErrCacheInitialization = errors.New("mock cache initialization failed")
	// ErrCacheInvalidation is returned by InvalidateCache when the mock is configured to fail
	ErrCacheInvalidation = errors.New("mock cache invalidation failed")
)
