package cache

import (
	"context"
	"sync"
	"time"

	"github.com/kolnet/backend/internal/domain/network"
)

// InMemoryTreeCache keeps the forest in process memory. Suitable for a single
// instance and for tests.
type InMemoryTreeCache struct {
	mu         sync.RWMutex
	forest     *network.ForestResult
	expiresAt  time.Time
	generation uint64
	now        func() time.Time
}

// NewInMemoryTreeCache creates an empty cache
func NewInMemoryTreeCache() *InMemoryTreeCache {
	return &InMemoryTreeCache{now: time.Now}
}

// Get returns the cached forest unless it has expired
func (c *InMemoryTreeCache) Get(_ context.Context) (*network.ForestResult, uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.forest == nil || !c.now().Before(c.expiresAt) {
		return nil, c.generation, nil
	}
	f := *c.forest
	return &f, c.generation, nil
}

// Set stores the forest for ttl when generation is still current
func (c *InMemoryTreeCache) Set(_ context.Context, generation uint64, forest network.ForestResult, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation {
		return nil
	}
	c.forest = &forest
	c.expiresAt = c.now().Add(ttl)
	return nil
}

// Invalidate drops the cached forest and starts a new generation
func (c *InMemoryTreeCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.forest = nil
	c.generation++
	return nil
}

// Close is a no-op
func (c *InMemoryTreeCache) Close() error {
	return nil
}

var _ TreeCache = (*InMemoryTreeCache)(nil)
