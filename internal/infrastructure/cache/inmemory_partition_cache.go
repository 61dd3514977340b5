package cache

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// InMemoryPartitionCache implements the partition generation counter with a
// plain map. This is suitable for single-instance deployments and testing.
// WARNING: generations are not shared across process instances, so readers
// in other processes will not observe invalidations.
type InMemoryPartitionCache struct {
	mu          sync.RWMutex
	generations map[uuid.UUID]int64
}

// NewInMemoryPartitionCache creates a new in-memory partition cache
func NewInMemoryPartitionCache() *InMemoryPartitionCache {
	return &InMemoryPartitionCache{
		generations: make(map[uuid.UUID]int64),
	}
}

// Invalidate bumps the project's generation counter
func (c *InMemoryPartitionCache) Invalidate(_ context.Context, projectID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[projectID]++
	return nil
}

// Generation returns the project's current generation
func (c *InMemoryPartitionCache) Generation(_ context.Context, projectID uuid.UUID) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generations[projectID], nil
}
