package bandit

import (
	"context"
	"sync"
)

// ParameterCache is the fast tier in front of the persisted state store.
// The in-process implementation below is the default; a distributed
// implementation (see internal/repository/redis) can be swapped in without
// touching calling code. Entries may be briefly stale across processes;
// the store stays the source of truth.
type ParameterCache interface {
	Get(ctx context.Context, projectID uint64) (alpha, beta float64, ok bool)
	Set(ctx context.Context, projectID uint64, alpha, beta float64)
	Delete(ctx context.Context, projectID uint64)
}

type betaParams struct {
	alpha float64
	beta  float64
}

type memoryCache struct {
	mu     sync.RWMutex
	params map[uint64]betaParams
}

func NewMemoryCache() ParameterCache {
	return &memoryCache{params: make(map[uint64]betaParams)}
}

func (c *memoryCache) Get(_ context.Context, projectID uint64) (float64, float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.params[projectID]
	return p.alpha, p.beta, ok
}

func (c *memoryCache) Set(_ context.Context, projectID uint64, alpha, beta float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.params[projectID] = betaParams{alpha: alpha, beta: beta}
}

func (c *memoryCache) Delete(_ context.Context, projectID uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.params, projectID)
}
