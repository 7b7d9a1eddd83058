// Package locks provides per-portfolio mutual exclusion. Registry mutation
// and rebalancing for the same portfolio id serialize on the same lock;
// distinct portfolios proceed fully in parallel.
package locks

import "sync"

// Registry hands out one mutex per portfolio id. Locks are never removed:
// the set of portfolios is small and ids stay valid for the process lifetime.
type Registry struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewRegistry creates an empty lock registry.
func NewRegistry() *Registry {
	return &Registry{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the lock for the given portfolio id, creating it on first use.
func (r *Registry) Lock(portfolioID string) {
	r.get(portfolioID).Lock()
}

// Unlock releases the lock for the given portfolio id.
func (r *Registry) Unlock(portfolioID string) {
	r.get(portfolioID).Unlock()
}

func (r *Registry) get(portfolioID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.locks[portfolioID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[portfolioID] = l
	}
	return l
}
