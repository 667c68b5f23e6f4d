package platform

import (
	"fmt"
	"sync"

	"github.com/ashaw315/hotdog-diaries-sub008/internal/domain"
)

// Registry holds the adapters available to the orchestrator. Adapters are
// registered at wiring time; a platform with no registered adapter is
// treated as disabled and excluded from coordinated scans.
type Registry struct {
	mu       sync.RWMutex
	adapters map[domain.Platform]Adapter
	disabled map[domain.Platform]bool
}

func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[domain.Platform]Adapter),
		disabled: make(map[domain.Platform]bool),
	}
}

// Register adds an adapter. Registering the same platform twice is a
// wiring bug and returns an error.
func (r *Registry) Register(adapter Adapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := adapter.Platform()
	if !p.Valid() {
		return fmt.Errorf("register adapter: unknown platform %q", p)
	}
	if _, exists := r.adapters[p]; exists {
		return fmt.Errorf("register adapter: platform %q already registered", p)
	}
	r.adapters[p] = adapter
	return nil
}

// Get returns the adapter for a platform, or domain.ErrNotFound when the
// platform has no registered adapter or is disabled.
func (r *Registry) Get(p domain.Platform) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.disabled[p] {
		return nil, domain.ErrNotFound
	}
	adapter, ok := r.adapters[p]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return adapter, nil
}

// SetEnabled toggles a platform without unregistering its adapter.
func (r *Registry) SetEnabled(p domain.Platform, enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disabled[p] = !enabled
}

// Enabled returns the enabled platforms in their canonical order.
func (r *Registry) Enabled() []domain.Platform {
	r.mu.RLock()
	defer r.mu.RUnlock()

	platforms := make([]domain.Platform, 0, len(r.adapters))
	for _, p := range domain.AllPlatforms {
		if _, ok := r.adapters[p]; ok && !r.disabled[p] {
			platforms = append(platforms, p)
		}
	}
	return platforms
}
