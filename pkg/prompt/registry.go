package prompt

import "sync"

// Registry maps tenant IDs to their prompt composers. Unknown tenants
// resolve to a shared default composer so a call never fails for lack
// of practice configuration.
type Registry struct {
	mu        sync.RWMutex
	composers map[string]*Composer
	fallback  *Composer
}

func NewRegistry() *Registry {
	return &Registry{
		composers: make(map[string]*Composer),
		fallback:  NewComposer(DefaultPracticeInfo()),
	}
}

// Register installs or replaces the composer for a tenant.
func (r *Registry) Register(tenantID string, practice PracticeInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.composers[tenantID] = NewComposer(practice)
}

// Resolve returns the tenant's composer, or the default when the tenant
// is unknown or empty. Never returns nil.
func (r *Registry) Resolve(tenantID string) *Composer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.composers[tenantID]; ok {
		return c
	}
	return r.fallback
}
