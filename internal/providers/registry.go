package providers

import (
	"fmt"
	"sync"

	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
)

// Registry looks providers up by identifier.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	order     []string
}

func NewRegistry(providersList ...Provider) *Registry {
	r := &Registry{
		providers: make(map[string]Provider),
	}
	for _, p := range providersList {
		r.Register(p)
	}
	return r
}

// Register adds p, replacing any provider with the same identifier.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := p.Identifier()
	if _, exists := r.providers[id]; !exists {
		r.order = append(r.order, id)
	}
	r.providers[id] = p
}

func (r *Registry) Get(identifier string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[identifier]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q: %w", identifier, domainErrors.ErrProviderNotFound)
	}
	return p, nil
}

// All returns the providers in registration order.
func (r *Registry) All() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]Provider, 0, len(r.order))
	for _, id := range r.order {
		all = append(all, r.providers[id])
	}
	return all
}
