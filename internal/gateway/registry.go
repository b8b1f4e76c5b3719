package gateway

import (
	"fmt"
	"sync"
)

// Registry maps platform ids to gateways for O(1) routing.
//
// Registration normally happens once during wiring, but the map is guarded so
// a gateway can also be added while the dispatcher is running; reminders for a
// platform registered late simply start routing on the next tick.
type Registry struct {
	mu sync.RWMutex
	m  map[string]Gateway
}

func NewRegistry() *Registry {
	return &Registry{m: map[string]Gateway{}}
}

// Register adds a gateway. Duplicate platform ids are a wiring bug.
func (r *Registry) Register(g Gateway) error {
	if g == nil {
		return fmt.Errorf("gateway is nil")
	}
	id := g.PlatformID()
	if id == "" {
		return fmt.Errorf("gateway has empty platform id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.m[id]; dup {
		return fmt.Errorf("gateway %q already registered", id)
	}
	r.m[id] = g
	return nil
}

// Lookup returns the gateway for the platform id.
func (r *Registry) Lookup(platform string) (Gateway, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.m[platform]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlatform, platform)
	}
	return g, nil
}

// Platforms returns the registered platform ids (unordered).
func (r *Registry) Platforms() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.m))
	for id := range r.m {
		out = append(out, id)
	}
	return out
}
