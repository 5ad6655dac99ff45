package orchestration

import (
	"fmt"
	"sort"
	"sync"
)

// ModuleConfig carries module-specific configuration, opaque to the core.
type ModuleConfig map[string]any

// Factory constructs a module with the provided configuration. Factories
// run once per run, outside the execution path.
type Factory func(cfg ModuleConfig) (Module, error)

// Registry maps module ids to factories. It replaces any form of module
// discovery: an external loader assembles it once at startup and the
// orchestrator never scans for modules itself.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register installs a factory under the given id.
func (r *Registry) Register(id string, factory Factory) error {
	if id == "" {
		return ErrEmptyModuleID
	}
	if factory == nil {
		return fmt.Errorf("%w: %s", ErrNilFactory, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[id]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, id)
	}
	r.factories[id] = factory
	return nil
}

// MustRegister panics if registration fails. Intended for package-level
// builtin wiring.
func (r *Registry) MustRegister(id string, factory Factory) {
	if err := r.Register(id, factory); err != nil {
		panic(err)
	}
}

// Resolve constructs a module by id and verifies its metadata carries the
// registered id.
func (r *Registry) Resolve(id string, cfg ModuleConfig) (Module, error) {
	r.mu.RLock()
	factory, ok := r.factories[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModule, id)
	}
	m, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("constructing module %s: %w", id, err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: factory for %s returned nil", ErrNilModule, id)
	}
	if got := m.Metadata().ID; got != id {
		return nil, fmt.Errorf("module %s reports metadata id %q", id, got)
	}
	return m, nil
}

// IDs returns the registered module ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
