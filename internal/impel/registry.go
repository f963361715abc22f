package impel

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps driver types to the factories that build them.
// Populate it during bootstrap, before any Impeller of a type is initialized.
type Registry struct {
	mu        sync.RWMutex
	factories map[DriverType]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[DriverType]Factory)}
}

// Register adds a factory for t. Registering a type twice keeps the first
// factory and reports false.
func (r *Registry) Register(t DriverType, f Factory) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[t]; exists {
		return false
	}
	r.factories[t] = f
	return true
}

func (r *Registry) Registered(t DriverType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[t]
	return ok
}

// Types returns the registered driver types in sorted order.
func (r *Registry) Types() []DriverType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]DriverType, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// New builds a driver for init.
func (r *Registry) New(init Init) (Driver, error) {
	if init == nil {
		return nil, fmt.Errorf("%w: nil init", ErrInvalidInit)
	}

	r.mu.RLock()
	f, ok := r.factories[init.Type()]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnregisteredDriver, init.Type())
	}
	return f(init)
}
