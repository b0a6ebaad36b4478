package adapter

import (
	"fmt"
	"slices"
)

// Registry holds the configured adapters of a run by name.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry() *Registry {
	return &Registry{adapters: map[string]Adapter{}}
}

// Register adds a. Names are unique within a registry.
func (r *Registry) Register(a Adapter) error {
	if _, ok := r.adapters[a.Name()]; ok {
		return fmt.Errorf("adapter %q registered twice", a.Name())
	}
	r.adapters[a.Name()] = a
	return nil
}

// Get returns the adapter with the given name.
func (r *Registry) Get(name string) (Adapter, error) {
	a, ok := r.adapters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAdapter, name)
	}
	return a, nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (r *Registry) Len() int { return len(r.adapters) }
