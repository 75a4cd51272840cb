package ext

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps extension set names to their descriptors.
//
// Registration normally happens once at startup (for example through the
// Register<Set> helpers of generated bindings); lookups may come from many
// interpreters at once.
type Registry struct {
	mu   sync.RWMutex
	sets map[string]map[string]*Descriptor
}

func NewRegistry() *Registry {
	return &Registry{sets: make(map[string]map[string]*Descriptor)}
}

// DefaultRegistry is the registry generated Register<Set> helpers use when
// given a nil registry.
var DefaultRegistry = NewRegistry()

// Register adds descs to set, replacing same-named functions.
func (r *Registry) Register(set string, descs ...*Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.sets[set]
	if !ok {
		m = make(map[string]*Descriptor, len(descs))
		r.sets[set] = m
	}
	for _, d := range descs {
		if d == nil {
			return fmt.Errorf("extension set %s: nil descriptor", set)
		}
		m[d.Name] = d
	}
	return nil
}

// Register adds descs to DefaultRegistry.
func Register(set string, descs ...*Descriptor) error {
	return DefaultRegistry.Register(set, descs...)
}

// Set returns the descriptors of set sorted by name, or false if the set
// was never registered.
func (r *Registry) Set(set string) ([]*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.sets[set]
	if !ok {
		return nil, false
	}
	descs := make([]*Descriptor, 0, len(m))
	for _, d := range m {
		descs = append(descs, d)
	}
	sort.Slice(descs, func(i, j int) bool { return descs[i].Name < descs[j].Name })
	return descs, true
}

// Sets returns the registered set names in order.
func (r *Registry) Sets() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.sets))
	for name := range r.sets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
