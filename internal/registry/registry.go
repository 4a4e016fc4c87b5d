package registry

import (
	"sort"
	"sync"

	"github.com/vk/optgridgo/internal/config"
	"github.com/vk/optgridgo/internal/ops"
)

// Capability names an execution backend an operation declares support for.
type Capability string

const (
	CapScalar   Capability = "scalar"
	CapSIMD     Capability = "simd"
	CapParallel Capability = "parallel"
	CapGPU      Capability = "gpu"
)

// Category groups operations by computational shape, for analysis tooling.
type Category string

const (
	CategoryElementWise    Category = "element_wise"
	CategoryAggregation    Category = "aggregation"
	CategoryFiltering      Category = "filtering"
	CategoryTransformation Category = "transformation"
	CategorySearch         Category = "search"
)

// Descriptor is the immutable metadata registered alongside an operation
// implementation.
type Descriptor struct {
	Name         string
	Category     Category
	Complexity   float64 // [0,1], predicts optimization headroom
	Capabilities []Capability
}

// Has reports whether the descriptor declares the given capability.
func (d Descriptor) Has(c Capability) bool {
	for _, have := range d.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

type entry struct {
	desc Descriptor
	impl ops.Operation
}

// Registry is the static catalog of pluggable operations. It is populated
// during startup, frozen before traversal begins, and read-only from then
// on; there is no ambient global catalog.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
	frozen  bool
}

// New creates an empty, unfrozen registry.
func New() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds an operation with its descriptor.
func (r *Registry) Register(desc Descriptor, impl ops.Operation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return &FrozenError{Name: desc.Name}
	}
	if _, exists := r.entries[desc.Name]; exists {
		return &DuplicateNameError{Name: desc.Name}
	}
	r.entries[desc.Name] = entry{desc: desc, impl: impl}
	return nil
}

// Freeze locks the registry against further mutation. It must be called
// before traversal starts.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Get returns the implementation registered under name.
func (r *Registry) Get(name string) (ops.Operation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	return e.impl, nil
}

// Describe returns the descriptor registered under name.
func (r *Registry) Describe(name string) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return Descriptor{}, &NotFoundError{Name: name}
	}
	return e.desc, nil
}

// Names returns all registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ByCategory returns the sorted names of operations in the given category.
func (r *Registry) ByCategory(cat Category) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	for name, e := range r.entries {
		if e.desc.Category == cat {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// SupportsHardware reports whether the named operation declares every
// capability the hardware configuration demands.
func (r *Registry) SupportsHardware(name string, hw config.Hardware) (bool, error) {
	desc, err := r.Describe(name)
	if err != nil {
		return false, err
	}
	if hw.GPU && !desc.Has(CapGPU) {
		return false, nil
	}
	if hw.SIMD && !desc.Has(CapSIMD) {
		return false, nil
	}
	if hw.Threads > 1 && !desc.Has(CapParallel) {
		return false, nil
	}
	return true, nil
}
