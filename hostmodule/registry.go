package hostmodule

import (
	"sort"
	"sync"

	"github.com/wasmhost/hostmod/errors"
)

// Registry maps module names to instances for the loader. Each registry is
// an ordinary value owned by its creator; there is no process-wide table, so
// independent embeddings never observe each other's modules.
type Registry struct {
	modules map[string]*Module
	mu      sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		modules: make(map[string]*Module),
	}
}

// Register adds a module instance as a link target. The module name must be
// unique within the registry and the instance must still be live.
func (r *Registry) Register(m *Module) error {
	if m == nil {
		return errors.InvalidInput(errors.PhaseConstruct, "module cannot be nil")
	}
	if m.Closed() {
		return errors.Registration(m.Name(), "cannot register a closed module")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.modules[m.Name()]; exists {
		return errors.Registration(m.Name(), "module name already registered")
	}
	r.modules[m.Name()] = m
	return nil
}

// Module resolves a link target by name.
func (r *Registry) Module(name string) (*Module, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.modules[name]
	if !ok {
		return nil, errors.NotFound(errors.PhaseLink, "module", name)
	}
	return m, nil
}

// ModuleNames returns the registered names, sorted.
func (r *Registry) ModuleNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close destroys every registered module instance and empties the registry.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, m := range r.modules {
		m.Close()
		delete(r.modules, name)
	}
	return nil
}
