package hostmodule

import (
	"sort"
	"sync/atomic"

	"github.com/wasmhost/hostmod/errors"
)

// Module is a host module instance: the unit the runtime's loader links
// against. It owns exactly one environment and an immutable mapping from
// exported function name to binding, both established at construction.
type Module struct {
	env     any
	exports map[string]*Func
	name    string
	names   []string
	closed  atomic.Bool
}

// Name returns the unique module name used as the link key by the loader.
func (m *Module) Name() string { return m.name }

// Env returns the module's environment. It exists for the code constructing
// the bindings (and for tests); external callers reach the environment only
// through the functions registered against this instance.
func (m *Module) Env() any { return m.env }

// Lookup resolves an exported function by name. The loader calls this during
// import resolution; an unknown name or a closed instance fails, and the
// loader surfaces the failure as an unresolved import.
func (m *Module) Lookup(name string) (*Func, error) {
	if m.closed.Load() {
		return nil, errors.ModuleClosed(errors.PhaseLink, m.name)
	}
	f, ok := m.exports[name]
	if !ok {
		return nil, errors.NotFound(errors.PhaseLink, "export", name)
	}
	return f, nil
}

// ExportNames returns the sorted exported function names.
func (m *Module) ExportNames() []string {
	if m.closed.Load() {
		return nil
	}
	return append([]string(nil), m.names...)
}

// Exports returns the bindings in name order.
func (m *Module) Exports() []*Func {
	if m.closed.Load() {
		return nil
	}
	funcs := make([]*Func, len(m.names))
	for i, name := range m.names {
		funcs[i] = m.exports[name]
	}
	return funcs
}

// Closed reports whether the instance has been destroyed.
func (m *Module) Closed() bool { return m.closed.Load() }

// Close destroys the module instance and its environment together. After
// Close every lookup and call fails: the instance is gone, not empty.
// Close is idempotent.
func (m *Module) Close() error {
	m.closed.Store(true)
	return nil
}

func newModule(name string, env any, funcs []*Func) *Module {
	m := &Module{
		name:    name,
		env:     env,
		exports: make(map[string]*Func, len(funcs)),
	}
	for _, f := range funcs {
		f.module = m
		m.exports[f.name] = f
		m.names = append(m.names, f.name)
	}
	sort.Strings(m.names)
	return m
}
