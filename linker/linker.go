package linker

import (
	"context"
	"fmt"

	hostmod "github.com/wasmhost/hostmod"
	"github.com/wasmhost/hostmod/errors"
	"github.com/wasmhost/hostmod/hostmodule"
	"github.com/wasmhost/hostmod/types"
)

// Import is a guest's expectation of a host export: the (module, name) link
// key and the function type the guest declared for it.
type Import struct {
	Type   *types.FuncType
	Module string
	Name   string
}

func (i Import) String() string {
	return fmt.Sprintf("%s.%s: %s", i.Module, i.Name, i.Type)
}

// Link resolves every import against the registry and type-checks each pair
// exactly (arity and value-kind for value-kind). All failures are detected
// here, before execution ever starts: unknown modules and exports are
// aggregated into an UnresolvedImportsError, and the first type mismatch
// fails the link with a signature_mismatch error carrying both signatures.
func Link(reg *hostmodule.Registry, imports []Import) (*Linked, error) {
	funcs := make([]*hostmodule.Func, len(imports))
	var unresolved []errors.UnresolvedImport

	for i, imp := range imports {
		if imp.Type == nil {
			return nil, errors.InvalidInput(errors.PhaseLink, "import "+imp.Module+"."+imp.Name+" has no declared type")
		}

		mod, err := reg.Module(imp.Module)
		if err != nil {
			unresolved = append(unresolved, errors.UnresolvedImport{Module: imp.Module, Name: imp.Name})
			continue
		}

		f, err := mod.Lookup(imp.Name)
		if err != nil {
			// A closed module is gone: its exports resolve like any
			// other missing name.
			unresolved = append(unresolved, errors.UnresolvedImport{Module: imp.Module, Name: imp.Name})
			continue
		}

		if !f.Type().Equal(imp.Type) {
			return nil, errors.SignatureMismatch(imp.Module, imp.Name, imp.Type.String(), f.Type().String())
		}
		funcs[i] = f
	}

	if len(unresolved) > 0 {
		return nil, errors.NewUnresolvedImportsError(unresolved)
	}

	return &Linked{funcs: funcs, imports: append([]Import(nil), imports...)}, nil
}

// Linked is the result of a successful link: an index-based table of resolved
// bindings. Resolution by name happened exactly once, at link time; execution
// uses direct call indirection through the table.
//
// A Linked table does not keep its modules alive. Calling a binding whose
// instance has since been closed traps.
type Linked struct {
	funcs   []*hostmodule.Func
	imports []Import
}

// Len returns the number of resolved imports.
func (l *Linked) Len() int { return len(l.funcs) }

// Func returns the binding resolved for import index i.
func (l *Linked) Func(i int) (*hostmodule.Func, error) {
	if i < 0 || i >= len(l.funcs) {
		return nil, errors.New(errors.PhaseCall, errors.KindOutOfBounds).
			Detail("import index %d out of range (%d imports)", i, len(l.funcs)).
			Build()
	}
	return l.funcs[i], nil
}

// Import returns the guest-side declaration for index i.
func (l *Linked) Import(i int) (Import, error) {
	if i < 0 || i >= len(l.imports) {
		return Import{}, errors.New(errors.PhaseCall, errors.KindOutOfBounds).
			Detail("import index %d out of range (%d imports)", i, len(l.imports)).
			Build()
	}
	return l.imports[i], nil
}

// Call dispatches import index i with the given arguments. mem is the guest
// memory capability for this call and may be nil.
func (l *Linked) Call(ctx context.Context, i int, mem hostmod.Memory, params []types.Value) ([]types.Value, error) {
	f, err := l.Func(i)
	if err != nil {
		return nil, err
	}
	return f.Call(ctx, mem, params)
}
