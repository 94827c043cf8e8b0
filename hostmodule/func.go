package hostmodule

import (
	"context"
	"fmt"

	hostmod "github.com/wasmhost/hostmod"
	"github.com/wasmhost/hostmod/errors"
	"github.com/wasmhost/hostmod/types"
)

// GoFunc is the raw form of a native callable: it receives already-marshaled
// arguments and the per-call Scope, and returns a result tuple matching the
// declared signature. Marshaling raw stack representations into typed values
// is the virtual machine's job, not the binding's.
type GoFunc func(ctx context.Context, s *Scope, params []types.Value) ([]types.Value, error)

// Func associates an exported name, a declared function-type signature and a
// native callable. The VM trusts the declared signature when marshaling
// guest-stack values into the call, so the signature and the callable's
// actual shape are checked against each other when the module is built.
type Func struct {
	module *Module
	typ    *types.FuncType
	fn     GoFunc
	name   string
}

func (f *Func) Name() string { return f.name }

// Type returns the declared signature.
func (f *Func) Type() *types.FuncType { return f.typ }

// Module returns the instance this binding belongs to. A binding never
// outlives its module.
func (f *Func) Module() *Module { return f.module }

// Call dispatches to the native function. mem is the guest-memory capability
// for this call and may be nil when the guest has no linear memory.
//
// Arguments are validated against the declared signature before the handler
// runs, and the result tuple after it returns; either mismatch traps without
// touching the environment. A handler error is surfaced as an execution trap.
// The Scope handed to the handler is invalidated before Call returns.
func (f *Func) Call(ctx context.Context, mem hostmod.Memory, params []types.Value) (results []types.Value, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if f.module.closed.Load() {
		return nil, errors.ModuleClosed(errors.PhaseCall, f.module.name)
	}
	if err := f.checkParams(params); err != nil {
		return nil, err
	}

	s := &Scope{
		env:    f.module.env,
		mem:    mem,
		module: f.module.name,
		fn:     f.name,
	}
	defer s.invalidate()

	results, err = f.fn(ctx, s, params)
	if err != nil {
		if e, ok := err.(*errors.Error); ok && e.Phase == errors.PhaseCall {
			return nil, e
		}
		return nil, errors.Trap(f.module.name, f.name, err)
	}

	if err := f.checkResults(results); err != nil {
		return nil, err
	}
	return results, nil
}

func (f *Func) checkParams(params []types.Value) error {
	if len(params) != len(f.typ.Params) {
		return errors.InvalidArgument(f.module.name, f.name,
			fmt.Sprintf("expected %d arguments, got %d", len(f.typ.Params), len(params)))
	}
	for i, p := range params {
		if p.Kind() != f.typ.Params[i] {
			return errors.InvalidArgument(f.module.name, f.name,
				fmt.Sprintf("argument %d: expected %s, got %s", i, f.typ.Params[i], p.Kind()))
		}
	}
	return nil
}

func (f *Func) checkResults(results []types.Value) error {
	if len(results) != len(f.typ.Results) {
		return errors.New(errors.PhaseCall, errors.KindTrap).
			Export(f.module.name, f.name).
			Detail("handler returned %d results, declared signature is %s", len(results), f.typ).
			Build()
	}
	for i, r := range results {
		if r.Kind() != f.typ.Results[i] {
			return errors.New(errors.PhaseCall, errors.KindTrap).
				Export(f.module.name, f.name).
				Detail("result %d: handler returned %s, declared %s", i, r.Kind(), f.typ.Results[i]).
				Build()
		}
	}
	return nil
}
