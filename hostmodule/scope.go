package hostmodule

import (
	"sync/atomic"

	hostmod "github.com/wasmhost/hostmod"
	"github.com/wasmhost/hostmod/errors"
)

// Scope is the capability set a binding receives for the duration of one
// call: the owning module's environment and, when the runtime granted it,
// an accessor for guest linear memory.
//
// A Scope is valid only until the call returns. Guest memory may be resized
// or the instance torn down between calls, so retaining a Scope (or the
// Memory it hands out) across calls is an error and every accessor fails
// once the scope expires.
type Scope struct {
	env    any
	mem    hostmod.Memory
	module string
	fn     string
	done   atomic.Bool
}

// Env returns the owning module's environment, or nil after the call has
// returned.
func (s *Scope) Env() any {
	if s.done.Load() {
		return nil
	}
	return s.env
}

// Memory returns the guest memory accessor supplied for this call. It fails
// when the scope has expired or when the runtime granted no memory (a guest
// without linear memory).
func (s *Scope) Memory() (hostmod.Memory, error) {
	if s.done.Load() {
		return nil, errors.Expired(s.module, s.fn)
	}
	if s.mem == nil {
		return nil, errors.InvalidInput(errors.PhaseCall, "no guest memory granted for this call")
	}
	return s.mem, nil
}

func (s *Scope) invalidate() {
	s.done.Store(true)
	s.mem = nil
}
