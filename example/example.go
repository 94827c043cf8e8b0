package example

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/wasmhost/hostmod/errors"
	"github.com/wasmhost/hostmod/hostmodule"
	"github.com/wasmhost/hostmod/types"
)

// ModuleName is the link name guests import the bindings under.
const ModuleName = "example"

// Environment is the native state owned by one example module instance. The
// counter is atomic so concurrent guests sharing an instance stay coherent;
// the logged message is guarded separately.
type Environment struct {
	calls atomic.Int64

	mu   sync.Mutex
	last string
}

// Calls returns how many binding invocations touched the environment.
func (e *Environment) Calls() int64 {
	return e.calls.Load()
}

// LastMessage returns the most recent string a guest passed to log.
func (e *Environment) LastMessage() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

func (e *Environment) setMessage(msg string) {
	e.mu.Lock()
	e.last = msg
	e.mu.Unlock()
}

var logType = types.NewFuncType([]types.ValueKind{types.KindI32, types.KindI32}, nil)

// New builds an example module instance with a fresh environment.
//
// Exports:
//
//	add(a: i32, b: i32) -> i32      wrapping addition
//	div(a: i32, b: i32) -> i32      traps on division by zero
//	inc() -> i64                    bumps and returns the call counter
//	get_count() -> i64              reads the call counter
//	log(ptr: i32, len: i32)         records a string from guest memory
//	fail(code: i32)                 always traps
func New() (*hostmodule.Module, error) {
	env := &Environment{}

	return hostmodule.NewBuilder(ModuleName).
		WithEnv(env).
		FuncTyped("add", func(ctx context.Context, s *hostmodule.Scope, a, b int32) int32 {
			s.Env().(*Environment).calls.Add(1)
			return a + b
		}).
		FuncTyped("div", func(ctx context.Context, s *hostmodule.Scope, a, b int32) (int32, error) {
			if b == 0 {
				return 0, errors.InvalidArgument(ModuleName, "div", "division by zero")
			}
			s.Env().(*Environment).calls.Add(1)
			return a / b, nil
		}).
		FuncTyped("inc", func(ctx context.Context, s *hostmodule.Scope) int64 {
			return s.Env().(*Environment).calls.Add(1)
		}).
		FuncTyped("get_count", func(ctx context.Context, s *hostmodule.Scope) int64 {
			return s.Env().(*Environment).calls.Load()
		}).
		Func("log", logType, logFunc).
		FuncTyped("fail", func(ctx context.Context, s *hostmodule.Scope, code int32) error {
			return errors.New(errors.PhaseCall, errors.KindTrap).
				Export(ModuleName, "fail").
				Detail("guest requested failure with code %d", code).
				Build()
		}).
		Build()
}

// logFunc copies a string out of guest memory into the environment. The read
// is validated before the environment is touched, so a trapped call leaves no
// partial state behind.
func logFunc(ctx context.Context, s *hostmodule.Scope, params []types.Value) ([]types.Value, error) {
	mem, err := s.Memory()
	if err != nil {
		return nil, err
	}

	data, err := mem.Read(uint32(params[0].AsI32()), uint32(params[1].AsI32()))
	if err != nil {
		return nil, err
	}

	env := s.Env().(*Environment)
	env.calls.Add(1)
	env.setMessage(string(data))
	return nil, nil
}

// Env returns the module's environment with its concrete type.
func Env(mod *hostmodule.Module) *Environment {
	env, _ := mod.Env().(*Environment)
	return env
}
