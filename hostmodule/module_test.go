package hostmodule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	hosterr "github.com/wasmhost/hostmod/errors"
	"github.com/wasmhost/hostmod/types"
)

type counterEnv struct {
	count atomic.Int64
}

func buildCounter(t *testing.T) *Module {
	t.Helper()
	mod, err := NewBuilder("counter").
		WithEnv(&counterEnv{}).
		FuncTyped("inc", func(ctx context.Context, s *Scope) int64 {
			return s.Env().(*counterEnv).count.Add(1)
		}).
		FuncTyped("get", func(ctx context.Context, s *Scope) int64 {
			return s.Env().(*counterEnv).count.Load()
		}).
		Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	return mod
}

func TestModule_EnvCounter(t *testing.T) {
	mod := buildCounter(t)
	inc, _ := mod.Lookup("inc")
	get, _ := mod.Lookup("get")

	const n = 100
	for i := 0; i < n; i++ {
		if _, err := inc.Call(context.Background(), nil, nil); err != nil {
			t.Fatalf("inc error: %v", err)
		}
	}

	results, err := get.Call(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if results[0].AsI64() != n {
		t.Errorf("counter = %d after %d calls, want %d", results[0].AsI64(), n, n)
	}
}

func TestModule_EnvIsolation(t *testing.T) {
	a := buildCounter(t)
	b := buildCounter(t)

	incA, _ := a.Lookup("inc")
	for i := 0; i < 5; i++ {
		if _, err := incA.Call(context.Background(), nil, nil); err != nil {
			t.Fatalf("inc error: %v", err)
		}
	}

	getB, _ := b.Lookup("get")
	results, err := getB.Call(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if results[0].AsI64() != 0 {
		t.Errorf("instance B observed %d mutations of instance A's environment", results[0].AsI64())
	}
}

func TestModule_EnvAccessor(t *testing.T) {
	env := &counterEnv{}
	mod, err := NewBuilder("counter").WithEnv(env).Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if mod.Env() != env {
		t.Error("Env should return the environment supplied at construction")
	}
}

func TestModule_Close(t *testing.T) {
	mod := buildCounter(t)
	inc, _ := mod.Lookup("inc")

	if err := mod.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	// Gone, not empty: lookups fail, they don't return an empty set.
	if _, err := mod.Lookup("inc"); !errors.Is(err, &hosterr.Error{Phase: hosterr.PhaseLink, Kind: hosterr.KindModuleClosed}) {
		t.Fatalf("Lookup after Close should fail with module_closed, got %v", err)
	}
	if names := mod.ExportNames(); names != nil {
		t.Errorf("ExportNames after Close = %v, want nil", names)
	}

	// A binding resolved before Close traps afterwards.
	if _, err := inc.Call(context.Background(), nil, nil); !errors.Is(err, &hosterr.Error{Phase: hosterr.PhaseCall, Kind: hosterr.KindModuleClosed}) {
		t.Fatalf("Call after Close should trap with module_closed, got %v", err)
	}

	// Idempotent.
	if err := mod.Close(); err != nil {
		t.Errorf("second Close error: %v", err)
	}
}

func TestModule_TrapLeavesEnvConsistent(t *testing.T) {
	// Binding validates before mutating: a trapped call must not bump the counter.
	mod, err := NewBuilder("counter").
		WithEnv(&counterEnv{}).
		FuncTyped("guarded-inc", func(ctx context.Context, s *Scope, arg int32) (int64, error) {
			if arg < 0 {
				return 0, hosterr.InvalidArgument("counter", "guarded-inc", "negative increment")
			}
			return s.Env().(*counterEnv).count.Add(int64(arg)), nil
		}).
		Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	f, _ := mod.Lookup("guarded-inc")
	if _, err := f.Call(context.Background(), nil, []types.Value{types.I32(-1)}); !hosterr.IsTrap(err) {
		t.Fatalf("expected trap, got %v", err)
	}

	if got := mod.Env().(*counterEnv).count.Load(); got != 0 {
		t.Errorf("environment mutated on trap path: counter = %d", got)
	}
}

func TestModule_ExportsOrder(t *testing.T) {
	mod, err := NewBuilder("m").
		FuncTyped("zeta", func(ctx context.Context, s *Scope) {}).
		FuncTyped("alpha", func(ctx context.Context, s *Scope) {}).
		Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	funcs := mod.Exports()
	if len(funcs) != 2 || funcs[0].Name() != "alpha" || funcs[1].Name() != "zeta" {
		t.Errorf("Exports order: %v, %v", funcs[0].Name(), funcs[1].Name())
	}
	for _, f := range funcs {
		if f.Module() != mod {
			t.Error("binding should reference its owning module")
		}
	}
}
