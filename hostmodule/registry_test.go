package hostmodule

import (
	"context"
	"errors"
	"testing"

	hosterr "github.com/wasmhost/hostmod/errors"
)

func TestRegistry_RegisterAndLookup(t *testing.T) {
	reg := NewRegistry()
	mod := buildCounter(t)

	if err := reg.Register(mod); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	got, err := reg.Module("counter")
	if err != nil {
		t.Fatalf("Module error: %v", err)
	}
	if got != mod {
		t.Error("Module returned a different instance")
	}

	if _, err := reg.Module("missing"); !errors.Is(err, &hosterr.Error{Phase: hosterr.PhaseLink, Kind: hosterr.KindNotFound}) {
		t.Errorf("expected not_found, got %v", err)
	}
}

func TestRegistry_DuplicateName(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(buildCounter(t)); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	err := reg.Register(buildCounter(t))
	if !errors.Is(err, &hosterr.Error{Phase: hosterr.PhaseConstruct, Kind: hosterr.KindRegistration}) {
		t.Fatalf("expected registration error, got %v", err)
	}
}

func TestRegistry_RejectsClosedModule(t *testing.T) {
	reg := NewRegistry()
	mod := buildCounter(t)
	mod.Close()

	if err := reg.Register(mod); err == nil {
		t.Fatal("expected error registering a closed module")
	}
}

func TestRegistry_Close(t *testing.T) {
	reg := NewRegistry()
	mod := buildCounter(t)
	if err := reg.Register(mod); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	if err := reg.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	if !mod.Closed() {
		t.Error("registry Close should close registered modules")
	}
	if _, err := reg.Module("counter"); err == nil {
		t.Error("registry should be empty after Close")
	}
	if names := reg.ModuleNames(); len(names) != 0 {
		t.Errorf("ModuleNames after Close = %v", names)
	}

	inc, err := mod.Lookup("inc")
	if err == nil {
		if _, callErr := inc.Call(context.Background(), nil, nil); callErr == nil {
			t.Error("call through a closed registry module should fail")
		}
	}
}

func TestRegistry_ModuleNamesSorted(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		mod, err := NewBuilder(name).Build()
		if err != nil {
			t.Fatalf("Build error: %v", err)
		}
		if err := reg.Register(mod); err != nil {
			t.Fatalf("Register error: %v", err)
		}
	}

	names := reg.ModuleNames()
	want := []string{"alpha", "mid", "zeta"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("ModuleNames = %v, want %v", names, want)
		}
	}
}
