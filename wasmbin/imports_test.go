package wasmbin

import (
	"context"
	"testing"

	"github.com/wasmhost/hostmod/hostmodule"
	"github.com/wasmhost/hostmod/linker"
	"github.com/wasmhost/hostmod/types"
)

// Guest importing example.add (i32, i32) -> i32 and exporting run.
var addGuest = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x07, 0x01, 0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f,
	0x02, 0x0f, 0x01,
	0x07, 'e', 'x', 'a', 'm', 'p', 'l', 'e',
	0x03, 'a', 'd', 'd', 0x00, 0x00,
	0x03, 0x02, 0x01, 0x00,
	0x07, 0x07, 0x01, 0x03, 'r', 'u', 'n', 0x00, 0x01,
	0x0a, 0x0a, 0x01, 0x08, 0x00,
	0x20, 0x00, 0x20, 0x01, 0x10, 0x00, 0x0b,
}

// Guest importing a memory and a global ahead of the one function import, to
// exercise skipping of non-function entries.
var mixedImports = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x05, 0x01, 0x60, 0x01, 0x7f, 0x00, // type: (i32) -> ()
	0x02, 0x21, 0x03,
	0x03, 'e', 'n', 'v', 0x03, 'm', 'e', 'm', 0x02, 0x00, 0x01, // memory
	0x03, 'e', 'n', 'v', 0x01, 'g', 0x03, 0x7f, 0x00, // global i32
	0x07, 'e', 'x', 'a', 'm', 'p', 'l', 'e', 0x01, 'f', 0x00, 0x00, // func
}

func TestImports_SingleFunction(t *testing.T) {
	imports, err := Imports(addGuest)
	if err != nil {
		t.Fatalf("Imports error: %v", err)
	}
	if len(imports) != 1 {
		t.Fatalf("got %d imports, want 1", len(imports))
	}

	imp := imports[0]
	if imp.Module != "example" || imp.Name != "add" {
		t.Errorf("import key = %s.%s", imp.Module, imp.Name)
	}
	want := types.NewFuncType(
		[]types.ValueKind{types.KindI32, types.KindI32},
		[]types.ValueKind{types.KindI32},
	)
	if !imp.Type.Equal(want) {
		t.Errorf("import type = %s, want %s", imp.Type, want)
	}
}

func TestImports_SkipsNonFunctionEntries(t *testing.T) {
	imports, err := Imports(mixedImports)
	if err != nil {
		t.Fatalf("Imports error: %v", err)
	}
	if len(imports) != 1 {
		t.Fatalf("got %d imports, want 1: %v", len(imports), imports)
	}
	if imports[0].Module != "example" || imports[0].Name != "f" {
		t.Errorf("import key = %s.%s", imports[0].Module, imports[0].Name)
	}
}

func TestImports_NoImportSection(t *testing.T) {
	// Header plus an empty type section only.
	data := []byte{
		0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
		0x01, 0x01, 0x00,
	}
	imports, err := Imports(data)
	if err != nil {
		t.Fatalf("Imports error: %v", err)
	}
	if len(imports) != 0 {
		t.Errorf("got %d imports, want 0", len(imports))
	}
}

func TestImports_RejectsGarbage(t *testing.T) {
	cases := map[string][]byte{
		"empty":       nil,
		"short":       {0x00, 0x61},
		"wrong magic": {0x00, 0x61, 0x73, 0x6d, 0x02, 0x00, 0x00, 0x00},
		"truncated section": {
			0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
			0x01, 0x07, 0x01,
		},
	}
	for name, data := range cases {
		if _, err := Imports(data); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestImports_FeedsLinker(t *testing.T) {
	mod, err := hostmodule.NewBuilder("example").
		FuncTyped("add", func(ctx context.Context, s *hostmodule.Scope, a, b int32) int32 {
			return a + b
		}).
		Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	reg := hostmodule.NewRegistry()
	if err := reg.Register(mod); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	imports, err := Imports(addGuest)
	if err != nil {
		t.Fatalf("Imports error: %v", err)
	}

	linked, err := linker.Link(reg, imports)
	if err != nil {
		t.Fatalf("Link error: %v", err)
	}
	results, err := linked.Call(context.Background(), 0, nil, []types.Value{types.I32(20), types.I32(22)})
	if err != nil {
		t.Fatalf("Call error: %v", err)
	}
	if results[0].AsI32() != 42 {
		t.Errorf("add(20, 22) = %d, want 42", results[0].AsI32())
	}
}
