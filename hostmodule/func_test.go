package hostmodule

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"testing"

	hosterr "github.com/wasmhost/hostmod/errors"
	"github.com/wasmhost/hostmod/types"
)

// sliceMemory is a byteslice-backed Memory for tests.
type sliceMemory struct {
	buf []byte
}

func (m *sliceMemory) Read(offset, length uint32) ([]byte, error) {
	if uint64(offset)+uint64(length) > uint64(len(m.buf)) {
		return nil, hosterr.OutOfBounds(offset, length, uint32(len(m.buf)))
	}
	out := make([]byte, length)
	copy(out, m.buf[offset:offset+length])
	return out, nil
}

func (m *sliceMemory) Write(offset uint32, data []byte) error {
	if uint64(offset)+uint64(len(data)) > uint64(len(m.buf)) {
		return hosterr.OutOfBounds(offset, uint32(len(data)), uint32(len(m.buf)))
	}
	copy(m.buf[offset:], data)
	return nil
}

func (m *sliceMemory) ReadU32(offset uint32) (uint32, error) {
	b, err := m.Read(offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (m *sliceMemory) ReadU64(offset uint32) (uint64, error) {
	b, err := m.Read(offset, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (m *sliceMemory) WriteU32(offset uint32, value uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], value)
	return m.Write(offset, b[:])
}

func (m *sliceMemory) WriteU64(offset uint32, value uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], value)
	return m.Write(offset, b[:])
}

func (m *sliceMemory) Size() uint32 { return uint32(len(m.buf)) }

func buildAdd(t *testing.T) *Module {
	t.Helper()
	mod, err := NewBuilder("example").Func("add", addType, addRaw).Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	return mod
}

func TestFunc_Call_Add(t *testing.T) {
	mod := buildAdd(t)
	f, err := mod.Lookup("add")
	if err != nil {
		t.Fatalf("Lookup error: %v", err)
	}

	results, err := f.Call(context.Background(), nil, []types.Value{types.I32(2), types.I32(3)})
	if err != nil {
		t.Fatalf("Call error: %v", err)
	}
	if len(results) != 1 || results[0].AsI32() != 5 {
		t.Errorf("add(2, 3) = %v, want 5", results)
	}
}

func TestFunc_Call_ArityMismatchTraps(t *testing.T) {
	mod := buildAdd(t)
	f, _ := mod.Lookup("add")

	_, err := f.Call(context.Background(), nil, []types.Value{types.I32(2)})
	if !errors.Is(err, &hosterr.Error{Phase: hosterr.PhaseCall, Kind: hosterr.KindInvalidArgument}) {
		t.Fatalf("expected invalid_argument trap, got %v", err)
	}
}

func TestFunc_Call_KindMismatchTraps(t *testing.T) {
	mod := buildAdd(t)
	f, _ := mod.Lookup("add")

	_, err := f.Call(context.Background(), nil, []types.Value{types.I32(2), types.F64(3)})
	if !errors.Is(err, &hosterr.Error{Phase: hosterr.PhaseCall, Kind: hosterr.KindInvalidArgument}) {
		t.Fatalf("expected invalid_argument trap, got %v", err)
	}
}

func TestFunc_Call_HandlerErrorBecomesTrap(t *testing.T) {
	boom := fmt.Errorf("native failure")
	mod, err := NewBuilder("example").
		FuncTyped("fail", func(ctx context.Context, s *Scope) error {
			return boom
		}).
		Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	f, _ := mod.Lookup("fail")
	_, err = f.Call(context.Background(), nil, nil)
	if !hosterr.IsTrap(err) {
		t.Fatalf("expected trap, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("trap should wrap the handler error, got %v", err)
	}
}

func TestFunc_Call_ResultShapeMismatchTraps(t *testing.T) {
	// Raw handler whose result tuple violates the declared signature.
	mod, err := NewBuilder("example").
		Func("bad", addType, func(ctx context.Context, s *Scope, params []types.Value) ([]types.Value, error) {
			return []types.Value{types.I64(1), types.I64(2)}, nil
		}).
		Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	f, _ := mod.Lookup("bad")
	_, err = f.Call(context.Background(), nil, []types.Value{types.I32(1), types.I32(2)})
	if !errors.Is(err, &hosterr.Error{Phase: hosterr.PhaseCall, Kind: hosterr.KindTrap}) {
		t.Fatalf("expected trap, got %v", err)
	}
}

func TestFunc_Call_MemoryAccess(t *testing.T) {
	var got []byte
	logType := types.NewFuncType([]types.ValueKind{types.KindI32, types.KindI32}, nil)
	mod, err := NewBuilder("example").
		Func("log", logType, func(ctx context.Context, s *Scope, params []types.Value) ([]types.Value, error) {
			mem, err := s.Memory()
			if err != nil {
				return nil, err
			}
			got, err = mem.Read(uint32(params[0].Raw()), uint32(params[1].Raw()))
			return nil, err
		}).
		Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	mem := &sliceMemory{buf: []byte("hello, guest")}
	f, _ := mod.Lookup("log")
	if _, err := f.Call(context.Background(), mem, []types.Value{types.I32(7), types.I32(5)}); err != nil {
		t.Fatalf("Call error: %v", err)
	}
	if string(got) != "guest" {
		t.Errorf("read %q, want %q", got, "guest")
	}
}

func TestFunc_Call_NoMemoryGranted(t *testing.T) {
	logType := types.NewFuncType(nil, nil)
	mod, err := NewBuilder("example").
		Func("touch", logType, func(ctx context.Context, s *Scope, params []types.Value) ([]types.Value, error) {
			_, err := s.Memory()
			return nil, err
		}).
		Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	f, _ := mod.Lookup("touch")
	_, err = f.Call(context.Background(), nil, nil)
	if !hosterr.IsTrap(err) {
		t.Fatalf("expected trap when no memory granted, got %v", err)
	}
}

func TestScope_InvalidAfterCall(t *testing.T) {
	var leaked *Scope
	mod, err := NewBuilder("example").
		FuncTyped("leak", func(ctx context.Context, s *Scope) {
			leaked = s
		}).
		Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	f, _ := mod.Lookup("leak")
	mem := &sliceMemory{buf: make([]byte, 16)}
	if _, err := f.Call(context.Background(), mem, nil); err != nil {
		t.Fatalf("Call error: %v", err)
	}

	if leaked.Env() != nil {
		t.Error("Env should be unreachable after the call returns")
	}
	if _, err := leaked.Memory(); !errors.Is(err, &hosterr.Error{Phase: hosterr.PhaseCall, Kind: hosterr.KindExpired}) {
		t.Errorf("Memory after the call should fail with expired, got %v", err)
	}
}

func TestFunc_Call_ContextVisible(t *testing.T) {
	type key struct{}
	var got any
	mod, err := NewBuilder("example").
		FuncTyped("probe", func(ctx context.Context, s *Scope) {
			got = ctx.Value(key{})
		}).
		Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	ctx := context.WithValue(context.Background(), key{}, "marker")
	f, _ := mod.Lookup("probe")
	if _, err := f.Call(ctx, nil, nil); err != nil {
		t.Fatalf("Call error: %v", err)
	}
	if got != "marker" {
		t.Errorf("handler did not observe the caller's context")
	}
}

func TestFuncTyped_UnsignedRoundtrip(t *testing.T) {
	mod, err := NewBuilder("example").
		FuncTyped("himask", func(ctx context.Context, s *Scope, v uint32) uint32 {
			return v | 0x80000000
		}).
		Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	f, _ := mod.Lookup("himask")
	results, err := f.Call(context.Background(), nil, []types.Value{types.FromRaw(types.KindI32, 1)})
	if err != nil {
		t.Fatalf("Call error: %v", err)
	}
	if results[0].Raw() != 0x80000001 {
		t.Errorf("himask(1) raw = %#x, want 0x80000001", results[0].Raw())
	}
}
