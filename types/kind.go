package types

import "fmt"

// ValueKind is a core WebAssembly value kind as used in function-type
// descriptors. The numeric values are internal; mapping to a concrete
// runtime's encoding is the engine adapter's job.
type ValueKind byte

const (
	KindI32 ValueKind = iota
	KindI64
	KindF32
	KindF64
	KindV128
	KindFuncRef
	KindExternRef
)

func (k ValueKind) String() string {
	switch k {
	case KindI32:
		return "i32"
	case KindI64:
		return "i64"
	case KindF32:
		return "f32"
	case KindF64:
		return "f64"
	case KindV128:
		return "v128"
	case KindFuncRef:
		return "funcref"
	case KindExternRef:
		return "externref"
	default:
		return fmt.Sprintf("valuekind(%d)", byte(k))
	}
}

// Numeric reports whether the kind is representable as a single 64-bit
// scalar on the operand stack.
func (k ValueKind) Numeric() bool {
	switch k {
	case KindI32, KindI64, KindF32, KindF64:
		return true
	}
	return false
}
