package types

import (
	"fmt"
	"math"
)

// Value is a tagged scalar in the wasm operand-stack representation: a value
// kind plus the raw 64-bit bit pattern. Floats are stored via their IEEE 754
// bit representation, i32 values zero-extended.
type Value struct {
	kind ValueKind
	bits uint64
}

func I32(v int32) Value {
	return Value{kind: KindI32, bits: uint64(uint32(v))}
}

func I64(v int64) Value {
	return Value{kind: KindI64, bits: uint64(v)}
}

func F32(v float32) Value {
	return Value{kind: KindF32, bits: uint64(math.Float32bits(v))}
}

func F64(v float64) Value {
	return Value{kind: KindF64, bits: math.Float64bits(v)}
}

// FromRaw builds a Value from a raw stack slot, as handed over by the VM.
func FromRaw(kind ValueKind, bits uint64) Value {
	return Value{kind: kind, bits: bits}
}

func (v Value) Kind() ValueKind { return v.kind }

// Raw returns the 64-bit stack representation.
func (v Value) Raw() uint64 { return v.bits }

func (v Value) AsI32() int32 { return int32(uint32(v.bits)) }

func (v Value) AsI64() int64 { return int64(v.bits) }

func (v Value) AsF32() float32 { return math.Float32frombits(uint32(v.bits)) }

func (v Value) AsF64() float64 { return math.Float64frombits(v.bits) }

func (v Value) String() string {
	switch v.kind {
	case KindI32:
		return fmt.Sprintf("i32:%d", v.AsI32())
	case KindI64:
		return fmt.Sprintf("i64:%d", v.AsI64())
	case KindF32:
		return fmt.Sprintf("f32:%g", v.AsF32())
	case KindF64:
		return fmt.Sprintf("f64:%g", v.AsF64())
	default:
		return fmt.Sprintf("%s:%#x", v.kind, v.bits)
	}
}
