package types

import "strings"

// FuncType describes the signature of a function binding: the ordered
// parameter kinds and the ordered result kinds. The virtual machine trusts
// this descriptor when marshaling guest-stack values into a call, so it must
// match the native callable exactly.
//
// Treat the slices as immutable after construction.
type FuncType struct {
	Params  []ValueKind
	Results []ValueKind
}

// NewFuncType returns a FuncType over copies of the given kind sequences.
func NewFuncType(params, results []ValueKind) *FuncType {
	t := &FuncType{}
	if len(params) > 0 {
		t.Params = append([]ValueKind(nil), params...)
	}
	if len(results) > 0 {
		t.Results = append([]ValueKind(nil), results...)
	}
	return t
}

// Equal reports exact signature equality: arity and kind-for-kind on both
// the parameter and result sequences.
func (t *FuncType) Equal(other *FuncType) bool {
	if t == nil || other == nil {
		return t == other
	}
	return kindsEqual(t.Params, other.Params) && kindsEqual(t.Results, other.Results)
}

func kindsEqual(a, b []ValueKind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// String renders the signature as "(i32, i32) -> i32". A function with no
// results renders as "(i32) -> ()".
func (t *FuncType) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, k := range t.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k.String())
	}
	b.WriteString(") -> ")
	switch len(t.Results) {
	case 0:
		b.WriteString("()")
	case 1:
		b.WriteString(t.Results[0].String())
	default:
		b.WriteByte('(')
		for i, k := range t.Results {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(k.String())
		}
		b.WriteByte(')')
	}
	return b.String()
}
