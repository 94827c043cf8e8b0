package engine

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/wasmhost/hostmod/errors"
	"github.com/wasmhost/hostmod/types"
)

// valueType maps a declared value kind onto wazero's core wasm value type.
// Reference kinds have no core representation here and are rejected.
func valueType(k types.ValueKind) (api.ValueType, error) {
	switch k {
	case types.KindI32:
		return api.ValueTypeI32, nil
	case types.KindI64:
		return api.ValueTypeI64, nil
	case types.KindF32:
		return api.ValueTypeF32, nil
	case types.KindF64:
		return api.ValueTypeF64, nil
	}
	return 0, errors.Unsupported(errors.PhaseConstruct, "value kind "+k.String())
}

// kindOf is the reverse mapping, used when describing guest exports.
func kindOf(vt api.ValueType) types.ValueKind {
	switch vt {
	case api.ValueTypeI32:
		return types.KindI32
	case api.ValueTypeI64:
		return types.KindI64
	case api.ValueTypeF32:
		return types.KindF32
	case api.ValueTypeF64:
		return types.KindF64
	}
	return types.KindExternRef
}

func kinds(vts []api.ValueType) []types.ValueKind {
	if len(vts) == 0 {
		return nil
	}
	out := make([]types.ValueKind, len(vts))
	for i, vt := range vts {
		out[i] = kindOf(vt)
	}
	return out
}

func valueTypes(kinds []types.ValueKind) ([]api.ValueType, error) {
	if len(kinds) == 0 {
		return nil, nil
	}
	out := make([]api.ValueType, len(kinds))
	for i, k := range kinds {
		vt, err := valueType(k)
		if err != nil {
			return nil, err
		}
		out[i] = vt
	}
	return out, nil
}
