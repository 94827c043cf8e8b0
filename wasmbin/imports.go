// Package wasmbin reads just enough of the core wasm binary format to recover
// a guest's function imports. The result feeds link-time resolution without
// instantiating the guest.
package wasmbin

import (
	"bytes"
	"io"

	"github.com/wasmhost/hostmod/errors"
	"github.com/wasmhost/hostmod/linker"
	"github.com/wasmhost/hostmod/types"
)

var magic = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

const (
	sectionType   = 1
	sectionImport = 2

	importFunc   = 0x00
	importTable  = 0x01
	importMemory = 0x02
	importGlobal = 0x03
)

// Imports returns the function imports a core wasm binary declares, in
// declaration order, with their declared signatures. Table, memory and global
// imports are skipped. Only the type and import sections are decoded; the
// rest of the binary is not validated.
func Imports(data []byte) ([]linker.Import, error) {
	if len(data) < len(magic) || !bytes.Equal(data[:len(magic)], magic) {
		return nil, parseErr("not a core wasm binary")
	}
	r := bytes.NewReader(data[len(magic):])

	var funcTypes []*types.FuncType
	var imports []linker.Import

	for {
		id, err := r.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, parseErr("truncated section header")
		}
		size, err := readU32(r)
		if err != nil {
			return nil, parseErr("bad section size")
		}

		switch id {
		case sectionType:
			funcTypes, err = readTypeSection(r)
			if err != nil {
				return nil, err
			}
		case sectionImport:
			imports, err = readImportSection(r, funcTypes)
			if err != nil {
				return nil, err
			}
			// Sections are ordered; nothing after the import section
			// matters here.
			return imports, nil
		default:
			if _, err := r.Seek(int64(size), io.SeekCurrent); err != nil {
				return nil, parseErr("truncated section body")
			}
		}
	}

	return nil, nil
}

func readTypeSection(r *bytes.Reader) ([]*types.FuncType, error) {
	count, err := readU32(r)
	if err != nil {
		return nil, parseErr("bad type count")
	}

	out := make([]*types.FuncType, 0, count)
	for i := uint32(0); i < count; i++ {
		form, err := r.ReadByte()
		if err != nil || form != 0x60 {
			return nil, parseErr("expected function type")
		}
		params, err := readKinds(r)
		if err != nil {
			return nil, err
		}
		results, err := readKinds(r)
		if err != nil {
			return nil, err
		}
		out = append(out, types.NewFuncType(params, results))
	}
	return out, nil
}

func readKinds(r *bytes.Reader) ([]types.ValueKind, error) {
	count, err := readU32(r)
	if err != nil {
		return nil, parseErr("bad value type count")
	}
	if count == 0 {
		return nil, nil
	}
	out := make([]types.ValueKind, count)
	for i := range out {
		b, err := r.ReadByte()
		if err != nil {
			return nil, parseErr("truncated value types")
		}
		k, err := valueKind(b)
		if err != nil {
			return nil, err
		}
		out[i] = k
	}
	return out, nil
}

func readImportSection(r *bytes.Reader, funcTypes []*types.FuncType) ([]linker.Import, error) {
	count, err := readU32(r)
	if err != nil {
		return nil, parseErr("bad import count")
	}

	var imports []linker.Import
	for i := uint32(0); i < count; i++ {
		module, err := readName(r)
		if err != nil {
			return nil, err
		}
		name, err := readName(r)
		if err != nil {
			return nil, err
		}

		kind, err := r.ReadByte()
		if err != nil {
			return nil, parseErr("truncated import entry")
		}
		switch kind {
		case importFunc:
			idx, err := readU32(r)
			if err != nil {
				return nil, parseErr("bad import type index")
			}
			if int(idx) >= len(funcTypes) {
				return nil, parseErr("import type index out of range")
			}
			imports = append(imports, linker.Import{
				Module: module,
				Name:   name,
				Type:   funcTypes[idx],
			})
		case importTable:
			if _, err := r.ReadByte(); err != nil {
				return nil, parseErr("truncated table import")
			}
			if err := skipLimits(r); err != nil {
				return nil, err
			}
		case importMemory:
			if err := skipLimits(r); err != nil {
				return nil, err
			}
		case importGlobal:
			if _, err := r.ReadByte(); err != nil {
				return nil, parseErr("truncated global import")
			}
			if _, err := r.ReadByte(); err != nil {
				return nil, parseErr("truncated global import")
			}
		default:
			return nil, parseErr("unknown import kind")
		}
	}
	return imports, nil
}

func readName(r *bytes.Reader) (string, error) {
	length, err := readU32(r)
	if err != nil {
		return "", parseErr("bad name length")
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", parseErr("truncated name")
	}
	return string(buf), nil
}

func skipLimits(r *bytes.Reader) error {
	flags, err := r.ReadByte()
	if err != nil {
		return parseErr("truncated limits")
	}
	if _, err := readU64(r); err != nil {
		return parseErr("bad limits minimum")
	}
	if flags&0x01 != 0 {
		if _, err := readU64(r); err != nil {
			return parseErr("bad limits maximum")
		}
	}
	return nil
}

func valueKind(b byte) (types.ValueKind, error) {
	switch b {
	case 0x7f:
		return types.KindI32, nil
	case 0x7e:
		return types.KindI64, nil
	case 0x7d:
		return types.KindF32, nil
	case 0x7c:
		return types.KindF64, nil
	case 0x7b:
		return types.KindV128, nil
	case 0x70:
		return types.KindFuncRef, nil
	case 0x6f:
		return types.KindExternRef, nil
	}
	return 0, parseErr("unknown value type")
}

func parseErr(detail string) error {
	return errors.InvalidInput(errors.PhaseLink, detail)
}
