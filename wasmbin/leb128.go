package wasmbin

import (
	"errors"
	"io"
)

// errOverflow is returned when a LEB128 value exceeds the maximum bit width.
var errOverflow = errors.New("leb128: overflow")

// readU32 reads an unsigned LEB128 value of at most 32 bits.
func readU32(r io.ByteReader) (uint32, error) {
	var result uint32
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		result |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
		if shift >= 35 {
			return 0, errOverflow
		}
	}
}

// readU64 reads an unsigned LEB128 value of at most 64 bits.
func readU64(r io.ByteReader) (uint64, error) {
	var result uint64
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
		if shift >= 70 {
			return 0, errOverflow
		}
	}
}
