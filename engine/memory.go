package engine

import (
	"github.com/tetratelabs/wazero/api"

	hostmod "github.com/wasmhost/hostmod"
	"github.com/wasmhost/hostmod/errors"
)

var _ hostmod.Memory = (*guestMemory)(nil)

// guestMemory adapts wazero's view of guest linear memory to the capability
// handed to host bindings. Instances are created per call and must not be
// retained past it.
type guestMemory struct {
	mem api.Memory
}

func (m *guestMemory) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, errors.OutOfBounds(offset, length, m.mem.Size())
	}
	// wazero returns a view into the guest buffer. Copy it so the caller
	// cannot hold guest memory past the call.
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *guestMemory) Write(offset uint32, data []byte) error {
	if ok := m.mem.Write(offset, data); !ok {
		return errors.OutOfBounds(offset, uint32(len(data)), m.mem.Size())
	}
	return nil
}

func (m *guestMemory) ReadU32(offset uint32) (uint32, error) {
	val, ok := m.mem.ReadUint32Le(offset)
	if !ok {
		return 0, errors.OutOfBounds(offset, 4, m.mem.Size())
	}
	return val, nil
}

func (m *guestMemory) ReadU64(offset uint32) (uint64, error) {
	val, ok := m.mem.ReadUint64Le(offset)
	if !ok {
		return 0, errors.OutOfBounds(offset, 8, m.mem.Size())
	}
	return val, nil
}

func (m *guestMemory) WriteU32(offset uint32, value uint32) error {
	if ok := m.mem.WriteUint32Le(offset, value); !ok {
		return errors.OutOfBounds(offset, 4, m.mem.Size())
	}
	return nil
}

func (m *guestMemory) WriteU64(offset uint32, value uint64) error {
	if ok := m.mem.WriteUint64Le(offset, value); !ok {
		return errors.OutOfBounds(offset, 8, m.mem.Size())
	}
	return nil
}

func (m *guestMemory) Size() uint32 {
	return m.mem.Size()
}
