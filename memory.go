package hostmod

// Memory is the capability a runtime grants a host function for accessing
// guest linear memory. Implementations are only valid for the duration of the
// call that supplied them; Read returns a copy, never a view into the
// underlying buffer.
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	ReadU32(offset uint32) (uint32, error)
	ReadU64(offset uint32) (uint64, error)
	WriteU32(offset uint32, value uint32) error
	WriteU64(offset uint32, value uint64) error

	// Size returns the current size of guest memory in bytes.
	Size() uint32
}
