package example

import (
	"context"

	"github.com/wasmhost/hostmod/errors"
	"github.com/wasmhost/hostmod/handles"
	"github.com/wasmhost/hostmod/hostmodule"
)

// StoreName is the link name of the blob store module.
const StoreName = "store"

// StoreEnvironment owns blobs guests have stashed on the host side. Guests
// hold uint32 handles; the bytes themselves never live in guest memory
// between calls.
type StoreEnvironment struct {
	blobs *handles.Table[[]byte]
}

// Blobs returns the number of live blobs.
func (e *StoreEnvironment) Blobs() int {
	return e.blobs.Len()
}

// NewStore builds a blob store module instance with a fresh environment.
//
// Exports:
//
//	put(ptr: i32, len: i32) -> i32    copies bytes out of guest memory, returns a handle
//	size(h: i32) -> i32               byte length of a stored blob
//	get(h: i32, ptr: i32) -> i32      writes a blob into guest memory, returns bytes written
//	drop(h: i32)                      releases a blob
//
// Unknown handles trap.
func NewStore() (*hostmodule.Module, error) {
	env := &StoreEnvironment{blobs: handles.NewTable[[]byte]()}

	return hostmodule.NewBuilder(StoreName).
		WithEnv(env).
		FuncTyped("put", func(ctx context.Context, s *hostmodule.Scope, ptr, length uint32) (uint32, error) {
			mem, err := s.Memory()
			if err != nil {
				return 0, err
			}
			data, err := mem.Read(ptr, length)
			if err != nil {
				return 0, err
			}
			h := s.Env().(*StoreEnvironment).blobs.Insert(data)
			if h == 0 {
				return 0, errors.New(errors.PhaseCall, errors.KindTrap).
					Export(StoreName, "put").
					Detail("blob table closed").
					Build()
			}
			return uint32(h), nil
		}).
		FuncTyped("size", func(ctx context.Context, s *hostmodule.Scope, h uint32) (uint32, error) {
			blob, err := lookupBlob(s, "size", h)
			if err != nil {
				return 0, err
			}
			return uint32(len(blob)), nil
		}).
		FuncTyped("get", func(ctx context.Context, s *hostmodule.Scope, h, ptr uint32) (uint32, error) {
			blob, err := lookupBlob(s, "get", h)
			if err != nil {
				return 0, err
			}
			mem, err := s.Memory()
			if err != nil {
				return 0, err
			}
			if err := mem.Write(ptr, blob); err != nil {
				return 0, err
			}
			return uint32(len(blob)), nil
		}).
		FuncTyped("drop", func(ctx context.Context, s *hostmodule.Scope, h uint32) error {
			if _, ok := s.Env().(*StoreEnvironment).blobs.Remove(handles.Handle(h)); !ok {
				return unknownHandle("drop", h)
			}
			return nil
		}).
		Build()
}

func lookupBlob(s *hostmodule.Scope, fn string, h uint32) ([]byte, error) {
	blob, ok := s.Env().(*StoreEnvironment).blobs.Get(handles.Handle(h))
	if !ok {
		return nil, unknownHandle(fn, h)
	}
	return blob, nil
}

func unknownHandle(fn string, h uint32) error {
	return errors.New(errors.PhaseCall, errors.KindNotFound).
		Export(StoreName, fn).
		Detail("unknown blob handle %d", h).
		Build()
}

// StoreEnv returns the module's environment with its concrete type.
func StoreEnv(mod *hostmodule.Module) *StoreEnvironment {
	env, _ := mod.Env().(*StoreEnvironment)
	return env
}
