// Package linker resolves guest imports against registered host module
// instances.
//
// Resolution and type checking happen once, at link time, before any guest
// code executes. The result is an index-based table of bindings; dispatching
// a guest call is a direct indirection through that table, never a repeated
// lookup by name.
package linker
