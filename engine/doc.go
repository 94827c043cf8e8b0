// Package engine runs host modules against real guest code on wazero.
//
// An Engine wraps a wazero runtime. Instantiating a hostmodule.Module makes
// its bindings importable by guests under the module's name; instantiating a
// guest resolves those imports through wazero's linker, so signature checking
// happens before any guest code runs. During a guest call each host binding
// receives the guest's linear memory as a call-scoped capability.
package engine
