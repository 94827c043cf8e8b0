// Package hostmodule implements the host side of the host function binding
// pattern: a named module instance that exports natively implemented
// functions to a WebAssembly virtual machine, together with an environment
// object holding state shared across those functions' calls.
//
// A module instance and its environment are created together, once, by a
// Builder, before any guest linking occurs:
//
//	mod, err := hostmodule.NewBuilder("example").
//	    WithEnv(&Env{}).
//	    FuncTyped("add", func(ctx context.Context, s *hostmodule.Scope, a, b int32) int32 {
//	        return a + b
//	    }).
//	    Build()
//
// The binding set is part of the module's identity: it is fixed at Build time
// and cannot change afterwards. Close destroys the instance and its
// environment together; subsequent lookups fail.
//
// Bindings reach the environment and guest memory only through the per-call
// Scope, which is invalidated when the call returns. The environment itself
// carries no synchronization; when an instance is driven by concurrently
// running VM instances, exclusion is the environment author's responsibility.
package hostmodule
