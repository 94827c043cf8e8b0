// Package hostmod implements the host module binding pattern for WebAssembly
// runtimes: named module instances that export natively implemented functions
// to guest code, together with an environment object that carries native state
// across calls.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	hostmod/             Root package with the guest Memory capability interface
//	├── types/           Core value kinds, function-type descriptors and values
//	├── hostmodule/      Environment, module instance, function bindings
//	├── linker/          Import resolution and link-time type checking
//	├── engine/          wazero integration for running the pattern end to end
//	├── wasmbin/         Import-section scanner for core wasm binaries
//	├── handles/         Handle tables for host-owned objects
//	├── example/         Ready-made host modules used by the demos
//	└── errors/          Structured error types (link errors, traps)
//
// # Quick Start
//
// Build a host module with an environment and a fixed binding set:
//
//	env := &counterEnv{}
//	mod, err := hostmodule.NewBuilder("example").
//	    WithEnv(env).
//	    FuncTyped("add", func(ctx context.Context, s *hostmodule.Scope, a, b int32) int32 {
//	        return a + b
//	    }).
//	    Build()
//
// Resolve guest imports against it and dispatch:
//
//	reg := hostmodule.NewRegistry()
//	reg.Register(mod)
//
//	linked, err := linker.Link(reg, []linker.Import{
//	    {Module: "example", Name: "add", Type: types.NewFuncType(
//	        []types.ValueKind{types.KindI32, types.KindI32},
//	        []types.ValueKind{types.KindI32},
//	    )},
//	})
//	results, err := linked.Call(ctx, 0, nil, []types.Value{types.I32(2), types.I32(3)})
//
// # Lifetime Rules
//
// A module instance and its environment are created together by Build and
// destroyed together by Close. The binding set is fixed at construction; there
// is no runtime addition or removal of exports. After Close every lookup fails:
// the instance is gone, not empty.
//
// Per-call capabilities (the Scope handed to a binding, including its guest
// memory accessor) are valid only for the duration of that call. Bindings must
// not retain them across calls, since guest memory may be resized or the
// instance torn down between calls.
//
// # Thread Safety
//
// Module and Registry are safe for concurrent use. The environment itself is
// deliberately unsynchronized: when one module instance is driven from several
// VM instances at once, the environment's author owns the exclusion discipline
// (atomics or an internal lock), not the VM.
package hostmod
