package hostmodule

import (
	"context"
	"reflect"

	"github.com/wasmhost/hostmod/errors"
	"github.com/wasmhost/hostmod/types"
)

// Builder assembles a module instance. The binding set registered here is
// fixed: once Build returns, no exported function can be added or removed.
//
// Registration errors (empty names, duplicate exports, signatures that do not
// match the native callable) are collected and reported by Build, so the
// chained calls stay fluent.
type Builder struct {
	env   any
	name  string
	funcs []*Func
	seen  map[string]bool
	errs  []error
}

// NewBuilder starts a module instance with the given link name.
func NewBuilder(name string) *Builder {
	return &Builder{
		name: name,
		seen: make(map[string]bool),
	}
}

// WithEnv sets the environment the instance will own. The environment is
// created by the caller but has no identity outside the instance: it is
// reachable only through the bindings' call scopes and Module.Env.
func (b *Builder) WithEnv(env any) *Builder {
	b.env = env
	return b
}

// Func registers a raw binding under the declared signature. The handler
// receives already-marshaled values; its result tuple is checked against typ
// on every call.
func (b *Builder) Func(name string, typ *types.FuncType, fn GoFunc) *Builder {
	if err := b.checkName(name); err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	if typ == nil {
		b.errs = append(b.errs, errors.InvalidSignature(b.name, name, "nil function type"))
		return b
	}
	if fn == nil {
		b.errs = append(b.errs, errors.InvalidSignature(b.name, name, "nil handler"))
		return b
	}
	for _, k := range append(append([]types.ValueKind(nil), typ.Params...), typ.Results...) {
		if !k.Numeric() {
			b.errs = append(b.errs, errors.Unsupported(errors.PhaseConstruct,
				"value kind "+k.String()+" in signature of "+b.name+"."+name))
			return b
		}
	}

	b.funcs = append(b.funcs, &Func{name: name, typ: typ, fn: fn})
	b.seen[name] = true
	return b
}

// FuncTyped registers a binding whose signature is derived from the Go
// function's own shape, so the declared signature cannot drift from the
// native callable. fn must have the form
//
//	func(ctx context.Context, s *Scope, params ...T) (results ...R)
//
// with T and R among int32, uint32, int64, uint64, float32 and float64, and
// an optional trailing error result that is surfaced as an execution trap.
func (b *Builder) FuncTyped(name string, fn any) *Builder {
	if err := b.checkName(name); err != nil {
		b.errs = append(b.errs, err)
		return b
	}

	typ, wrapped, err := wrapTyped(b.name, name, fn)
	if err != nil {
		b.errs = append(b.errs, err)
		return b
	}

	b.funcs = append(b.funcs, &Func{name: name, typ: typ, fn: wrapped})
	b.seen[name] = true
	return b
}

// Build creates the module instance and its environment as a unit. It fails
// on the first registration defect; a failed Build leaves nothing linkable.
func (b *Builder) Build() (*Module, error) {
	if b.name == "" {
		return nil, errors.InvalidInput(errors.PhaseConstruct, "module name cannot be empty")
	}
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}
	return newModule(b.name, b.env, b.funcs), nil
}

func (b *Builder) checkName(name string) error {
	if name == "" {
		return errors.InvalidInput(errors.PhaseConstruct, "export name cannot be empty")
	}
	if b.seen[name] {
		return errors.DuplicateExport(b.name, name)
	}
	return nil
}

var (
	ctxType   = reflect.TypeOf((*context.Context)(nil)).Elem()
	scopeType = reflect.TypeOf((*Scope)(nil))
	errType   = reflect.TypeOf((*error)(nil)).Elem()
)

// wrapTyped derives the wasm signature from fn's reflected shape and returns
// a GoFunc converting between tagged values and native Go scalars.
func wrapTyped(module, name string, fn any) (*types.FuncType, GoFunc, error) {
	rv := reflect.ValueOf(fn)
	if !rv.IsValid() || rv.Kind() != reflect.Func {
		return nil, nil, errors.InvalidSignature(module, name, "handler must be a function")
	}
	rt := rv.Type()

	if rt.NumIn() < 2 || rt.In(0) != ctxType || rt.In(1) != scopeType {
		return nil, nil, errors.InvalidSignature(module, name,
			"handler must accept (context.Context, *hostmodule.Scope) as its first parameters")
	}

	params := make([]types.ValueKind, rt.NumIn()-2)
	for i := range params {
		k, err := kindOf(module, name, rt.In(i + 2))
		if err != nil {
			return nil, nil, err
		}
		params[i] = k
	}

	numOut := rt.NumOut()
	hasErr := numOut > 0 && rt.Out(numOut-1) == errType
	if hasErr {
		numOut--
	}
	results := make([]types.ValueKind, numOut)
	for i := range results {
		k, err := kindOf(module, name, rt.Out(i))
		if err != nil {
			return nil, nil, err
		}
		results[i] = k
	}

	typ := types.NewFuncType(params, results)

	wrapped := func(ctx context.Context, s *Scope, in []types.Value) ([]types.Value, error) {
		args := make([]reflect.Value, 2+len(in))
		args[0] = reflect.ValueOf(ctx)
		args[1] = reflect.ValueOf(s)
		for i, v := range in {
			args[2+i] = argValue(rt.In(2+i), v)
		}

		outs := rv.Call(args)
		if hasErr {
			last := outs[len(outs)-1]
			if !last.IsNil() {
				return nil, last.Interface().(error)
			}
			outs = outs[:len(outs)-1]
		}

		res := make([]types.Value, len(outs))
		for i, o := range outs {
			res[i] = resultValue(results[i], o)
		}
		return res, nil
	}

	return typ, wrapped, nil
}

func kindOf(module, name string, t reflect.Type) (types.ValueKind, error) {
	switch t.Kind() {
	case reflect.Int32, reflect.Uint32:
		return types.KindI32, nil
	case reflect.Int64, reflect.Uint64:
		return types.KindI64, nil
	case reflect.Float32:
		return types.KindF32, nil
	case reflect.Float64:
		return types.KindF64, nil
	default:
		return 0, errors.InvalidSignature(module, name, "unsupported handler type "+t.String())
	}
}

func argValue(t reflect.Type, v types.Value) reflect.Value {
	out := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Int32:
		out.SetInt(int64(v.AsI32()))
	case reflect.Uint32:
		out.SetUint(uint64(uint32(v.Raw())))
	case reflect.Int64:
		out.SetInt(v.AsI64())
	case reflect.Uint64:
		out.SetUint(v.Raw())
	case reflect.Float32:
		out.SetFloat(float64(v.AsF32()))
	case reflect.Float64:
		out.SetFloat(v.AsF64())
	}
	return out
}

func resultValue(kind types.ValueKind, o reflect.Value) types.Value {
	switch o.Kind() {
	case reflect.Int32, reflect.Int64:
		switch kind {
		case types.KindI32:
			return types.I32(int32(o.Int()))
		default:
			return types.I64(o.Int())
		}
	case reflect.Uint32, reflect.Uint64:
		switch kind {
		case types.KindI32:
			return types.FromRaw(types.KindI32, uint64(uint32(o.Uint())))
		default:
			return types.FromRaw(types.KindI64, o.Uint())
		}
	case reflect.Float32:
		return types.F32(float32(o.Float()))
	default:
		return types.F64(o.Float())
	}
}
