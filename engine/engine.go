package engine

import (
	"context"
	stderrors "errors"
	"sort"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	hostmod "github.com/wasmhost/hostmod"
	"github.com/wasmhost/hostmod/errors"
	"github.com/wasmhost/hostmod/hostmodule"
	"github.com/wasmhost/hostmod/types"
)

// Config holds configuration for engine creation
type Config struct {
	// Logger receives engine diagnostics. Nil means the package logger.
	Logger *zap.Logger

	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means default (65536 pages = 4GB).
	MemoryLimitPages uint32
}

// Engine runs guests against instantiated host modules on a wazero runtime.
type Engine struct {
	runtime wazero.Runtime
	logger  *zap.Logger
}

// New creates an engine with default configuration.
func New(ctx context.Context) (*Engine, error) {
	return NewWithConfig(ctx, nil)
}

// NewWithConfig creates an engine with custom configuration.
func NewWithConfig(ctx context.Context, cfg *Config) (*Engine, error) {
	runtimeCfg := wazero.NewRuntimeConfig()
	log := Logger()

	if cfg != nil {
		if cfg.MemoryLimitPages > 0 {
			runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
		}
		if cfg.Logger != nil {
			log = cfg.Logger
		}
	}

	return &Engine{
		runtime: wazero.NewRuntimeWithConfig(ctx, runtimeCfg),
		logger:  log,
	}, nil
}

// InstantiateHostModule makes every binding of mod importable by guests under
// the module's name. The module keeps owning its environment; the engine only
// adapts its bindings onto the runtime's import surface.
func (e *Engine) InstantiateHostModule(ctx context.Context, mod *hostmodule.Module) error {
	if mod == nil {
		return errors.InvalidInput(errors.PhaseConstruct, "nil host module")
	}
	if mod.Closed() {
		return errors.ModuleClosed(errors.PhaseConstruct, mod.Name())
	}

	builder := e.runtime.NewHostModuleBuilder(mod.Name())
	for _, f := range mod.Exports() {
		params, err := valueTypes(f.Type().Params)
		if err != nil {
			return err
		}
		results, err := valueTypes(f.Type().Results)
		if err != nil {
			return err
		}
		builder = builder.NewFunctionBuilder().
			WithGoModuleFunction(hostFunc(f), params, results).
			Export(f.Name())
	}

	if _, err := builder.Instantiate(ctx); err != nil {
		return errors.Wrap(errors.PhaseConstruct, errors.KindRegistration, err, "instantiate host module "+mod.Name())
	}

	e.logger.Debug("host module instantiated",
		zap.String("module", mod.Name()),
		zap.Int("exports", len(mod.ExportNames())))
	return nil
}

// InstantiateRegistry instantiates every module currently in the registry.
func (e *Engine) InstantiateRegistry(ctx context.Context, reg *hostmodule.Registry) error {
	for _, name := range reg.ModuleNames() {
		mod, err := reg.Module(name)
		if err != nil {
			return err
		}
		if err := e.InstantiateHostModule(ctx, mod); err != nil {
			return err
		}
	}
	return nil
}

// hostFunc adapts a binding onto wazero's raw stack calling convention.
// A failed call panics with the structured error; wazero recovers the panic
// and surfaces it as the error of the guest call that reached the binding.
func hostFunc(f *hostmodule.Func) api.GoModuleFunc {
	typ := f.Type()
	return func(ctx context.Context, mod api.Module, stack []uint64) {
		params := make([]types.Value, len(typ.Params))
		for i, k := range typ.Params {
			params[i] = types.FromRaw(k, stack[i])
		}

		var mem hostmod.Memory
		if m := mod.Memory(); m != nil {
			mem = &guestMemory{mem: m}
		}

		results, err := f.Call(ctx, mem, params)
		if err != nil {
			panic(err)
		}
		for i, v := range results {
			stack[i] = v.Raw()
		}
	}
}

// Guest is an instantiated guest module.
// It is NOT safe for concurrent use from multiple goroutines.
type Guest struct {
	module api.Module
	logger *zap.Logger
}

// InstantiateGuest compiles and instantiates guest wasm. Import resolution and
// signature checking happen here; a guest whose imports do not match the
// instantiated host modules never runs.
func (e *Engine) InstantiateGuest(ctx context.Context, wasmBytes []byte, name string) (*Guest, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConstruct, errors.KindInvalidInput, err, "compile guest module")
	}

	instance, err := e.runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(name))
	if err != nil {
		return nil, classifyLinkError(err)
	}

	e.logger.Debug("guest instantiated", zap.String("name", name))
	return &Guest{module: instance, logger: e.logger}, nil
}

// classifyLinkError maps wazero's instantiation failures onto the link error
// taxonomy. wazero reports both shapes as plain errors, so the split rides on
// its message text.
func classifyLinkError(err error) error {
	kind := errors.KindUnresolvedImport
	if strings.Contains(err.Error(), "signature mismatch") {
		kind = errors.KindSignatureMismatch
	}
	return errors.Wrap(errors.PhaseLink, kind, err, "instantiate guest module")
}

// Call invokes an exported guest function. A host binding failure during the
// call comes back as the binding's structured error.
func (g *Guest) Call(ctx context.Context, fn string, args ...uint64) ([]uint64, error) {
	f := g.module.ExportedFunction(fn)
	if f == nil {
		return nil, errors.NotFound(errors.PhaseCall, "export", fn)
	}

	results, err := f.Call(ctx, args...)
	if err != nil {
		var hostErr *errors.Error
		if stderrors.As(err, &hostErr) {
			return nil, hostErr
		}
		return nil, errors.Wrap(errors.PhaseCall, errors.KindTrap, err, "guest call "+fn)
	}
	return results, nil
}

// ExportInfo describes one exported guest function.
type ExportInfo struct {
	Name string
	Type *types.FuncType
}

// Exports returns the guest's exported functions sorted by name.
func (g *Guest) Exports() []ExportInfo {
	defs := g.module.ExportedFunctionDefinitions()
	out := make([]ExportInfo, 0, len(defs))
	for name, def := range defs {
		out = append(out, ExportInfo{
			Name: name,
			Type: types.NewFuncType(kinds(def.ParamTypes()), kinds(def.ResultTypes())),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// MemorySize returns the guest's current linear memory size in bytes, or 0 if
// the guest exports no memory.
func (g *Guest) MemorySize() uint32 {
	if mem := g.module.Memory(); mem != nil {
		return mem.Size()
	}
	return 0
}

func (g *Guest) Close(ctx context.Context) error {
	return g.module.Close(ctx)
}

func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}
