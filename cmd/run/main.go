package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/wasmhost/hostmod/engine"
	"github.com/wasmhost/hostmod/example"
	"github.com/wasmhost/hostmod/types"
)

func main() {
	var (
		wasmFile    = flag.String("wasm", "", "Path to guest wasm file")
		funcName    = flag.String("func", "", "Exported function to call (optional)")
		argsStr     = flag.String("args", "", "Arguments, comma-separated, parsed per the function's signature")
		list        = flag.Bool("list", false, "List host bindings and guest exports, then exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *wasmFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: run -wasm <file.wasm> [-func name] [-args 1,2]")
		fmt.Fprintln(os.Stderr, "       run -wasm <file.wasm> -list")
		fmt.Fprintln(os.Stderr, "       run -wasm <file.wasm> -i  (interactive mode)")
		os.Exit(1)
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(*wasmFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*wasmFile, *funcName, *argsStr, *list); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadGuest stands a fresh engine up with the example host module instantiated
// and the guest linked against it.
func loadGuest(ctx context.Context, wasmFile string) (*engine.Engine, *example.Environment, *engine.Guest, error) {
	data, err := os.ReadFile(wasmFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("read file: %w", err)
	}

	e, err := engine.New(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create engine: %w", err)
	}

	host, err := example.New()
	if err != nil {
		e.Close(ctx)
		return nil, nil, nil, fmt.Errorf("build host module: %w", err)
	}
	if err := e.InstantiateHostModule(ctx, host); err != nil {
		e.Close(ctx)
		return nil, nil, nil, fmt.Errorf("instantiate host module: %w", err)
	}

	guest, err := e.InstantiateGuest(ctx, data, "guest")
	if err != nil {
		e.Close(ctx)
		return nil, nil, nil, fmt.Errorf("instantiate guest: %w", err)
	}

	return e, example.Env(host), guest, nil
}

func run(wasmFile, funcName, argsStr string, listOnly bool) error {
	ctx := context.Background()

	e, env, guest, err := loadGuest(ctx, wasmFile)
	if err != nil {
		return err
	}
	defer e.Close(ctx)

	exports := guest.Exports()

	fmt.Printf("Guest: %s\n", wasmFile)
	fmt.Printf("\nHost bindings (%s):\n", example.ModuleName)
	fmt.Println("  add(a: i32, b: i32) -> i32")
	fmt.Println("  div(a: i32, b: i32) -> i32")
	fmt.Println("  inc() -> i64")
	fmt.Println("  get_count() -> i64")
	fmt.Println("  log(ptr: i32, len: i32)")
	fmt.Println("  fail(code: i32)")

	fmt.Printf("\nGuest exports:\n")
	for _, exp := range exports {
		fmt.Printf("  %s: %s\n", exp.Name, exp.Type)
	}

	if listOnly {
		return nil
	}

	if funcName == "" {
		for _, name := range []string{"run", "main", "_start"} {
			for _, exp := range exports {
				if exp.Name == name {
					funcName = name
					break
				}
			}
			if funcName != "" {
				break
			}
		}
		if funcName == "" && len(exports) == 1 {
			funcName = exports[0].Name
		}
		if funcName == "" {
			fmt.Printf("\nNo function specified and no common entry point found.\n")
			fmt.Printf("Use -func to specify a function to call.\n")
			return nil
		}
	}

	var typ *types.FuncType
	for _, exp := range exports {
		if exp.Name == funcName {
			typ = exp.Type
			break
		}
	}
	if typ == nil {
		return fmt.Errorf("guest does not export %q", funcName)
	}

	args, err := parseArgs(argsStr, typ.Params)
	if err != nil {
		return err
	}

	fmt.Printf("\nCalling %s(%s)...\n", funcName, argsStr)
	results, err := guest.Call(ctx, funcName, args...)
	if err != nil {
		return fmt.Errorf("call %s: %w", funcName, err)
	}

	for i, raw := range results {
		fmt.Printf("Result: %s\n", types.FromRaw(typ.Results[i], raw))
	}
	fmt.Printf("\nHost environment after the call:\n")
	fmt.Printf("  calls: %d\n", env.Calls())
	if msg := env.LastMessage(); msg != "" {
		fmt.Printf("  last message: %q\n", msg)
	}

	return nil
}

// parseArgs converts comma-separated text into raw stack values, one per
// declared parameter kind.
func parseArgs(argsStr string, params []types.ValueKind) ([]uint64, error) {
	var fields []string
	if argsStr != "" {
		fields = strings.Split(argsStr, ",")
	}
	if len(fields) != len(params) {
		return nil, fmt.Errorf("function takes %d arguments, got %d", len(params), len(fields))
	}

	args := make([]uint64, len(fields))
	for i, field := range fields {
		raw, err := parseArg(strings.TrimSpace(field), params[i])
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		args[i] = raw
	}
	return args, nil
}

func parseArg(field string, kind types.ValueKind) (uint64, error) {
	switch kind {
	case types.KindI32:
		v, err := strconv.ParseInt(field, 10, 32)
		if err != nil {
			return 0, err
		}
		return uint64(uint32(int32(v))), nil
	case types.KindI64:
		v, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return 0, err
		}
		return uint64(v), nil
	case types.KindF32:
		v, err := strconv.ParseFloat(field, 32)
		if err != nil {
			return 0, err
		}
		return uint64(math.Float32bits(float32(v))), nil
	case types.KindF64:
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return 0, err
		}
		return math.Float64bits(v), nil
	}
	return 0, fmt.Errorf("unsupported parameter kind %s", kind)
}
