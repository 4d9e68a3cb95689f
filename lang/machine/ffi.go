package machine

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/ebitengine/purego"
	"golang.org/x/exp/slices"
)

// ffiCall implements FFI_CALL (§4.3). The stack at entry, top-down, is
// [function_name, library_path, arg_count, arg_1, ..., arg_n]: popping
// sequentially yields the function name, the library path, the argument
// count, then the arguments themselves in declaration order.
func (th *Thread) ffiCall() error {
	nameV, err := th.pop()
	if err != nil {
		return err
	}
	name, ok := nameV.(Str)
	if !ok {
		return fmt.Errorf("%w: FFI_CALL function name must be a string, got %s", ErrTypeMismatch, nameV.Type())
	}

	pathV, err := th.pop()
	if err != nil {
		return err
	}
	path, ok := pathV.(Str)
	if !ok {
		return fmt.Errorf("%w: FFI_CALL library path must be a string, got %s", ErrTypeMismatch, pathV.Type())
	}

	countV, err := th.pop()
	if err != nil {
		return err
	}
	count, ok := countV.(Int)
	if !ok {
		return fmt.Errorf("%w: FFI_CALL argument count must be an integer, got %s", ErrTypeMismatch, countV.Type())
	}

	n := int(count)
	args, err := th.popN(n)
	if err != nil {
		return err
	}
	// the stack lists the arguments top-down in declaration order, so the
	// push-order slice popN returns is the declaration order reversed
	slices.Reverse(args)

	result, err := th.invokeForeign(string(path), string(name), args)
	if err != nil {
		return err
	}
	th.push(result)
	return nil
}

// loadLibrary dlopens path, caching the handle by path for the lifetime of
// the Thread (§5: "acquired once per library path and reused"). A bare
// name with no path separator is resolved against FFISearchPath.
func (th *Thread) loadLibrary(path string) (uintptr, error) {
	if h, ok := th.ffiCache[path]; ok {
		return h, nil
	}

	resolved := path
	if !strings.ContainsRune(path, '/') && !filepath.IsAbs(path) {
		for _, dir := range th.FFISearchPath {
			candidate := filepath.Join(dir, path)
			if h, err := purego.Dlopen(candidate, purego.RTLD_NOW|purego.RTLD_GLOBAL); err == nil {
				th.ffiCache[path] = h
				return h, nil
			}
		}
	}

	h, err := purego.Dlopen(resolved, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return 0, fmt.Errorf("%w: loading %q: %s", ErrForeign, path, err)
	}
	th.ffiCache[path] = h
	return h, nil
}

// invokeForeign resolves symbol in the library at path and calls it with
// args marshaled per §4.3: each Int argument is passed as a native
// integer, each Float as a native double; the declared return type is
// always a native double. purego has no fixed C signature to bind ahead
// of time here, so the call shape is built at each invocation with
// reflect.FuncOf/reflect.New, the supported way to hand purego.RegisterFunc
// a dynamically-typed native function pointer.
func (th *Thread) invokeForeign(path, symbol string, args []Value) (v Value, err error) {
	handle, err := th.loadLibrary(path)
	if err != nil {
		return nil, err
	}

	sym, err := purego.Dlsym(handle, symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: symbol %q not found in %q: %s", ErrForeign, symbol, path, err)
	}

	argTypes := make([]reflect.Type, len(args))
	argValues := make([]reflect.Value, len(args))
	for i, a := range args {
		switch a := a.(type) {
		case Int:
			argTypes[i] = reflect.TypeOf(int64(0))
			argValues[i] = reflect.ValueOf(int64(a))
		case Float:
			argTypes[i] = reflect.TypeOf(float64(0))
			argValues[i] = reflect.ValueOf(float64(a))
		default:
			return nil, fmt.Errorf("%w: FFI_CALL argument %d has unsupported type %s", ErrTypeMismatch, i, a.Type())
		}
	}

	fnType := reflect.FuncOf(argTypes, []reflect.Type{reflect.TypeOf(float64(0))}, false)
	fnPtr := reflect.New(fnType)
	purego.RegisterFunc(fnPtr.Interface(), sym)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: calling %q in %q: %v", ErrForeign, symbol, path, r)
		}
	}()
	results := fnPtr.Elem().Call(argValues)
	return Float(results[0].Float()), nil
}
