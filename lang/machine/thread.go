// Package machine implements the virtual machine that executes the
// bytecode-compiled form of Sym source: its value model, the fetch-
// decode-dispatch loop, the call/return protocol, and the foreign-function
// bridge.
package machine

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dolthub/swiss"
	"github.com/symlang/symvm/lang/compiler"
)

// Thread is a VM instance: a single operand stack, a stack of call
// frames, the global mapping, and the loaded-library cache for FFI_CALL
// (§3, §5). It executes single-threaded and synchronously, as the whole
// system does.
type Thread struct {
	// Stdout, Stderr and Stdin are the standard I/O abstractions consulted
	// by PRINT, the debugger's output, and INPUT, respectively (runtime
	// errors are returned from Run, not written to Stderr). If nil,
	// os.Stdout/os.Stderr/os.Stdin are used.
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader

	// Debug enables the DBG breakpoint hook of §4.3.
	Debug bool

	// FFISearchPath lists directories searched, in order, to resolve a
	// bare (no path separator) library name passed to FFI_CALL.
	FFISearchPath []string

	// MaxSteps aborts Run with ErrStepLimit once this many instructions
	// have executed. Zero means unbounded.
	MaxSteps int

	chunks    map[string]*compiler.Chunk
	globals   *swiss.Map[string, Value]
	stack     []Value
	callStack []*Frame
	ffiCache  map[string]uintptr
	debugger  *Debugger

	stdout io.Writer
	stdin  *bufio.Reader
}

// NewThread returns a Thread ready to Run a compiled Program.
func NewThread() *Thread {
	return &Thread{
		globals:  swiss.NewMap[string, Value](8),
		ffiCache: make(map[string]uintptr),
	}
}

func (th *Thread) init() {
	if th.Stdout != nil {
		th.stdout = th.Stdout
	} else {
		th.stdout = os.Stdout
	}
	stderr := th.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	stdin := th.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}
	th.stdin = bufio.NewReader(stdin)
	if th.Debug {
		th.debugger = NewDebugger(th, stderr)
	}
}

// Run executes prog's __main__ chunk to completion (§4.3: initial state is
// a single main frame, ip=0, empty stack and globals). It returns nil on a
// normal HALT and a *EvalError for any runtime failure caught per §7.
func (th *Thread) Run(prog *compiler.Program) error {
	main, ok := prog.Chunks[compiler.MainChunkName]
	if !ok {
		return fmt.Errorf("program has no %s chunk", compiler.MainChunkName)
	}

	th.init()
	th.chunks = prog.Chunks
	th.stack = th.stack[:0]
	mainClosure := &Closure{Name: main.Name, Chunk: main}
	th.callStack = []*Frame{newFrame(mainClosure, 0, true)}

	steps := 0
	for len(th.callStack) > 0 {
		fr := th.currentFrame()
		if fr.ip >= len(fr.Closure.Chunk.Code) {
			return nil
		}
		if th.MaxSteps > 0 && steps >= th.MaxSteps {
			return newEvalError(fmt.Errorf("%w: exceeded %d instructions", ErrStepLimit, th.MaxSteps), th.callStack)
		}
		if th.debugger != nil {
			th.debugger.maybeBreak(fr)
		}
		halt, err := th.step(fr)
		steps++
		if err != nil {
			return newEvalError(err, th.callStack)
		}
		if halt {
			return nil
		}
	}
	return nil
}

func (th *Thread) currentFrame() *Frame {
	return th.callStack[len(th.callStack)-1]
}

func (th *Thread) push(v Value) {
	th.stack = append(th.stack, v)
}

func (th *Thread) pop() (Value, error) {
	n := len(th.stack)
	if n == 0 {
		return nil, ErrStackUnderflow
	}
	v := th.stack[n-1]
	th.stack = th.stack[:n-1]
	return v, nil
}

func (th *Thread) peek() (Value, error) {
	n := len(th.stack)
	if n == 0 {
		return nil, ErrStackUnderflow
	}
	return th.stack[n-1], nil
}

// popN pops the top n values and returns them in push order (the first
// pushed, i.e. the deepest of the n, is index 0), matching BUILD_LIST's
// and BUILD_MAP's stack layout (§4.1).
func (th *Thread) popN(n int) ([]Value, error) {
	if n < 0 || len(th.stack) < n {
		return nil, ErrStackUnderflow
	}
	start := len(th.stack) - n
	out := make([]Value, n)
	copy(out, th.stack[start:])
	th.stack = th.stack[:start]
	return out, nil
}

func (th *Thread) readLine() (string, error) {
	line, err := th.stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// call implements the CALL protocol of §4.3.
func (th *Thread) call() error {
	v, err := th.pop()
	if err != nil {
		return err
	}
	closure, ok := v.(*Closure)
	if !ok {
		return fmt.Errorf("%w: CALL target is %s, not a closure", ErrTypeMismatch, v.Type())
	}

	n := len(closure.Params)
	if len(th.stack) < n {
		return fmt.Errorf("%w: %s needs %d argument(s), only %d on the stack", ErrStackUnderflow, closure.Name, n, len(th.stack))
	}
	stackStart := len(th.stack) - n

	fr := newFrame(closure, stackStart, false)
	for i, name := range closure.Params {
		fr.locals.Put(name, th.stack[stackStart+i])
	}
	th.stack = th.stack[:stackStart]
	th.callStack = append(th.callStack, fr)
	return nil
}

// doReturn implements the RETURN protocol of §4.3. It reports halt=true
// when popping the frame empties the call stack.
func (th *Thread) doReturn() (bool, error) {
	v, err := th.pop()
	if err != nil {
		return false, err
	}

	n := len(th.callStack) - 1
	fr := th.callStack[n]
	th.callStack = th.callStack[:n]
	if len(th.callStack) == 0 {
		return true, nil
	}

	th.stack = th.stack[:fr.stackStart]
	th.push(v)
	return false, nil
}
