// Package driver wires lang/front, lang/compiler and lang/machine into the
// load-flatten-compile-run pipeline the CLI exposes, and formats a
// *machine.EvalError the way the original reports a runtime failure
// (original_source/src/sym/vm.py:generate_error_report).
package driver

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/symlang/symvm/internal/config"
	"github.com/symlang/symvm/lang/compiler"
	"github.com/symlang/symvm/lang/front"
	"github.com/symlang/symvm/lang/machine"
)

// Options configures one Run invocation.
type Options struct {
	Debug         bool
	Disassemble   bool
	MaxSteps      int
	FFISearchPath []string
}

// OptionsFromConfig builds Options from a loaded config.Config, letting a
// caller override Debug (e.g. from a CLI flag) independently of the
// environment.
func OptionsFromConfig(c config.Config, debug bool) Options {
	return Options{
		Debug:         debug || c.Debug,
		MaxSteps:      c.MaxSteps,
		FFISearchPath: c.FFISearchPath,
	}
}

// Run loads path (a .symasm source file), flattens its imports, compiles
// the result, and either executes it or prints its disassembly, per opts.
// It writes ordinary program output to stdout and a formatted error report
// to stderr, returning a non-nil error only to signal the process exit
// code; the report itself is already on stderr by the time it returns.
func Run(path string, stdout, stderr io.Writer, stdin io.Reader, opts Options) error {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "sym: %s\n", err)
		return err
	}

	prog, err := front.Parse(src)
	if err != nil {
		fmt.Fprintf(stderr, "sym: %s\n", err)
		return err
	}

	prog, err = front.Flatten(prog, filepath.Dir(path))
	if err != nil {
		fmt.Fprintf(stderr, "sym: %s\n", err)
		return err
	}

	compiled, err := compiler.Compile(prog)
	if err != nil {
		fmt.Fprintf(stderr, "sym: %s\n", err)
		return err
	}

	if opts.Disassemble {
		fmt.Fprint(stdout, compiler.Disassemble(compiled))
		return nil
	}

	th := machine.NewThread()
	th.Stdout = stdout
	th.Stderr = stderr
	th.Stdin = stdin
	th.Debug = opts.Debug
	th.MaxSteps = opts.MaxSteps
	th.FFISearchPath = opts.FFISearchPath

	if err := th.Run(compiled); err != nil {
		fmt.Fprintln(stderr, FormatError(err))
		return err
	}
	return nil
}

// FormatError renders a runtime failure the way the original's
// generate_error_report does: the error kind and message, the precise
// source position, and the call stack from the innermost frame out.
func FormatError(err error) string {
	ee, ok := err.(*machine.EvalError)
	if !ok {
		return fmt.Sprintf("sym: %s", err)
	}
	return fmt.Sprintf("sym: %s", ee.Error())
}
