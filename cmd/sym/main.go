package main

import (
	"fmt"
	"os"

	"github.com/mna/mainer"
	"github.com/symlang/symvm/internal/config"
	"github.com/symlang/symvm/internal/driver"
)

var (
	// placeholder values, replaced on build
	version   = "{v}" // must be N.N[.N]
	buildDate = "{d}" // must be YYYY-mm-DD
)

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] <file>
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] <file>
       %[1]s -h|--help
       %[1]s -v|--version

Compiler and virtual machine for the Sym programming language.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       --debug                   Enable the interactive debugger.
       --disassemble             Print the compiled program instead of
                                 running it.

Runtime limits with no natural flag form are read from the environment:
       SYM_MAX_STEPS             Abort after this many instructions.
       SYM_FFI_PATH              Colon-separated FFI_CALL search path.
`, binName)
)

const binName = "sym"

// Cmd is the sym CLI's flag set, parsed by github.com/mna/mainer the way
// the teacher's own maincmd.Cmd is.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help        bool `flag:"h,help"`
	Version     bool `flag:"v,version"`
	Debug       bool `flag:"debug"`
	Disassemble bool `flag:"disassemble"`

	args []string
}

func (c *Cmd) SetArgs(args []string) { c.args = args }
func (c *Cmd) SetFlags(_ map[string]bool) {}

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) != 1 {
		return fmt.Errorf("exactly one source file is required")
	}
	return nil
}

func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{EnvVars: false, EnvPrefix: binName + "_"}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "sym: %s\n", err)
		return mainer.Failure
	}

	opts := driver.OptionsFromConfig(cfg, c.Debug)
	opts.Disassemble = c.Disassemble

	if err := driver.Run(c.args[0], stdio.Stdout, stdio.Stderr, stdio.Stdin, opts); err != nil {
		return mainer.Failure
	}
	if !c.Disassemble {
		// PRINT never emits a newline of its own; leave the terminal on a
		// fresh line once the program is done.
		fmt.Fprintln(stdio.Stdout)
	}
	return mainer.Success
}

func main() {
	c := Cmd{BuildVersion: version, BuildDate: buildDate}
	os.Exit(int(c.Main(os.Args, mainer.CurrentStdio())))
}
