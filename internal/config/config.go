// Package config loads the runtime knobs of the engine from the
// environment, the way the teacher's go.mod already depends on
// github.com/caarlos0/env/v6 to do (pulled in transitively through
// github.com/mna/mainer; this package is its first direct use).
package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"
)

// Config holds the VM knobs that make sense to set once per process rather
// than thread through every call: the foreign-function library search
// path and an optional step budget used to bound a runaway program.
type Config struct {
	// FFISearchPath lists directories, in priority order, searched for a
	// bare library name passed to FFI_CALL (machine.Thread.FFISearchPath).
	FFISearchPath []string `env:"SYM_FFI_PATH" envSeparator:":"`

	// MaxSteps caps the number of instructions a single Run may execute
	// before it is aborted as a runaway program; zero means unbounded.
	MaxSteps int `env:"SYM_MAX_STEPS" envDefault:"0"`

	// Debug starts the VM with the interactive DBG breakpoint hook enabled.
	Debug bool `env:"SYM_DEBUG" envDefault:"false"`
}

// Load reads a Config from the process environment.
func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("loading config: %w", err)
	}
	return c, nil
}
