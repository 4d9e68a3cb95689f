package config_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/symlang/symvm/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	c, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, 0, c.MaxSteps)
	require.False(t, c.Debug)
	require.Empty(t, c.FFISearchPath)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SYM_MAX_STEPS", "1000")
	t.Setenv("SYM_DEBUG", "true")
	t.Setenv("SYM_FFI_PATH", "/usr/lib:/opt/lib")

	c, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, 1000, c.MaxSteps)
	require.True(t, c.Debug)
	require.Equal(t, []string{"/usr/lib", "/opt/lib"}, c.FFISearchPath)
}
