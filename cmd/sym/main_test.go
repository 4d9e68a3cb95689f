package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateRequiresExactlyOneFile(t *testing.T) {
	c := &Cmd{}
	c.SetArgs(nil)
	require.Error(t, c.Validate())

	c.SetArgs([]string{"a.symasm", "b.symasm"})
	require.Error(t, c.Validate())

	c.SetArgs([]string{"a.symasm"})
	require.NoError(t, c.Validate())
}

func TestValidateAllowsHelpAndVersionWithNoFile(t *testing.T) {
	c := &Cmd{Help: true}
	c.SetArgs(nil)
	require.NoError(t, c.Validate())

	c = &Cmd{Version: true}
	c.SetArgs(nil)
	require.NoError(t, c.Validate())
}
