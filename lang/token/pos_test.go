package token_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/symlang/symvm/lang/token"
)

func TestMakePosRoundTrip(t *testing.T) {
	cases := []struct {
		line, col int
	}{
		{1, 1},
		{12, 34},
		{token.MaxLine, token.MaxCol},
	}
	for _, c := range cases {
		p := token.MakePos(c.line, c.col)
		require.False(t, p.Unknown())
		gotLine, gotCol := p.LineCol()
		require.Equal(t, c.line, gotLine)
		require.Equal(t, c.col, gotCol)
	}
}

func TestMakePosUnknown(t *testing.T) {
	require.True(t, token.Pos(0).Unknown())
	require.True(t, token.MakePos(0, 5).Unknown())
	require.True(t, token.MakePos(5, 0).Unknown())
	require.True(t, token.MakePos(-1, 5).Unknown())
}

func TestPosString(t *testing.T) {
	require.Equal(t, "?:?", token.Pos(0).String())
	require.Equal(t, "3:7", token.MakePos(3, 7).String())
}
