package front_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/symlang/symvm/lang/ast"
	"github.com/symlang/symvm/lang/compiler"
	"github.com/symlang/symvm/lang/front"
	"github.com/symlang/symvm/lang/machine"
)

func TestParseArithmeticAndPrint(t *testing.T) {
	prog, err := front.Parse([]byte(`
		push 2
		push 3
		add
		print
	`))
	require.NoError(t, err)
	require.Len(t, prog.Stmts, 4)
	require.IsType(t, &ast.Push{}, prog.Stmts[0])
	require.IsType(t, &ast.Add{}, prog.Stmts[2])
	require.IsType(t, &ast.Print{}, prog.Stmts[3])
}

func TestParseIfElse(t *testing.T) {
	prog, err := front.Parse([]byte(`
		push 0
		if
			push "t"
			print
		else
			push "f"
			print
		end
	`))
	require.NoError(t, err)
	require.Len(t, prog.Stmts, 2)
	cond, ok := prog.Stmts[1].(*ast.Conditional)
	require.True(t, ok)
	require.Len(t, cond.Then.Stmts, 2)
	require.NotNil(t, cond.Else)
	require.Len(t, cond.Else.Stmts, 2)
}

func TestParseWhileDoEnd(t *testing.T) {
	prog, err := front.Parse([]byte(`
		push 0
		store i
		while
			load i
			push 3
			lt
		do
			load i
			print
			load i
			push 1
			add
			store i
		end
	`))
	require.NoError(t, err)
	loop, ok := prog.Stmts[2].(*ast.WhileLoop)
	require.True(t, ok)
	require.Len(t, loop.Cond.Stmts, 3)
	require.Len(t, loop.Body.Stmts, 6)
}

func TestParseFuncDefAndCall(t *testing.T) {
	prog, err := front.Parse([]byte(`
		func double x
			load x
			push 2
			mul
		end
		push 21
		funcref double
		call
		print
	`))
	require.NoError(t, err)
	fd, ok := prog.Stmts[0].(*ast.FunctionDef)
	require.True(t, ok)
	require.Equal(t, "double", fd.Name)
	require.Equal(t, []string{"x"}, fd.Params)
}

func TestParseListAndMapLiterals(t *testing.T) {
	prog, err := front.Parse([]byte(`
		list
			push 1
			push 2
			push 3
		end
		map
			key 1
				push "a"
			key 2
				push "b"
		end
	`))
	require.NoError(t, err)
	list, ok := prog.Stmts[0].(*ast.ListLiteral)
	require.True(t, ok)
	require.Len(t, list.Items.Stmts, 3)

	m, ok := prog.Stmts[1].(*ast.MapLiteral)
	require.True(t, ok)
	require.Len(t, m.Pairs, 2)
	require.Equal(t, int64(1), m.Pairs[0].Key)
}

func TestParseEndToEndThroughCompilerAndMachine(t *testing.T) {
	prog, err := front.Parse([]byte(`
		func double x
			load x
			push 2
			mul
		end
		push 21
		funcref double
		call
		print
	`))
	require.NoError(t, err)

	compiled, err := compiler.Compile(prog)
	require.NoError(t, err)

	var stdout bytes.Buffer
	th := machine.NewThread()
	th.Stdout = &stdout
	require.NoError(t, th.Run(compiled))
	require.Equal(t, "42", stdout.String())
}

func TestParseRejectsUnknownStatement(t *testing.T) {
	_, err := front.Parse([]byte("frobnicate\n"))
	require.Error(t, err)
}

func TestParseRejectsUnterminatedBlock(t *testing.T) {
	_, err := front.Parse([]byte("if\npush 1\n"))
	require.Error(t, err)
}
