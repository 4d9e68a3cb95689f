package machine_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/symlang/symvm/lang/ast"
	"github.com/symlang/symvm/lang/compiler"
	"github.com/symlang/symvm/lang/machine"
	"github.com/symlang/symvm/lang/token"
)

func runProgram(t *testing.T, prog *ast.Program) (string, error) {
	t.Helper()
	out, err := compiler.Compile(prog)
	require.NoError(t, err)

	var stdout bytes.Buffer
	th := machine.NewThread()
	th.Stdout = &stdout
	runErr := th.Run(out)
	return stdout.String(), runErr
}

func TestArithmeticAndPrint(t *testing.T) {
	prog := &ast.Program{Stmts: []ast.Node{
		&ast.Push{Value: int64(2)},
		&ast.Push{Value: int64(3)},
		&ast.Add{},
		&ast.Print{},
	}}
	stdout, err := runProgram(t, prog)
	require.NoError(t, err)
	require.Equal(t, "5", stdout)
}

func TestConditionalWithElseTakesElseBranch(t *testing.T) {
	prog := &ast.Program{Stmts: []ast.Node{
		&ast.Push{Value: int64(0)},
		&ast.Conditional{
			Then: &ast.Program{Stmts: []ast.Node{&ast.Push{Value: "t"}, &ast.Print{}}},
			Else: &ast.Program{Stmts: []ast.Node{&ast.Push{Value: "f"}, &ast.Print{}}},
		},
	}}
	stdout, err := runProgram(t, prog)
	require.NoError(t, err)
	require.Equal(t, "f", stdout)
}

func TestConditionalWithElseTakesThenBranch(t *testing.T) {
	prog := &ast.Program{Stmts: []ast.Node{
		&ast.Push{Value: int64(1)},
		&ast.Conditional{
			Then: &ast.Program{Stmts: []ast.Node{&ast.Push{Value: "t"}, &ast.Print{}}},
			Else: &ast.Program{Stmts: []ast.Node{&ast.Push{Value: "f"}, &ast.Print{}}},
		},
	}}
	stdout, err := runProgram(t, prog)
	require.NoError(t, err)
	require.Equal(t, "t", stdout)
}

func TestWhileLoopCounting(t *testing.T) {
	prog := &ast.Program{Stmts: []ast.Node{
		&ast.Push{Value: int64(0)},
		&ast.Store{Name: "i"},
		&ast.WhileLoop{
			Cond: &ast.Program{Stmts: []ast.Node{&ast.Load{Name: "i"}, &ast.Push{Value: int64(3)}, &ast.Lt{}}},
			Body: &ast.Program{Stmts: []ast.Node{
				&ast.Load{Name: "i"}, &ast.Print{},
				&ast.Load{Name: "i"}, &ast.Push{Value: int64(1)}, &ast.Add{}, &ast.Store{Name: "i"},
			}},
		},
	}}
	stdout, err := runProgram(t, prog)
	require.NoError(t, err)
	require.Equal(t, "012", stdout)
}

func TestFunctionCallDouble(t *testing.T) {
	prog := &ast.Program{Stmts: []ast.Node{
		&ast.FunctionDef{
			Name:   "double",
			Params: []string{"x"},
			Body: &ast.Program{Stmts: []ast.Node{
				&ast.Load{Name: "x"}, &ast.Push{Value: int64(2)}, &ast.Mul{},
			}},
		},
		&ast.Push{Value: int64(21)},
		&ast.FunctionRef{Name: "double"},
		&ast.FunctionCall{},
		&ast.Print{},
	}}
	stdout, err := runProgram(t, prog)
	require.NoError(t, err)
	require.Equal(t, "42", stdout)
}

func TestListBuildAndLength(t *testing.T) {
	prog := &ast.Program{Stmts: []ast.Node{
		&ast.ListLiteral{Items: &ast.Program{Stmts: []ast.Node{
			&ast.Push{Value: int64(1)}, &ast.Push{Value: int64(2)}, &ast.Push{Value: int64(3)},
		}}},
		&ast.Length{},
		&ast.Print{},
	}}
	stdout, err := runProgram(t, prog)
	require.NoError(t, err)
	require.Equal(t, "3", stdout)
}

func TestDivisionByZeroRaisesArithmeticError(t *testing.T) {
	prog := &ast.Program{Stmts: []ast.Node{
		&ast.Push{Base: ast.Base{}, Value: int64(1)},
		&ast.Push{Value: int64(0)},
		&ast.Div{},
	}}
	_, err := runProgram(t, prog)
	require.Error(t, err)
	var evalErr *machine.EvalError
	require.ErrorAs(t, err, &evalErr)
	require.Equal(t, machine.ArithmeticErr, evalErr.Kind)
}

func TestLoadUnboundNameRaisesNameUndefined(t *testing.T) {
	prog := &ast.Program{Stmts: []ast.Node{&ast.Load{Name: "nope"}}}
	_, err := runProgram(t, prog)
	require.Error(t, err)
	var evalErr *machine.EvalError
	require.ErrorAs(t, err, &evalErr)
	require.Equal(t, machine.NameUndefined, evalErr.Kind)
}

func TestCallWithTooFewArgumentsRaisesStackUnderflow(t *testing.T) {
	prog := &ast.Program{Stmts: []ast.Node{
		&ast.FunctionDef{Name: "f", Params: []string{"a", "b"}, Body: &ast.Program{Stmts: []ast.Node{
			&ast.Load{Name: "a"},
		}}},
		&ast.Push{Value: int64(1)},
		&ast.FunctionRef{Name: "f"},
		&ast.FunctionCall{},
	}}
	_, err := runProgram(t, prog)
	require.Error(t, err)
	var evalErr *machine.EvalError
	require.ErrorAs(t, err, &evalErr)
	require.Equal(t, machine.StackUnderflow, evalErr.Kind)
}

func TestGetItemOutOfRangeRaisesKeyOrIndex(t *testing.T) {
	prog := &ast.Program{Stmts: []ast.Node{
		&ast.ListLiteral{Items: &ast.Program{Stmts: []ast.Node{&ast.Push{Value: int64(1)}}}},
		&ast.Push{Value: int64(5)},
		&ast.GetItem{},
	}}
	_, err := runProgram(t, prog)
	require.Error(t, err)
	var evalErr *machine.EvalError
	require.ErrorAs(t, err, &evalErr)
	require.Equal(t, machine.KeyOrIndex, evalErr.Kind)
}

func TestAddListNonListAppends(t *testing.T) {
	prog := &ast.Program{Stmts: []ast.Node{
		&ast.ListLiteral{Items: &ast.Program{Stmts: []ast.Node{&ast.Push{Value: int64(1)}}}},
		&ast.Push{Value: int64(2)},
		&ast.Add{},
		&ast.Length{},
		&ast.Print{},
	}}
	stdout, err := runProgram(t, prog)
	require.NoError(t, err)
	require.Equal(t, "2", stdout)
}

func TestAddStringIntegerConcatenatesTextualForm(t *testing.T) {
	prog := &ast.Program{Stmts: []ast.Node{
		&ast.Push{Value: "n="},
		&ast.Push{Value: int64(42)},
		&ast.Add{},
		&ast.Print{},
	}}
	stdout, err := runProgram(t, prog)
	require.NoError(t, err)
	require.Equal(t, "n=42", stdout)
}

func TestBuildMapOverwritesDuplicateKeys(t *testing.T) {
	prog := &ast.Program{Stmts: []ast.Node{
		&ast.MapLiteral{Pairs: []ast.MapPair{
			{Key: int64(1), Value: &ast.Program{Stmts: []ast.Node{&ast.Push{Value: "first"}}}},
			{Key: int64(1), Value: &ast.Program{Stmts: []ast.Node{&ast.Push{Value: "second"}}}},
		}},
		&ast.Push{Value: int64(1)},
		&ast.GetItem{},
		&ast.Print{},
	}}
	stdout, err := runProgram(t, prog)
	require.NoError(t, err)
	require.Equal(t, "second", stdout)
}

func TestSetItemMutatesInPlaceAndReturnsContainer(t *testing.T) {
	prog := &ast.Program{Stmts: []ast.Node{
		&ast.ListLiteral{Items: &ast.Program{Stmts: []ast.Node{&ast.Push{Value: int64(1)}, &ast.Push{Value: int64(2)}}}},
		&ast.Push{Value: int64(0)},
		&ast.Push{Value: int64(9)},
		&ast.SetItem{},
		&ast.Push{Value: int64(0)},
		&ast.GetItem{},
		&ast.Print{},
	}}
	stdout, err := runProgram(t, prog)
	require.NoError(t, err)
	require.Equal(t, "9", stdout)
}

func TestRotMovesTopToBottom(t *testing.T) {
	prog := &ast.Program{Stmts: []ast.Node{
		&ast.Push{Value: int64(1)}, // a
		&ast.Push{Value: int64(2)}, // b
		&ast.Push{Value: int64(3)}, // c
		&ast.Rot{},                 // a b c -> c a b
		&ast.Print{},               // prints top: b
	}}
	stdout, err := runProgram(t, prog)
	require.NoError(t, err)
	require.Equal(t, "2", stdout)
}

func TestIntegerDivisionTruncatesTowardZero(t *testing.T) {
	prog := &ast.Program{Stmts: []ast.Node{
		&ast.Push{Value: int64(-7)},
		&ast.Push{Value: int64(2)},
		&ast.Div{},
		&ast.Print{},
	}}
	stdout, err := runProgram(t, prog)
	require.NoError(t, err)
	require.Equal(t, "-3", stdout)
}

func TestInputReadsOneLineStrippingNewline(t *testing.T) {
	prog := &ast.Program{Stmts: []ast.Node{
		&ast.Input{},
		&ast.Print{},
	}}
	out, err := compiler.Compile(prog)
	require.NoError(t, err)

	var stdout bytes.Buffer
	th := machine.NewThread()
	th.Stdout = &stdout
	th.Stdin = strings.NewReader("hello\n")
	require.NoError(t, th.Run(out))
	require.Equal(t, "hello", stdout.String())
}

func TestErrorReportIncludesLineAndColumn(t *testing.T) {
	prog := &ast.Program{Stmts: []ast.Node{
		&ast.Push{Base: ast.Base{Pos: 0}, Value: int64(1)},
		&ast.Push{Value: int64(0)},
		&ast.Div{Base: ast.Base{Pos: token.MakePos(3, 7)}},
	}}
	_, err := runProgram(t, prog)
	require.Error(t, err)
	require.Contains(t, err.Error(), "ArithmeticError")
	require.Contains(t, err.Error(), "(at 3:7)")
}

func TestMaxStepsAbortsRunawayLoop(t *testing.T) {
	prog := &ast.Program{Stmts: []ast.Node{
		&ast.Push{Value: int64(1)},
		&ast.Store{Name: "i"},
		&ast.WhileLoop{
			Cond: &ast.Program{Stmts: []ast.Node{&ast.Push{Value: int64(1)}}},
			Body: &ast.Program{Stmts: []ast.Node{
				&ast.Load{Name: "i"}, &ast.Push{Value: int64(1)}, &ast.Add{}, &ast.Store{Name: "i"},
			}},
		},
	}}
	out, err := compiler.Compile(prog)
	require.NoError(t, err)

	th := machine.NewThread()
	th.MaxSteps = 50
	runErr := th.Run(out)
	require.Error(t, runErr)
	var evalErr *machine.EvalError
	require.ErrorAs(t, runErr, &evalErr)
	require.Equal(t, machine.StepLimitErr, evalErr.Kind)
}

func TestMapEqualityIsStructural(t *testing.T) {
	mapLit := func(v string) ast.Node {
		return &ast.MapLiteral{Pairs: []ast.MapPair{
			{Key: "k", Value: &ast.Program{Stmts: []ast.Node{&ast.Push{Value: v}}}},
		}}
	}
	prog := &ast.Program{Stmts: []ast.Node{
		mapLit("v"), mapLit("v"), &ast.Eq{}, &ast.Print{},
	}}
	stdout, err := runProgram(t, prog)
	require.NoError(t, err)
	require.Equal(t, "1", stdout)
}

func TestMapStringSortsEntries(t *testing.T) {
	prog := &ast.Program{Stmts: []ast.Node{
		&ast.MapLiteral{Pairs: []ast.MapPair{
			{Key: "b", Value: &ast.Program{Stmts: []ast.Node{&ast.Push{Value: int64(2)}}}},
			{Key: "a", Value: &ast.Program{Stmts: []ast.Node{&ast.Push{Value: int64(1)}}}},
		}},
		&ast.Print{},
	}}
	stdout, err := runProgram(t, prog)
	require.NoError(t, err)
	require.Equal(t, "{a: 1, b: 2}", stdout)
}

func TestDebuggerBreaksOnDbgAndResumes(t *testing.T) {
	prog := &ast.Program{Stmts: []ast.Node{
		&ast.Push{Value: int64(1)},
		&ast.DebugBreak{},
		&ast.Print{},
	}}
	out, err := compiler.Compile(prog)
	require.NoError(t, err)

	var stdout, stderr bytes.Buffer
	th := machine.NewThread()
	th.Stdout = &stdout
	th.Stderr = &stderr
	th.Stdin = strings.NewReader("stack\nc\n")
	th.Debug = true
	require.NoError(t, th.Run(out))
	require.Equal(t, "1", stdout.String())
	require.Contains(t, stderr.String(), "breakpoint")
	require.Contains(t, stderr.String(), "operand stack")
}
