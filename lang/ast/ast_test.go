package ast_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/symlang/symvm/lang/ast"
)

func TestWalkVisitsEveryNode(t *testing.T) {
	prog := &ast.Program{Stmts: []ast.Node{
		&ast.Push{Value: int64(2)},
		&ast.Push{Value: int64(3)},
		&ast.Add{},
		&ast.Conditional{
			Then: &ast.Program{Stmts: []ast.Node{&ast.Push{Value: "t"}, &ast.Print{}}},
			Else: &ast.Program{Stmts: []ast.Node{&ast.Push{Value: "f"}, &ast.Print{}}},
		},
	}}

	var entered, exited int
	var count ast.VisitorFunc
	count = func(n ast.Node, dir ast.VisitDirection) ast.Visitor {
		if dir == ast.VisitEnter {
			entered++
		} else {
			exited++
		}
		return count // keep walking: every node gets both an enter and an exit
	}
	ast.Walk(count, prog)

	require.Greater(t, entered, 0)
	require.Equal(t, entered, exited)
}

func TestWalkSkipsChildrenWhenVisitorReturnsNil(t *testing.T) {
	prog := &ast.Program{Stmts: []ast.Node{
		&ast.WhileLoop{
			Cond: &ast.Program{Stmts: []ast.Node{&ast.Load{Name: "i"}}},
			Body: &ast.Program{Stmts: []ast.Node{&ast.Print{}}},
		},
	}}

	var visited []string
	var record ast.VisitorFunc
	record = func(n ast.Node, dir ast.VisitDirection) ast.Visitor {
		if dir == ast.VisitExit {
			return nil
		}
		visited = append(visited, fmt.Sprintf("%v", n))
		if _, ok := n.(*ast.WhileLoop); ok {
			return nil // stop here: Cond and Body must not be visited
		}
		return record
	}
	ast.Walk(record, prog)

	require.Contains(t, visited, "while")
	require.Len(t, visited, 2) // program + while, nothing beneath the while
}

func TestFormatLabels(t *testing.T) {
	require.Equal(t, "push 5", fmt.Sprintf("%v", &ast.Push{Value: int64(5)}))
	require.Equal(t, "store x", fmt.Sprintf("%v", &ast.Store{Name: "x"}))
	require.Equal(t, "load x", fmt.Sprintf("%v", &ast.Load{Name: "x"}))
	require.Equal(t, "add", fmt.Sprintf("%v", &ast.Add{}))
	require.Equal(t, "funcref double", fmt.Sprintf("%v", &ast.FunctionRef{Name: "double"}))
}

func TestEmptyProgramSpanCollapses(t *testing.T) {
	prog := &ast.Program{}
	start, end := prog.Span()
	require.Equal(t, start, end) // empty program: span collapses to its own (zero) position
}
