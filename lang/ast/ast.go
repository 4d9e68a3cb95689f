// Package ast defines the abstract syntax tree the Sym compiler consumes.
// A Program is a flat sequence of statements operating on an implicit
// operand stack; there is no expression grammar distinct from statements
// (a "push" is as much a statement as a "while loop").
//
// Surface syntax and parsing are out of scope for this package: something
// external builds one of these trees (see lang/front for a minimal stand-in)
// and hands it to lang/compiler.
package ast

import (
	"fmt"
	"strings"

	"github.com/symlang/symvm/lang/token"
)

// Node represents any node in the AST.
type Node interface {
	// Every Node implements fmt.Formatter so it can print a short label
	// describing itself; only the 'v' and 's' verbs are supported.
	fmt.Formatter

	// Span reports the start and end position of the node. Leaf nodes
	// have start == end.
	Span() (start, end token.Pos)

	// Walk visits the node's children, if any, to implement the Visitor
	// pattern; see Walk in visitor.go.
	Walk(v Visitor)
}

// Base is embedded by every node to carry its source position.
type Base struct {
	Pos token.Pos
}

// Span implements Node for any type embedding Base that has no children
// spanning further than its own position (i.e. every leaf node).
func (b Base) Span() (start, end token.Pos) { return b.Pos, b.Pos }

// Walk implements Node for leaf nodes, which have nothing to visit.
func (b Base) Walk(_ Visitor) {}

func format(f fmt.State, verb rune, n Node, label string) {
	if verb != 'v' && verb != 's' {
		fmt.Fprintf(f, "%%!%c(%T)", verb, n)
		return
	}
	label = strings.ReplaceAll(label, "\n", "⏎")
	fmt.Fprint(f, label)
}

// Program is a sequence of statements executed top to bottom. It is the
// root node of a parsed chunk and also the body of every nested block
// (conditional branches, loop condition/body, list/map literal bodies,
// function bodies).
type Program struct {
	Base
	Stmts []Node
}

func (n *Program) Format(f fmt.State, verb rune) { format(f, verb, n, fmt.Sprintf("program {%d stmts}", len(n.Stmts))) }
func (n *Program) Span() (start, end token.Pos) {
	if len(n.Stmts) == 0 {
		return n.Pos, n.Pos
	}
	start, _ = n.Stmts[0].Span()
	_, end = n.Stmts[len(n.Stmts)-1].Span()
	return start, end
}
func (n *Program) Walk(v Visitor) {
	for _, s := range n.Stmts {
		Walk(v, s)
	}
}

// ImportStmt names a file to splice into the program in place of this
// node. lang/front.Flatten resolves and removes every ImportStmt before
// the tree reaches the compiler, which never sees one (§1 Non-goals:
// import resolution is an external collaborator).
type ImportStmt struct {
	Base
	Path string
}

func (n *ImportStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "import "+n.Path) }
