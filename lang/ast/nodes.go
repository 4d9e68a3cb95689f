package ast

import "fmt"

// Push materializes a literal constant onto the operand stack. Value holds
// an int64, a float64, or a string. The compiler does not check it; any
// other value fails with a TypeMismatch when the PUSH executes.
type Push struct {
	Base
	Value any
}

func (n *Push) Format(f fmt.State, verb rune) { format(f, verb, n, fmt.Sprintf("push %v", n.Value)) }

// Store pops the top of the stack and binds it to Name: in the main
// program this writes a global, anywhere else it writes a frame-local
// (see lang/machine's scope rule).
type Store struct {
	Base
	Name string
}

func (n *Store) Format(f fmt.State, verb rune) { format(f, verb, n, "store "+n.Name) }

// Load pushes the value bound to Name, searching locals before globals.
type Load struct {
	Base
	Name string
}

func (n *Load) Format(f fmt.State, verb rune) { format(f, verb, n, "load "+n.Name) }

// Conditional computes no condition itself: the condition value must
// already be on top of the stack from preceding code, and the conditional
// pops it. Else is nil when there is no else branch.
type Conditional struct {
	Base
	Then *Program
	Else *Program
}

func (n *Conditional) Format(f fmt.State, verb rune) {
	lbl := "conditional"
	if n.Else != nil {
		lbl += " (with else)"
	}
	format(f, verb, n, lbl)
}
func (n *Conditional) Walk(v Visitor) {
	Walk(v, n.Then)
	if n.Else != nil {
		Walk(v, n.Else)
	}
}

// WhileLoop re-evaluates Cond before every iteration of Body; the loop
// continues while Cond leaves a truthy value on top of the stack.
type WhileLoop struct {
	Base
	Cond *Program
	Body *Program
}

func (n *WhileLoop) Format(f fmt.State, verb rune) { format(f, verb, n, "while") }
func (n *WhileLoop) Walk(v Visitor) {
	Walk(v, n.Cond)
	Walk(v, n.Body)
}

// ListLiteral evaluates Items (which leaves its statement count worth of
// values on the stack) and builds a list from them.
type ListLiteral struct {
	Base
	Items *Program
}

func (n *ListLiteral) Format(f fmt.State, verb rune) {
	format(f, verb, n, fmt.Sprintf("list literal {%d items}", len(n.Items.Stmts)))
}
func (n *ListLiteral) Walk(v Visitor) { Walk(v, n.Items) }

// MapPair is one key/value-program entry of a MapLiteral. Key is a
// compile-time constant (int64, float64, or string); Value is evaluated
// at run time.
type MapPair struct {
	Key   any
	Value *Program
}

// MapLiteral builds a map from a fixed sequence of constant-key,
// computed-value pairs.
type MapLiteral struct {
	Base
	Pairs []MapPair
}

func (n *MapLiteral) Format(f fmt.State, verb rune) {
	format(f, verb, n, fmt.Sprintf("map literal {%d pairs}", len(n.Pairs)))
}
func (n *MapLiteral) Walk(v Visitor) {
	for _, p := range n.Pairs {
		Walk(v, p.Value)
	}
}

// FunctionDef declares a named function. The compiler emits it into its
// own chunk during its first pass over the top-level program; it produces
// no code at the point it appears in Body.
type FunctionDef struct {
	Base
	Name   string
	Params []string
	Body   *Program
}

func (n *FunctionDef) Format(f fmt.State, verb rune) {
	format(f, verb, n, fmt.Sprintf("func %s(%v)", n.Name, n.Params))
}
func (n *FunctionDef) Walk(v Visitor) { Walk(v, n.Body) }

// FunctionRef pushes a Closure referencing the named function's chunk.
type FunctionRef struct {
	Base
	Name string
}

func (n *FunctionRef) Format(f fmt.State, verb rune) { format(f, verb, n, "funcref "+n.Name) }
