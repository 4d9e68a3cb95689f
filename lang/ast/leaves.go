package ast

import "fmt"

// The types below are all zero-field leaves: their operands come purely
// from the operand stack at run time, so a node carries nothing but its
// source position. They are kept as distinct types (rather than one node
// with a kind enum) so the compiler's emission switch and any Visitor stay
// exhaustive and self-documenting, matching the one-class-per-opcode shape
// of the original AST.

type (
	// Add concatenates lists/strings or sums numbers, per the overload
	// rules of the instruction set.
	Add struct{ Base }
	// Sub, Mul, Div, Mod are the remaining binary arithmetic operators.
	Sub struct{ Base }
	Mul struct{ Base }
	Div struct{ Base }
	Mod struct{ Base }

	// Eq, Neq, Lt, Gt, Lte, Gte compare the top two stack values.
	Eq  struct{ Base }
	Neq struct{ Base }
	Lt  struct{ Base }
	Gt  struct{ Base }
	Lte struct{ Base }
	Gte struct{ Base }

	// And, Or combine the truthiness of the top two stack values; Not
	// inverts the truthiness of the top one.
	And struct{ Base }
	Or  struct{ Base }
	Not struct{ Base }

	// Dup, Swap, Drop, Rot manipulate the operand stack directly without
	// regard to value kind.
	Dup  struct{ Base }
	Swap struct{ Base }
	Drop struct{ Base }
	Rot  struct{ Base }

	// GetItem, SetItem, Length operate on a list or map already on the
	// stack.
	GetItem struct{ Base }
	SetItem struct{ Base }
	Length  struct{ Base }

	// FunctionCall invokes the Closure already on top of the stack; its
	// arguments are below it, pushed by preceding code.
	FunctionCall struct{ Base }

	// Input, Print, FfiCall, DebugBreak are the remaining I/O and
	// debugging leaves.
	Input      struct{ Base }
	Print      struct{ Base }
	FfiCall    struct{ Base }
	DebugBreak struct{ Base }
)

func (n *Add) Format(f fmt.State, verb rune) { format(f, verb, n, "add") }
func (n *Sub) Format(f fmt.State, verb rune) { format(f, verb, n, "sub") }
func (n *Mul) Format(f fmt.State, verb rune) { format(f, verb, n, "mul") }
func (n *Div) Format(f fmt.State, verb rune) { format(f, verb, n, "div") }
func (n *Mod) Format(f fmt.State, verb rune) { format(f, verb, n, "mod") }
func (n *Eq) Format(f fmt.State, verb rune) { format(f, verb, n, "eq") }
func (n *Neq) Format(f fmt.State, verb rune) { format(f, verb, n, "neq") }
func (n *Lt) Format(f fmt.State, verb rune) { format(f, verb, n, "lt") }
func (n *Gt) Format(f fmt.State, verb rune) { format(f, verb, n, "gt") }
func (n *Lte) Format(f fmt.State, verb rune) { format(f, verb, n, "lte") }
func (n *Gte) Format(f fmt.State, verb rune) { format(f, verb, n, "gte") }
func (n *And) Format(f fmt.State, verb rune) { format(f, verb, n, "and") }
func (n *Or) Format(f fmt.State, verb rune) { format(f, verb, n, "or") }
func (n *Not) Format(f fmt.State, verb rune) { format(f, verb, n, "not") }
func (n *Dup) Format(f fmt.State, verb rune) { format(f, verb, n, "dup") }
func (n *Swap) Format(f fmt.State, verb rune) { format(f, verb, n, "swap") }
func (n *Drop) Format(f fmt.State, verb rune) { format(f, verb, n, "drop") }
func (n *Rot) Format(f fmt.State, verb rune) { format(f, verb, n, "rot") }

func (n *GetItem) Format(f fmt.State, verb rune) { format(f, verb, n, "get_item") }
func (n *SetItem) Format(f fmt.State, verb rune) { format(f, verb, n, "set_item") }
func (n *Length) Format(f fmt.State, verb rune) { format(f, verb, n, "length") }

func (n *FunctionCall) Format(f fmt.State, verb rune) { format(f, verb, n, "call") }

func (n *Input) Format(f fmt.State, verb rune) { format(f, verb, n, "input") }
func (n *Print) Format(f fmt.State, verb rune) { format(f, verb, n, "print") }
func (n *FfiCall) Format(f fmt.State, verb rune) { format(f, verb, n, "ffi_call") }
func (n *DebugBreak) Format(f fmt.State, verb rune) { format(f, verb, n, "dbg") }
