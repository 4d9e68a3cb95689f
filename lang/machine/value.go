// Package machine implements the virtual machine that executes the
// bytecode-compiled form of Sym source: its value model, the fetch-
// decode-dispatch loop, the call/return protocol, and the foreign-function
// bridge.
package machine

import (
	"fmt"
	"strconv"
)

// Value is the interface implemented by every runtime value the machine
// manipulates. There is no distinct boolean type: Truthy is what the
// instruction set's conditionals and logical operators consult (§3).
type Value interface {
	String() string
	Type() string
	Truthy() bool
}

// Int is a signed integer value.
type Int int64

func (v Int) String() string { return strconv.FormatInt(int64(v), 10) }
func (v Int) Type() string   { return "int" }
func (v Int) Truthy() bool   { return v != 0 }

// Float is a double-precision floating point value.
type Float float64

func (v Float) String() string { return strconv.FormatFloat(float64(v), 'g', -1, 64) }
func (v Float) Type() string   { return "float" }
func (v Float) Truthy() bool   { return v != 0 }

// Str is an immutable string value.
type Str string

func (v Str) String() string { return string(v) }
func (v Str) Type() string   { return "string" }
func (v Str) Truthy() bool   { return len(v) != 0 }

// List is an ordered, mutable sequence of Value (§3). Lists are identity-
// bearing: SET_ITEM mutates in place and callers observe the mutation
// through any other reference to the same List (§9).
type List struct {
	Elems []Value
}

func NewList(elems []Value) *List { return &List{Elems: elems} }

func (v *List) String() string {
	s := "["
	for i, e := range v.Elems {
		if i > 0 {
			s += ", "
		}
		s += e.String()
	}
	return s + "]"
}
func (v *List) Type() string { return "list" }
func (v *List) Truthy() bool { return len(v.Elems) != 0 }
func (v *List) Len() int     { return len(v.Elems) }

func equalValues(x, y Value) bool {
	switch x := x.(type) {
	case Int:
		switch y := y.(type) {
		case Int:
			return x == y
		case Float:
			return Float(x) == y
		}
		return false
	case Float:
		switch y := y.(type) {
		case Int:
			return x == Float(y)
		case Float:
			return x == y
		}
		return false
	case Str:
		y, ok := y.(Str)
		return ok && x == y
	case *List:
		y, ok := y.(*List)
		if !ok || len(x.Elems) != len(y.Elems) {
			return false
		}
		for i := range x.Elems {
			if !equalValues(x.Elems[i], y.Elems[i]) {
				return false
			}
		}
		return true
	case *Map:
		y, ok := y.(*Map)
		if !ok || x.Len() != y.Len() {
			return false
		}
		eq := true
		x.Iter(func(k, v Value) bool {
			w, found := y.Get(k)
			if !found || !equalValues(v, w) {
				eq = false
				return true
			}
			return false
		})
		return eq
	default:
		return x == y // identity for closures and anything else
	}
}

// compareOrdered returns negative/zero/positive for x<y, x==y, x>y. Only
// numbers and strings are ordered; anything else is a TypeMismatch.
func compareOrdered(x, y Value) (int, error) {
	switch x := x.(type) {
	case Int:
		switch y := y.(type) {
		case Int:
			return cmpInt64(int64(x), int64(y)), nil
		case Float:
			return cmpFloat64(float64(x), float64(y)), nil
		}
	case Float:
		switch y := y.(type) {
		case Int:
			return cmpFloat64(float64(x), float64(y)), nil
		case Float:
			return cmpFloat64(float64(x), float64(y)), nil
		}
	case Str:
		if y, ok := y.(Str); ok {
			switch {
			case x < y:
				return -1, nil
			case x > y:
				return 1, nil
			default:
				return 0, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: cannot order %s and %s", ErrTypeMismatch, x.Type(), y.Type())
}

func cmpInt64(x, y int64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

func cmpFloat64(x, y float64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}
