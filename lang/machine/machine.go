package machine

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/symlang/symvm/lang/compiler"
)

// step executes exactly one instruction starting at fr.ip, advancing fr.ip
// past the opcode and any inline operands before dispatching (§4.3: "fetch
// one word as the opcode, advance ip, then dispatch"). It reports halt=true
// when the program should stop (HALT, or RETURN emptying the call stack).
func (th *Thread) step(fr *Frame) (halt bool, err error) {
	code := fr.Closure.Chunk.Code
	word := code[fr.ip]
	fr.ip++

	op, ok := word.(compiler.Opcode)
	if !ok {
		return false, fmt.Errorf("%w: word at %d is not an opcode", ErrTypeMismatch, fr.ip-1)
	}

	arg := func() compiler.Word {
		w := code[fr.ip]
		fr.ip++
		return w
	}

	switch op {
	case compiler.PUSH:
		v, err := wordToValue(arg())
		if err != nil {
			return false, err
		}
		th.push(v)

	case compiler.DUP:
		v, err := th.peek()
		if err != nil {
			return false, err
		}
		th.push(v)

	case compiler.SWAP:
		b, err := th.pop()
		if err != nil {
			return false, err
		}
		a, err := th.pop()
		if err != nil {
			return false, err
		}
		th.push(b)
		th.push(a)

	case compiler.DROP:
		if _, err := th.pop(); err != nil {
			return false, err
		}

	case compiler.ROT:
		// a b c -> c a b: the top of the three moves to the bottom (§9).
		c, err := th.pop()
		if err != nil {
			return false, err
		}
		b, err := th.pop()
		if err != nil {
			return false, err
		}
		a, err := th.pop()
		if err != nil {
			return false, err
		}
		th.push(c)
		th.push(a)
		th.push(b)

	case compiler.ADD, compiler.SUB, compiler.MUL, compiler.DIV, compiler.MOD:
		b, err := th.pop()
		if err != nil {
			return false, err
		}
		a, err := th.pop()
		if err != nil {
			return false, err
		}
		v, err := arith(op, a, b)
		if err != nil {
			return false, err
		}
		th.push(v)

	case compiler.EQ, compiler.NEQ, compiler.LT, compiler.GT, compiler.LTE, compiler.GTE:
		b, err := th.pop()
		if err != nil {
			return false, err
		}
		a, err := th.pop()
		if err != nil {
			return false, err
		}
		v, err := compareOp(op, a, b)
		if err != nil {
			return false, err
		}
		th.push(v)

	case compiler.AND:
		b, err := th.pop()
		if err != nil {
			return false, err
		}
		a, err := th.pop()
		if err != nil {
			return false, err
		}
		th.push(boolValue(a.Truthy() && b.Truthy()))

	case compiler.OR:
		b, err := th.pop()
		if err != nil {
			return false, err
		}
		a, err := th.pop()
		if err != nil {
			return false, err
		}
		th.push(boolValue(a.Truthy() || b.Truthy()))

	case compiler.NOT:
		a, err := th.pop()
		if err != nil {
			return false, err
		}
		th.push(boolValue(!a.Truthy()))

	case compiler.STORE_NAME:
		name, ok := arg().(string)
		if !ok {
			return false, fmt.Errorf("%w: STORE_NAME operand is not a name", ErrTypeMismatch)
		}
		v, err := th.pop()
		if err != nil {
			return false, err
		}
		if fr.isMain {
			th.globals.Put(name, v)
		} else {
			fr.locals.Put(name, v)
		}

	case compiler.LOAD_NAME:
		name, ok := arg().(string)
		if !ok {
			return false, fmt.Errorf("%w: LOAD_NAME operand is not a name", ErrTypeMismatch)
		}
		if v, ok := fr.locals.Get(name); ok {
			th.push(v)
			break
		}
		if v, ok := th.globals.Get(name); ok {
			th.push(v)
			break
		}
		return false, fmt.Errorf("%w: %s", ErrNameUndefined, name)

	case compiler.JUMP:
		addr, ok := arg().(int)
		if !ok {
			return false, fmt.Errorf("%w: JUMP operand is not an address", ErrTypeMismatch)
		}
		fr.ip = addr

	case compiler.JUMP_IF_FALSE:
		addr, ok := arg().(int)
		if !ok {
			return false, fmt.Errorf("%w: JUMP_IF_FALSE operand is not an address", ErrTypeMismatch)
		}
		v, err := th.pop()
		if err != nil {
			return false, err
		}
		if !v.Truthy() {
			fr.ip = addr
		}

	case compiler.BUILD_CLOSURE:
		name, ok := arg().(string)
		if !ok {
			return false, fmt.Errorf("%w: BUILD_CLOSURE operand is not a name", ErrTypeMismatch)
		}
		chunk, ok := th.chunks[name]
		if !ok {
			return false, fmt.Errorf("%w: no such function: %s", ErrNameUndefined, name)
		}
		th.push(&Closure{Name: name, Params: chunk.Params, Chunk: chunk})

	case compiler.CALL:
		if err := th.call(); err != nil {
			return false, err
		}

	case compiler.RETURN:
		h, err := th.doReturn()
		if err != nil {
			return false, err
		}
		return h, nil

	case compiler.BUILD_LIST:
		n, ok := arg().(int)
		if !ok {
			return false, fmt.Errorf("%w: BUILD_LIST operand is not a count", ErrTypeMismatch)
		}
		elems, err := th.popN(n)
		if err != nil {
			return false, err
		}
		th.push(NewList(elems))

	case compiler.BUILD_MAP:
		n, ok := arg().(int)
		if !ok {
			return false, fmt.Errorf("%w: BUILD_MAP operand is not a pair count", ErrTypeMismatch)
		}
		pairs, err := th.popN(2 * n)
		if err != nil {
			return false, err
		}
		m := NewMap(n)
		for i := 0; i < n; i++ {
			m.Set(pairs[2*i], pairs[2*i+1])
		}
		th.push(m)

	case compiler.GET_ITEM:
		key, err := th.pop()
		if err != nil {
			return false, err
		}
		container, err := th.pop()
		if err != nil {
			return false, err
		}
		v, err := getItem(container, key)
		if err != nil {
			return false, err
		}
		th.push(v)

	case compiler.SET_ITEM:
		// pops value, key, container and pushes container (§9).
		value, err := th.pop()
		if err != nil {
			return false, err
		}
		key, err := th.pop()
		if err != nil {
			return false, err
		}
		container, err := th.pop()
		if err != nil {
			return false, err
		}
		if err := setItem(container, key, value); err != nil {
			return false, err
		}
		th.push(container)

	case compiler.LEN:
		v, err := th.pop()
		if err != nil {
			return false, err
		}
		n, err := lengthOf(v)
		if err != nil {
			return false, err
		}
		th.push(Int(n))

	case compiler.PRINT:
		v, err := th.pop()
		if err != nil {
			return false, err
		}
		fmt.Fprint(th.stdout, v.String())

	case compiler.INPUT:
		s, err := th.readLine()
		if err != nil {
			return false, fmt.Errorf("%w: %s", ErrIO, err)
		}
		th.push(Str(s))

	case compiler.FFI_CALL:
		if err := th.ffiCall(); err != nil {
			return false, err
		}

	case compiler.DBG:
		// no-op; it exists only to be peeked by the debugger before it runs.

	case compiler.HALT:
		return true, nil

	default:
		return false, fmt.Errorf("%w: unimplemented opcode %s", ErrTypeMismatch, op)
	}
	return false, nil
}

func wordToValue(w compiler.Word) (Value, error) {
	switch v := w.(type) {
	case int64:
		return Int(v), nil
	case float64:
		return Float(v), nil
	case string:
		return Str(v), nil
	default:
		return nil, fmt.Errorf("%w: unsupported constant %T", ErrTypeMismatch, w)
	}
}

func boolValue(b bool) Int {
	if b {
		return 1
	}
	return 0
}

// arith implements ADD/SUB/MUL/DIV/MOD per §4.1. ADD is overloaded over
// lists and strings before falling back to the numeric rules shared by
// every other arithmetic opcode.
func arith(op compiler.Opcode, a, b Value) (Value, error) {
	if op == compiler.ADD {
		if al, ok := a.(*List); ok {
			if bl, ok := b.(*List); ok {
				merged := make([]Value, 0, len(al.Elems)+len(bl.Elems))
				merged = append(merged, al.Elems...)
				merged = append(merged, bl.Elems...)
				return NewList(merged), nil
			}
			merged := make([]Value, 0, len(al.Elems)+1)
			merged = append(merged, al.Elems...)
			merged = append(merged, b)
			return NewList(merged), nil
		}
		if as, ok := a.(Str); ok {
			return Str(string(as) + b.String()), nil
		}
	}

	ai, aInt := a.(Int)
	bi, bInt := b.(Int)
	if aInt && bInt {
		return intArith(op, int64(ai), int64(bi))
	}

	af, aIsNum := numericValue(a)
	bf, bIsNum := numericValue(b)
	if aIsNum && bIsNum {
		return floatArith(op, af, bf)
	}
	return nil, fmt.Errorf("%w: cannot %s %s and %s", ErrTypeMismatch, arithName(op), a.Type(), b.Type())
}

func arithName(op compiler.Opcode) string {
	switch op {
	case compiler.ADD:
		return "add"
	case compiler.SUB:
		return "subtract"
	case compiler.MUL:
		return "multiply"
	case compiler.DIV:
		return "divide"
	case compiler.MOD:
		return "modulo"
	default:
		return op.String()
	}
}

func numericValue(v Value) (float64, bool) {
	switch v := v.(type) {
	case Int:
		return float64(v), true
	case Float:
		return float64(v), true
	default:
		return 0, false
	}
}

// intArith performs pure-integer arithmetic: DIV truncates toward zero
// (Go's native int division), MOD is the signed remainder (§3).
func intArith(op compiler.Opcode, a, b int64) (Value, error) {
	switch op {
	case compiler.ADD:
		return Int(a + b), nil
	case compiler.SUB:
		return Int(a - b), nil
	case compiler.MUL:
		return Int(a * b), nil
	case compiler.DIV:
		if b == 0 {
			return nil, fmt.Errorf("%w: division by zero", ErrArithmetic)
		}
		return Int(a / b), nil
	case compiler.MOD:
		if b == 0 {
			return nil, fmt.Errorf("%w: modulo by zero", ErrArithmetic)
		}
		return Int(a % b), nil
	default:
		return nil, fmt.Errorf("%w: not an arithmetic opcode: %s", ErrTypeMismatch, op)
	}
}

// floatArith performs arithmetic where at least one operand is a Float:
// mixing integer and float always yields float, and DIV is true division
// (§3).
func floatArith(op compiler.Opcode, a, b float64) (Value, error) {
	switch op {
	case compiler.ADD:
		return Float(a + b), nil
	case compiler.SUB:
		return Float(a - b), nil
	case compiler.MUL:
		return Float(a * b), nil
	case compiler.DIV:
		if b == 0 {
			return nil, fmt.Errorf("%w: division by zero", ErrArithmetic)
		}
		return Float(a / b), nil
	case compiler.MOD:
		if b == 0 {
			return nil, fmt.Errorf("%w: modulo by zero", ErrArithmetic)
		}
		return Float(math.Mod(a, b)), nil
	default:
		return nil, fmt.Errorf("%w: not an arithmetic opcode: %s", ErrTypeMismatch, op)
	}
}

// compareOp implements EQ/NEQ (structural equality) and LT/GT/LTE/GTE
// (numeric/string ordering) per §4.1.
func compareOp(op compiler.Opcode, a, b Value) (Value, error) {
	switch op {
	case compiler.EQ:
		return boolValue(equalValues(a, b)), nil
	case compiler.NEQ:
		return boolValue(!equalValues(a, b)), nil
	}

	cmp, err := compareOrdered(a, b)
	if err != nil {
		return nil, err
	}
	switch op {
	case compiler.LT:
		return boolValue(cmp < 0), nil
	case compiler.GT:
		return boolValue(cmp > 0), nil
	case compiler.LTE:
		return boolValue(cmp <= 0), nil
	case compiler.GTE:
		return boolValue(cmp >= 0), nil
	default:
		return nil, fmt.Errorf("%w: not a comparison opcode: %s", ErrTypeMismatch, op)
	}
}

// getItem implements GET_ITEM: list indexing does not support negative
// wraparound (§4.1), map lookup fails with KeyOrIndex when absent.
func getItem(container, key Value) (Value, error) {
	switch c := container.(type) {
	case *List:
		idx, ok := key.(Int)
		if !ok {
			return nil, fmt.Errorf("%w: list index must be an integer, got %s", ErrTypeMismatch, key.Type())
		}
		i := int(idx)
		if i < 0 || i >= len(c.Elems) {
			return nil, fmt.Errorf("%w: list index %d out of range (len %d)", ErrKeyOrIndex, i, len(c.Elems))
		}
		return c.Elems[i], nil
	case *Map:
		v, ok := c.Get(key)
		if !ok {
			return nil, fmt.Errorf("%w: key %s not found in map", ErrKeyOrIndex, key)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("%w: cannot index into %s", ErrTypeMismatch, container.Type())
	}
}

// setItem implements SET_ITEM: mutates container in place (§9: pops
// value, key, container and pushes container).
func setItem(container, key, value Value) error {
	switch c := container.(type) {
	case *List:
		idx, ok := key.(Int)
		if !ok {
			return fmt.Errorf("%w: list index must be an integer, got %s", ErrTypeMismatch, key.Type())
		}
		i := int(idx)
		if i < 0 || i >= len(c.Elems) {
			return fmt.Errorf("%w: list index %d out of range (len %d)", ErrKeyOrIndex, i, len(c.Elems))
		}
		c.Elems[i] = value
		return nil
	case *Map:
		c.Set(key, value)
		return nil
	default:
		return fmt.Errorf("%w: cannot assign into %s", ErrTypeMismatch, container.Type())
	}
}

func lengthOf(v Value) (int, error) {
	switch v := v.(type) {
	case Str:
		return utf8.RuneCountInString(string(v)), nil
	case *List:
		return v.Len(), nil
	case *Map:
		return v.Len(), nil
	default:
		return 0, fmt.Errorf("%w: %s has no length", ErrTypeMismatch, v.Type())
	}
}
