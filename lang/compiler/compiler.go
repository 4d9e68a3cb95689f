// Package compiler takes an AST (lang/ast) and compiles it to the bytecode
// form of §3: a set of named Chunks, each with a DebugMap giving the
// source position of every emitted word. It also provides Disassemble,
// a human-readable dump of a compiled Program, in the teacher's own
// pseudo-assembly idiom.
package compiler

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/symlang/symvm/lang/ast"
	"github.com/symlang/symvm/lang/token"
)

// CompileErrorKind classifies a compile-time failure.
type CompileErrorKind string

const (
	UnknownNode       CompileErrorKind = "unknown-ast-node"
	DuplicateFunction CompileErrorKind = "duplicate-function"
)

// CompileError is returned by Compile; no VM state is ever constructed
// when compilation fails.
type CompileError struct {
	Kind CompileErrorKind
	Msg  string
	Pos  token.Pos
}

func (e *CompileError) Error() string {
	line, col := e.Pos.LineCol()
	return fmt.Sprintf("%s at %d:%d: %s", e.Kind, line, col, e.Msg)
}

// Compile translates prog into a Program of Chunks. Compile always
// produces a __main__ chunk terminated by HALT; every function chunk is
// terminated by RETURN.
func Compile(prog *ast.Program) (*Program, error) {
	main := &Chunk{Name: MainChunkName}
	c := &compiler{
		out: &Program{Chunks: map[string]*Chunk{MainChunkName: main}},
	}

	// First pass: every top-level function definition gets its own chunk,
	// so BUILD_CLOSURE can forward-reference a function declared later in
	// the source.
	for _, stmt := range prog.Stmts {
		if fd, ok := stmt.(*ast.FunctionDef); ok {
			if err := c.defineFunction(fd); err != nil {
				return nil, err
			}
		}
	}

	// Second pass: everything else goes into __main__.
	c.cur = main
	for _, stmt := range prog.Stmts {
		if _, ok := stmt.(*ast.FunctionDef); ok {
			continue
		}
		if err := c.compile(stmt); err != nil {
			return nil, err
		}
	}
	c.emit(HALT, prog)

	return c.out, nil
}

type compiler struct {
	out           *Program
	cur           *Chunk
	declaredFuncs []string
}

func entryOf(n ast.Node) DebugEntry {
	start, _ := n.Span()
	line, col := start.LineCol()
	return DebugEntry{Line: line, Col: col}
}

// emit appends one word with no inline operand, at n's source position.
func (c *compiler) emit(op Opcode, n ast.Node) {
	c.cur.emit(op, entryOf(n))
}

// emitArg appends an opcode followed by its single inline operand.
func (c *compiler) emitArg(op Opcode, arg Word, n ast.Node) {
	pos := entryOf(n)
	c.cur.emit(op, pos)
	c.cur.emit(arg, pos)
}

// emitJump appends a jump opcode with a placeholder operand and returns
// the word index of that operand, to be filled in later by patch.
func (c *compiler) emitJump(op Opcode, n ast.Node) int {
	pos := entryOf(n)
	c.cur.emit(op, pos)
	idx := c.cur.here()
	c.cur.emit(Word(0), pos)
	return idx
}

func (c *compiler) patch(operandIdx, addr int) {
	c.cur.Code[operandIdx] = Word(addr)
}

func (c *compiler) defineFunction(fd *ast.FunctionDef) error {
	if slices.Contains(c.declaredFuncs, fd.Name) {
		return &CompileError{Kind: DuplicateFunction, Msg: fd.Name, Pos: fd.Pos}
	}
	c.declaredFuncs = append(c.declaredFuncs, fd.Name)

	chunk := &Chunk{Name: fd.Name, Params: append([]string(nil), fd.Params...)}
	c.out.Chunks[fd.Name] = chunk

	prev := c.cur
	c.cur = chunk
	for _, stmt := range fd.Body.Stmts {
		if err := c.compile(stmt); err != nil {
			return err
		}
	}
	c.emit(RETURN, fd)
	c.cur = prev
	return nil
}

func (c *compiler) compileProgram(p *ast.Program) error {
	for _, stmt := range p.Stmts {
		if err := c.compile(stmt); err != nil {
			return err
		}
	}
	return nil
}

// compile emits the code for a single AST node into the chunk currently
// being built (c.cur). See the per-node rules in §4.2.
func (c *compiler) compile(n ast.Node) error {
	switch n := n.(type) {
	case *ast.Push:
		c.emitArg(PUSH, Word(n.Value), n)

	case *ast.Add:
		c.emit(ADD, n)
	case *ast.Sub:
		c.emit(SUB, n)
	case *ast.Mul:
		c.emit(MUL, n)
	case *ast.Div:
		c.emit(DIV, n)
	case *ast.Mod:
		c.emit(MOD, n)
	case *ast.Eq:
		c.emit(EQ, n)
	case *ast.Neq:
		c.emit(NEQ, n)
	case *ast.Lt:
		c.emit(LT, n)
	case *ast.Gt:
		c.emit(GT, n)
	case *ast.Lte:
		c.emit(LTE, n)
	case *ast.Gte:
		c.emit(GTE, n)
	case *ast.And:
		c.emit(AND, n)
	case *ast.Or:
		c.emit(OR, n)
	case *ast.Not:
		c.emit(NOT, n)

	case *ast.Store:
		c.emitArg(STORE_NAME, Word(n.Name), n)
	case *ast.Load:
		c.emitArg(LOAD_NAME, Word(n.Name), n)

	case *ast.Dup:
		c.emit(DUP, n)
	case *ast.Swap:
		c.emit(SWAP, n)
	case *ast.Drop:
		c.emit(DROP, n)
	case *ast.Rot:
		c.emit(ROT, n)

	case *ast.Conditional:
		elseJump := c.emitJump(JUMP_IF_FALSE, n)
		if err := c.compileProgram(n.Then); err != nil {
			return err
		}
		if n.Else != nil {
			endJump := c.emitJump(JUMP, n)
			c.patch(elseJump, c.cur.here())
			if err := c.compileProgram(n.Else); err != nil {
				return err
			}
			c.patch(endJump, c.cur.here())
		} else {
			c.patch(elseJump, c.cur.here())
		}

	case *ast.WhileLoop:
		loopStart := c.cur.here()
		if err := c.compileProgram(n.Cond); err != nil {
			return err
		}
		exitJump := c.emitJump(JUMP_IF_FALSE, n)
		if err := c.compileProgram(n.Body); err != nil {
			return err
		}
		c.emitArg(JUMP, Word(loopStart), n)
		c.patch(exitJump, c.cur.here())

	case *ast.ListLiteral:
		if err := c.compileProgram(n.Items); err != nil {
			return err
		}
		c.emitArg(BUILD_LIST, Word(len(n.Items.Stmts)), n)

	case *ast.MapLiteral:
		for _, pair := range n.Pairs {
			c.emitArg(PUSH, Word(pair.Key), n)
			if err := c.compileProgram(pair.Value); err != nil {
				return err
			}
		}
		c.emitArg(BUILD_MAP, Word(len(n.Pairs)), n)

	case *ast.FunctionDef:
		// Top-level defs are handled by the first pass; a nested def (a
		// FunctionDef reached while compiling a function body or a block)
		// is compiled here instead. Its chunk still goes into the single
		// program-wide chunk table, like every other function's.
		if err := c.defineFunction(n); err != nil {
			return err
		}

	case *ast.FunctionRef:
		c.emitArg(BUILD_CLOSURE, Word(n.Name), n)
	case *ast.FunctionCall:
		c.emit(CALL, n)

	case *ast.GetItem:
		c.emit(GET_ITEM, n)
	case *ast.SetItem:
		c.emit(SET_ITEM, n)
	case *ast.Length:
		c.emit(LEN, n)

	case *ast.Input:
		c.emit(INPUT, n)
	case *ast.Print:
		c.emit(PRINT, n)
	case *ast.FfiCall:
		c.emit(FFI_CALL, n)
	case *ast.DebugBreak:
		c.emit(DBG, n)

	case *ast.ImportStmt:
		return &CompileError{Kind: UnknownNode, Msg: "ImportStmt reached the compiler unflattened: " + n.Path, Pos: n.Pos}

	default:
		start, _ := n.Span()
		return &CompileError{Kind: UnknownNode, Msg: fmt.Sprintf("%T", n), Pos: start}
	}
	return nil
}
