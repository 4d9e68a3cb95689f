// Package front is a minimal stand-in front end: a human-writable textual
// assembler that produces a lang/ast.Program directly, bypassing any real
// surface-syntax grammar (out of scope here; see lang/ast's package doc).
// It exists so the compiler and machine can be exercised, and tested, end
// to end without a real parser.
package front

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/symlang/symvm/lang/ast"
	"github.com/symlang/symvm/lang/compiler"
	"github.com/symlang/symvm/lang/token"
)

// Parse reads src as a .symasm program: one statement per line, blocks
// delimited by keywords (if/else/end, while/do/end, list/end, map/end,
// func/end) instead of indentation, since the teacher's own asm.go gets
// away with a flat instruction list but Sym's AST nests arbitrarily
// deeply. Grounded on asm.go's bufio.Scanner + strings.Fields line
// scanning, adapted from the bytecode level to the AST level.
func Parse(src []byte) (*ast.Program, error) {
	p := &parser{sc: bufio.NewScanner(bytes.NewReader(src))}
	p.advance()
	prog, err := p.block("")
	if err != nil {
		return nil, err
	}
	if p.tok != nil {
		return nil, p.errorf("unexpected %q after program end", strings.Join(p.tok, " "))
	}
	return prog, nil
}

type parser struct {
	sc   *bufio.Scanner
	line int
	tok  []string
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("symasm:%d: %s", p.line, fmt.Sprintf(format, args...))
}

// advance reads the next non-blank, non-comment line into p.tok, or leaves
// it nil at EOF.
func (p *parser) advance() {
	for p.sc.Scan() {
		p.line++
		line := p.sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := splitFields(line)
		if len(fields) == 0 {
			continue
		}
		p.tok = fields
		return
	}
	p.tok = nil
}

// splitFields is strings.Fields extended to keep a double-quoted field
// (which may contain spaces) intact as a single token.
func splitFields(line string) []string {
	var fields []string
	var cur strings.Builder
	inQuote := false
	flush := func() {
		if cur.Len() > 0 {
			fields = append(fields, cur.String())
			cur.Reset()
		}
	}
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			cur.WriteRune(r)
		case !inQuote && (r == ' ' || r == '\t'):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return fields
}

func (p *parser) pos() token.Pos { return token.MakePos(p.line, 1) }

// block parses statements until it sees one of stopWords (a space-joined
// set of terminator keywords) as the first token on a line, or EOF if
// stopWords is empty. The terminator line is left unconsumed.
func (p *parser) block(stopWords string) (*ast.Program, error) {
	prog := &ast.Program{Base: ast.Base{Pos: p.pos()}}
	for p.tok != nil {
		if stopWords != "" && strings.Contains(" "+stopWords+" ", " "+p.tok[0]+" ") {
			return prog, nil
		}
		n, err := p.statement()
		if err != nil {
			return nil, err
		}
		prog.Stmts = append(prog.Stmts, n)
	}
	if stopWords != "" {
		return nil, p.errorf("unexpected end of input, expected one of: %s", stopWords)
	}
	return prog, nil
}

func (p *parser) expect(word string) error {
	if p.tok == nil || p.tok[0] != word {
		return p.errorf("expected %q", word)
	}
	p.advance()
	return nil
}

func (p *parser) statement() (ast.Node, error) {
	pos := p.pos()
	op := p.tok[0]
	args := p.tok[1:]

	switch op {
	case "push":
		v, err := parseConst(strings.Join(args, " "))
		if err != nil {
			return nil, p.errorf("push: %s", err)
		}
		p.advance()
		return &ast.Push{Base: ast.Base{Pos: pos}, Value: v}, nil

	case "store":
		if len(args) != 1 {
			return nil, p.errorf("store requires exactly one name")
		}
		p.advance()
		return &ast.Store{Base: ast.Base{Pos: pos}, Name: args[0]}, nil

	case "load":
		if len(args) != 1 {
			return nil, p.errorf("load requires exactly one name")
		}
		p.advance()
		return &ast.Load{Base: ast.Base{Pos: pos}, Name: args[0]}, nil

	case "funcref":
		if len(args) != 1 {
			return nil, p.errorf("funcref requires exactly one name")
		}
		p.advance()
		return &ast.FunctionRef{Base: ast.Base{Pos: pos}, Name: args[0]}, nil

	case "import":
		if len(args) != 1 {
			return nil, p.errorf("import requires exactly one quoted path")
		}
		path, err := unquote(args[0])
		if err != nil {
			return nil, p.errorf("import: %s", err)
		}
		p.advance()
		return &ast.ImportStmt{Base: ast.Base{Pos: pos}, Path: path}, nil

	case "if":
		p.advance()
		then, err := p.block("else end")
		if err != nil {
			return nil, err
		}
		cond := &ast.Conditional{Base: ast.Base{Pos: pos}, Then: then}
		if p.tok != nil && p.tok[0] == "else" {
			p.advance()
			els, err := p.block("end")
			if err != nil {
				return nil, err
			}
			cond.Else = els
		}
		if err := p.expect("end"); err != nil {
			return nil, err
		}
		return cond, nil

	case "while":
		p.advance()
		cond, err := p.block("do")
		if err != nil {
			return nil, err
		}
		if err := p.expect("do"); err != nil {
			return nil, err
		}
		body, err := p.block("end")
		if err != nil {
			return nil, err
		}
		if err := p.expect("end"); err != nil {
			return nil, err
		}
		return &ast.WhileLoop{Base: ast.Base{Pos: pos}, Cond: cond, Body: body}, nil

	case "list":
		p.advance()
		items, err := p.block("end")
		if err != nil {
			return nil, err
		}
		if err := p.expect("end"); err != nil {
			return nil, err
		}
		return &ast.ListLiteral{Base: ast.Base{Pos: pos}, Items: items}, nil

	case "map":
		p.advance()
		var pairs []ast.MapPair
		for p.tok != nil && p.tok[0] == "key" {
			if len(p.tok) != 2 {
				return nil, p.errorf("key requires exactly one constant")
			}
			key, err := parseConst(p.tok[1])
			if err != nil {
				return nil, p.errorf("key: %s", err)
			}
			p.advance()
			val, err := p.block("key end")
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, ast.MapPair{Key: key, Value: val})
		}
		if err := p.expect("end"); err != nil {
			return nil, err
		}
		return &ast.MapLiteral{Base: ast.Base{Pos: pos}, Pairs: pairs}, nil

	case "func":
		if len(args) < 1 {
			return nil, p.errorf("func requires a name")
		}
		name := args[0]
		params := append([]string(nil), args[1:]...)
		p.advance()
		body, err := p.block("end")
		if err != nil {
			return nil, err
		}
		if err := p.expect("end"); err != nil {
			return nil, err
		}
		return &ast.FunctionDef{Base: ast.Base{Pos: pos}, Name: name, Params: params, Body: body}, nil

	default:
		// Every remaining statement corresponds 1:1 to a zero-operand
		// opcode; resolve its Opcode via the compiler's own name table
		// (compiler.LookupOpcode) rather than keeping a second, parallel
		// name table here, then map that Opcode to its AST leaf.
		opcodeName, ok := leafKeywordAliases[op]
		if !ok {
			opcodeName = strings.ToUpper(op)
		}
		code, ok := compiler.LookupOpcode(opcodeName)
		if !ok {
			return nil, p.errorf("unknown statement %q", op)
		}
		n, ok := leafByOpcode[code]
		if !ok {
			return nil, p.errorf("%q is not a zero-operand statement", op)
		}
		p.advance()
		return n(pos), nil
	}
}

// leafKeywordAliases covers the .symasm keywords whose spelling diverges
// from the opcode's own name (compiler.opcodeNames); every other keyword
// matches its opcode name case-insensitively.
var leafKeywordAliases = map[string]string{
	"getitem":  "GET_ITEM",
	"setitem":  "SET_ITEM",
	"length":   "LEN",
	"call":     "CALL",
	"ffi_call": "FFI_CALL",
}

var leafByOpcode = map[compiler.Opcode]func(token.Pos) ast.Node{
	compiler.ADD:      func(pos token.Pos) ast.Node { return &ast.Add{Base: ast.Base{Pos: pos}} },
	compiler.SUB:      func(pos token.Pos) ast.Node { return &ast.Sub{Base: ast.Base{Pos: pos}} },
	compiler.MUL:      func(pos token.Pos) ast.Node { return &ast.Mul{Base: ast.Base{Pos: pos}} },
	compiler.DIV:      func(pos token.Pos) ast.Node { return &ast.Div{Base: ast.Base{Pos: pos}} },
	compiler.MOD:      func(pos token.Pos) ast.Node { return &ast.Mod{Base: ast.Base{Pos: pos}} },
	compiler.EQ:       func(pos token.Pos) ast.Node { return &ast.Eq{Base: ast.Base{Pos: pos}} },
	compiler.NEQ:      func(pos token.Pos) ast.Node { return &ast.Neq{Base: ast.Base{Pos: pos}} },
	compiler.LT:       func(pos token.Pos) ast.Node { return &ast.Lt{Base: ast.Base{Pos: pos}} },
	compiler.GT:       func(pos token.Pos) ast.Node { return &ast.Gt{Base: ast.Base{Pos: pos}} },
	compiler.LTE:      func(pos token.Pos) ast.Node { return &ast.Lte{Base: ast.Base{Pos: pos}} },
	compiler.GTE:      func(pos token.Pos) ast.Node { return &ast.Gte{Base: ast.Base{Pos: pos}} },
	compiler.AND:      func(pos token.Pos) ast.Node { return &ast.And{Base: ast.Base{Pos: pos}} },
	compiler.OR:       func(pos token.Pos) ast.Node { return &ast.Or{Base: ast.Base{Pos: pos}} },
	compiler.NOT:      func(pos token.Pos) ast.Node { return &ast.Not{Base: ast.Base{Pos: pos}} },
	compiler.DUP:      func(pos token.Pos) ast.Node { return &ast.Dup{Base: ast.Base{Pos: pos}} },
	compiler.SWAP:     func(pos token.Pos) ast.Node { return &ast.Swap{Base: ast.Base{Pos: pos}} },
	compiler.DROP:     func(pos token.Pos) ast.Node { return &ast.Drop{Base: ast.Base{Pos: pos}} },
	compiler.ROT:      func(pos token.Pos) ast.Node { return &ast.Rot{Base: ast.Base{Pos: pos}} },
	compiler.GET_ITEM: func(pos token.Pos) ast.Node { return &ast.GetItem{Base: ast.Base{Pos: pos}} },
	compiler.SET_ITEM: func(pos token.Pos) ast.Node { return &ast.SetItem{Base: ast.Base{Pos: pos}} },
	compiler.LEN:      func(pos token.Pos) ast.Node { return &ast.Length{Base: ast.Base{Pos: pos}} },
	compiler.CALL:     func(pos token.Pos) ast.Node { return &ast.FunctionCall{Base: ast.Base{Pos: pos}} },
	compiler.INPUT:    func(pos token.Pos) ast.Node { return &ast.Input{Base: ast.Base{Pos: pos}} },
	compiler.PRINT:    func(pos token.Pos) ast.Node { return &ast.Print{Base: ast.Base{Pos: pos}} },
	compiler.FFI_CALL: func(pos token.Pos) ast.Node { return &ast.FfiCall{Base: ast.Base{Pos: pos}} },
	compiler.DBG:      func(pos token.Pos) ast.Node { return &ast.DebugBreak{Base: ast.Base{Pos: pos}} },
}

// parseConst parses a push/key operand: a double-quoted string, or an
// int64/float64 literal.
func parseConst(s string) (any, error) {
	if strings.HasPrefix(s, `"`) {
		return unquote(s)
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, nil
	}
	return nil, fmt.Errorf("invalid constant %q", s)
}

func unquote(s string) (string, error) {
	v, err := strconv.Unquote(s)
	if err != nil {
		return "", fmt.Errorf("invalid quoted string %q: %w", s, err)
	}
	return v, nil
}
