package compiler

import (
	"fmt"
	"sort"
	"strings"
)

// Disassemble renders prog as a human-readable instruction listing, one
// function per section, in the teacher's pseudo-assembly idiom (see
// lang/compiler/asm.go in the teacher for the style this is adapted
// from). It is read-only: unlike the teacher's Asm/Dasm pair, there is no
// corresponding loader, since bytecode serialization to disk is out of
// scope (§1 Non-goals).
func Disassemble(prog *Program) string {
	var b strings.Builder

	names := make([]string, 0, len(prog.Chunks))
	for name := range prog.Chunks {
		if name != MainChunkName {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	names = append([]string{MainChunkName}, names...)

	for i, name := range names {
		if i > 0 {
			b.WriteString("\n")
		}
		disassembleChunk(&b, prog.Chunks[name])
	}
	return b.String()
}

func disassembleChunk(b *strings.Builder, c *Chunk) {
	fmt.Fprintf(b, "function: %s(%s)\n", c.Name, strings.Join(c.Params, ", "))
	i := 0
	for i < len(c.Code) {
		op := c.Code[i].(Opcode)
		entry := c.DebugMap[i]
		if n := op.OperandCount(); n > 0 {
			args := make([]string, n)
			for j := 0; j < n; j++ {
				args[j] = formatWord(c.Code[i+1+j])
			}
			fmt.Fprintf(b, "\t%04d\t%-14s %s\t# %d:%d\n", i, op, strings.Join(args, " "), entry.Line, entry.Col)
			i += 1 + n
		} else {
			fmt.Fprintf(b, "\t%04d\t%-14s\t# %d:%d\n", i, op, entry.Line, entry.Col)
			i++
		}
	}
}

func formatWord(w Word) string {
	switch v := w.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
