package machine

import "github.com/dolthub/swiss"

// Frame is the per-call activation record of §3: the active closure, the
// instruction pointer (a word index into the closure's chunk), the
// operand-stack baseline at call time, and the frame's local bindings.
//
// isMain records whether this frame is the top-level program, decided
// once at construction rather than by comparing the closure's name to
// "__main__" on every STORE_NAME/LOAD_NAME — the fragile approach §9
// itself flags.
type Frame struct {
	Closure    *Closure
	ip         int
	stackStart int
	locals     *swiss.Map[string, Value]
	isMain     bool
}

func newFrame(cl *Closure, stackStart int, isMain bool) *Frame {
	return &Frame{
		Closure:    cl,
		stackStart: stackStart,
		locals:     swiss.NewMap[string, Value](uint32(len(cl.Params))),
		isMain:     isMain,
	}
}

// currentPos returns the source position of the instruction this frame
// just executed (ip-1), the lookup §4.3 specifies for error reporting.
func (fr *Frame) currentPos() (line, col int) {
	idx := fr.ip - 1
	if idx < 0 {
		idx = 0
	}
	dm := fr.Closure.Chunk.DebugMap
	if idx >= len(dm) {
		return 0, 0
	}
	e := dm[idx]
	return e.Line, e.Col
}
