package machine

import (
	"fmt"

	"github.com/symlang/symvm/lang/compiler"
)

// Closure is the callable value built by BUILD_CLOSURE. Per §3/§9, it does
// not capture lexical variables: it is nothing more than a reference to a
// named chunk plus that chunk's parameter list. Non-parameter names in
// the chunk's body resolve via the locals-then-globals rule at call time,
// not via anything stored on the Closure.
type Closure struct {
	Name   string
	Params []string
	Chunk  *compiler.Chunk
}

func (c *Closure) String() string { return fmt.Sprintf("<closure %s/%d>", c.Name, len(c.Params)) }
func (c *Closure) Type() string   { return "closure" }
func (c *Closure) Truthy() bool   { return true }
