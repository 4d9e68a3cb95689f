package machine

import (
	"sort"
	"strings"

	"github.com/dolthub/swiss"
)

// Map is the Sym Map value (§3): a mapping from Value to Value, backed by
// a swiss-table hash map exactly as the teacher's own Map does. Only
// hashable value kinds (Int, Float, Str) make sensible keys in practice;
// nothing in this package restricts the key type, matching the Value
// interface contract, but a List or Map key compares by Go identity since
// neither is comparable for use as a native map key.
type Map struct {
	m *swiss.Map[Value, Value]
}

// NewMap returns a Map with initial capacity for at least size entries,
// built via BUILD_MAP or the empty map a program may build with n=0.
func NewMap(size int) *Map {
	if size < 0 {
		size = 0
	}
	return &Map{m: swiss.NewMap[Value, Value](uint32(size))}
}

// String renders the entries sorted by their textual key form, so that
// printing a map is deterministic even though iteration order is not.
func (m *Map) String() string {
	entries := make([]string, 0, m.Len())
	m.Iter(func(k, v Value) bool {
		entries = append(entries, k.String()+": "+v.String())
		return false
	})
	sort.Strings(entries)
	return "{" + strings.Join(entries, ", ") + "}"
}

func (m *Map) Type() string { return "map" }
func (m *Map) Truthy() bool { return m.m.Count() != 0 }
func (m *Map) Len() int     { return m.m.Count() }

// Iter calls fn for each entry until fn returns true (stop).
func (m *Map) Iter(fn func(k, v Value) bool) {
	m.m.Iter(fn)
}

// Get looks up k, reporting whether it was present.
func (m *Map) Get(k Value) (Value, bool) {
	return m.m.Get(k)
}

// Set assigns k to v, overwriting any existing value for k. BUILD_MAP
// uses this for every pair it is given, left to right, so a duplicate key
// takes the value of its last occurrence (§9: specified as key→value
// assignment, not the source's defective append-into-bucket behavior).
func (m *Map) Set(k, v Value) {
	m.m.Put(k, v)
}
