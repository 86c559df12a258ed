package vm

import (
	"github.com/chazu/nlx/pkg/bytecode"
)

// ---------------------------------------------------------------------------
// Arena: append-only heap object store
// ---------------------------------------------------------------------------

// ArrayObject is a growable ordered sequence of values. Two values holding
// the same handle alias the same object, so mutation through one is visible
// through the other.
type ArrayObject struct {
	Elements []Value
}

// Cell is a heap-allocated mutable container for one captured variable.
// Closures sharing a cell see each other's writes.
type Cell struct {
	Value Value
}

// FunctionObject is a runtime function value: its compiled proto plus the
// capture cells resolved when the function value was created.
type FunctionObject struct {
	Proto *bytecode.FunctionProto
	Cells []*Cell
}

// RangeObject is a half-open numeric interval lo..hi. Ranges are immutable
// once created and iterate by whole steps from Lo while below Hi.
type RangeObject struct {
	Lo, Hi float64
}

// Arena owns every heap object created during one VM run. It only ever
// appends; nothing is reclaimed until the run ends, which stands in for
// garbage collection. Values reference objects through opaque handles, so
// copying a value is always cheap and aliases the same object.
//
// Each VM instance owns its own arena; nothing here is process-global.
type Arena struct {
	strings   []string
	arrays    []*ArrayObject
	functions []*FunctionObject
	ranges    []RangeObject

	// Interning map so equal string contents share one handle.
	stringIndex map[string]Handle
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{
		stringIndex: make(map[string]Handle),
	}
}

// InternString returns a string value for s, reusing the existing handle
// when the same content was interned before.
func (a *Arena) InternString(s string) Value {
	if h, ok := a.stringIndex[s]; ok {
		return FromStringHandle(h)
	}
	h := Handle(len(a.strings))
	a.strings = append(a.strings, s)
	a.stringIndex[s] = h
	return FromStringHandle(h)
}

// GetString returns the content of a string value.
func (a *Arena) GetString(v Value) string {
	return a.strings[v.StringHandle()]
}

// NewArray allocates an array object and returns its value. The arena takes
// ownership of the element slice.
func (a *Arena) NewArray(elements []Value) Value {
	h := Handle(len(a.arrays))
	a.arrays = append(a.arrays, &ArrayObject{Elements: elements})
	return FromArrayHandle(h)
}

// GetArray returns the array object behind an array value.
func (a *Arena) GetArray(v Value) *ArrayObject {
	return a.arrays[v.ArrayHandle()]
}

// NewFunction allocates a function object and returns its value.
func (a *Arena) NewFunction(proto *bytecode.FunctionProto, cells []*Cell) Value {
	h := Handle(len(a.functions))
	a.functions = append(a.functions, &FunctionObject{Proto: proto, Cells: cells})
	return FromFunctionHandle(h)
}

// GetFunction returns the function object behind a function value.
func (a *Arena) GetFunction(v Value) *FunctionObject {
	return a.functions[v.FunctionHandle()]
}

// NewRange allocates a range object and returns its value.
func (a *Arena) NewRange(lo, hi float64) Value {
	h := Handle(len(a.ranges))
	a.ranges = append(a.ranges, RangeObject{Lo: lo, Hi: hi})
	return FromRangeHandle(h)
}

// GetRange returns the range object behind a range value.
func (a *Arena) GetRange(v Value) RangeObject {
	return a.ranges[v.RangeHandle()]
}

// StringCount returns the number of distinct interned strings.
func (a *Arena) StringCount() int { return len(a.strings) }

// ArrayCount returns the number of allocated arrays.
func (a *Arena) ArrayCount() int { return len(a.arrays) }

// FunctionCount returns the number of allocated function values.
func (a *Arena) FunctionCount() int { return len(a.functions) }

// RangeCount returns the number of allocated ranges.
func (a *Arena) RangeCount() int { return len(a.ranges) }
