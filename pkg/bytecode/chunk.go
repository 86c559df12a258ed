package bytecode

import (
	"encoding/binary"
	"fmt"
	"strconv"
)

// ---------------------------------------------------------------------------
// Chunk: one function's compiled instruction stream
// ---------------------------------------------------------------------------

// ConstantKind tags a constant pool entry.
type ConstantKind int

const (
	ConstNumber ConstantKind = iota
	ConstString
)

// Constant is a compile-time literal in a chunk's constant pool. The pool
// also holds names referenced by global and method-dispatch instructions.
type Constant struct {
	Kind   ConstantKind
	Number float64
	Str    string
}

// NumberConstant wraps a numeric literal.
func NumberConstant(n float64) Constant {
	return Constant{Kind: ConstNumber, Number: n}
}

// StringConstant wraps a string literal or name.
func StringConstant(s string) Constant {
	return Constant{Kind: ConstString, Str: s}
}

func (c Constant) String() string {
	if c.Kind == ConstNumber {
		return strconv.FormatFloat(c.Number, 'g', -1, 64)
	}
	return fmt.Sprintf("%q", c.Str)
}

// SourceLocation maps a bytecode offset to a source line.
type SourceLocation struct {
	Offset uint32 // bytecode offset where this line starts applying
	Line   int    // 1-based source line
}

// VarSource identifies where a captured variable lives in the enclosing
// function at capture time.
type VarSource uint8

const (
	CaptureFromLocal   VarSource = iota // enclosing function's local slot
	CaptureFromCapture                  // enclosing function's own capture list
)

func (s VarSource) String() string {
	switch s {
	case CaptureFromLocal:
		return "local"
	case CaptureFromCapture:
		return "capture"
	}
	return "unknown"
}

// CaptureDescriptor describes one captured variable of a function proto.
type CaptureDescriptor struct {
	Name      string
	Source    VarSource
	SlotIndex uint8
}

// FunctionProto is the compile-time description of one function: its chunk
// plus the metadata the VM needs to build a function value at run time.
type FunctionProto struct {
	Name     string
	Arity    int
	Params   []string
	Captures []CaptureDescriptor
	Chunk    *Chunk
}

// Chunk holds one function's instruction stream, its deduplicated constant
// pool, nested function protos, and the offset-to-line table used for
// runtime diagnostics.
type Chunk struct {
	Code      []byte
	Constants []Constant
	Protos    []*FunctionProto
	SourceMap []SourceLocation

	constantMap map[Constant]uint16
}

// NewChunk creates an empty chunk.
func NewChunk() *Chunk {
	return &Chunk{
		constantMap: make(map[Constant]uint16),
	}
}

// AddConstant adds a constant to the pool, deduplicating repeats, and
// returns its index.
func (c *Chunk) AddConstant(con Constant) uint16 {
	if c.constantMap == nil {
		c.constantMap = make(map[Constant]uint16)
	}
	if idx, ok := c.constantMap[con]; ok {
		return idx
	}
	idx := uint16(len(c.Constants))
	c.Constants = append(c.Constants, con)
	c.constantMap[con] = idx
	return idx
}

// AddProto appends a nested function proto and returns its index.
func (c *Chunk) AddProto(proto *FunctionProto) uint16 {
	idx := uint16(len(c.Protos))
	c.Protos = append(c.Protos, proto)
	return idx
}

// Emit appends an opcode, recording the source line for the offset.
func (c *Chunk) Emit(op Opcode, line int) {
	c.recordLine(line)
	c.Code = append(c.Code, byte(op))
}

// EmitByte appends a raw operand byte.
func (c *Chunk) EmitByte(b byte) {
	c.Code = append(c.Code, b)
}

// EmitUint16 appends a big-endian uint16 operand.
func (c *Chunk) EmitUint16(v uint16) {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	c.Code = append(c.Code, buf[0], buf[1])
}

// EmitWithOperand appends an opcode with a single byte operand.
func (c *Chunk) EmitWithOperand(op Opcode, operand byte, line int) {
	c.Emit(op, line)
	c.EmitByte(operand)
}

// EmitWithUint16 appends an opcode with a uint16 operand.
func (c *Chunk) EmitWithUint16(op Opcode, operand uint16, line int) {
	c.Emit(op, line)
	c.EmitUint16(operand)
}

// EmitConstant adds the constant and emits OpConst for it.
func (c *Chunk) EmitConstant(con Constant, line int) {
	idx := c.AddConstant(con)
	c.EmitWithUint16(OpConst, idx, line)
}

// EmitJump emits a jump instruction with a placeholder offset and returns
// the position of the placeholder for later patching.
func (c *Chunk) EmitJump(op Opcode, line int) int {
	c.Emit(op, line)
	placeholder := len(c.Code)
	c.Code = append(c.Code, 0xFF, 0xFF)
	return placeholder
}

// PatchJump fixes up a jump placeholder to target the current end of code.
// The offset is relative to the instruction following the operand.
func (c *Chunk) PatchJump(placeholder int) error {
	delta := len(c.Code) - (placeholder + 2)
	if delta > 32767 || delta < -32768 {
		return fmt.Errorf("jump distance %d exceeds 16-bit range", delta)
	}
	binary.BigEndian.PutUint16(c.Code[placeholder:], uint16(int16(delta)))
	return nil
}

// EmitLoop emits a backward jump to loopStart.
func (c *Chunk) EmitLoop(loopStart int, line int) error {
	c.Emit(OpJump, line)
	delta := loopStart - (len(c.Code) + 2)
	if delta > 32767 || delta < -32768 {
		return fmt.Errorf("loop distance %d exceeds 16-bit range", delta)
	}
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], uint16(int16(delta)))
	c.Code = append(c.Code, buf[0], buf[1])
	return nil
}

// recordLine appends a source-map entry when the line changes.
func (c *Chunk) recordLine(line int) {
	n := len(c.SourceMap)
	if n > 0 && c.SourceMap[n-1].Line == line {
		return
	}
	c.SourceMap = append(c.SourceMap, SourceLocation{
		Offset: uint32(len(c.Code)),
		Line:   line,
	})
}

// Line returns the source line for a bytecode offset, or 0 if unknown.
// Scans the source map backwards since lookups cluster near the end.
func (c *Chunk) Line(offset uint32) int {
	for i := len(c.SourceMap) - 1; i >= 0; i-- {
		if c.SourceMap[i].Offset <= offset {
			return c.SourceMap[i].Line
		}
	}
	return 0
}

// ReadUint16 reads a big-endian uint16 operand at the given offset.
func (c *Chunk) ReadUint16(offset int) uint16 {
	if offset+1 >= len(c.Code) {
		return 0
	}
	return binary.BigEndian.Uint16(c.Code[offset:])
}

// ReadInt16 reads a big-endian int16 operand at the given offset.
func (c *Chunk) ReadInt16(offset int) int16 {
	return int16(c.ReadUint16(offset))
}
