package bytecode

import (
	"testing"
)

func TestAddConstantDedup(t *testing.T) {
	c := NewChunk()

	a := c.AddConstant(NumberConstant(1))
	b := c.AddConstant(StringConstant("hello"))
	again := c.AddConstant(NumberConstant(1))
	strAgain := c.AddConstant(StringConstant("hello"))

	if a != again {
		t.Errorf("duplicate number constant: index %d then %d", a, again)
	}
	if b != strAgain {
		t.Errorf("duplicate string constant: index %d then %d", b, strAgain)
	}
	if len(c.Constants) != 2 {
		t.Errorf("constant pool size = %d, want 2", len(c.Constants))
	}

	// A number and a string never collide
	if c.AddConstant(NumberConstant(2)) == c.AddConstant(StringConstant("2")) {
		t.Error("number 2 and string \"2\" share an index")
	}
}

func TestEmitUint16RoundTrip(t *testing.T) {
	c := NewChunk()
	c.Emit(OpConst, 1)
	c.EmitUint16(0xBEEF)

	if got := c.ReadUint16(1); got != 0xBEEF {
		t.Errorf("ReadUint16 = 0x%04X, want 0xBEEF", got)
	}
}

func TestEmitJumpAndPatch(t *testing.T) {
	c := NewChunk()
	placeholder := c.EmitJump(OpJumpFalse, 1)

	// Placeholder sits right after the opcode byte
	if placeholder != 1 {
		t.Fatalf("placeholder = %d, want 1", placeholder)
	}

	c.Emit(OpNop, 1)
	c.Emit(OpNop, 1)
	if err := c.PatchJump(placeholder); err != nil {
		t.Fatalf("PatchJump: %v", err)
	}

	// Two NOPs follow the operand, so the delta is 2
	if got := c.ReadInt16(placeholder); got != 2 {
		t.Errorf("patched delta = %d, want 2", got)
	}
}

func TestEmitLoopBackwardDelta(t *testing.T) {
	c := NewChunk()
	loopStart := len(c.Code)
	c.Emit(OpNop, 1)
	c.Emit(OpNop, 1)
	if err := c.EmitLoop(loopStart, 1); err != nil {
		t.Fatalf("EmitLoop: %v", err)
	}

	// Code is NOP NOP JUMP d d; ip after reading the operand is 5, and the
	// jump must land back on offset 0.
	delta := c.ReadInt16(3)
	if int(delta)+5 != loopStart {
		t.Errorf("loop delta = %d, lands at %d, want %d", delta, int(delta)+5, loopStart)
	}
}

func TestSourceMapLines(t *testing.T) {
	c := NewChunk()
	c.Emit(OpNop, 1)
	c.Emit(OpNop, 1)
	c.Emit(OpNop, 3)
	c.Emit(OpNop, 7)

	// Entries only on line changes
	if len(c.SourceMap) != 3 {
		t.Fatalf("source map entries = %d, want 3", len(c.SourceMap))
	}

	tests := []struct {
		offset uint32
		line   int
	}{
		{0, 1},
		{1, 1},
		{2, 3},
		{3, 7},
	}
	for _, tc := range tests {
		if got := c.Line(tc.offset); got != tc.line {
			t.Errorf("Line(%d) = %d, want %d", tc.offset, got, tc.line)
		}
	}
}

func TestLineUnknownOffset(t *testing.T) {
	c := NewChunk()
	if got := c.Line(0); got != 0 {
		t.Errorf("Line on empty chunk = %d, want 0", got)
	}
}

func TestEmitConstant(t *testing.T) {
	c := NewChunk()
	c.EmitConstant(NumberConstant(3.5), 2)

	if Opcode(c.Code[0]) != OpConst {
		t.Fatalf("opcode = %s, want CONST", Opcode(c.Code[0]))
	}
	idx := c.ReadUint16(1)
	if c.Constants[idx].Number != 3.5 {
		t.Errorf("constant = %v, want 3.5", c.Constants[idx])
	}
}

func TestAddProto(t *testing.T) {
	c := NewChunk()
	p1 := &FunctionProto{Name: "a", Chunk: NewChunk()}
	p2 := &FunctionProto{Name: "b", Chunk: NewChunk()}

	if idx := c.AddProto(p1); idx != 0 {
		t.Errorf("first proto index = %d, want 0", idx)
	}
	if idx := c.AddProto(p2); idx != 1 {
		t.Errorf("second proto index = %d, want 1", idx)
	}
	if c.Protos[1].Name != "b" {
		t.Errorf("proto[1] = %q, want b", c.Protos[1].Name)
	}
}
