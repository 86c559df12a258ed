package bytecode

import (
	"strings"
	"testing"
)

func TestOpcodeNames(t *testing.T) {
	tests := []struct {
		op   Opcode
		name string
	}{
		{OpNop, "NOP"},
		{OpPop, "POP"},
		{OpConst, "CONST"},
		{OpLoadLocal, "LOAD_LOCAL"},
		{OpLoadCapture, "LOAD_CAPTURE"},
		{OpDefineGlobal, "DEFINE_GLOBAL"},
		{OpAdd, "ADD"},
		{OpMod, "MOD"},
		{OpEq, "EQ"},
		{OpJumpFalse, "JUMP_FALSE"},
		{OpCall, "CALL"},
		{OpInvoke, "INVOKE"},
		{OpMakeFunction, "MAKE_FUNCTION"},
		{OpArrayNew, "ARRAY_NEW"},
		{OpIterLen, "ITER_LEN"},
		{OpMakeRange, "MAKE_RANGE"},
		{OpPrint, "PRINT"},
		{OpReturn, "RETURN"},
		{OpReturnNil, "RETURN_NIL"},
	}

	for _, tc := range tests {
		if got := tc.op.String(); got != tc.name {
			t.Errorf("Opcode(0x%02X).String() = %q, want %q", byte(tc.op), got, tc.name)
		}
	}
}

func TestOpcodeOperandLengths(t *testing.T) {
	tests := []struct {
		op  Opcode
		len int
	}{
		{OpNop, 0},
		{OpConst, 2},
		{OpLoadLocal, 1},
		{OpLoadGlobal, 2},
		{OpJump, 2},
		{OpCall, 1},
		{OpInvoke, 3},
		{OpMakeFunction, 2},
		{OpArrayNew, 2},
		{OpReturn, 0},
	}

	for _, tc := range tests {
		if got := tc.op.OperandLen(); got != tc.len {
			t.Errorf("%s.OperandLen() = %d, want %d", tc.op, got, tc.len)
		}
		if got := tc.op.InstructionLen(); got != tc.len+1 {
			t.Errorf("%s.InstructionLen() = %d, want %d", tc.op, got, tc.len+1)
		}
	}
}

func TestOpcodeIsJump(t *testing.T) {
	for _, op := range []Opcode{OpJump, OpJumpTrue, OpJumpFalse} {
		if !op.IsJump() {
			t.Errorf("%s.IsJump() = false, want true", op)
		}
	}
	for _, op := range []Opcode{OpNop, OpCall, OpReturn, OpConst} {
		if op.IsJump() {
			t.Errorf("%s.IsJump() = true, want false", op)
		}
	}
}

func TestOpcodeIsReturn(t *testing.T) {
	if !OpReturn.IsReturn() || !OpReturnNil.IsReturn() {
		t.Error("return opcodes not recognized")
	}
	if OpJump.IsReturn() || OpPop.IsReturn() {
		t.Error("non-return opcode reported as return")
	}
}

func TestAllOpcodesHaveMetadata(t *testing.T) {
	ops := AllOpcodes()
	if len(ops) != OpcodeCount() {
		t.Fatalf("AllOpcodes() length = %d, want %d", len(ops), OpcodeCount())
	}
	for _, op := range ops {
		info := GetOpcodeInfo(op)
		if info.Name == "" || strings.HasPrefix(info.Name, "UNKNOWN") {
			t.Errorf("opcode 0x%02X has no name", byte(op))
		}
		if info.OperandLen < 0 || info.OperandLen > 3 {
			t.Errorf("%s operand length %d out of range", info.Name, info.OperandLen)
		}
	}
}

func TestUnknownOpcode(t *testing.T) {
	info := GetOpcodeInfo(Opcode(0x7F))
	if !strings.HasPrefix(info.Name, "UNKNOWN") {
		t.Errorf("unknown opcode name = %q", info.Name)
	}
}
