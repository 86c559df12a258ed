package bytecode

import "fmt"

// Opcode represents a bytecode instruction.
// Opcodes are organized into ranges by category for easy identification.
type Opcode byte

const (
	// ========================================================================
	// Stack manipulation (0x00-0x0F)
	// ========================================================================

	OpNop Opcode = 0x00 // No operation
	OpPop Opcode = 0x01 // Pop top of stack
	OpDup Opcode = 0x02 // Duplicate top of stack

	// ========================================================================
	// Constants (0x10-0x1F)
	// ========================================================================

	OpConst      Opcode = 0x10 // Push constant from pool: OpConst <index:u16>
	OpConstNil   Opcode = 0x11 // Push nil
	OpConstTrue  Opcode = 0x12 // Push true
	OpConstFalse Opcode = 0x13 // Push false

	// ========================================================================
	// Local variables (0x20-0x2F)
	// ========================================================================

	OpLoadLocal  Opcode = 0x20 // Push local slot: OpLoadLocal <slot:u8>
	OpStoreLocal Opcode = 0x21 // Pop and store to local slot: OpStoreLocal <slot:u8>

	// ========================================================================
	// Captured variables (0x30-0x3F)
	// ========================================================================

	OpLoadCapture  Opcode = 0x30 // Push captured variable: OpLoadCapture <index:u8>
	OpStoreCapture Opcode = 0x31 // Pop and store to capture: OpStoreCapture <index:u8>

	// ========================================================================
	// Globals (0x40-0x4F)
	// ========================================================================

	OpDefineGlobal Opcode = 0x40 // Pop and define global: OpDefineGlobal <name:u16>
	OpLoadGlobal   Opcode = 0x41 // Push global by name: OpLoadGlobal <name:u16>
	OpStoreGlobal  Opcode = 0x42 // Pop and store existing global: OpStoreGlobal <name:u16>

	// ========================================================================
	// Arithmetic (0x50-0x5F)
	// ========================================================================

	OpAdd Opcode = 0x50 // Pop two, push sum (numbers) or concatenation (strings)
	OpSub Opcode = 0x51 // Pop two, push difference (a - b where b is TOS)
	OpMul Opcode = 0x52 // Pop two, push product
	OpDiv Opcode = 0x53 // Pop two, push quotient
	OpMod Opcode = 0x54 // Pop two, push remainder
	OpNeg Opcode = 0x55 // Negate top of stack
	OpNot Opcode = 0x56 // Logical NOT: push true if TOS is falsy

	// ========================================================================
	// Comparison (0x60-0x6F)
	// ========================================================================

	OpEq Opcode = 0x60 // Pop two, push true if equal
	OpNe Opcode = 0x61 // Pop two, push true if not equal
	OpLt Opcode = 0x62 // Pop two, push true if a < b
	OpLe Opcode = 0x63 // Pop two, push true if a <= b
	OpGt Opcode = 0x64 // Pop two, push true if a > b
	OpGe Opcode = 0x65 // Pop two, push true if a >= b

	// ========================================================================
	// Control flow (0x80-0x8F)
	// ========================================================================

	OpJump      Opcode = 0x80 // Unconditional jump: OpJump <offset:i16>
	OpJumpTrue  Opcode = 0x81 // Jump if top is truthy: OpJumpTrue <offset:i16>
	OpJumpFalse Opcode = 0x82 // Jump if top is falsy: OpJumpFalse <offset:i16>

	// ========================================================================
	// Calls and method dispatch (0x90-0x9F)
	// ========================================================================

	OpCall   Opcode = 0x90 // Call function on stack: OpCall <argc:u8>
	OpInvoke Opcode = 0x91 // Method-call dispatch: OpInvoke <name:u16> <argc:u8>

	// ========================================================================
	// Closures (0xA0-0xAF)
	// ========================================================================

	OpMakeFunction Opcode = 0xA0 // Create function value: OpMakeFunction <proto:u16>

	// ========================================================================
	// Arrays, ranges and indexing (0xB0-0xBF)
	// ========================================================================

	OpArrayNew  Opcode = 0xB0 // Create array from stack values: OpArrayNew <count:u16>
	OpIndexGet  Opcode = 0xB1 // base index -> base[index]
	OpIndexSet  Opcode = 0xB2 // base index value -> value (stores base[index] = value)
	OpIterLen   Opcode = 0xB3 // iterable (array or range) -> element count as number
	OpMakeRange Opcode = 0xB4 // lo hi -> half-open range lo..hi

	// ========================================================================
	// I/O (0xC0-0xCF)
	// ========================================================================

	OpPrint Opcode = 0xC0 // Pop and print with trailing newline

	// ========================================================================
	// Return (0xF0-0xFF)
	// ========================================================================

	OpReturn    Opcode = 0xF0 // Return top of stack from function
	OpReturnNil Opcode = 0xF1 // Return nil
)

// OpcodeInfo provides metadata about each opcode for debugging and validation.
type OpcodeInfo struct {
	Name       string // Human-readable name
	StackPop   int    // How many values popped from stack (-1 = variable)
	StackPush  int    // How many values pushed to stack
	OperandLen int    // Number of operand bytes following the opcode
}

// opcodeInfoTable maps opcodes to their metadata.
var opcodeInfoTable = map[Opcode]OpcodeInfo{
	// Stack manipulation
	OpNop: {"NOP", 0, 0, 0},
	OpPop: {"POP", 1, 0, 0},
	OpDup: {"DUP", 1, 2, 0},

	// Constants
	OpConst:      {"CONST", 0, 1, 2},
	OpConstNil:   {"CONST_NIL", 0, 1, 0},
	OpConstTrue:  {"CONST_TRUE", 0, 1, 0},
	OpConstFalse: {"CONST_FALSE", 0, 1, 0},

	// Local variables
	OpLoadLocal:  {"LOAD_LOCAL", 0, 1, 1},
	OpStoreLocal: {"STORE_LOCAL", 1, 0, 1},

	// Captures
	OpLoadCapture:  {"LOAD_CAPTURE", 0, 1, 1},
	OpStoreCapture: {"STORE_CAPTURE", 1, 0, 1},

	// Globals
	OpDefineGlobal: {"DEFINE_GLOBAL", 1, 0, 2},
	OpLoadGlobal:   {"LOAD_GLOBAL", 0, 1, 2},
	OpStoreGlobal:  {"STORE_GLOBAL", 1, 0, 2},

	// Arithmetic
	OpAdd: {"ADD", 2, 1, 0},
	OpSub: {"SUB", 2, 1, 0},
	OpMul: {"MUL", 2, 1, 0},
	OpDiv: {"DIV", 2, 1, 0},
	OpMod: {"MOD", 2, 1, 0},
	OpNeg: {"NEG", 1, 1, 0},
	OpNot: {"NOT", 1, 1, 0},

	// Comparison
	OpEq: {"EQ", 2, 1, 0},
	OpNe: {"NE", 2, 1, 0},
	OpLt: {"LT", 2, 1, 0},
	OpLe: {"LE", 2, 1, 0},
	OpGt: {"GT", 2, 1, 0},
	OpGe: {"GE", 2, 1, 0},

	// Control flow
	OpJump:      {"JUMP", 0, 0, 2},
	OpJumpTrue:  {"JUMP_TRUE", 1, 0, 2},
	OpJumpFalse: {"JUMP_FALSE", 1, 0, 2},

	// Calls
	OpCall:   {"CALL", -1, 1, 1},   // Pops callee + argc args
	OpInvoke: {"INVOKE", -1, 1, 3}, // Pops receiver + argc args

	// Closures
	OpMakeFunction: {"MAKE_FUNCTION", 0, 1, 2},

	// Arrays and ranges
	OpArrayNew:  {"ARRAY_NEW", -1, 1, 2}, // Pops count values
	OpIndexGet:  {"INDEX_GET", 2, 1, 0},
	OpIndexSet:  {"INDEX_SET", 3, 1, 0},
	OpIterLen:   {"ITER_LEN", 1, 1, 0},
	OpMakeRange: {"MAKE_RANGE", 2, 1, 0},

	// I/O
	OpPrint: {"PRINT", 1, 0, 0},

	// Return
	OpReturn:    {"RETURN", 1, 0, 0},
	OpReturnNil: {"RETURN_NIL", 0, 0, 0},
}

// GetOpcodeInfo returns metadata for an opcode.
// Returns a zero OpcodeInfo with name "UNKNOWN" if the opcode is not recognized.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(0x%02X)", byte(op)), StackPop: 0, StackPush: 0, OperandLen: 0}
}

// String returns the human-readable name of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// OperandLen returns the number of operand bytes for this opcode.
func (op Opcode) OperandLen() int {
	return GetOpcodeInfo(op).OperandLen
}

// InstructionLen returns the total length of an instruction (1 + operand bytes).
func (op Opcode) InstructionLen() int {
	return 1 + op.OperandLen()
}

// IsJump returns true if this opcode is a jump instruction.
func (op Opcode) IsJump() bool {
	return op >= OpJump && op <= OpJumpFalse
}

// IsReturn returns true if this opcode terminates the current frame.
func (op Opcode) IsReturn() bool {
	return op == OpReturn || op == OpReturnNil
}

// AllOpcodes returns a slice of all defined opcodes.
// Useful for testing that all opcodes have metadata.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, 0, len(opcodeInfoTable))
	for op := range opcodeInfoTable {
		opcodes = append(opcodes, op)
	}
	return opcodes
}

// OpcodeCount returns the number of defined opcodes.
func OpcodeCount() int {
	return len(opcodeInfoTable)
}
