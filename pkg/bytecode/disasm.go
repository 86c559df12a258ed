package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable bytecode listing for the proto and
// all of its nested function protos.
func (p *FunctionProto) Disassemble() string {
	var sb strings.Builder
	p.disassembleInto(&sb)
	return sb.String()
}

func (p *FunctionProto) disassembleInto(sb *strings.Builder) {
	sb.WriteString(fmt.Sprintf("; === %s ===\n", p.Name))
	if p.Arity > 0 {
		sb.WriteString(fmt.Sprintf("; Parameters (%d): %s\n", p.Arity, strings.Join(p.Params, ", ")))
	}
	if len(p.Captures) > 0 {
		sb.WriteString("; Captures:\n")
		for i, cap := range p.Captures {
			sb.WriteString(fmt.Sprintf(";   [%3d] %s (%s, slot=%d)\n",
				i, cap.Name, cap.Source.String(), cap.SlotIndex))
		}
	}
	sb.WriteString(p.Chunk.Disassemble())
	sb.WriteString("\n")

	for _, nested := range p.Chunk.Protos {
		nested.disassembleInto(sb)
	}
}

// Disassemble returns a human-readable listing of one chunk.
func (c *Chunk) Disassemble() string {
	var sb strings.Builder

	if len(c.Constants) > 0 {
		sb.WriteString("; Constants:\n")
		for i, con := range c.Constants {
			display := con.String()
			if len(display) > 40 {
				display = display[:37] + "..."
			}
			display = strings.ReplaceAll(display, "\n", "\\n")
			display = strings.ReplaceAll(display, "\t", "\\t")
			sb.WriteString(fmt.Sprintf(";   [%3d] %s\n", i, display))
		}
	}

	sb.WriteString("; Code:\n")
	offset := 0
	lastLine := 0
	for offset < len(c.Code) {
		line, instrLen := c.disassembleInstruction(offset)
		srcLine := c.Line(uint32(offset))
		if srcLine != lastLine {
			sb.WriteString(fmt.Sprintf("%04X  %-30s ; line %d\n", offset, line, srcLine))
			lastLine = srcLine
		} else {
			sb.WriteString(fmt.Sprintf("%04X  %s\n", offset, line))
		}
		offset += instrLen
	}

	return sb.String()
}

// disassembleInstruction disassembles a single instruction at the given offset.
// Returns the formatted string and the instruction length.
func (c *Chunk) disassembleInstruction(offset int) (string, int) {
	if offset >= len(c.Code) {
		return "<end of code>", 0
	}

	op := Opcode(c.Code[offset])
	info := GetOpcodeInfo(op)

	switch op {
	case OpConst:
		idx := c.ReadUint16(offset + 1)
		constVal := ""
		if int(idx) < len(c.Constants) {
			constVal = c.Constants[idx].String()
			if len(constVal) > 20 {
				constVal = constVal[:17] + "..."
			}
		}
		return fmt.Sprintf("CONST %d ; %s", idx, constVal), 3

	case OpLoadLocal, OpStoreLocal, OpLoadCapture, OpStoreCapture:
		slot := c.Code[offset+1]
		return fmt.Sprintf("%s %d", info.Name, slot), 2

	case OpDefineGlobal, OpLoadGlobal, OpStoreGlobal:
		idx := c.ReadUint16(offset + 1)
		name := ""
		if int(idx) < len(c.Constants) {
			name = c.Constants[idx].Str
		}
		return fmt.Sprintf("%s %d ; %s", info.Name, idx, name), 3

	case OpJump, OpJumpTrue, OpJumpFalse:
		delta := c.ReadInt16(offset + 1)
		target := offset + 3 + int(delta)
		return fmt.Sprintf("%s %+d (-> %04X)", info.Name, delta, target), 3

	case OpCall:
		argc := c.Code[offset+1]
		return fmt.Sprintf("CALL argc=%d", argc), 2

	case OpInvoke:
		nameIdx := c.ReadUint16(offset + 1)
		argc := c.Code[offset+3]
		name := ""
		if int(nameIdx) < len(c.Constants) {
			name = c.Constants[nameIdx].Str
		}
		return fmt.Sprintf("INVOKE %d (%s) argc=%d", nameIdx, name, argc), 4

	case OpMakeFunction:
		idx := c.ReadUint16(offset + 1)
		name := ""
		if int(idx) < len(c.Protos) {
			name = c.Protos[idx].Name
		}
		return fmt.Sprintf("MAKE_FUNCTION %d ; %s", idx, name), 3

	case OpArrayNew:
		count := c.ReadUint16(offset + 1)
		return fmt.Sprintf("ARRAY_NEW count=%d", count), 3

	default:
		instrLen := 1 + info.OperandLen
		if info.OperandLen == 0 {
			return info.Name, instrLen
		}
		operands := make([]string, 0, info.OperandLen)
		for i := 0; i < info.OperandLen; i++ {
			if offset+1+i < len(c.Code) {
				operands = append(operands, fmt.Sprintf("0x%02X", c.Code[offset+1+i]))
			}
		}
		return fmt.Sprintf("%s %s", info.Name, strings.Join(operands, " ")), instrLen
	}
}

// DisassembleInstruction returns a human-readable representation of a single instruction.
func (c *Chunk) DisassembleInstruction(offset int) string {
	line, _ := c.disassembleInstruction(offset)
	return line
}

// InstructionCount returns the number of instructions in the chunk.
// Note: This iterates through all code, so it's O(n).
func (c *Chunk) InstructionCount() int {
	count := 0
	offset := 0
	for offset < len(c.Code) {
		op := Opcode(c.Code[offset])
		offset += op.InstructionLen()
		count++
	}
	return count
}
