package vm

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/chazu/nlx/pkg/bytecode"
)

// ---------------------------------------------------------------------------
// VM: stack-based bytecode interpreter
// ---------------------------------------------------------------------------

// NativeFn implements one builtin method. It receives the VM for arena
// access, the receiver, and the argument values.
type NativeFn func(vm *VM, recv Value, args []Value) (Value, error)

// Native describes one builtin method: its name, declared arity, and
// implementation. Native values on the stack reference these by id.
type Native struct {
	Name  string
	Arity int
	Fn    NativeFn
}

// frame is one function invocation: its function object, instruction
// pointer, and the stack offset of its first local slot.
type frame struct {
	fn   *FunctionObject
	ip   int
	base int
}

const initialStackSize = 256

// VM executes compiled bytecode. Each instance owns its arena, operand
// stack, call-frame stack, and global table; instances never share state,
// so independent VMs (e.g. in tests) do not interfere.
//
// Execution is single-threaded and synchronous: every instruction runs to
// completion before the next is dispatched.
type VM struct {
	arena   *Arena
	globals map[string]Value

	stack  []Value
	sp     int
	frames []frame

	// Builtin method dispatch: (receiver kind, name) -> native value.
	natives       []*Native
	stringMethods map[string]Value
	arrayMethods  map[string]Value
	numberMethods map[string]Value
	rangeMethods  map[string]Value

	stdout io.Writer
	log    commonlog.Logger

	// Trace logs every instruction through the logger at debug level.
	Trace bool
}

// NewVM creates a VM with a fresh arena and global table.
func NewVM() *VM {
	vm := &VM{
		arena:         NewArena(),
		globals:       make(map[string]Value),
		stack:         make([]Value, initialStackSize),
		stringMethods: make(map[string]Value),
		arrayMethods:  make(map[string]Value),
		numberMethods: make(map[string]Value),
		rangeMethods:  make(map[string]Value),
		stdout:        os.Stdout,
		log:           commonlog.GetLogger("nlx.vm"),
	}
	vm.registerStringPrimitives()
	vm.registerArrayPrimitives()
	vm.registerNumberPrimitives()
	vm.registerRangePrimitives()
	return vm
}

// SetOutput redirects print output, which defaults to stdout.
func (vm *VM) SetOutput(w io.Writer) {
	vm.stdout = w
}

// Arena exposes the VM's arena, mainly for natives and tests.
func (vm *VM) Arena() *Arena {
	return vm.arena
}

// Global returns a global by name.
func (vm *VM) Global(name string) (Value, bool) {
	v, ok := vm.globals[name]
	return v, ok
}

// registerNative adds a builtin method to a dispatch table.
func (vm *VM) registerNative(table map[string]Value, name string, arity int, fn NativeFn) {
	id := uint32(len(vm.natives))
	vm.natives = append(vm.natives, &Native{Name: name, Arity: arity, Fn: fn})
	table[name] = FromNativeID(id)
}

// lookupMethod resolves (receiver kind, name) to a native value.
func (vm *VM) lookupMethod(kind Kind, name string) (Value, bool) {
	var table map[string]Value
	switch kind {
	case KindString:
		table = vm.stringMethods
	case KindArray:
		table = vm.arrayMethods
	case KindNumber:
		table = vm.numberMethods
	case KindRange:
		table = vm.rangeMethods
	default:
		return Nil, false
	}
	v, ok := table[name]
	return v, ok
}

// ---------------------------------------------------------------------------
// Stack helpers
// ---------------------------------------------------------------------------

func (vm *VM) push(v Value) {
	if vm.sp >= len(vm.stack) {
		grown := make([]Value, len(vm.stack)*2)
		copy(grown, vm.stack)
		vm.stack = grown
	}
	vm.stack[vm.sp] = v
	vm.sp++
}

func (vm *VM) pop() Value {
	vm.sp--
	return vm.stack[vm.sp]
}

// peek returns the value n slots below the top without popping.
func (vm *VM) peek(n int) Value {
	return vm.stack[vm.sp-1-n]
}

// ---------------------------------------------------------------------------
// Execution
// ---------------------------------------------------------------------------

// Interpret runs a compiled script function to completion. The VM's globals
// and arena survive across calls, so a REPL can interpret repeatedly
// against shared state. Returns a *RuntimeError on any runtime fault.
func (vm *VM) Interpret(proto *bytecode.FunctionProto) error {
	script := &FunctionObject{Proto: proto}
	vm.sp = 0
	vm.frames = vm.frames[:0]
	vm.frames = append(vm.frames, frame{fn: script, base: 0})
	return vm.run()
}

// run is the dispatch loop.
func (vm *VM) run() error {
	for {
		f := &vm.frames[len(vm.frames)-1]
		chunk := f.fn.Proto.Chunk
		opOffset := f.ip
		op := bytecode.Opcode(chunk.Code[f.ip])
		f.ip++

		if vm.Trace {
			vm.log.Debugf("[%04x] %-16s sp=%d frames=%d", opOffset, chunk.DisassembleInstruction(opOffset), vm.sp, len(vm.frames))
		}

		switch op {

		// ============ Stack manipulation ============

		case bytecode.OpNop:
			// nothing

		case bytecode.OpPop:
			vm.pop()

		case bytecode.OpDup:
			vm.push(vm.peek(0))

		// ============ Constants ============

		case bytecode.OpConst:
			idx := vm.readUint16(f)
			con := chunk.Constants[idx]
			if con.Kind == bytecode.ConstNumber {
				vm.push(FromFloat64(con.Number))
			} else {
				vm.push(vm.arena.InternString(con.Str))
			}

		case bytecode.OpConstNil:
			vm.push(Nil)

		case bytecode.OpConstTrue:
			vm.push(True)

		case bytecode.OpConstFalse:
			vm.push(False)

		// ============ Local variables ============

		case bytecode.OpLoadLocal:
			slot := vm.readByte(f)
			vm.push(vm.stack[f.base+int(slot)])

		case bytecode.OpStoreLocal:
			slot := vm.readByte(f)
			vm.stack[f.base+int(slot)] = vm.pop()

		// ============ Captured variables ============

		case bytecode.OpLoadCapture:
			idx := vm.readByte(f)
			vm.push(f.fn.Cells[idx].Value)

		case bytecode.OpStoreCapture:
			idx := vm.readByte(f)
			f.fn.Cells[idx].Value = vm.pop()

		// ============ Globals ============

		case bytecode.OpDefineGlobal:
			name := chunk.Constants[vm.readUint16(f)].Str
			vm.globals[name] = vm.pop()

		case bytecode.OpLoadGlobal:
			name := chunk.Constants[vm.readUint16(f)].Str
			v, ok := vm.globals[name]
			if !ok {
				return vm.runtimeError(f, opOffset, UndefinedVariable, "undefined variable %q", name)
			}
			vm.push(v)

		case bytecode.OpStoreGlobal:
			name := chunk.Constants[vm.readUint16(f)].Str
			if _, ok := vm.globals[name]; !ok {
				return vm.runtimeError(f, opOffset, UndefinedVariable, "undefined variable %q", name)
			}
			vm.globals[name] = vm.pop()

		// ============ Arithmetic ============

		case bytecode.OpAdd:
			b := vm.pop()
			a := vm.pop()
			switch {
			case a.IsNumber() && b.IsNumber():
				vm.push(FromFloat64(a.Float64() + b.Float64()))
			case a.IsString() && b.IsString():
				vm.push(vm.arena.InternString(vm.arena.GetString(a) + vm.arena.GetString(b)))
			default:
				return vm.runtimeError(f, opOffset, TypeMismatch, "cannot add %s and %s", a.TypeName(), b.TypeName())
			}

		case bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv, bytecode.OpMod:
			b := vm.pop()
			a := vm.pop()
			if !a.IsNumber() || !b.IsNumber() {
				return vm.runtimeError(f, opOffset, TypeMismatch, "operands of %s must be numbers, got %s and %s", op, a.TypeName(), b.TypeName())
			}
			x, y := a.Float64(), b.Float64()
			switch op {
			case bytecode.OpSub:
				vm.push(FromFloat64(x - y))
			case bytecode.OpMul:
				vm.push(FromFloat64(x * y))
			case bytecode.OpDiv:
				if y == 0 {
					return vm.runtimeError(f, opOffset, DivisionByZero, "division by zero")
				}
				vm.push(FromFloat64(x / y))
			case bytecode.OpMod:
				if y == 0 {
					return vm.runtimeError(f, opOffset, DivisionByZero, "modulo by zero")
				}
				vm.push(FromFloat64(math.Mod(x, y)))
			}

		case bytecode.OpNeg:
			v := vm.pop()
			if !v.IsNumber() {
				return vm.runtimeError(f, opOffset, TypeMismatch, "operand of unary - must be a number, got %s", v.TypeName())
			}
			vm.push(FromFloat64(-v.Float64()))

		case bytecode.OpNot:
			vm.push(FromBool(vm.pop().IsFalsy()))

		// ============ Comparison ============

		case bytecode.OpEq:
			b := vm.pop()
			a := vm.pop()
			vm.push(FromBool(vm.valuesEqual(a, b)))

		case bytecode.OpNe:
			b := vm.pop()
			a := vm.pop()
			vm.push(FromBool(!vm.valuesEqual(a, b)))

		case bytecode.OpLt, bytecode.OpLe, bytecode.OpGt, bytecode.OpGe:
			b := vm.pop()
			a := vm.pop()
			if !a.IsNumber() || !b.IsNumber() {
				return vm.runtimeError(f, opOffset, TypeMismatch, "operands of %s must be numbers, got %s and %s", op, a.TypeName(), b.TypeName())
			}
			x, y := a.Float64(), b.Float64()
			switch op {
			case bytecode.OpLt:
				vm.push(FromBool(x < y))
			case bytecode.OpLe:
				vm.push(FromBool(x <= y))
			case bytecode.OpGt:
				vm.push(FromBool(x > y))
			case bytecode.OpGe:
				vm.push(FromBool(x >= y))
			}

		// ============ Control flow ============

		case bytecode.OpJump:
			delta := vm.readInt16(f)
			f.ip += int(delta)

		case bytecode.OpJumpTrue:
			delta := vm.readInt16(f)
			if vm.pop().IsTruthy() {
				f.ip += int(delta)
			}

		case bytecode.OpJumpFalse:
			delta := vm.readInt16(f)
			if vm.pop().IsFalsy() {
				f.ip += int(delta)
			}

		// ============ Calls and method dispatch ============

		case bytecode.OpCall:
			argc := int(vm.readByte(f))
			callee := vm.peek(argc)
			if !callee.IsFunction() {
				return vm.runtimeError(f, opOffset, TypeMismatch, "cannot call a %s value", callee.TypeName())
			}
			fn := vm.arena.GetFunction(callee)
			if fn.Proto.Arity != argc {
				return vm.runtimeError(f, opOffset, ArityMismatch, "%s expects %d arguments, got %d", fn.Proto.Name, fn.Proto.Arity, argc)
			}
			vm.frames = append(vm.frames, frame{
				fn:   fn,
				base: vm.sp - argc,
			})

		case bytecode.OpInvoke:
			nameIdx := vm.readUint16(f)
			argc := int(vm.readByte(f))
			name := chunk.Constants[nameIdx].Str
			recv := vm.peek(argc)

			method, ok := vm.lookupMethod(recv.Kind(), name)
			if !ok {
				return vm.runtimeError(f, opOffset, NoSuchMethod, "%s has no method %q", recv.TypeName(), name)
			}
			native := vm.natives[method.NativeID()]
			if native.Arity != argc {
				return vm.runtimeError(f, opOffset, ArityMismatch, "%s:%s expects %d arguments, got %d", recv.TypeName(), name, native.Arity, argc)
			}

			args := make([]Value, argc)
			copy(args, vm.stack[vm.sp-argc:vm.sp])
			result, err := native.Fn(vm, recv, args)
			if err != nil {
				return vm.nativeError(f, opOffset, err)
			}
			vm.sp -= argc + 1
			vm.push(result)

		// ============ Closures ============

		case bytecode.OpMakeFunction:
			idx := vm.readUint16(f)
			proto := chunk.Protos[idx]
			cells := make([]*Cell, len(proto.Captures))
			for i, cap := range proto.Captures {
				if cap.Source == bytecode.CaptureFromLocal {
					cells[i] = &Cell{Value: vm.stack[f.base+int(cap.SlotIndex)]}
				} else {
					cells[i] = f.fn.Cells[cap.SlotIndex]
				}
			}
			vm.push(vm.arena.NewFunction(proto, cells))

		// ============ Arrays and indexing ============

		case bytecode.OpArrayNew:
			count := int(vm.readUint16(f))
			elements := make([]Value, count)
			copy(elements, vm.stack[vm.sp-count:vm.sp])
			vm.sp -= count
			vm.push(vm.arena.NewArray(elements))

		case bytecode.OpIndexGet:
			idxVal := vm.pop()
			base := vm.pop()
			switch {
			case base.IsArray():
				idx, err := arrayIndex(idxVal)
				if err != nil {
					return vm.nativeError(f, opOffset, err)
				}
				arr := vm.arena.GetArray(base)
				if idx < 0 || idx >= len(arr.Elements) {
					return vm.runtimeError(f, opOffset, IndexOutOfRange, "index %d out of range for array of length %d", idx, len(arr.Elements))
				}
				vm.push(arr.Elements[idx])
			case base.IsRange():
				idx, err := arrayIndex(idxVal)
				if err != nil {
					return vm.nativeError(f, opOffset, err)
				}
				r := vm.arena.GetRange(base)
				if idx < 0 || idx >= rangeLen(r) {
					return vm.runtimeError(f, opOffset, IndexOutOfRange, "index %d out of range for range of length %d", idx, rangeLen(r))
				}
				vm.push(FromFloat64(r.Lo + float64(idx)))
			default:
				return vm.runtimeError(f, opOffset, TypeMismatch, "cannot index a %s value", base.TypeName())
			}

		case bytecode.OpIndexSet:
			value := vm.pop()
			idxVal := vm.pop()
			base := vm.pop()
			if !base.IsArray() {
				return vm.runtimeError(f, opOffset, TypeMismatch, "cannot index a %s value", base.TypeName())
			}
			idx, err := arrayIndex(idxVal)
			if err != nil {
				return vm.nativeError(f, opOffset, err)
			}
			arr := vm.arena.GetArray(base)
			switch {
			case idx >= 0 && idx < len(arr.Elements):
				arr.Elements[idx] = value
			case idx == len(arr.Elements):
				// Assignment at exactly the current length appends.
				arr.Elements = append(arr.Elements, value)
			default:
				return vm.runtimeError(f, opOffset, IndexOutOfRange, "index %d out of range for array of length %d", idx, len(arr.Elements))
			}
			vm.push(value)

		case bytecode.OpIterLen:
			v := vm.pop()
			switch {
			case v.IsArray():
				vm.push(FromFloat64(float64(len(vm.arena.GetArray(v).Elements))))
			case v.IsRange():
				vm.push(FromFloat64(float64(rangeLen(vm.arena.GetRange(v)))))
			default:
				return vm.runtimeError(f, opOffset, TypeMismatch, "cannot iterate over a %s value", v.TypeName())
			}

		case bytecode.OpMakeRange:
			hi := vm.pop()
			lo := vm.pop()
			if !lo.IsNumber() || !hi.IsNumber() {
				return vm.runtimeError(f, opOffset, TypeMismatch, "range bounds must be numbers, got %s and %s", lo.TypeName(), hi.TypeName())
			}
			vm.push(vm.arena.NewRange(lo.Float64(), hi.Float64()))

		// ============ I/O ============

		case bytecode.OpPrint:
			fmt.Fprintln(vm.stdout, vm.FormatValue(vm.pop()))

		// ============ Return ============

		case bytecode.OpReturn, bytecode.OpReturnNil:
			var result Value
			if op == bytecode.OpReturn {
				result = vm.pop()
			} else {
				result = Nil
			}
			if len(vm.frames) == 1 {
				// End of the top-level script.
				return nil
			}
			// Discard the frame's window and the callee beneath it.
			vm.sp = f.base - 1
			vm.frames = vm.frames[:len(vm.frames)-1]
			vm.push(result)

		default:
			return vm.runtimeError(f, opOffset, TypeMismatch, "unknown opcode 0x%02X", byte(op))
		}
	}
}

// ---------------------------------------------------------------------------
// Operand decoding
// ---------------------------------------------------------------------------

func (vm *VM) readByte(f *frame) byte {
	b := f.fn.Proto.Chunk.Code[f.ip]
	f.ip++
	return b
}

func (vm *VM) readUint16(f *frame) uint16 {
	v := f.fn.Proto.Chunk.ReadUint16(f.ip)
	f.ip += 2
	return v
}

func (vm *VM) readInt16(f *frame) int16 {
	return int16(vm.readUint16(f))
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

func (vm *VM) runtimeError(f *frame, opOffset int, kind RuntimeErrorKind, format string, args ...any) error {
	err := &RuntimeError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Line:    f.fn.Proto.Chunk.Line(uint32(opOffset)),
	}
	vm.log.Errorf("%s", err.Error())
	return err
}

// nativeError attaches the faulting line to an error from a native or
// helper, preserving its kind when it already is a RuntimeError.
func (vm *VM) nativeError(f *frame, opOffset int, err error) error {
	if re, ok := err.(*RuntimeError); ok {
		if re.Line == 0 {
			re.Line = f.fn.Proto.Chunk.Line(uint32(opOffset))
		}
		vm.log.Errorf("%s", re.Error())
		return re
	}
	return vm.runtimeError(f, opOffset, IOError, "%v", err)
}

// valuesEqual compares two values for == and !=. Ranges compare by their
// bounds; everything else follows Value.Equals.
func (vm *VM) valuesEqual(a, b Value) bool {
	if a.IsRange() && b.IsRange() {
		return vm.arena.GetRange(a) == vm.arena.GetRange(b)
	}
	return a.Equals(b)
}

// rangeLen returns the number of whole steps from Lo while below Hi.
func rangeLen(r RangeObject) int {
	if !(r.Hi > r.Lo) {
		return 0
	}
	return int(math.Ceil(r.Hi - r.Lo))
}

// arrayIndex converts an index value to a non-negative-checked int.
func arrayIndex(v Value) (int, error) {
	if !v.IsNumber() {
		return 0, &RuntimeError{Kind: TypeMismatch, Message: fmt.Sprintf("array index must be a number, got %s", v.TypeName())}
	}
	n := v.Float64()
	i := int(n)
	if float64(i) != n {
		return 0, &RuntimeError{Kind: TypeMismatch, Message: fmt.Sprintf("array index must be an integer, got %v", n)}
	}
	return i, nil
}

// ---------------------------------------------------------------------------
// Value rendering
// ---------------------------------------------------------------------------

// FormatValue renders a value the way print does: numbers in minimal
// decimal form, strings unquoted, arrays bracketed.
func (vm *VM) FormatValue(v Value) string {
	return vm.formatValue(v, nil)
}

// formatValue renders v while tracking the array handles currently being
// rendered, so a cyclic array prints as [...] instead of recursing forever.
func (vm *VM) formatValue(v Value, active map[Handle]bool) string {
	switch v.Kind() {
	case KindNumber:
		return formatNumber(v.Float64())
	case KindBool:
		if v == True {
			return "true"
		}
		return "false"
	case KindNil:
		return "nil"
	case KindString:
		return vm.arena.GetString(v)
	case KindArray:
		h := v.ArrayHandle()
		if active[h] {
			return "[...]"
		}
		if active == nil {
			active = make(map[Handle]bool)
		}
		active[h] = true
		arr := vm.arena.GetArray(v)
		parts := make([]string, len(arr.Elements))
		for i, elem := range arr.Elements {
			parts[i] = vm.formatValue(elem, active)
		}
		delete(active, h)
		return "[" + strings.Join(parts, ", ") + "]"
	case KindFunction:
		return "<fn " + vm.arena.GetFunction(v).Proto.Name + ">"
	case KindRange:
		r := vm.arena.GetRange(v)
		return formatNumber(r.Lo) + ".." + formatNumber(r.Hi)
	case KindNative:
		return "<native fn " + vm.natives[v.NativeID()].Name + ">"
	}
	return "<unknown>"
}

// formatNumber renders integral values without a fractional part.
func formatNumber(n float64) string {
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}
