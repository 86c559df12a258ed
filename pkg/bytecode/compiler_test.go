package bytecode

import (
	"strings"
	"testing"

	"github.com/chazu/nlx/compiler"
)

// mustCompile compiles source and fails the test on any diagnostic.
func mustCompile(t *testing.T, source string) *FunctionProto {
	t.Helper()
	proto, diags := Compile(source)
	if diags.HasErrors() {
		t.Fatalf("Compile(%q): %v", source, diags)
	}
	return proto
}

// compileErrors compiles source that must fail and returns the diagnostics.
func compileErrors(t *testing.T, source string) compiler.Diagnostics {
	t.Helper()
	proto, diags := Compile(source)
	if !diags.HasErrors() {
		t.Fatalf("Compile(%q): expected errors, got none", source)
	}
	if proto != nil {
		t.Fatalf("Compile(%q): returned proto despite errors", source)
	}
	return diags
}

// opcodes walks a chunk's instruction stream and returns the opcode at each
// instruction boundary.
func opcodes(c *Chunk) []Opcode {
	var ops []Opcode
	for i := 0; i < len(c.Code); {
		op := Opcode(c.Code[i])
		ops = append(ops, op)
		i += op.InstructionLen()
	}
	return ops
}

func opcodesEqual(got, want []Opcode) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestCompileArithmetic(t *testing.T) {
	proto := mustCompile(t, "print 1 + 2 * 3;")

	want := []Opcode{OpConst, OpConst, OpConst, OpMul, OpAdd, OpPrint, OpReturnNil}
	got := opcodes(proto.Chunk)
	if !opcodesEqual(got, want) {
		t.Errorf("opcodes = %v, want %v", got, want)
	}
}

func TestCompileScriptProto(t *testing.T) {
	proto := mustCompile(t, "print 5;")
	if proto.Name != "<script>" {
		t.Errorf("script proto name = %q", proto.Name)
	}
	if proto.Arity != 0 {
		t.Errorf("script arity = %d, want 0", proto.Arity)
	}
}

func TestCompileConstantDedup(t *testing.T) {
	proto := mustCompile(t, "print 7; print 7; print 7;")
	if len(proto.Chunk.Constants) != 1 {
		t.Errorf("constant pool = %v, want one entry", proto.Chunk.Constants)
	}
}

func TestCompileTopLevelLet(t *testing.T) {
	proto := mustCompile(t, "let x = 1; print x;")

	want := []Opcode{OpConst, OpDefineGlobal, OpLoadGlobal, OpPrint, OpReturnNil}
	got := opcodes(proto.Chunk)
	if !opcodesEqual(got, want) {
		t.Errorf("opcodes = %v, want %v", got, want)
	}
}

func TestCompileBlockLocals(t *testing.T) {
	proto := mustCompile(t, "{ let x = 1; print x; }")

	// The local stays on the stack and is popped when the scope closes.
	want := []Opcode{OpConst, OpLoadLocal, OpPrint, OpPop, OpReturnNil}
	got := opcodes(proto.Chunk)
	if !opcodesEqual(got, want) {
		t.Errorf("opcodes = %v, want %v", got, want)
	}
}

func TestCompileIfElse(t *testing.T) {
	proto := mustCompile(t, "if true { print 1; } else { print 2; }")

	want := []Opcode{
		OpConstTrue, OpJumpFalse,
		OpConst, OpPrint, OpJump,
		OpConst, OpPrint,
		OpReturnNil,
	}
	got := opcodes(proto.Chunk)
	if !opcodesEqual(got, want) {
		t.Errorf("opcodes = %v, want %v", got, want)
	}
}

func TestCompileFnDecl(t *testing.T) {
	proto := mustCompile(t, "fn add(a, b) { return a + b; }")

	want := []Opcode{OpMakeFunction, OpDefineGlobal, OpReturnNil}
	got := opcodes(proto.Chunk)
	if !opcodesEqual(got, want) {
		t.Errorf("opcodes = %v, want %v", got, want)
	}

	if len(proto.Chunk.Protos) != 1 {
		t.Fatalf("nested proto count = %d, want 1", len(proto.Chunk.Protos))
	}
	fn := proto.Chunk.Protos[0]
	if fn.Name != "add" || fn.Arity != 2 {
		t.Errorf("proto = %q/%d, want add/2", fn.Name, fn.Arity)
	}

	// Parameters resolve to frame slots.
	fnWant := []Opcode{OpLoadLocal, OpLoadLocal, OpAdd, OpReturn, OpReturnNil}
	fnGot := opcodes(fn.Chunk)
	if !opcodesEqual(fnGot, fnWant) {
		t.Errorf("fn opcodes = %v, want %v", fnGot, fnWant)
	}
}

func TestCompileCaptures(t *testing.T) {
	proto := mustCompile(t, `
fn outer() {
	let n = 0;
	fn inner() {
		return n;
	}
	return inner;
}
`)

	outer := proto.Chunk.Protos[0]
	if len(outer.Chunk.Protos) != 1 {
		t.Fatalf("outer nested protos = %d, want 1", len(outer.Chunk.Protos))
	}
	inner := outer.Chunk.Protos[0]

	if len(inner.Captures) != 1 {
		t.Fatalf("inner captures = %v, want 1", inner.Captures)
	}
	cap := inner.Captures[0]
	if cap.Name != "n" || cap.Source != CaptureFromLocal || cap.SlotIndex != 0 {
		t.Errorf("capture = %+v, want n from local slot 0", cap)
	}

	// inner's body reads through the capture, not a local
	found := false
	for _, op := range opcodes(inner.Chunk) {
		if op == OpLoadCapture {
			found = true
		}
	}
	if !found {
		t.Error("inner does not use LOAD_CAPTURE")
	}
}

func TestCompileTransitiveCapture(t *testing.T) {
	proto := mustCompile(t, `
fn a() {
	let x = 1;
	fn b() {
		fn c() {
			return x;
		}
		return c;
	}
	return b;
}
`)

	b := proto.Chunk.Protos[0].Chunk.Protos[0]
	c := b.Chunk.Protos[0]

	if len(b.Captures) != 1 || b.Captures[0].Source != CaptureFromLocal {
		t.Errorf("b captures = %+v, want x from a's local", b.Captures)
	}
	if len(c.Captures) != 1 || c.Captures[0].Source != CaptureFromCapture {
		t.Errorf("c captures = %+v, want x through b's capture", c.Captures)
	}
}

func TestCompileMethodCall(t *testing.T) {
	proto := mustCompile(t, `let n = "42":parseNumber();`)

	var invokes int
	for _, op := range opcodes(proto.Chunk) {
		if op == OpInvoke {
			invokes++
		}
	}
	if invokes != 1 {
		t.Errorf("INVOKE count = %d, want 1", invokes)
	}

	// The method name lands in the constant pool
	found := false
	for _, con := range proto.Chunk.Constants {
		if con.Kind == ConstString && con.Str == "parseNumber" {
			found = true
		}
	}
	if !found {
		t.Error("method name missing from constant pool")
	}
}

func TestCompileForLoopShape(t *testing.T) {
	proto := mustCompile(t, "for i, v in [1, 2] { print v; }")

	got := opcodes(proto.Chunk)
	var hasIterLen, hasLt, hasIndexGet, hasJumpFalse bool
	for _, op := range got {
		switch op {
		case OpIterLen:
			hasIterLen = true
		case OpLt:
			hasLt = true
		case OpIndexGet:
			hasIndexGet = true
		case OpJumpFalse:
			hasJumpFalse = true
		}
	}
	if !hasIterLen || !hasLt || !hasIndexGet || !hasJumpFalse {
		t.Errorf("for loop missing expected opcodes: %v", got)
	}
}

func TestCompileRange(t *testing.T) {
	proto := mustCompile(t, "print 1..10;")

	want := []Opcode{OpConst, OpConst, OpMakeRange, OpPrint, OpReturnNil}
	got := opcodes(proto.Chunk)
	if !opcodesEqual(got, want) {
		t.Errorf("opcodes = %v, want %v", got, want)
	}
}

func TestCompileLogicalShortCircuit(t *testing.T) {
	proto := mustCompile(t, "print true && false;")

	want := []Opcode{OpConstTrue, OpDup, OpJumpFalse, OpPop, OpConstFalse, OpPrint, OpReturnNil}
	got := opcodes(proto.Chunk)
	if !opcodesEqual(got, want) {
		t.Errorf("opcodes = %v, want %v", got, want)
	}
}

func TestCompileCompoundAssignDesugars(t *testing.T) {
	proto := mustCompile(t, "let x = 1; x += 2;")

	var adds, stores int
	for _, op := range opcodes(proto.Chunk) {
		switch op {
		case OpAdd:
			adds++
		case OpStoreGlobal:
			stores++
		}
	}
	if adds != 1 || stores != 1 {
		t.Errorf("compound assign: ADD=%d STORE_GLOBAL=%d, want 1 and 1", adds, stores)
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		source  string
		message string
	}{
		{"break;", "break outside loop"},
		{"continue;", "continue outside loop"},
		{"return 1;", "return outside function"},
		{"{ let x = 1; let x = 2; }", "duplicate declaration"},
		{"fn f() { break; }", "break outside loop"},
	}

	for _, tc := range tests {
		diags := compileErrors(t, tc.source)
		found := false
		for _, d := range diags {
			if d.Kind == compiler.CompileError && strings.Contains(d.Message, tc.message) {
				found = true
			}
		}
		if !found {
			t.Errorf("Compile(%q) diagnostics = %v, want %q", tc.source, diags, tc.message)
		}
	}
}

func TestCompileParseErrorsPropagate(t *testing.T) {
	diags := compileErrors(t, "let = ;")
	found := false
	for _, d := range diags {
		if d.Kind == compiler.ParseError {
			found = true
		}
	}
	if !found {
		t.Errorf("diagnostics = %v, want a parse error", diags)
	}
}

func TestCompileGlobalRedefinitionAllowed(t *testing.T) {
	// Top-level let rebinds; only same-scope locals are restricted
	mustCompile(t, "let x = 1; let x = 2;")
}

func TestCompileBreakInsideLoop(t *testing.T) {
	mustCompile(t, "while true { break; }")
	mustCompile(t, "for _, v in [1] { continue; }")
}
