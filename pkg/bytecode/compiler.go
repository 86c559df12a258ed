package bytecode

import (
	"github.com/chazu/nlx/compiler"
)

// ---------------------------------------------------------------------------
// Compiler: single-pass AST to bytecode translation
// ---------------------------------------------------------------------------

// local is one stack slot in the current function's frame window.
type local struct {
	name  string
	depth int
}

// loopContext tracks the jump targets of the innermost enclosing loop.
type loopContext struct {
	start          int   // bytecode offset of the loop condition
	localBase      int   // locals live at the loop's continue/break target
	continueTarget int   // backward continue target, or -1 to collect jumps
	continueJumps  []int // placeholders patched to the increment step
	breakJumps     []int // placeholders patched past the loop exit
}

// funcCompiler holds the per-function compile state. Nested function
// declarations push a new funcCompiler whose enclosing pointer enables
// capture resolution across function boundaries.
type funcCompiler struct {
	enclosing *funcCompiler
	proto     *FunctionProto
	chunk     *Chunk
	locals    []local
	depth     int
	loops     []*loopContext
}

// Compiler walks the AST once and emits bytecode chunks, one per function.
type Compiler struct {
	current *funcCompiler
	diags   compiler.Diagnostics
}

// NewCompiler creates a compiler ready to compile one script.
func NewCompiler() *Compiler {
	return &Compiler{}
}

// Compile parses and compiles source text into the implicit top-level
// script function. A non-empty diagnostics list means no proto is returned
// and nothing may execute.
func Compile(source string) (*FunctionProto, compiler.Diagnostics) {
	p := compiler.NewParser(source)
	script := p.ParseScript()
	if diags := p.Diagnostics(); diags.HasErrors() {
		return nil, diags
	}
	return NewCompiler().CompileScript(script)
}

// CompileScript compiles a parsed script into its top-level function proto.
func (c *Compiler) CompileScript(script *compiler.Script) (*FunctionProto, compiler.Diagnostics) {
	proto := &FunctionProto{
		Name:  "<script>",
		Chunk: NewChunk(),
	}
	c.current = &funcCompiler{proto: proto, chunk: proto.Chunk}

	for _, stmt := range script.Statements {
		c.compileStatement(stmt)
	}
	line := script.Span().End.Line
	c.current.chunk.Emit(OpReturnNil, line)

	if c.diags.HasErrors() {
		return nil, c.diags
	}
	return proto, nil
}

func (c *Compiler) errorf(line int, format string, args ...any) {
	c.diags.Add(compiler.CompileError, line, format, args...)
}

// ---------------------------------------------------------------------------
// Scope management
// ---------------------------------------------------------------------------

func (c *Compiler) beginScope() {
	c.current.depth++
}

// endScope pops every local declared in the closing scope, emitting a pop
// for each since locals live on the operand stack.
func (c *Compiler) endScope(line int) {
	fc := c.current
	fc.depth--
	for len(fc.locals) > 0 && fc.locals[len(fc.locals)-1].depth > fc.depth {
		fc.chunk.Emit(OpPop, line)
		fc.locals = fc.locals[:len(fc.locals)-1]
	}
}

// declareLocal records a new local for the value on top of the stack.
// Redeclaring a name within the same scope is a compile error.
func (c *Compiler) declareLocal(name string, line int) {
	fc := c.current
	for i := len(fc.locals) - 1; i >= 0; i-- {
		l := fc.locals[i]
		if l.depth < fc.depth {
			break
		}
		if l.name == name {
			c.errorf(line, "duplicate declaration of %q in the same scope", name)
			return
		}
	}
	if len(fc.locals) >= 256 {
		c.errorf(line, "too many local variables in function")
		return
	}
	fc.locals = append(fc.locals, local{name: name, depth: fc.depth})
}

// resolveLocal returns the frame slot for a name, or -1.
func resolveLocal(fc *funcCompiler, name string) int {
	for i := len(fc.locals) - 1; i >= 0; i-- {
		if fc.locals[i].name == name {
			return i
		}
	}
	return -1
}

// resolveCapture resolves a name against enclosing functions, recording a
// capture descriptor chain as needed. Returns the capture index or -1.
func resolveCapture(fc *funcCompiler, name string) int {
	if fc.enclosing == nil {
		return -1
	}
	if slot := resolveLocal(fc.enclosing, name); slot >= 0 {
		return addCapture(fc, name, CaptureFromLocal, uint8(slot))
	}
	if idx := resolveCapture(fc.enclosing, name); idx >= 0 {
		return addCapture(fc, name, CaptureFromCapture, uint8(idx))
	}
	return -1
}

func addCapture(fc *funcCompiler, name string, source VarSource, slot uint8) int {
	for i, cap := range fc.proto.Captures {
		if cap.Name == name && cap.Source == source && cap.SlotIndex == slot {
			return i
		}
	}
	fc.proto.Captures = append(fc.proto.Captures, CaptureDescriptor{
		Name:      name,
		Source:    source,
		SlotIndex: slot,
	})
	return len(fc.proto.Captures) - 1
}

// atTopLevel reports whether declarations bind globals: the script
// function's outermost scope.
func (c *Compiler) atTopLevel() bool {
	return c.current.enclosing == nil && c.current.depth == 0
}

func (c *Compiler) currentLoop() *loopContext {
	fc := c.current
	if len(fc.loops) == 0 {
		return nil
	}
	return fc.loops[len(fc.loops)-1]
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (c *Compiler) compileStatement(stmt compiler.Stmt) {
	switch s := stmt.(type) {
	case *compiler.Let:
		c.compileLet(s)
	case *compiler.FnDecl:
		c.compileFnDecl(s)
	case *compiler.Print:
		c.compileExpr(s.Expr)
		c.current.chunk.Emit(OpPrint, s.Span().Start.Line)
	case *compiler.ExprStmt:
		c.compileExpr(s.Expr)
		c.current.chunk.Emit(OpPop, s.Span().Start.Line)
	case *compiler.If:
		c.compileIf(s)
	case *compiler.While:
		c.compileWhile(s)
	case *compiler.For:
		c.compileFor(s)
	case *compiler.Return:
		c.compileReturn(s)
	case *compiler.Break:
		c.compileBreak(s)
	case *compiler.Continue:
		c.compileContinue(s)
	case *compiler.BlockStmt:
		c.beginScope()
		for _, inner := range s.Statements {
			c.compileStatement(inner)
		}
		c.endScope(s.Span().End.Line)
	default:
		c.errorf(stmt.Span().Start.Line, "cannot compile statement %T", stmt)
	}
}

func (c *Compiler) compileLet(s *compiler.Let) {
	line := s.Span().Start.Line
	c.compileExpr(s.Init)

	if c.atTopLevel() {
		idx := c.current.chunk.AddConstant(StringConstant(s.Name))
		c.current.chunk.EmitWithUint16(OpDefineGlobal, idx, line)
		return
	}
	// The initializer value stays on the stack as the new local's slot.
	c.declareLocal(s.Name, line)
}

func (c *Compiler) compileFnDecl(s *compiler.FnDecl) {
	line := s.Span().Start.Line

	proto := &FunctionProto{
		Name:   s.Name,
		Arity:  len(s.Params),
		Params: s.Params,
		Chunk:  NewChunk(),
	}

	fc := &funcCompiler{
		enclosing: c.current,
		proto:     proto,
		chunk:     proto.Chunk,
	}
	// Parameters occupy the first frame slots.
	for _, p := range s.Params {
		fc.locals = append(fc.locals, local{name: p, depth: 0})
	}

	c.current = fc
	c.beginScope()
	for _, stmt := range s.Body.Statements {
		c.compileStatement(stmt)
	}
	// Implicit nil return for functions that fall off the end.
	fc.chunk.Emit(OpReturnNil, s.Body.Span().End.Line)
	c.current = fc.enclosing

	idx := c.current.chunk.AddProto(proto)
	c.current.chunk.EmitWithUint16(OpMakeFunction, idx, line)

	if c.atTopLevel() {
		nameIdx := c.current.chunk.AddConstant(StringConstant(s.Name))
		c.current.chunk.EmitWithUint16(OpDefineGlobal, nameIdx, line)
	} else {
		c.declareLocal(s.Name, line)
	}
}

func (c *Compiler) compileIf(s *compiler.If) {
	line := s.Span().Start.Line
	chunk := c.current.chunk

	c.compileExpr(s.Cond)
	elseJump := chunk.EmitJump(OpJumpFalse, line)

	c.compileStatement(s.Then)

	if s.Else != nil {
		endJump := chunk.EmitJump(OpJump, line)
		c.patchJump(elseJump, line)
		c.compileStatement(s.Else)
		c.patchJump(endJump, line)
	} else {
		c.patchJump(elseJump, line)
	}
}

func (c *Compiler) compileWhile(s *compiler.While) {
	line := s.Span().Start.Line
	fc := c.current
	chunk := fc.chunk

	loopStart := len(chunk.Code)
	c.compileExpr(s.Cond)
	exitJump := chunk.EmitJump(OpJumpFalse, line)

	loop := &loopContext{
		start:          loopStart,
		localBase:      len(fc.locals),
		continueTarget: loopStart,
	}
	fc.loops = append(fc.loops, loop)

	c.compileStatement(s.Body)

	fc.loops = fc.loops[:len(fc.loops)-1]

	if err := chunk.EmitLoop(loopStart, line); err != nil {
		c.errorf(line, "%v", err)
	}
	c.patchJump(exitJump, line)
	for _, bj := range loop.breakJumps {
		c.patchJump(bj, line)
	}
}

// compileFor lowers `for index, value in iterable`. The iterable and its
// length are snapshotted into hidden locals at loop entry, so mutating the
// iterable inside the body does not change the iteration bound.
func (c *Compiler) compileFor(s *compiler.For) {
	line := s.Span().Start.Line
	fc := c.current
	chunk := fc.chunk

	c.beginScope()

	// Hidden slots: the iterable, its snapshotted length, and the counter.
	c.compileExpr(s.Iterable)
	c.declareLocal("__iter__", line)
	iterSlot := len(fc.locals) - 1

	chunk.EmitWithOperand(OpLoadLocal, uint8(iterSlot), line)
	chunk.Emit(OpIterLen, line)
	c.declareLocal("__len__", line)
	lenSlot := len(fc.locals) - 1

	chunk.EmitConstant(NumberConstant(0), line)
	c.declareLocal("__idx__", line)
	idxSlot := len(fc.locals) - 1

	loopStart := len(chunk.Code)
	chunk.EmitWithOperand(OpLoadLocal, uint8(idxSlot), line)
	chunk.EmitWithOperand(OpLoadLocal, uint8(lenSlot), line)
	chunk.Emit(OpLt, line)
	exitJump := chunk.EmitJump(OpJumpFalse, line)

	loop := &loopContext{
		start:          loopStart,
		localBase:      len(fc.locals),
		continueTarget: -1, // continue targets the increment, patched below
	}
	fc.loops = append(fc.loops, loop)

	// Per-iteration bindings.
	c.beginScope()
	if s.IndexBinder != compiler.DiscardBinder {
		chunk.EmitWithOperand(OpLoadLocal, uint8(idxSlot), line)
		c.declareLocal(s.IndexBinder, line)
	}
	if s.ValueBinder != compiler.DiscardBinder {
		chunk.EmitWithOperand(OpLoadLocal, uint8(iterSlot), line)
		chunk.EmitWithOperand(OpLoadLocal, uint8(idxSlot), line)
		chunk.Emit(OpIndexGet, line)
		c.declareLocal(s.ValueBinder, line)
	}

	c.compileStatement(s.Body)

	endLine := s.Body.Span().End.Line
	c.endScope(endLine)

	fc.loops = fc.loops[:len(fc.loops)-1]

	// Increment step; continue lands here.
	for _, cj := range loop.continueJumps {
		c.patchJump(cj, endLine)
	}
	chunk.EmitWithOperand(OpLoadLocal, uint8(idxSlot), endLine)
	chunk.EmitConstant(NumberConstant(1), endLine)
	chunk.Emit(OpAdd, endLine)
	chunk.EmitWithOperand(OpStoreLocal, uint8(idxSlot), endLine)
	if err := chunk.EmitLoop(loopStart, endLine); err != nil {
		c.errorf(endLine, "%v", err)
	}

	c.patchJump(exitJump, endLine)
	for _, bj := range loop.breakJumps {
		c.patchJump(bj, endLine)
	}

	// Pops the hidden iterator locals.
	c.endScope(endLine)
}

func (c *Compiler) compileReturn(s *compiler.Return) {
	line := s.Span().Start.Line
	if c.current.enclosing == nil {
		c.errorf(line, "return outside function")
		return
	}
	if s.Value != nil {
		c.compileExpr(s.Value)
		c.current.chunk.Emit(OpReturn, line)
	} else {
		c.current.chunk.Emit(OpReturnNil, line)
	}
}

// compileBreak pops the locals belonging to the loop body before jumping,
// since the jump skips the scoped pop instructions.
func (c *Compiler) compileBreak(s *compiler.Break) {
	line := s.Span().Start.Line
	loop := c.currentLoop()
	if loop == nil {
		c.errorf(line, "break outside loop")
		return
	}
	c.popToBase(loop.localBase, line)
	loop.breakJumps = append(loop.breakJumps, c.current.chunk.EmitJump(OpJump, line))
}

func (c *Compiler) compileContinue(s *compiler.Continue) {
	line := s.Span().Start.Line
	loop := c.currentLoop()
	if loop == nil {
		c.errorf(line, "continue outside loop")
		return
	}
	c.popToBase(loop.localBase, line)
	if loop.continueTarget >= 0 {
		if err := c.current.chunk.EmitLoop(loop.continueTarget, line); err != nil {
			c.errorf(line, "%v", err)
		}
		return
	}
	loop.continueJumps = append(loop.continueJumps, c.current.chunk.EmitJump(OpJump, line))
}

// popToBase emits pops for locals above base without dropping them from the
// compile-time list; the surrounding scopes still close normally.
func (c *Compiler) popToBase(base int, line int) {
	for i := len(c.current.locals); i > base; i-- {
		c.current.chunk.Emit(OpPop, line)
	}
}

func (c *Compiler) patchJump(placeholder int, line int) {
	if err := c.current.chunk.PatchJump(placeholder); err != nil {
		c.errorf(line, "%v", err)
	}
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func (c *Compiler) compileExpr(expr compiler.Expr) {
	chunk := c.current.chunk
	line := expr.Span().Start.Line

	switch e := expr.(type) {
	case *compiler.NumberLit:
		chunk.EmitConstant(NumberConstant(e.Value), line)

	case *compiler.StringLit:
		chunk.EmitConstant(StringConstant(e.Value), line)

	case *compiler.BoolLit:
		if e.Value {
			chunk.Emit(OpConstTrue, line)
		} else {
			chunk.Emit(OpConstFalse, line)
		}

	case *compiler.NilLit:
		chunk.Emit(OpConstNil, line)

	case *compiler.ArrayLit:
		for _, elem := range e.Elements {
			c.compileExpr(elem)
		}
		chunk.EmitWithUint16(OpArrayNew, uint16(len(e.Elements)), line)

	case *compiler.RangeLit:
		c.compileExpr(e.Lo)
		c.compileExpr(e.Hi)
		chunk.Emit(OpMakeRange, line)

	case *compiler.Variable:
		c.compileLoad(e.Name, line)

	case *compiler.Unary:
		c.compileExpr(e.Operand)
		switch e.Op {
		case compiler.TokenMinus:
			chunk.Emit(OpNeg, line)
		case compiler.TokenBang:
			chunk.Emit(OpNot, line)
		default:
			c.errorf(line, "cannot compile unary operator %s", e.Op)
		}

	case *compiler.Binary:
		c.compileExpr(e.Left)
		c.compileExpr(e.Right)
		c.emitBinaryOp(e.Op, line)

	case *compiler.Logical:
		c.compileLogical(e)

	case *compiler.Assign:
		c.compileAssign(e)

	case *compiler.CompoundAssign:
		// Desugars to `target = target op value`; the target expression is
		// evaluated twice, matching the statement-level rewrite.
		binOp := compoundToBinary(e.Op)
		desugared := &compiler.Assign{
			SpanVal: e.SpanVal,
			Target:  e.Target,
			Value: &compiler.Binary{
				SpanVal: e.SpanVal,
				Op:      binOp,
				Left:    e.Target,
				Right:   e.Value,
			},
		}
		c.compileAssign(desugared)

	case *compiler.Index:
		c.compileExpr(e.Base)
		c.compileExpr(e.Idx)
		chunk.Emit(OpIndexGet, line)

	case *compiler.Call:
		c.compileExpr(e.Callee)
		for _, arg := range e.Args {
			c.compileExpr(arg)
		}
		if len(e.Args) > 255 {
			c.errorf(line, "too many call arguments")
			return
		}
		chunk.EmitWithOperand(OpCall, uint8(len(e.Args)), line)

	case *compiler.MethodCall:
		c.compileExpr(e.Receiver)
		for _, arg := range e.Args {
			c.compileExpr(arg)
		}
		if len(e.Args) > 255 {
			c.errorf(line, "too many call arguments")
			return
		}
		nameIdx := chunk.AddConstant(StringConstant(e.Name))
		chunk.Emit(OpInvoke, line)
		chunk.EmitUint16(nameIdx)
		chunk.EmitByte(uint8(len(e.Args)))

	default:
		c.errorf(line, "cannot compile expression %T", expr)
	}
}

func (c *Compiler) compileLoad(name string, line int) {
	fc := c.current
	chunk := fc.chunk

	if slot := resolveLocal(fc, name); slot >= 0 {
		chunk.EmitWithOperand(OpLoadLocal, uint8(slot), line)
		return
	}
	if idx := resolveCapture(fc, name); idx >= 0 {
		chunk.EmitWithOperand(OpLoadCapture, uint8(idx), line)
		return
	}
	nameIdx := chunk.AddConstant(StringConstant(name))
	chunk.EmitWithUint16(OpLoadGlobal, nameIdx, line)
}

// compileLogical emits short-circuit evaluation: the left value survives as
// the result when it decides the outcome.
func (c *Compiler) compileLogical(e *compiler.Logical) {
	line := e.Span().Start.Line
	chunk := c.current.chunk

	c.compileExpr(e.Left)
	chunk.Emit(OpDup, line)

	var skip int
	if e.Op == compiler.TokenAndAnd {
		skip = chunk.EmitJump(OpJumpFalse, line)
	} else {
		skip = chunk.EmitJump(OpJumpTrue, line)
	}
	chunk.Emit(OpPop, line)
	c.compileExpr(e.Right)
	c.patchJump(skip, line)
}

// compileAssign emits the value, duplicates it as the expression result,
// then stores through the target.
func (c *Compiler) compileAssign(e *compiler.Assign) {
	line := e.Span().Start.Line
	fc := c.current
	chunk := fc.chunk

	switch target := e.Target.(type) {
	case *compiler.Variable:
		c.compileExpr(e.Value)
		chunk.Emit(OpDup, line)
		if slot := resolveLocal(fc, target.Name); slot >= 0 {
			chunk.EmitWithOperand(OpStoreLocal, uint8(slot), line)
			return
		}
		if idx := resolveCapture(fc, target.Name); idx >= 0 {
			chunk.EmitWithOperand(OpStoreCapture, uint8(idx), line)
			return
		}
		nameIdx := chunk.AddConstant(StringConstant(target.Name))
		chunk.EmitWithUint16(OpStoreGlobal, nameIdx, line)

	case *compiler.Index:
		c.compileExpr(target.Base)
		c.compileExpr(target.Idx)
		c.compileExpr(e.Value)
		chunk.Emit(OpIndexSet, line)

	default:
		c.errorf(line, "invalid assignment target")
	}
}

func (c *Compiler) emitBinaryOp(op compiler.TokenType, line int) {
	chunk := c.current.chunk
	switch op {
	case compiler.TokenPlus:
		chunk.Emit(OpAdd, line)
	case compiler.TokenMinus:
		chunk.Emit(OpSub, line)
	case compiler.TokenStar:
		chunk.Emit(OpMul, line)
	case compiler.TokenSlash:
		chunk.Emit(OpDiv, line)
	case compiler.TokenPercent:
		chunk.Emit(OpMod, line)
	case compiler.TokenEq:
		chunk.Emit(OpEq, line)
	case compiler.TokenNotEq:
		chunk.Emit(OpNe, line)
	case compiler.TokenLt:
		chunk.Emit(OpLt, line)
	case compiler.TokenLtEq:
		chunk.Emit(OpLe, line)
	case compiler.TokenGt:
		chunk.Emit(OpGt, line)
	case compiler.TokenGtEq:
		chunk.Emit(OpGe, line)
	default:
		c.errorf(line, "cannot compile binary operator %s", op)
	}
}

func compoundToBinary(op compiler.TokenType) compiler.TokenType {
	switch op {
	case compiler.TokenPlusAssign:
		return compiler.TokenPlus
	case compiler.TokenMinusAssign:
		return compiler.TokenMinus
	case compiler.TokenStarAssign:
		return compiler.TokenStar
	case compiler.TokenSlashAssign:
		return compiler.TokenSlash
	}
	return op
}
