package compiler

// ---------------------------------------------------------------------------
// AST: Abstract Syntax Tree for nlx
// ---------------------------------------------------------------------------

// Position represents a source location.
type Position struct {
	Offset int // byte offset
	Line   int // 1-based line number
	Column int // 1-based column number
}

// Span represents a range in source code.
type Span struct {
	Start Position
	End   Position
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	Span() Span
	node() // marker method
}

// ---------------------------------------------------------------------------
// Expression nodes
// ---------------------------------------------------------------------------

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	expr() // marker method
}

// NumberLit represents a numeric literal.
type NumberLit struct {
	SpanVal Span
	Value   float64
}

func (n *NumberLit) Span() Span { return n.SpanVal }
func (n *NumberLit) node()      {}
func (n *NumberLit) expr()      {}

// StringLit represents a string literal.
type StringLit struct {
	SpanVal Span
	Value   string
}

func (n *StringLit) Span() Span { return n.SpanVal }
func (n *StringLit) node()      {}
func (n *StringLit) expr()      {}

// BoolLit represents the 'true' and 'false' literals.
type BoolLit struct {
	SpanVal Span
	Value   bool
}

func (n *BoolLit) Span() Span { return n.SpanVal }
func (n *BoolLit) node()      {}
func (n *BoolLit) expr()      {}

// NilLit represents the 'nil' literal.
type NilLit struct {
	SpanVal Span
}

func (n *NilLit) Span() Span { return n.SpanVal }
func (n *NilLit) node()      {}
func (n *NilLit) expr()      {}

// ArrayLit represents an array literal [e1, e2, e3].
type ArrayLit struct {
	SpanVal  Span
	Elements []Expr
}

func (n *ArrayLit) Span() Span { return n.SpanVal }
func (n *ArrayLit) node()      {}
func (n *ArrayLit) expr()      {}

// RangeLit represents a half-open numeric range lo..hi.
type RangeLit struct {
	SpanVal Span
	Lo      Expr
	Hi      Expr
}

func (n *RangeLit) Span() Span { return n.SpanVal }
func (n *RangeLit) node()      {}
func (n *RangeLit) expr()      {}

// Variable represents a variable reference.
type Variable struct {
	SpanVal Span
	Name    string
}

func (n *Variable) Span() Span { return n.SpanVal }
func (n *Variable) node()      {}
func (n *Variable) expr()      {}

// Unary represents a unary operation (-x, !x).
type Unary struct {
	SpanVal Span
	Op      TokenType
	Operand Expr
}

func (n *Unary) Span() Span { return n.SpanVal }
func (n *Unary) node()      {}
func (n *Unary) expr()      {}

// Binary represents a binary operation (a + b, a < b).
type Binary struct {
	SpanVal Span
	Op      TokenType
	Left    Expr
	Right   Expr
}

func (n *Binary) Span() Span { return n.SpanVal }
func (n *Binary) node()      {}
func (n *Binary) expr()      {}

// Logical represents a short-circuiting && or || expression.
type Logical struct {
	SpanVal Span
	Op      TokenType
	Left    Expr
	Right   Expr
}

func (n *Logical) Span() Span { return n.SpanVal }
func (n *Logical) node()      {}
func (n *Logical) expr()      {}

// Assign represents an assignment (target = value). The target is a
// Variable or Index expression; the parser rejects anything else.
type Assign struct {
	SpanVal Span
	Target  Expr
	Value   Expr
}

func (n *Assign) Span() Span { return n.SpanVal }
func (n *Assign) node()      {}
func (n *Assign) expr()      {}

// CompoundAssign represents target op= value.
type CompoundAssign struct {
	SpanVal Span
	Target  Expr
	Op      TokenType // the compound token: +=, -=, *=, /=
	Value   Expr
}

func (n *CompoundAssign) Span() Span { return n.SpanVal }
func (n *CompoundAssign) node()      {}
func (n *CompoundAssign) expr()      {}

// Index represents a subscript expression base[index].
type Index struct {
	SpanVal Span
	Base    Expr
	Idx     Expr
}

func (n *Index) Span() Span { return n.SpanVal }
func (n *Index) node()      {}
func (n *Index) expr()      {}

// Call represents a call expression callee(args).
type Call struct {
	SpanVal Span
	Callee  Expr
	Args    []Expr
}

func (n *Call) Span() Span { return n.SpanVal }
func (n *Call) node()      {}
func (n *Call) expr()      {}

// MethodCall represents the method-call sugar receiver:name(args).
// Dispatch happens at run time on the receiver's type.
type MethodCall struct {
	SpanVal  Span
	Receiver Expr
	Name     string
	Args     []Expr
}

func (n *MethodCall) Span() Span { return n.SpanVal }
func (n *MethodCall) node()      {}
func (n *MethodCall) expr()      {}

// ---------------------------------------------------------------------------
// Statement nodes
// ---------------------------------------------------------------------------

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmt() // marker method
}

// Let represents a variable declaration (let name = init;).
type Let struct {
	SpanVal Span
	Name    string
	Init    Expr
}

func (n *Let) Span() Span { return n.SpanVal }
func (n *Let) node()      {}
func (n *Let) stmt()      {}

// ExprStmt is an expression used as a statement.
type ExprStmt struct {
	SpanVal Span
	Expr    Expr
}

func (n *ExprStmt) Span() Span { return n.SpanVal }
func (n *ExprStmt) node()      {}
func (n *ExprStmt) stmt()      {}

// Print represents a print statement.
type Print struct {
	SpanVal Span
	Expr    Expr
}

func (n *Print) Span() Span { return n.SpanVal }
func (n *Print) node()      {}
func (n *Print) stmt()      {}

// If represents an if statement with an optional else branch.
type If struct {
	SpanVal Span
	Cond    Expr
	Then    *BlockStmt
	Else    *BlockStmt // nil when absent
}

func (n *If) Span() Span { return n.SpanVal }
func (n *If) node()      {}
func (n *If) stmt()      {}

// While represents a while loop.
type While struct {
	SpanVal Span
	Cond    Expr
	Body    *BlockStmt
}

func (n *While) Span() Span { return n.SpanVal }
func (n *While) node()      {}
func (n *While) stmt()      {}

// DiscardBinder is the binder name that suppresses a loop binding.
const DiscardBinder = "_"

// For represents `for index, value in iterable { body }`. Either binder
// may be DiscardBinder.
type For struct {
	SpanVal     Span
	IndexBinder string
	ValueBinder string
	Iterable    Expr
	Body        *BlockStmt
}

func (n *For) Span() Span { return n.SpanVal }
func (n *For) node()      {}
func (n *For) stmt()      {}

// FnDecl represents a function declaration.
type FnDecl struct {
	SpanVal Span
	Name    string
	Params  []string
	Body    *BlockStmt
}

func (n *FnDecl) Span() Span { return n.SpanVal }
func (n *FnDecl) node()      {}
func (n *FnDecl) stmt()      {}

// Return represents a return statement with an optional value.
type Return struct {
	SpanVal Span
	Value   Expr // nil when absent
}

func (n *Return) Span() Span { return n.SpanVal }
func (n *Return) node()      {}
func (n *Return) stmt()      {}

// Break represents a break statement.
type Break struct {
	SpanVal Span
}

func (n *Break) Span() Span { return n.SpanVal }
func (n *Break) node()      {}
func (n *Break) stmt()      {}

// Continue represents a continue statement.
type Continue struct {
	SpanVal Span
}

func (n *Continue) Span() Span { return n.SpanVal }
func (n *Continue) node()      {}
func (n *Continue) stmt()      {}

// BlockStmt represents a braced statement block with its own scope.
type BlockStmt struct {
	SpanVal    Span
	Statements []Stmt
}

func (n *BlockStmt) Span() Span { return n.SpanVal }
func (n *BlockStmt) node()      {}
func (n *BlockStmt) stmt()      {}

// ---------------------------------------------------------------------------
// Top-level structure
// ---------------------------------------------------------------------------

// Script represents a complete source file: the implicit top-level
// function's statement list.
type Script struct {
	SpanVal    Span
	Statements []Stmt
}

func (n *Script) Span() Span { return n.SpanVal }
func (n *Script) node()      {}

// ---------------------------------------------------------------------------
// Helper functions
// ---------------------------------------------------------------------------

// MakeSpan creates a span from start and end positions.
func MakeSpan(start, end Position) Span {
	return Span{Start: start, End: end}
}

// ZeroSpan returns an empty span.
func ZeroSpan() Span {
	return Span{}
}
