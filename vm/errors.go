package vm

import "fmt"

// ---------------------------------------------------------------------------
// Runtime errors
// ---------------------------------------------------------------------------

// RuntimeErrorKind classifies a runtime fault. There is no catch construct
// in the language: every runtime error halts the VM.
type RuntimeErrorKind int

const (
	TypeMismatch RuntimeErrorKind = iota
	DivisionByZero
	IndexOutOfRange
	NoSuchMethod
	ArityMismatch
	UndefinedVariable
	IOError
)

func (k RuntimeErrorKind) String() string {
	switch k {
	case TypeMismatch:
		return "type mismatch"
	case DivisionByZero:
		return "division by zero"
	case IndexOutOfRange:
		return "index out of range"
	case NoSuchMethod:
		return "no such method"
	case ArityMismatch:
		return "arity mismatch"
	case UndefinedVariable:
		return "undefined variable"
	case IOError:
		return "io error"
	}
	return "runtime error"
}

// RuntimeError is a fatal runtime fault with its best-effort source line.
type RuntimeError struct {
	Kind    RuntimeErrorKind
	Message string
	Line    int
}

func (e *RuntimeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("runtime error: %s: %s (line %d)", e.Kind, e.Message, e.Line)
	}
	return fmt.Sprintf("runtime error: %s: %s", e.Kind, e.Message)
}
