package compiler

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Compile-time diagnostics
// ---------------------------------------------------------------------------

// DiagKind classifies a compile-time diagnostic by the stage that produced it.
type DiagKind int

const (
	LexError DiagKind = iota
	ParseError
	CompileError
)

func (k DiagKind) String() string {
	switch k {
	case LexError:
		return "lex error"
	case ParseError:
		return "parse error"
	case CompileError:
		return "compile error"
	}
	return "error"
}

// Diagnostic is a single compile-time error with its source line.
type Diagnostic struct {
	Kind    DiagKind
	Line    int
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: line %d: %s", d.Kind, d.Line, d.Message)
}

// Diagnostics is an ordered collection of compile-time errors. Compilation
// collects as many as recovery allows and reports them together; a non-empty
// list always prevents execution.
type Diagnostics []Diagnostic

// Add appends a diagnostic.
func (ds *Diagnostics) Add(kind DiagKind, line int, format string, args ...any) {
	*ds = append(*ds, Diagnostic{
		Kind:    kind,
		Line:    line,
		Message: fmt.Sprintf(format, args...),
	})
}

// HasErrors reports whether any diagnostic was recorded.
func (ds Diagnostics) HasErrors() bool {
	return len(ds) > 0
}

// Error implements the error interface by joining all diagnostics.
func (ds Diagnostics) Error() string {
	lines := make([]string, len(ds))
	for i, d := range ds {
		lines[i] = d.String()
	}
	return strings.Join(lines, "\n")
}
