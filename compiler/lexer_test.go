package compiler

import (
	"testing"
)

func TestLexerBasicTokens(t *testing.T) {
	input := `( ) [ ] { } , ; :`
	expected := []struct {
		typ TokenType
		lit string
	}{
		{TokenLParen, "("},
		{TokenRParen, ")"},
		{TokenLBracket, "["},
		{TokenRBracket, "]"},
		{TokenLBrace, "{"},
		{TokenRBrace, "}"},
		{TokenComma, ","},
		{TokenSemicolon, ";"},
		{TokenColon, ":"},
		{TokenEOF, ""},
	}

	l := NewLexer(input)
	for i, exp := range expected {
		tok := l.NextToken()
		if tok.Type != exp.typ {
			t.Errorf("token[%d] type = %v, want %v", i, tok.Type, exp.typ)
		}
		if tok.Literal != exp.lit {
			t.Errorf("token[%d] literal = %q, want %q", i, tok.Literal, exp.lit)
		}
	}
}

func TestLexerOperators(t *testing.T) {
	input := `+ - * / % = += -= *= /= == != < > <= >= && || !`
	expected := []TokenType{
		TokenPlus, TokenMinus, TokenStar, TokenSlash, TokenPercent,
		TokenAssign, TokenPlusAssign, TokenMinusAssign, TokenStarAssign, TokenSlashAssign,
		TokenEq, TokenNotEq, TokenLt, TokenGt, TokenLtEq, TokenGtEq,
		TokenAndAnd, TokenOrOr, TokenBang,
		TokenEOF,
	}

	l := NewLexer(input)
	for i, want := range expected {
		tok := l.NextToken()
		if tok.Type != want {
			t.Errorf("token[%d] = %v (%q), want %v", i, tok.Type, tok.Literal, want)
		}
	}
}

func TestLexerNumbers(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"42", "42"},
		{"0", "0"},
		{"3.14", "3.14"},
		{"0.5", "0.5"},
		{"1e10", "1e10"},
		{"1.5e-3", "1.5e-3"},
		{"2.0E+5", "2.0E+5"},
	}

	for _, tc := range tests {
		l := NewLexer(tc.input)
		tok := l.NextToken()
		if tok.Type != TokenNumber {
			t.Errorf("Lexer(%q): type = %v, want NUMBER", tc.input, tok.Type)
		}
		if tok.Literal != tc.want {
			t.Errorf("Lexer(%q): literal = %q, want %q", tc.input, tok.Literal, tc.want)
		}
	}
}

func TestLexerNumberThenDot(t *testing.T) {
	// A dot not followed by a digit is not part of the number
	l := NewLexer("5.x")
	tok := l.NextToken()
	if tok.Type != TokenNumber || tok.Literal != "5" {
		t.Errorf("first token = %v %q, want NUMBER 5", tok.Type, tok.Literal)
	}
}

func TestLexerRangeDots(t *testing.T) {
	input := "0..10 1.5..n"
	expected := []struct {
		typ TokenType
		lit string
	}{
		{TokenNumber, "0"},
		{TokenDotDot, ".."},
		{TokenNumber, "10"},
		{TokenNumber, "1.5"},
		{TokenDotDot, ".."},
		{TokenIdentifier, "n"},
		{TokenEOF, ""},
	}

	l := NewLexer(input)
	for i, exp := range expected {
		tok := l.NextToken()
		if tok.Type != exp.typ || tok.Literal != exp.lit {
			t.Errorf("token[%d] = %v %q, want %v %q", i, tok.Type, tok.Literal, exp.typ, exp.lit)
		}
	}
}

func TestLexerSingleDot(t *testing.T) {
	l := NewLexer("a . b")
	l.NextToken() // a
	tok := l.NextToken()
	if tok.Type != TokenError {
		t.Errorf(". alone: type = %v, want ERROR", tok.Type)
	}
}

func TestLexerStrings(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"hello"`, "hello"},
		{`""`, ""},
		{`"a\nb"`, "a\nb"},
		{`"tab\there"`, "tab\there"},
		{`"cr\rhere"`, "cr\rhere"},
		{`"quote\"inside"`, `quote"inside`},
		{`"back\\slash"`, `back\slash`},
	}

	for _, tc := range tests {
		l := NewLexer(tc.input)
		tok := l.NextToken()
		if tok.Type != TokenString {
			t.Errorf("Lexer(%s): type = %v, want STRING", tc.input, tok.Type)
			continue
		}
		if tok.Literal != tc.want {
			t.Errorf("Lexer(%s): literal = %q, want %q", tc.input, tok.Literal, tc.want)
		}
	}
}

func TestLexerStringErrors(t *testing.T) {
	tests := []struct {
		input string
		desc  string
	}{
		{`"unterminated`, "unterminated at EOF"},
		{"\"newline\nrest\"", "newline inside string"},
		{`"bad\qescape"`, "invalid escape"},
	}

	for _, tc := range tests {
		l := NewLexer(tc.input)
		tok := l.NextToken()
		if tok.Type != TokenError {
			t.Errorf("%s: type = %v, want ERROR", tc.desc, tok.Type)
		}
	}
}

func TestLexerKeywords(t *testing.T) {
	input := `let fn for in if else while print return break continue true false nil`
	expected := []TokenType{
		TokenLet, TokenFn, TokenFor, TokenIn, TokenIf, TokenElse, TokenWhile,
		TokenPrint, TokenReturn, TokenBreak, TokenContinue,
		TokenTrue, TokenFalse, TokenNil,
		TokenEOF,
	}

	l := NewLexer(input)
	for i, want := range expected {
		tok := l.NextToken()
		if tok.Type != want {
			t.Errorf("token[%d] = %v (%q), want %v", i, tok.Type, tok.Literal, want)
		}
	}
}

func TestLexerIdentifiers(t *testing.T) {
	tests := []string{"x", "foo", "snake_case", "_", "_private", "letters", "format1"}
	for _, input := range tests {
		l := NewLexer(input)
		tok := l.NextToken()
		if tok.Type != TokenIdentifier {
			t.Errorf("Lexer(%q): type = %v, want IDENTIFIER", input, tok.Type)
		}
		if tok.Literal != input {
			t.Errorf("Lexer(%q): literal = %q", input, tok.Literal)
		}
	}
}

func TestLexerComments(t *testing.T) {
	input := "let // trailing comment\n// whole line\nx"
	expected := []TokenType{TokenLet, TokenIdentifier, TokenEOF}

	l := NewLexer(input)
	for i, want := range expected {
		tok := l.NextToken()
		if tok.Type != want {
			t.Errorf("token[%d] = %v (%q), want %v", i, tok.Type, tok.Literal, want)
		}
	}
}

func TestLexerSingleAmpersand(t *testing.T) {
	l := NewLexer("a & b")
	l.NextToken() // a
	tok := l.NextToken()
	if tok.Type != TokenError {
		t.Errorf("& alone: type = %v, want ERROR", tok.Type)
	}

	l = NewLexer("a | b")
	l.NextToken()
	tok = l.NextToken()
	if tok.Type != TokenError {
		t.Errorf("| alone: type = %v, want ERROR", tok.Type)
	}
}

func TestLexerLineTracking(t *testing.T) {
	input := "let x\nlet y\n\nlet z"
	l := NewLexer(input)

	wantLines := []int{1, 1, 2, 2, 4, 4}
	for i, want := range wantLines {
		tok := l.NextToken()
		if tok.Pos.Line != want {
			t.Errorf("token[%d] %q line = %d, want %d", i, tok.Literal, tok.Pos.Line, want)
		}
	}
}

func TestLexerColumnTracking(t *testing.T) {
	input := "let x\n  y"
	l := NewLexer(input)

	wantCols := []int{1, 5, 3}
	for i, want := range wantCols {
		tok := l.NextToken()
		if tok.Pos.Column != want {
			t.Errorf("token[%d] %q column = %d, want %d", i, tok.Literal, tok.Pos.Column, want)
		}
	}
}

func TestTokenizeCollectsAll(t *testing.T) {
	// An error token must not stop the scan
	tokens := Tokenize("let x = 1 & 2;")

	var errCount int
	for _, tok := range tokens {
		if tok.Type == TokenError {
			errCount++
		}
	}
	if errCount != 1 {
		t.Errorf("error token count = %d, want 1", errCount)
	}
	if tokens[len(tokens)-1].Type != TokenEOF {
		t.Error("token stream does not end with EOF")
	}

	// let x = 1 ERROR 2 ; EOF
	if len(tokens) != 8 {
		t.Errorf("token count = %d, want 8", len(tokens))
	}
}
