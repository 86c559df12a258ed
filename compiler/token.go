package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Token types for the nlx lexer
// ---------------------------------------------------------------------------

// TokenType represents the type of a token.
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError

	// Literals
	TokenNumber     // 42, 3.14, 1.5e10
	TokenString     // "hello"
	TokenIdentifier // foo, _tmp

	// Keywords
	TokenLet
	TokenFn
	TokenFor
	TokenIn
	TokenWhile
	TokenIf
	TokenElse
	TokenPrint
	TokenContinue
	TokenBreak
	TokenReturn
	TokenTrue
	TokenFalse
	TokenNil

	// Operators
	TokenPlus        // +
	TokenMinus       // -
	TokenStar        // *
	TokenSlash       // /
	TokenPercent     // %
	TokenEq          // ==
	TokenNotEq       // !=
	TokenLt          // <
	TokenGt          // >
	TokenLtEq        // <=
	TokenGtEq        // >=
	TokenAssign      // =
	TokenPlusAssign  // +=
	TokenMinusAssign // -=
	TokenStarAssign  // *=
	TokenSlashAssign // /=
	TokenAndAnd      // &&
	TokenOrOr        // ||
	TokenBang        // !
	TokenDotDot      // ..

	// Delimiters
	TokenLParen    // (
	TokenRParen    // )
	TokenLBracket  // [
	TokenRBracket  // ]
	TokenLBrace    // {
	TokenRBrace    // }
	TokenComma     // ,
	TokenSemicolon // ;
	TokenColon     // :
)

var tokenNames = map[TokenType]string{
	TokenEOF:         "EOF",
	TokenError:       "ERROR",
	TokenNumber:      "NUMBER",
	TokenString:      "STRING",
	TokenIdentifier:  "IDENTIFIER",
	TokenLet:         "let",
	TokenFn:          "fn",
	TokenFor:         "for",
	TokenIn:          "in",
	TokenWhile:       "while",
	TokenIf:          "if",
	TokenElse:        "else",
	TokenPrint:       "print",
	TokenContinue:    "continue",
	TokenBreak:       "break",
	TokenReturn:      "return",
	TokenTrue:        "true",
	TokenFalse:       "false",
	TokenNil:         "nil",
	TokenPlus:        "+",
	TokenMinus:       "-",
	TokenStar:        "*",
	TokenSlash:       "/",
	TokenPercent:     "%",
	TokenEq:          "==",
	TokenNotEq:       "!=",
	TokenLt:          "<",
	TokenGt:          ">",
	TokenLtEq:        "<=",
	TokenGtEq:        ">=",
	TokenAssign:      "=",
	TokenPlusAssign:  "+=",
	TokenMinusAssign: "-=",
	TokenStarAssign:  "*=",
	TokenSlashAssign: "/=",
	TokenAndAnd:      "&&",
	TokenOrOr:        "||",
	TokenBang:        "!",
	TokenDotDot:      "..",
	TokenLParen:      "(",
	TokenRParen:      ")",
	TokenLBracket:    "[",
	TokenRBracket:    "]",
	TokenLBrace:      "{",
	TokenRBrace:      "}",
	TokenComma:       ",",
	TokenSemicolon:   ";",
	TokenColon:       ":",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Token(%d)", t)
}

// Token represents a lexical token.
type Token struct {
	Type    TokenType
	Literal string   // the raw text
	Pos     Position // start position
}

func (t Token) String() string {
	if t.Type == TokenEOF {
		return "EOF"
	}
	if t.Type == TokenError {
		return fmt.Sprintf("ERROR(%s)", t.Literal)
	}
	if len(t.Literal) > 20 {
		return fmt.Sprintf("%s(%q...)", t.Type, t.Literal[:20])
	}
	return fmt.Sprintf("%s(%q)", t.Type, t.Literal)
}

// Reserved words mapped to their token types.
var reservedWords = map[string]TokenType{
	"let":      TokenLet,
	"fn":       TokenFn,
	"for":      TokenFor,
	"in":       TokenIn,
	"while":    TokenWhile,
	"if":       TokenIf,
	"else":     TokenElse,
	"print":    TokenPrint,
	"continue": TokenContinue,
	"break":    TokenBreak,
	"return":   TokenReturn,
	"true":     TokenTrue,
	"false":    TokenFalse,
	"nil":      TokenNil,
}

// IsCompoundAssign returns true for the compound assignment operators.
func (t TokenType) IsCompoundAssign() bool {
	switch t {
	case TokenPlusAssign, TokenMinusAssign, TokenStarAssign, TokenSlashAssign:
		return true
	}
	return false
}
