package compiler

import "strconv"

// ---------------------------------------------------------------------------
// Parser: Recursive descent parser for nlx
// ---------------------------------------------------------------------------

func parseNumberLiteral(lit string) (float64, error) {
	return strconv.ParseFloat(lit, 64)
}

// Parser parses nlx source code into an AST. Syntax errors are collected
// rather than aborting the parse: after reporting, the parser skips to the
// next statement boundary so one run surfaces every error it can find.
type Parser struct {
	lexer     *Lexer
	curToken  Token
	peekToken Token
	diags     Diagnostics
}

// NewParser creates a parser for the given input.
func NewParser(input string) *Parser {
	p := &Parser{
		lexer: NewLexer(input),
	}
	// Prime curToken and peekToken
	p.nextToken()
	p.nextToken()
	return p
}

// nextToken advances to the next token. Error tokens from the lexer are
// recorded as diagnostics and skipped so parsing can continue.
func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	for {
		tok := p.lexer.NextToken()
		if tok.Type == TokenError {
			p.diags.Add(LexError, tok.Pos.Line, "%s", tok.Literal)
			continue
		}
		p.peekToken = tok
		return
	}
}

func (p *Parser) curTokenIs(t TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t TokenType) bool {
	return p.peekToken.Type == t
}

// expect consumes the current token if it matches, otherwise records a
// parse error.
func (p *Parser) expect(t TokenType) bool {
	if p.curTokenIs(t) {
		p.nextToken()
		return true
	}
	p.errorf("expected %s, found %s", t, p.curToken)
	return false
}

func (p *Parser) errorf(format string, args ...any) {
	p.diags.Add(ParseError, p.curToken.Pos.Line, format, args...)
}

// Diagnostics returns the errors collected so far.
func (p *Parser) Diagnostics() Diagnostics {
	return p.diags
}

// synchronize skips tokens until a likely statement boundary: just past a
// semicolon, or at a closing brace or statement keyword.
func (p *Parser) synchronize() {
	for !p.curTokenIs(TokenEOF) {
		if p.curTokenIs(TokenSemicolon) {
			p.nextToken()
			return
		}
		switch p.curToken.Type {
		case TokenRBrace, TokenLet, TokenFn, TokenFor, TokenWhile, TokenIf,
			TokenPrint, TokenReturn, TokenBreak, TokenContinue:
			return
		}
		p.nextToken()
	}
}

// ParseScript parses a whole source file.
func (p *Parser) ParseScript() *Script {
	start := p.curToken.Pos
	script := &Script{}

	for !p.curTokenIs(TokenEOF) {
		before := p.curToken
		stmt := p.parseStatement()
		if stmt != nil {
			script.Statements = append(script.Statements, stmt)
		} else {
			p.synchronize()
		}
		// Guard against a statement parser that consumed nothing.
		if p.curToken == before && stmt == nil && !p.curTokenIs(TokenEOF) {
			p.nextToken()
		}
	}

	script.SpanVal = MakeSpan(start, p.curToken.Pos)
	return script
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (p *Parser) parseStatement() Stmt {
	switch p.curToken.Type {
	case TokenLet:
		return p.parseLet()
	case TokenFn:
		return p.parseFnDecl()
	case TokenPrint:
		return p.parsePrint()
	case TokenIf:
		return p.parseIf()
	case TokenWhile:
		return p.parseWhile()
	case TokenFor:
		return p.parseFor()
	case TokenReturn:
		return p.parseReturn()
	case TokenBreak:
		start := p.curToken.Pos
		p.nextToken()
		if !p.expect(TokenSemicolon) {
			return nil
		}
		return &Break{SpanVal: MakeSpan(start, p.curToken.Pos)}
	case TokenContinue:
		start := p.curToken.Pos
		p.nextToken()
		if !p.expect(TokenSemicolon) {
			return nil
		}
		return &Continue{SpanVal: MakeSpan(start, p.curToken.Pos)}
	case TokenLBrace:
		return p.parseBlock()
	default:
		return p.parseExprStatement()
	}
}

func (p *Parser) parseLet() Stmt {
	start := p.curToken.Pos
	p.nextToken() // consume 'let'

	if !p.curTokenIs(TokenIdentifier) {
		p.errorf("expected identifier after let, found %s", p.curToken)
		return nil
	}
	name := p.curToken.Literal
	p.nextToken()

	if !p.expect(TokenAssign) {
		return nil
	}

	init := p.parseExpression()
	if init == nil {
		return nil
	}

	if !p.expect(TokenSemicolon) {
		return nil
	}

	return &Let{SpanVal: MakeSpan(start, p.curToken.Pos), Name: name, Init: init}
}

func (p *Parser) parseFnDecl() Stmt {
	start := p.curToken.Pos
	p.nextToken() // consume 'fn'

	if !p.curTokenIs(TokenIdentifier) {
		p.errorf("expected function name, found %s", p.curToken)
		return nil
	}
	name := p.curToken.Literal
	p.nextToken()

	if !p.expect(TokenLParen) {
		return nil
	}

	var params []string
	if !p.curTokenIs(TokenRParen) {
		for {
			if !p.curTokenIs(TokenIdentifier) {
				p.errorf("expected parameter name, found %s", p.curToken)
				return nil
			}
			params = append(params, p.curToken.Literal)
			p.nextToken()
			if !p.curTokenIs(TokenComma) {
				break
			}
			p.nextToken() // consume ','
		}
	}

	if !p.expect(TokenRParen) {
		return nil
	}

	body := p.parseBlock()
	if body == nil {
		return nil
	}

	return &FnDecl{SpanVal: MakeSpan(start, p.curToken.Pos), Name: name, Params: params, Body: body}
}

func (p *Parser) parsePrint() Stmt {
	start := p.curToken.Pos
	p.nextToken() // consume 'print'

	expr := p.parseExpression()
	if expr == nil {
		return nil
	}

	if !p.expect(TokenSemicolon) {
		return nil
	}

	return &Print{SpanVal: MakeSpan(start, p.curToken.Pos), Expr: expr}
}

func (p *Parser) parseIf() Stmt {
	start := p.curToken.Pos
	p.nextToken() // consume 'if'

	cond := p.parseExpression()
	if cond == nil {
		return nil
	}

	then := p.parseBlock()
	if then == nil {
		return nil
	}

	var elseBlock *BlockStmt
	if p.curTokenIs(TokenElse) {
		p.nextToken()
		if p.curTokenIs(TokenIf) {
			// else-if chains: wrap the nested if in a synthetic block
			nested := p.parseIf()
			if nested == nil {
				return nil
			}
			elseBlock = &BlockStmt{SpanVal: nested.Span(), Statements: []Stmt{nested}}
		} else {
			elseBlock = p.parseBlock()
			if elseBlock == nil {
				return nil
			}
		}
	}

	return &If{SpanVal: MakeSpan(start, p.curToken.Pos), Cond: cond, Then: then, Else: elseBlock}
}

func (p *Parser) parseWhile() Stmt {
	start := p.curToken.Pos
	p.nextToken() // consume 'while'

	cond := p.parseExpression()
	if cond == nil {
		return nil
	}

	body := p.parseBlock()
	if body == nil {
		return nil
	}

	return &While{SpanVal: MakeSpan(start, p.curToken.Pos), Cond: cond, Body: body}
}

// parseFor parses `for index, value in iterable { body }`. Either binder
// may be `_` to discard that binding.
func (p *Parser) parseFor() Stmt {
	start := p.curToken.Pos
	p.nextToken() // consume 'for'

	if !p.curTokenIs(TokenIdentifier) {
		p.errorf("expected loop binder, found %s", p.curToken)
		return nil
	}
	indexBinder := p.curToken.Literal
	p.nextToken()

	if !p.expect(TokenComma) {
		return nil
	}

	if !p.curTokenIs(TokenIdentifier) {
		p.errorf("expected loop binder, found %s", p.curToken)
		return nil
	}
	valueBinder := p.curToken.Literal
	p.nextToken()

	if !p.expect(TokenIn) {
		return nil
	}

	iterable := p.parseExpression()
	if iterable == nil {
		return nil
	}

	body := p.parseBlock()
	if body == nil {
		return nil
	}

	return &For{
		SpanVal:     MakeSpan(start, p.curToken.Pos),
		IndexBinder: indexBinder,
		ValueBinder: valueBinder,
		Iterable:    iterable,
		Body:        body,
	}
}

func (p *Parser) parseReturn() Stmt {
	start := p.curToken.Pos
	p.nextToken() // consume 'return'

	var value Expr
	if !p.curTokenIs(TokenSemicolon) {
		value = p.parseExpression()
		if value == nil {
			return nil
		}
	}

	if !p.expect(TokenSemicolon) {
		return nil
	}

	return &Return{SpanVal: MakeSpan(start, p.curToken.Pos), Value: value}
}

func (p *Parser) parseBlock() *BlockStmt {
	start := p.curToken.Pos
	if !p.expect(TokenLBrace) {
		return nil
	}

	block := &BlockStmt{}
	for !p.curTokenIs(TokenRBrace) && !p.curTokenIs(TokenEOF) {
		before := p.curToken
		stmt := p.parseStatement()
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		} else {
			p.synchronize()
			if p.curToken == before && !p.curTokenIs(TokenEOF) {
				p.nextToken()
			}
		}
	}

	if !p.expect(TokenRBrace) {
		return nil
	}

	block.SpanVal = MakeSpan(start, p.curToken.Pos)
	return block
}

func (p *Parser) parseExprStatement() Stmt {
	start := p.curToken.Pos
	expr := p.parseExpression()
	if expr == nil {
		return nil
	}

	if !p.expect(TokenSemicolon) {
		return nil
	}

	return &ExprStmt{SpanVal: MakeSpan(start, p.curToken.Pos), Expr: expr}
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// parseExpression parses a full expression, including assignment.
func (p *Parser) parseExpression() Expr {
	return p.parseAssignment()
}

// parseAssignment handles `target = value` and `target op= value`.
// Assignment is right-associative and only a Variable or Index expression
// is a valid target; the check is syntactic.
func (p *Parser) parseAssignment() Expr {
	start := p.curToken.Pos
	expr := p.parseRange()
	if expr == nil {
		return nil
	}

	if p.curTokenIs(TokenAssign) {
		if !isAssignable(expr) {
			p.errorf("invalid assignment target")
			return nil
		}
		p.nextToken()
		value := p.parseAssignment()
		if value == nil {
			return nil
		}
		return &Assign{SpanVal: MakeSpan(start, p.curToken.Pos), Target: expr, Value: value}
	}

	if p.curToken.Type.IsCompoundAssign() {
		if !isAssignable(expr) {
			p.errorf("invalid assignment target")
			return nil
		}
		op := p.curToken.Type
		p.nextToken()
		value := p.parseAssignment()
		if value == nil {
			return nil
		}
		return &CompoundAssign{SpanVal: MakeSpan(start, p.curToken.Pos), Target: expr, Op: op, Value: value}
	}

	return expr
}

// parseRange handles `lo .. hi`. Ranges do not chain; both bounds bind
// tighter than the range itself.
func (p *Parser) parseRange() Expr {
	start := p.curToken.Pos
	lo := p.parseOr()
	if lo == nil {
		return nil
	}

	if !p.curTokenIs(TokenDotDot) {
		return lo
	}
	p.nextToken()

	hi := p.parseOr()
	if hi == nil {
		return nil
	}
	return &RangeLit{SpanVal: MakeSpan(start, p.curToken.Pos), Lo: lo, Hi: hi}
}

func isAssignable(expr Expr) bool {
	switch expr.(type) {
	case *Variable, *Index:
		return true
	}
	return false
}

func (p *Parser) parseOr() Expr {
	start := p.curToken.Pos
	left := p.parseAnd()
	if left == nil {
		return nil
	}

	for p.curTokenIs(TokenOrOr) {
		p.nextToken()
		right := p.parseAnd()
		if right == nil {
			return nil
		}
		left = &Logical{SpanVal: MakeSpan(start, p.curToken.Pos), Op: TokenOrOr, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseAnd() Expr {
	start := p.curToken.Pos
	left := p.parseEquality()
	if left == nil {
		return nil
	}

	for p.curTokenIs(TokenAndAnd) {
		p.nextToken()
		right := p.parseEquality()
		if right == nil {
			return nil
		}
		left = &Logical{SpanVal: MakeSpan(start, p.curToken.Pos), Op: TokenAndAnd, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseEquality() Expr {
	start := p.curToken.Pos
	left := p.parseComparison()
	if left == nil {
		return nil
	}

	for p.curTokenIs(TokenEq) || p.curTokenIs(TokenNotEq) {
		op := p.curToken.Type
		p.nextToken()
		right := p.parseComparison()
		if right == nil {
			return nil
		}
		left = &Binary{SpanVal: MakeSpan(start, p.curToken.Pos), Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseComparison() Expr {
	start := p.curToken.Pos
	left := p.parseAdditive()
	if left == nil {
		return nil
	}

	for p.curTokenIs(TokenLt) || p.curTokenIs(TokenGt) || p.curTokenIs(TokenLtEq) || p.curTokenIs(TokenGtEq) {
		op := p.curToken.Type
		p.nextToken()
		right := p.parseAdditive()
		if right == nil {
			return nil
		}
		left = &Binary{SpanVal: MakeSpan(start, p.curToken.Pos), Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseAdditive() Expr {
	start := p.curToken.Pos
	left := p.parseMultiplicative()
	if left == nil {
		return nil
	}

	for p.curTokenIs(TokenPlus) || p.curTokenIs(TokenMinus) {
		op := p.curToken.Type
		p.nextToken()
		right := p.parseMultiplicative()
		if right == nil {
			return nil
		}
		left = &Binary{SpanVal: MakeSpan(start, p.curToken.Pos), Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseMultiplicative() Expr {
	start := p.curToken.Pos
	left := p.parseUnary()
	if left == nil {
		return nil
	}

	for p.curTokenIs(TokenStar) || p.curTokenIs(TokenSlash) || p.curTokenIs(TokenPercent) {
		op := p.curToken.Type
		p.nextToken()
		right := p.parseUnary()
		if right == nil {
			return nil
		}
		left = &Binary{SpanVal: MakeSpan(start, p.curToken.Pos), Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseUnary() Expr {
	if p.curTokenIs(TokenMinus) || p.curTokenIs(TokenBang) {
		start := p.curToken.Pos
		op := p.curToken.Type
		p.nextToken()
		operand := p.parseUnary()
		if operand == nil {
			return nil
		}
		return &Unary{SpanVal: MakeSpan(start, p.curToken.Pos), Op: op, Operand: operand}
	}
	return p.parsePostfix()
}

// parsePostfix parses a primary expression followed by any chain of
// postfix operators: (args) calls, [index] subscripts, and :name(args)
// method calls. All three chain left-to-right.
func (p *Parser) parsePostfix() Expr {
	start := p.curToken.Pos
	expr := p.parsePrimary()
	if expr == nil {
		return nil
	}

	for {
		switch p.curToken.Type {
		case TokenLParen:
			args := p.parseArguments()
			if args == nil && p.diags.HasErrors() {
				return nil
			}
			expr = &Call{SpanVal: MakeSpan(start, p.curToken.Pos), Callee: expr, Args: args}

		case TokenLBracket:
			p.nextToken() // consume '['
			idx := p.parseExpression()
			if idx == nil {
				return nil
			}
			if !p.expect(TokenRBracket) {
				return nil
			}
			expr = &Index{SpanVal: MakeSpan(start, p.curToken.Pos), Base: expr, Idx: idx}

		case TokenColon:
			p.nextToken() // consume ':'
			if !p.curTokenIs(TokenIdentifier) {
				p.errorf("expected method name after ':', found %s", p.curToken)
				return nil
			}
			name := p.curToken.Literal
			p.nextToken()
			if !p.curTokenIs(TokenLParen) {
				p.errorf("expected '(' after method name %q, found %s", name, p.curToken)
				return nil
			}
			args := p.parseArguments()
			if args == nil && p.diags.HasErrors() {
				return nil
			}
			expr = &MethodCall{SpanVal: MakeSpan(start, p.curToken.Pos), Receiver: expr, Name: name, Args: args}

		default:
			return expr
		}
	}
}

// parseArguments parses a parenthesized, comma-separated argument list.
// The opening paren is the current token.
func (p *Parser) parseArguments() []Expr {
	p.nextToken() // consume '('

	args := []Expr{}
	if !p.curTokenIs(TokenRParen) {
		for {
			arg := p.parseExpression()
			if arg == nil {
				return nil
			}
			args = append(args, arg)
			if !p.curTokenIs(TokenComma) {
				break
			}
			p.nextToken() // consume ','
		}
	}

	if !p.expect(TokenRParen) {
		return nil
	}
	return args
}

func (p *Parser) parsePrimary() Expr {
	start := p.curToken.Pos

	switch p.curToken.Type {
	case TokenNumber:
		lit := p.curToken.Literal
		value, err := parseNumberLiteral(lit)
		if err != nil {
			p.errorf("invalid number literal %q", lit)
			return nil
		}
		p.nextToken()
		return &NumberLit{SpanVal: MakeSpan(start, p.curToken.Pos), Value: value}

	case TokenString:
		value := p.curToken.Literal
		p.nextToken()
		return &StringLit{SpanVal: MakeSpan(start, p.curToken.Pos), Value: value}

	case TokenTrue:
		p.nextToken()
		return &BoolLit{SpanVal: MakeSpan(start, p.curToken.Pos), Value: true}

	case TokenFalse:
		p.nextToken()
		return &BoolLit{SpanVal: MakeSpan(start, p.curToken.Pos), Value: false}

	case TokenNil:
		p.nextToken()
		return &NilLit{SpanVal: MakeSpan(start, p.curToken.Pos)}

	case TokenIdentifier:
		name := p.curToken.Literal
		p.nextToken()
		return &Variable{SpanVal: MakeSpan(start, p.curToken.Pos), Name: name}

	case TokenLBracket:
		return p.parseArrayLit()

	case TokenLParen:
		p.nextToken() // consume '('
		expr := p.parseExpression()
		if expr == nil {
			return nil
		}
		if !p.expect(TokenRParen) {
			return nil
		}
		return expr

	default:
		p.errorf("unexpected token %s", p.curToken)
		return nil
	}
}

func (p *Parser) parseArrayLit() Expr {
	start := p.curToken.Pos
	p.nextToken() // consume '['

	var elements []Expr
	if !p.curTokenIs(TokenRBracket) {
		for {
			elem := p.parseExpression()
			if elem == nil {
				return nil
			}
			elements = append(elements, elem)
			if !p.curTokenIs(TokenComma) {
				break
			}
			p.nextToken() // consume ','
		}
	}

	if !p.expect(TokenRBracket) {
		return nil
	}

	return &ArrayLit{SpanVal: MakeSpan(start, p.curToken.Pos), Elements: elements}
}
