package lox

const maxArgs = 255

// Parser is a recursive-descent parser over a token slice.
type Parser struct {
	tokens  []Token
	current int
	errs    ErrorList
}

func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse scans and parses source into a program. Scan and parse errors are
// all returned together; the statements parsed so far are returned even on
// error.
func Parse(source string) ([]Stmt, error) {
	tokens, scanErr := Scan(source)
	stmts, parseErr := NewParser(tokens).Parse()

	var errs ErrorList
	if list, ok := scanErr.(ErrorList); ok {
		errs = append(errs, list...)
	}
	if list, ok := parseErr.(ErrorList); ok {
		errs = append(errs, list...)
	}
	return stmts, errs.Err()
}

// Parse parses declarations until EOF, synchronizing to the next statement
// after each syntax error.
func (p *Parser) Parse() ([]Stmt, error) {
	var stmts []Stmt
	for !p.atEnd() {
		stmt, err := p.declaration()
		if err != nil {
			p.errs = append(p.errs, err)
			p.synchronize()
			continue
		}
		stmts = append(stmts, stmt)
	}
	return stmts, p.errs.Err()
}

func (p *Parser) declaration() (Stmt, error) {
	switch {
	case p.match(ClassKw):
		return p.classDeclaration()
	case p.match(Fun):
		return p.function("function")
	case p.match(Var):
		return p.varDeclaration()
	default:
		return p.statement()
	}
}

func (p *Parser) classDeclaration() (Stmt, error) {
	name, err := p.consume(Identifier, "Expect class name.")
	if err != nil {
		return nil, err
	}

	var superclass *VariableExpr
	if p.match(Less) {
		superName, err := p.consume(Identifier, "Expect superclass name.")
		if err != nil {
			return nil, err
		}
		superclass = &VariableExpr{Name: superName}
	}

	if _, err := p.consume(LeftBrace, "Expect '{' before class body."); err != nil {
		return nil, err
	}

	var methods []*FunctionStmt
	for !p.check(RightBrace) && !p.atEnd() {
		method, err := p.function("method")
		if err != nil {
			return nil, err
		}
		methods = append(methods, method)
	}

	if _, err := p.consume(RightBrace, "Expect '}' after class body."); err != nil {
		return nil, err
	}

	return &ClassStmt{Name: name, Superclass: superclass, Methods: methods}, nil
}

func (p *Parser) function(kind string) (*FunctionStmt, error) {
	name, err := p.consume(Identifier, "Expect "+kind+" name.")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(LeftParen, "Expect '(' after "+kind+" name."); err != nil {
		return nil, err
	}

	var params []Token
	if !p.check(RightParen) {
		for {
			if len(params) >= maxArgs {
				p.report(p.peek(), "Can't have more than 255 parameters.")
			}
			param, err := p.consume(Identifier, "Expect parameter name.")
			if err != nil {
				return nil, err
			}
			params = append(params, param)
			if !p.match(Comma) {
				break
			}
		}
	}
	if _, err := p.consume(RightParen, "Expect ')' after parameters."); err != nil {
		return nil, err
	}

	if _, err := p.consume(LeftBrace, "Expect '{' before "+kind+" body."); err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}

	return &FunctionStmt{Name: name, Params: params, Body: body}, nil
}

func (p *Parser) varDeclaration() (Stmt, error) {
	name, err := p.consume(Identifier, "Expect variable name.")
	if err != nil {
		return nil, err
	}

	var init Expr
	if p.match(Equal) {
		init, err = p.expression()
		if err != nil {
			return nil, err
		}
	}

	if _, err := p.consume(Semicolon, "Expect ';' after variable declaration."); err != nil {
		return nil, err
	}
	return &VarStmt{Name: name, Initializer: init}, nil
}

func (p *Parser) statement() (Stmt, error) {
	switch {
	case p.match(For):
		return p.forStatement()
	case p.match(If):
		return p.ifStatement()
	case p.match(Print):
		return p.printStatement()
	case p.match(Return):
		return p.returnStatement()
	case p.match(While):
		return p.whileStatement()
	case p.match(LeftBrace):
		stmts, err := p.block()
		if err != nil {
			return nil, err
		}
		return &BlockStmt{Statements: stmts}, nil
	default:
		return p.expressionStatement()
	}
}

// forStatement desugars `for (init; cond; incr) body` into a while loop
// wrapped in blocks.
func (p *Parser) forStatement() (Stmt, error) {
	if _, err := p.consume(LeftParen, "Expect '(' after 'for'."); err != nil {
		return nil, err
	}

	var init Stmt
	var err error
	switch {
	case p.match(Semicolon):
	case p.match(Var):
		init, err = p.varDeclaration()
	default:
		init, err = p.expressionStatement()
	}
	if err != nil {
		return nil, err
	}

	var cond Expr
	if !p.check(Semicolon) {
		if cond, err = p.expression(); err != nil {
			return nil, err
		}
	}
	if _, err := p.consume(Semicolon, "Expect ';' after loop condition."); err != nil {
		return nil, err
	}

	var incr Expr
	if !p.check(RightParen) {
		if incr, err = p.expression(); err != nil {
			return nil, err
		}
	}
	if _, err := p.consume(RightParen, "Expect ')' after for clauses."); err != nil {
		return nil, err
	}

	body, err := p.statement()
	if err != nil {
		return nil, err
	}

	if incr != nil {
		body = &BlockStmt{Statements: []Stmt{body, &ExpressionStmt{Expression: incr}}}
	}
	if cond == nil {
		cond = &LiteralExpr{Value: Bool(true)}
	}
	body = &WhileStmt{Condition: cond, Body: body}
	if init != nil {
		body = &BlockStmt{Statements: []Stmt{init, body}}
	}
	return body, nil
}

func (p *Parser) ifStatement() (Stmt, error) {
	if _, err := p.consume(LeftParen, "Expect '(' after 'if'."); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(RightParen, "Expect ')' after if condition."); err != nil {
		return nil, err
	}

	then, err := p.statement()
	if err != nil {
		return nil, err
	}
	var els Stmt
	if p.match(Else) {
		if els, err = p.statement(); err != nil {
			return nil, err
		}
	}
	return &IfStmt{Condition: cond, ThenBranch: then, ElseBranch: els}, nil
}

func (p *Parser) printStatement() (Stmt, error) {
	value, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(Semicolon, "Expect ';' after value."); err != nil {
		return nil, err
	}
	return &PrintStmt{Expression: value}, nil
}

func (p *Parser) returnStatement() (Stmt, error) {
	keyword := p.previous()
	var value Expr
	if !p.check(Semicolon) {
		var err error
		if value, err = p.expression(); err != nil {
			return nil, err
		}
	}
	if _, err := p.consume(Semicolon, "Expect ';' after return value."); err != nil {
		return nil, err
	}
	return &ReturnStmt{Keyword: keyword, Value: value}, nil
}

func (p *Parser) whileStatement() (Stmt, error) {
	if _, err := p.consume(LeftParen, "Expect '(' after 'while'."); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(RightParen, "Expect ')' after condition."); err != nil {
		return nil, err
	}
	body, err := p.statement()
	if err != nil {
		return nil, err
	}
	return &WhileStmt{Condition: cond, Body: body}, nil
}

func (p *Parser) block() ([]Stmt, error) {
	var stmts []Stmt
	for !p.check(RightBrace) && !p.atEnd() {
		stmt, err := p.declaration()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	if _, err := p.consume(RightBrace, "Expect '}' after block."); err != nil {
		return nil, err
	}
	return stmts, nil
}

func (p *Parser) expressionStatement() (Stmt, error) {
	expr, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(Semicolon, "Expect ';' after expression."); err != nil {
		return nil, err
	}
	return &ExpressionStmt{Expression: expr}, nil
}

func (p *Parser) expression() (Expr, error) {
	return p.assignment()
}

func (p *Parser) assignment() (Expr, error) {
	expr, err := p.or()
	if err != nil {
		return nil, err
	}

	if p.match(Equal) {
		equals := p.previous()
		value, err := p.assignment()
		if err != nil {
			return nil, err
		}

		switch target := expr.(type) {
		case *VariableExpr:
			return &AssignExpr{Name: target.Name, Value: value}, nil
		case *GetExpr:
			return &SetExpr{Object: target.Object, Name: target.Name, Value: value}, nil
		}

		// reported, but the parser is not confused so there's no need to
		// synchronize
		p.report(equals, "Invalid assignment target.")
	}

	return expr, nil
}

func (p *Parser) or() (Expr, error) {
	return p.logical(p.and, Or)
}

func (p *Parser) and() (Expr, error) {
	return p.logical(p.equality, And)
}

func (p *Parser) logical(operand func() (Expr, error), ops ...TokenType) (Expr, error) {
	expr, err := operand()
	if err != nil {
		return nil, err
	}
	for p.match(ops...) {
		op := p.previous()
		right, err := operand()
		if err != nil {
			return nil, err
		}
		expr = &LogicalExpr{Left: expr, Operator: op, Right: right}
	}
	return expr, nil
}

func (p *Parser) equality() (Expr, error) {
	return p.binary(p.comparison, BangEqual, EqualEqual)
}

func (p *Parser) comparison() (Expr, error) {
	return p.binary(p.term, Greater, GreaterEqual, Less, LessEqual)
}

func (p *Parser) term() (Expr, error) {
	return p.binary(p.factor, Minus, Plus)
}

func (p *Parser) factor() (Expr, error) {
	return p.binary(p.unary, Slash, Star)
}

func (p *Parser) binary(operand func() (Expr, error), ops ...TokenType) (Expr, error) {
	expr, err := operand()
	if err != nil {
		return nil, err
	}
	for p.match(ops...) {
		op := p.previous()
		right, err := operand()
		if err != nil {
			return nil, err
		}
		expr = &BinaryExpr{Left: expr, Operator: op, Right: right}
	}
	return expr, nil
}

func (p *Parser) unary() (Expr, error) {
	if p.match(Bang, Minus) {
		op := p.previous()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Operator: op, Right: right}, nil
	}
	return p.call()
}

func (p *Parser) call() (Expr, error) {
	expr, err := p.primary()
	if err != nil {
		return nil, err
	}

	for {
		switch {
		case p.match(LeftParen):
			if expr, err = p.finishCall(expr); err != nil {
				return nil, err
			}
		case p.match(Dot):
			name, err := p.consume(Identifier, "Expect property name after '.'.")
			if err != nil {
				return nil, err
			}
			expr = &GetExpr{Object: expr, Name: name}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) finishCall(callee Expr) (Expr, error) {
	var args []Expr
	if !p.check(RightParen) {
		for {
			if len(args) >= maxArgs {
				p.report(p.peek(), "Can't have more than 255 arguments.")
			}
			arg, err := p.expression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.match(Comma) {
				break
			}
		}
	}

	paren, err := p.consume(RightParen, "Expect ')' after arguments.")
	if err != nil {
		return nil, err
	}
	return &CallExpr{Callee: callee, Paren: paren, Args: args}, nil
}

func (p *Parser) primary() (Expr, error) {
	switch {
	case p.match(False):
		return &LiteralExpr{Value: Bool(false)}, nil
	case p.match(True):
		return &LiteralExpr{Value: Bool(true)}, nil
	case p.match(NilKw):
		return &LiteralExpr{Value: Nil{}}, nil
	case p.match(NumberLit, StringLit):
		return &LiteralExpr{Value: p.previous().Literal}, nil
	case p.match(SuperKw):
		keyword := p.previous()
		if _, err := p.consume(Dot, "Expect '.' after 'super'."); err != nil {
			return nil, err
		}
		method, err := p.consume(Identifier, "Expect superclass method name.")
		if err != nil {
			return nil, err
		}
		return &SuperExpr{Keyword: keyword, Method: method}, nil
	case p.match(ThisKw):
		return &ThisExpr{Keyword: p.previous()}, nil
	case p.match(Identifier):
		return &VariableExpr{Name: p.previous()}, nil
	case p.match(LeftParen):
		expr, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(RightParen, "Expect ')' after expression."); err != nil {
			return nil, err
		}
		return &GroupingExpr{Expression: expr}, nil
	}

	return nil, &ParseError{Token: p.peek(), Message: "Expect expression."}
}

func (p *Parser) synchronize() {
	p.advance()
	for !p.atEnd() {
		if p.previous().Type == Semicolon {
			return
		}
		switch p.peek().Type {
		case ClassKw, Fun, Var, For, If, While, Print, Return:
			return
		}
		p.advance()
	}
}

func (p *Parser) report(tok Token, msg string) {
	p.errs = append(p.errs, &ParseError{Token: tok, Message: msg})
}

func (p *Parser) consume(typ TokenType, msg string) (Token, error) {
	if p.check(typ) {
		return p.advance(), nil
	}
	return Token{}, &ParseError{Token: p.peek(), Message: msg}
}

func (p *Parser) match(types ...TokenType) bool {
	for _, typ := range types {
		if p.check(typ) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) check(typ TokenType) bool {
	if p.atEnd() {
		return false
	}
	return p.peek().Type == typ
}

func (p *Parser) advance() Token {
	if !p.atEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) atEnd() bool {
	return p.peek().Type == EOF
}

func (p *Parser) peek() Token {
	return p.tokens[p.current]
}

func (p *Parser) previous() Token {
	return p.tokens[p.current-1]
}
