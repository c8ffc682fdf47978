package parser

import (
	"github.com/mvel/mvel-sub010/ast"
	"github.com/mvel/mvel-sub010/errors"
	"github.com/mvel/mvel-sub010/internal/token"
)

// Expression parsing methods for the Parser.
// This file contains methods that parse expression constructs:
// - Identifiers, this and prefix/infix expressions
// - Grouped expressions and projections
// - Ternaries and if/else
// - Block parsing
// - Index, call and property access
// - Object creation and interceptors

func (p *Parser) parseIdent() (ast.Node, bool) {
	if p.curToken.Literal == "" {
		p.setCodedError(p.curToken, errors.E1006, "invalid identifier")
		return nil, false
	}
	return p.newIdent(p.curToken), true
}

func (p *Parser) parseThis() (ast.Node, bool) {
	return &ast.This{ThisPos: p.curToken.StartPosition}, true
}

func (p *Parser) parsePrefixExpr() (ast.Node, bool) {
	opPos := p.curToken.StartPosition
	op := p.curToken.Literal
	if err := p.nextToken(); err != nil {
		return nil, false
	}
	right := p.parseExpression(PREFIX)
	if right == nil {
		if !p.hadNewError() {
			p.setCodedError(p.curToken, errors.E1004, "invalid prefix expression")
		}
		return nil, false
	}
	// -2 ** 2 is -(2 ** 2)
	for op == "-" && p.peekTokenIs(token.POW) {
		p.nextToken()
		powNode, ok := p.parseInfixExpr(right)
		if !ok {
			return nil, false
		}
		right = powNode.(ast.Expr)
	}
	return &ast.Prefix{OpPos: opPos, Op: op, X: right}, true
}

func (p *Parser) parseInfixExpr(leftNode ast.Node) (ast.Node, bool) {
	left, ok := leftNode.(ast.Expr)
	if !ok {
		p.setTokenError(p.curToken, "invalid expression")
		return nil, false
	}
	opPos := p.curToken.StartPosition
	op := p.curToken.Literal
	precedence := p.currentPrecedence()
	// ** is right-associative: 2**2**3 = 2**(2**3)
	if p.curTokenIs(token.POW) {
		precedence--
	}
	if err := p.nextToken(); err != nil {
		return nil, false
	}
	p.eatNewlines()
	right := p.parseExpression(precedence)
	if right == nil {
		if !p.hadNewError() {
			p.setCodedError(p.curToken, errors.E1004, "invalid expression")
		}
		return nil, false
	}
	return &ast.Infix{X: left, OpPos: opPos, Op: op, Y: right}, true
}

func (p *Parser) parseTernary(condNode ast.Node) (ast.Node, bool) {
	cond, ok := condNode.(ast.Expr)
	if !ok {
		p.setTokenError(p.curToken, "invalid ternary expression")
		return nil, false
	}
	question := p.curToken.StartPosition
	if err := p.nextToken(); err != nil {
		return nil, false
	}
	p.eatNewlines()
	ifTrue := p.parseExpression(LOWEST)
	if ifTrue == nil {
		return nil, false
	}
	if !p.skipNewlinesAndPeek(token.COLON) {
		p.peekError("ternary expression", token.COLON, p.peekToken)
		return nil, false
	}
	p.nextToken() // move to ':'
	colon := p.curToken.StartPosition
	if err := p.nextToken(); err != nil {
		return nil, false
	}
	p.eatNewlines()
	// Parse at one below TERNARY so nested ternaries group to the right
	// and a trailing assignment is not swallowed.
	ifFalse := p.parseExpression(TERNARY - 1)
	if ifFalse == nil {
		return nil, false
	}
	return &ast.Ternary{
		Cond:     cond,
		Question: question,
		IfTrue:   ifTrue,
		Colon:    colon,
		IfFalse:  ifFalse,
	}, true
}

// parseGroupedExpr parses "(expr)" and projections "(item in collection
// if filter)".
func (p *Parser) parseGroupedExpr() (ast.Node, bool) {
	lparen := p.curToken.StartPosition
	if err := p.nextToken(); err != nil {
		return nil, false
	}
	p.eatNewlines()
	if p.curTokenIs(token.RPAREN) {
		p.setCodedError(p.curToken, errors.E1004, "empty parentheses")
		return nil, false
	}
	expr := p.parseExpression(LOWEST)
	if expr == nil {
		return nil, false
	}
	if p.skipNewlinesAndPeek(token.IN) {
		return p.parseProjection(lparen, expr)
	}
	if !p.skipNewlinesAndPeek(token.RPAREN) {
		p.peekError("grouped expression", token.RPAREN, p.peekToken)
		return nil, false
	}
	p.nextToken() // move to ')'
	return expr, true
}

func (p *Parser) parseProjection(lparen token.Position, item ast.Expr) (ast.Node, bool) {
	p.nextToken() // move to 'in'
	if err := p.nextToken(); err != nil {
		return nil, false
	}
	p.eatNewlines()
	collection := p.parseExpression(LOWEST)
	if collection == nil {
		return nil, false
	}
	var filter ast.Expr
	if p.skipNewlinesAndPeek(token.IF) {
		p.nextToken() // move to 'if'
		if err := p.nextToken(); err != nil {
			return nil, false
		}
		p.eatNewlines()
		if filter = p.parseExpression(LOWEST); filter == nil {
			return nil, false
		}
	}
	if !p.skipNewlinesAndPeek(token.RPAREN) {
		p.peekError("projection", token.RPAREN, p.peekToken)
		return nil, false
	}
	p.nextToken() // move to ')'
	return &ast.Projection{
		Lparen:     lparen,
		Item:       item,
		Collection: collection,
		Filter:     filter,
		Rparen:     p.curToken.StartPosition,
	}, true
}

// parseCondition parses "(cond)" as used by if and while.
func (p *Parser) parseCondition(context string) ast.Expr {
	if !p.expectPeek(context, token.LPAREN) {
		return nil
	}
	if err := p.nextToken(); err != nil {
		return nil
	}
	p.eatNewlines()
	cond := p.parseExpression(LOWEST)
	if cond == nil {
		return nil
	}
	if !p.skipNewlinesAndPeek(token.RPAREN) {
		p.peekError(context, token.RPAREN, p.peekToken)
		return nil
	}
	p.nextToken() // move to ')'
	return cond
}

// parseIf parses an entire if, else if, else chain. Else-ifs are handled
// recursively.
func (p *Parser) parseIf() (ast.Node, bool) {
	ifPos := p.curToken.StartPosition
	cond := p.parseCondition("an if expression")
	if cond == nil {
		return nil, false
	}
	if !p.skipNewlinesAndPeek(token.LBRACE) {
		p.peekError("an if expression", token.LBRACE, p.peekToken)
		return nil, false
	}
	p.nextToken() // move to '{'
	consequence := p.parseBlock()
	if consequence == nil {
		return nil, false
	}
	node := &ast.If{If: ifPos, Cond: cond, Consequence: consequence}
	if !p.skipNewlinesAndPeek(token.ELSE) {
		return node, true
	}
	p.nextToken() // move to 'else'
	if p.peekTokenIs(token.IF) {
		p.nextToken() // move to 'if'
		nested, ok := p.parseIf()
		if !ok {
			return nil, false
		}
		node.Alternative = nested
		return node, true
	}
	if !p.skipNewlinesAndPeek(token.LBRACE) {
		p.peekError("an else block", token.LBRACE, p.peekToken)
		return nil, false
	}
	p.nextToken() // move to '{'
	alternative := p.parseBlock()
	if alternative == nil {
		return nil, false
	}
	node.Alternative = alternative
	return node, true
}

func (p *Parser) parseBlock() *ast.Block {
	lbrace := p.curToken.StartPosition
	statements := []ast.Node{}
	if err := p.nextToken(); err != nil { // Move past the '{'
		return nil
	}
	for !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) {
		if p.cancelled() {
			return nil
		}
		stmt := p.parseStatementStrict()
		if stmt != nil {
			statements = append(statements, stmt)
		} else if p.hadNewError() {
			return nil
		}
		if err := p.nextToken(); err != nil {
			return nil
		}
	}
	if p.curTokenIs(token.EOF) {
		p.setCodedError(p.curToken, errors.E1007, "unterminated block statement")
		return nil
	}
	return &ast.Block{Lbrace: lbrace, Stmts: statements, Rbrace: p.curToken.StartPosition}
}

func (p *Parser) parseIndex(leftNode ast.Node) (ast.Node, bool) {
	left, ok := leftNode.(ast.Expr)
	if !ok {
		p.setTokenError(p.curToken, "invalid index expression")
		return nil, false
	}
	lbrack := p.curToken.StartPosition
	if err := p.nextToken(); err != nil {
		return nil, false
	}
	p.eatNewlines()
	index := p.parseExpression(LOWEST)
	if index == nil {
		return nil, false
	}
	if !p.skipNewlinesAndPeek(token.RBRACKET) {
		p.peekError("an index expression", token.RBRACKET, p.peekToken)
		return nil, false
	}
	p.nextToken() // move to ']'
	return &ast.Index{X: left, Lbrack: lbrack, Index: index, Rbrack: p.curToken.StartPosition}, true
}

func (p *Parser) parseCall(functionNode ast.Node) (ast.Node, bool) {
	function, ok := functionNode.(ast.Expr)
	if !ok {
		p.setTokenError(p.curToken, "invalid call expression")
		return nil, false
	}
	lparen := p.curToken.StartPosition
	arguments := p.parseExprList("call arguments", token.RPAREN)
	if arguments == nil {
		return nil, false
	}
	return &ast.Call{Fun: function, Lparen: lparen, Args: arguments, Rparen: p.curToken.StartPosition}, true
}

// parseGetAttr parses "obj.name" and the null-safe "obj?.name". Method calls
// come out as a Call whose Fun is the GetAttr.
func (p *Parser) parseGetAttr(objNode ast.Node) (ast.Node, bool) {
	obj, ok := objNode.(ast.Expr)
	if !ok {
		p.setTokenError(p.curToken, "invalid attribute expression")
		return nil, false
	}
	period := p.curToken.StartPosition
	optional := p.curTokenIs(token.QUESTION_DOT)
	op := p.curToken.Literal
	if err := p.nextToken(); err != nil {
		return nil, false
	}
	p.eatNewlines()
	if !p.curTokenIs(token.IDENT) {
		// Keywords are fine as property names: obj.new, map.contains
		if p.curToken.Literal == "" || !isWord(p.curToken.Literal) {
			p.setCodedError(p.curToken, errors.E1006, "expected an identifier after %q", op)
			return nil, false
		}
	}
	return &ast.GetAttr{X: obj, Period: period, Attr: p.newIdent(p.curToken), Optional: optional}, true
}

func isWord(s string) bool {
	for i, r := range s {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

func (p *Parser) parseNew() (ast.Node, bool) {
	newPos := p.curToken.StartPosition
	if !p.expectPeek("a new expression", token.IDENT) {
		return nil, false
	}
	typeName := p.newIdent(p.curToken)
	// Allow qualified type names: new org.acme.Point(1, 2)
	for p.peekTokenIs(token.PERIOD) {
		p.nextToken()
		if !p.expectPeek("a new expression", token.IDENT) {
			return nil, false
		}
		typeName.Name += "." + p.curToken.Literal
	}
	if !p.expectPeek("a new expression", token.LPAREN) {
		return nil, false
	}
	args := p.parseExprList("constructor arguments", token.RPAREN)
	if args == nil {
		return nil, false
	}
	return &ast.New{NewPos: newPos, Type: typeName, Args: args, Rparen: p.curToken.StartPosition}, true
}

// parseIntercept parses "@Name expr", wrapping expr with the interceptor
// registered under Name.
func (p *Parser) parseIntercept() (ast.Node, bool) {
	at := p.curToken.StartPosition
	if !p.expectPeek("an interceptor", token.IDENT) {
		return nil, false
	}
	name := p.newIdent(p.curToken)
	if err := p.nextToken(); err != nil {
		return nil, false
	}
	p.eatNewlines()
	var target ast.Node
	switch p.curToken.Type {
	case token.VAR:
		target = p.parseVar()
	case token.RETURN:
		target = p.parseReturn()
	case token.FOREACH:
		target = p.parseForeach()
	case token.WHILE:
		target = p.parseWhile()
	default:
		target = p.parseNode(LOWEST)
	}
	if target == nil {
		if !p.hadNewError() {
			p.setCodedError(p.curToken, errors.E1004, "interceptor @%s is missing a target", name.Name)
		}
		return nil, false
	}
	return &ast.Intercept{At: at, Name: name, X: target}, true
}
