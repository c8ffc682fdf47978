package parser

import (
	"strconv"
	"strings"

	"github.com/mvel/mvel-sub010/ast"
	"github.com/mvel/mvel-sub010/errors"
	"github.com/mvel/mvel-sub010/internal/token"
)

// Literal parsing methods for the Parser.
// This file contains methods that parse literal values and compound literals:
// - Numeric, boolean, null and string literals
// - List and map literals: [1, 2], ['k': v], [:]
// - Inline arrays: {1, 2}
// - Function literals: def name(a, b) { ... } and def (a) { ... }

func (p *Parser) parseInt() (ast.Node, bool) {
	tok, lit := p.curToken, p.curToken.Literal
	var value int64
	var err error
	if strings.HasPrefix(lit, "0x") || strings.HasPrefix(lit, "0X") {
		value, err = strconv.ParseInt(lit[2:], 16, 64)
	} else {
		value, err = strconv.ParseInt(lit, 10, 64)
	}
	if err != nil {
		p.setCodedError(tok, errors.E1008, "invalid integer: %s", lit)
		return nil, false
	}
	return &ast.Int{ValuePos: tok.StartPosition, Literal: lit, Value: value}, true
}

func (p *Parser) parseFloat() (ast.Node, bool) {
	tok, lit := p.curToken, p.curToken.Literal
	value, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		p.setCodedError(tok, errors.E1008, "invalid float: %s", lit)
		return nil, false
	}
	return &ast.Float{ValuePos: tok.StartPosition, Literal: lit, Value: value}, true
}

func (p *Parser) parseBoolean() (ast.Node, bool) {
	return &ast.Bool{
		ValuePos: p.curToken.StartPosition,
		Literal:  p.curToken.Literal,
		Value:    p.curTokenIs(token.TRUE),
	}, true
}

func (p *Parser) parseNil() (ast.Node, bool) {
	return &ast.Nil{NilPos: p.curToken.StartPosition, Literal: p.curToken.Literal}, true
}

func (p *Parser) parseString() (ast.Node, bool) {
	tok := p.curToken
	return &ast.String{ValuePos: tok.StartPosition, EndPos: tok.EndPosition, Value: tok.Literal}, true
}

// parseListOrMap parses "[...]". The first element decides: a ':' after it
// makes the literal a map, "[:]" is the empty map.
func (p *Parser) parseListOrMap() (ast.Node, bool) {
	lbrack := p.curToken.StartPosition
	if !p.skipPeekNewlines() {
		return nil, false
	}
	if p.peekTokenIs(token.COLON) {
		p.nextToken() // move to ':'
		if !p.expectPeek("map", token.RBRACKET) {
			return nil, false
		}
		return &ast.Map{Lbrack: lbrack, Rbrack: p.curToken.StartPosition}, true
	}
	if p.peekTokenIs(token.RBRACKET) {
		p.nextToken()
		return &ast.List{Lbrack: lbrack, Items: []ast.Expr{}, Rbrack: p.curToken.StartPosition}, true
	}
	p.nextToken() // move to the first element
	first := p.parseExpression(LOWEST)
	if first == nil {
		return nil, false
	}
	if p.skipNewlinesAndPeek(token.COLON) {
		return p.parseMapRest(lbrack, first)
	}
	items := []ast.Expr{first}
	rest := p.parseExprListRest("list", token.RBRACKET)
	if rest == nil {
		return nil, false
	}
	items = append(items, rest...)
	return &ast.List{Lbrack: lbrack, Items: items, Rbrack: p.curToken.StartPosition}, true
}

// parseMapRest continues a map literal whose first key has been parsed and
// whose ':' is the peek token.
func (p *Parser) parseMapRest(lbrack token.Position, firstKey ast.Expr) (ast.Node, bool) {
	var items []ast.MapItem
	key := firstKey
	for {
		if p.cancelled() {
			return nil, false
		}
		if !p.expectPeek("map", token.COLON) {
			return nil, false
		}
		if err := p.nextToken(); err != nil {
			return nil, false
		}
		p.eatNewlines()
		value := p.parseExpression(LOWEST)
		if value == nil {
			return nil, false
		}
		items = append(items, ast.MapItem{Key: key, Value: value})
		if !p.skipNewlinesAndPeek(token.COMMA) {
			break
		}
		p.nextToken() // move to ','
		if !p.skipPeekNewlines() {
			return nil, false
		}
		if p.peekTokenIs(token.RBRACKET) {
			break // trailing comma
		}
		p.nextToken() // move to the next key
		if key = p.parseExpression(LOWEST); key == nil {
			return nil, false
		}
	}
	if !p.skipNewlinesAndPeek(token.RBRACKET) {
		p.peekError("map", token.RBRACKET, p.peekToken)
		return nil, false
	}
	p.nextToken()
	return &ast.Map{Lbrack: lbrack, Items: items, Rbrack: p.curToken.StartPosition}, true
}

func (p *Parser) parseInlineArray() (ast.Node, bool) {
	lbrace := p.curToken.StartPosition
	items := p.parseExprList("inline array", token.RBRACE)
	if items == nil {
		return nil, false
	}
	return &ast.InlineArray{Lbrace: lbrace, Items: items, Rbrace: p.curToken.StartPosition}, true
}

// parseExprList parses a comma-separated list of expressions until the end
// token. The current token is the opening delimiter. Trailing commas and
// newlines between elements are allowed. A non-nil empty slice is returned
// for an empty list.
func (p *Parser) parseExprList(context string, end token.Type) []ast.Expr {
	if !p.skipPeekNewlines() {
		return nil
	}
	if p.peekTokenIs(end) {
		p.nextToken()
		return []ast.Expr{}
	}
	p.nextToken()
	first := p.parseExpression(LOWEST)
	if first == nil {
		if !p.hadNewError() {
			p.setTokenError(p.curToken, "invalid syntax in %s", context)
		}
		return nil
	}
	rest := p.parseExprListRest(context, end)
	if rest == nil {
		return nil
	}
	return append([]ast.Expr{first}, rest...)
}

// parseExprListRest parses ", expr" pairs after the first element, and the
// closing delimiter.
func (p *Parser) parseExprListRest(context string, end token.Type) []ast.Expr {
	list := []ast.Expr{}
	for p.skipNewlinesAndPeek(token.COMMA) {
		p.nextToken() // move to ','
		if !p.skipPeekNewlines() {
			return nil
		}
		if p.peekTokenIs(end) {
			break
		}
		p.nextToken()
		expr := p.parseExpression(LOWEST)
		if expr == nil {
			return nil
		}
		list = append(list, expr)
	}
	if !p.skipNewlinesAndPeek(end) {
		p.peekError(context, end, p.peekToken)
		return nil
	}
	p.nextToken()
	return list
}

func (p *Parser) parseFunc() (ast.Node, bool) {
	defPos := p.curToken.StartPosition
	var name *ast.Ident
	if p.peekTokenIs(token.IDENT) {
		p.nextToken()
		name = p.newIdent(p.curToken)
	}
	if !p.expectPeek("function", token.LPAREN) {
		return nil, false
	}
	params, ok := p.parseFuncParams()
	if !ok {
		return nil, false
	}
	if !p.skipNewlinesAndPeek(token.LBRACE) {
		p.peekError("function", token.LBRACE, p.peekToken)
		return nil, false
	}
	p.nextToken() // move to '{'
	body := p.parseBlock()
	if body == nil {
		return nil, false
	}
	return &ast.Func{Def: defPos, Name: name, Params: params, Body: body}, true
}

func (p *Parser) parseFuncParams() ([]*ast.Ident, bool) {
	params := []*ast.Ident{}
	seen := map[string]bool{}
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return params, true
	}
	for {
		if !p.expectPeek("function parameters", token.IDENT) {
			return nil, false
		}
		ident := p.newIdent(p.curToken)
		if seen[ident.Name] {
			p.setTokenError(p.curToken, "duplicate parameter %q", ident.Name)
			return nil, false
		}
		seen[ident.Name] = true
		params = append(params, ident)
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}
		if !p.expectPeek("function parameters", token.RPAREN) {
			return nil, false
		}
		return params, true
	}
}
