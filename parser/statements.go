package parser

import (
	"github.com/mvel/mvel-sub010/ast"
	"github.com/mvel/mvel-sub010/errors"
	"github.com/mvel/mvel-sub010/internal/token"
)

// Statement parsing methods for the Parser.
// This file contains methods that parse statement constructs:
// - Variable declarations (var)
// - Return, break and continue
// - Loops (foreach/for, while)
// - Assignments

func (p *Parser) parseVar() ast.Node {
	varPos := p.curToken.StartPosition
	if !p.expectPeek("var statement", token.IDENT) {
		return nil
	}
	name := p.newIdent(p.curToken)
	if !p.peekTokenIs(token.ASSIGN) {
		return &ast.Var{VarPos: varPos, Name: name}
	}
	p.nextToken() // move to '='
	if err := p.nextToken(); err != nil {
		return nil
	}
	value := p.parseAssignmentValue()
	if value == nil {
		return nil
	}
	return &ast.Var{VarPos: varPos, Name: name, Value: value}
}

// parseAssignmentValue parses the right hand side of an assignment statement.
func (p *Parser) parseAssignmentValue() ast.Expr {
	assignToken := p.prevToken
	p.eatNewlines()
	result := p.parseExpression(LOWEST)
	if result == nil {
		if !p.hadNewError() {
			p.setCodedError(assignToken, errors.E1004, "assignment is missing a value")
		}
		return nil
	}
	return result
}

func (p *Parser) parseReturn() ast.Node {
	returnPos := p.curToken.StartPosition
	if statementTerminators[p.peekToken.Type] {
		return &ast.Return{ReturnPos: returnPos}
	}
	p.nextToken()
	value := p.parseExpression(LOWEST)
	if value == nil {
		return nil
	}
	return &ast.Return{ReturnPos: returnPos, Value: value}
}

func (p *Parser) parseExpressionStatement() ast.Node {
	expr := p.parseNode(LOWEST)
	if expr == nil {
		if !p.hadNewError() {
			p.setTokenError(p.curToken, "invalid syntax")
		}
		return nil
	}
	return expr
}

// parseForeach parses "foreach (item : collection) { ... }". The keyword
// "for" is an alias.
func (p *Parser) parseForeach() ast.Node {
	forPos := p.curToken.StartPosition
	if !p.expectPeek("foreach statement", token.LPAREN) {
		return nil
	}
	if !p.expectPeek("foreach statement", token.IDENT) {
		return nil
	}
	item := p.newIdent(p.curToken)
	if !p.expectPeek("foreach statement", token.COLON) {
		return nil
	}
	if err := p.nextToken(); err != nil {
		return nil
	}
	iterable := p.parseExpression(LOWEST)
	if iterable == nil {
		return nil
	}
	if !p.expectPeek("foreach statement", token.RPAREN) {
		return nil
	}
	body := p.parseLoopBody("foreach statement")
	if body == nil {
		return nil
	}
	return &ast.Foreach{ForPos: forPos, Var: item, Iterable: iterable, Body: body}
}

func (p *Parser) parseWhile() ast.Node {
	whilePos := p.curToken.StartPosition
	cond := p.parseCondition("while statement")
	if cond == nil {
		return nil
	}
	body := p.parseLoopBody("while statement")
	if body == nil {
		return nil
	}
	return &ast.While{WhilePos: whilePos, Cond: cond, Body: body}
}

func (p *Parser) parseLoopBody(context string) *ast.Block {
	if !p.skipNewlinesAndPeek(token.LBRACE) {
		p.peekError(context, token.LBRACE, p.peekToken)
		return nil
	}
	p.nextToken() // move to '{'
	return p.parseBlock()
}

// parseAssign parses "target op value" where target is a variable, a
// property path or an index expression.
func (p *Parser) parseAssign(target ast.Node) (ast.Node, bool) {
	opTok := p.curToken
	switch node := target.(type) {
	case *ast.Ident, *ast.Index:
	case *ast.GetAttr:
		if node.Optional {
			p.setCodedError(opTok, errors.E1005, "cannot assign through a null-safe property")
			return nil, false
		}
	default:
		p.setCodedError(opTok, errors.E1005, "invalid assignment target: %s", target.String())
		return nil, false
	}
	if err := p.nextToken(); err != nil {
		return nil, false
	}
	right := p.parseAssignmentValue()
	if right == nil {
		return nil, false
	}
	return &ast.Assign{
		Target: target.(ast.Expr),
		OpPos:  opTok.StartPosition,
		Op:     opTok.Literal,
		Value:  right,
	}, true
}
