// Package parser is used to generate the abstract syntax tree (AST) for an
// expression.
//
// A parser is created by calling New() with a lexer as input. The parser should
// then be used only once, by calling parser.Parse() to produce the AST.
package parser

import (
	"context"
	"fmt"
	"strings"

	"github.com/mvel/mvel-sub010/ast"
	"github.com/mvel/mvel-sub010/errors"
	"github.com/mvel/mvel-sub010/internal/lexer"
	"github.com/mvel/mvel-sub010/internal/token"
)

type (
	prefixParseFn func() (ast.Node, bool)
	infixParseFn  func(ast.Node) (ast.Node, bool)
)

// statementTerminators defines tokens that can end a statement.
//
// Trailing operators continue an expression onto the next line ("x +\ny" is
// one expression) while a newline at the start of a line ends it ("x\ny" is
// two statements). Newlines are allowed freely inside parentheses, brackets
// and after commas.
var statementTerminators = map[token.Type]bool{
	token.SEMICOLON: true,
	token.NEWLINE:   true,
	token.RBRACE:    true,
	token.EOF:       true,
}

// Parse the provided input as source code and return the AST. This is
// shorthand way to create a Lexer and Parser and then call Parse on that.
func Parse(ctx context.Context, input string, options ...Option) (*ast.Program, error) {
	var probe Parser
	for _, opt := range options {
		opt(&probe)
	}
	l := lexer.New(input)
	if probe.filename != "" {
		l.SetFilename(probe.filename)
	}
	return New(l, options...).Parse(ctx)
}

// Option is a configuration function for a Parser.
type Option func(*Parser)

// WithFilename sets the file name reported in positions and errors.
func WithFilename(filename string) Option {
	return func(p *Parser) {
		p.filename = filename
	}
}

// WithMaxDepth sets the maximum nesting depth for the parser.
// This prevents stack overflow on deeply nested input.
// The default is 500.
func WithMaxDepth(depth int) Option {
	return func(p *Parser) {
		p.maxDepth = depth
	}
}

// DefaultMaxDepth is the default maximum nesting depth for parsing.
const DefaultMaxDepth = 500

// MaxErrors is the maximum number of errors to collect before stopping.
const MaxErrors = 10

// Parser object
type Parser struct {
	// the Context supplied in the Parse() call
	ctx context.Context

	l *lexer.Lexer

	prevToken token.Token
	curToken  token.Token
	peekToken token.Token

	errors []ParserError

	// stmtErrorCount tracks error count at start of current statement.
	// Used by inner methods to detect if an error was added during this statement.
	stmtErrorCount int

	prefixParseFns map[token.Type]prefixParseFn
	infixParseFns  map[token.Type]infixParseFn

	filename string
	depth    int
	maxDepth int
}

// New returns a Parser for the program provided by the given Lexer.
func New(l *lexer.Lexer, options ...Option) *Parser {
	p := &Parser{
		l:              l,
		prefixParseFns: map[token.Type]prefixParseFn{},
		infixParseFns:  map[token.Type]infixParseFn{},
		maxDepth:       DefaultMaxDepth,
	}
	for _, opt := range options {
		opt(p)
	}
	if p.filename != "" && l.Filename() == "" {
		l.SetFilename(p.filename)
	}

	// Prime the token pump
	p.nextToken() // makes curToken=<empty>, peekToken=token[0]
	p.nextToken() // makes curToken=token[0], peekToken=token[1]

	p.registerPrefix(token.AT, p.parseIntercept)
	p.registerPrefix(token.BANG, p.parsePrefixExpr)
	p.registerPrefix(token.DEF, p.parseFunc)
	p.registerPrefix(token.EOF, p.illegalToken)
	p.registerPrefix(token.FALSE, p.parseBoolean)
	p.registerPrefix(token.FLOAT, p.parseFloat)
	p.registerPrefix(token.IDENT, p.parseIdent)
	p.registerPrefix(token.IF, p.parseIf)
	p.registerPrefix(token.ILLEGAL, p.illegalToken)
	p.registerPrefix(token.INT, p.parseInt)
	p.registerPrefix(token.LBRACE, p.parseInlineArray)
	p.registerPrefix(token.LBRACKET, p.parseListOrMap)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpr)
	p.registerPrefix(token.MINUS, p.parsePrefixExpr)
	p.registerPrefix(token.NEW, p.parseNew)
	p.registerPrefix(token.NIL, p.parseNil)
	p.registerPrefix(token.STRING, p.parseString)
	p.registerPrefix(token.THIS, p.parseThis)
	p.registerPrefix(token.TRUE, p.parseBoolean)

	p.registerInfix(token.AND, p.parseInfixExpr)
	p.registerInfix(token.ASSIGN, p.parseAssign)
	p.registerInfix(token.ASTERISK_EQUALS, p.parseAssign)
	p.registerInfix(token.ASTERISK, p.parseInfixExpr)
	p.registerInfix(token.CONTAINS, p.parseInfixExpr)
	p.registerInfix(token.EQ, p.parseInfixExpr)
	p.registerInfix(token.GT_EQUALS, p.parseInfixExpr)
	p.registerInfix(token.GT, p.parseInfixExpr)
	p.registerInfix(token.LBRACKET, p.parseIndex)
	p.registerInfix(token.LPAREN, p.parseCall)
	p.registerInfix(token.LT_EQUALS, p.parseInfixExpr)
	p.registerInfix(token.LT, p.parseInfixExpr)
	p.registerInfix(token.MINUS_EQUALS, p.parseAssign)
	p.registerInfix(token.MINUS, p.parseInfixExpr)
	p.registerInfix(token.MOD, p.parseInfixExpr)
	p.registerInfix(token.NOT_EQ, p.parseInfixExpr)
	p.registerInfix(token.OR, p.parseInfixExpr)
	p.registerInfix(token.PERIOD, p.parseGetAttr)
	p.registerInfix(token.PLUS_EQUALS, p.parseAssign)
	p.registerInfix(token.PLUS, p.parseInfixExpr)
	p.registerInfix(token.POW, p.parseInfixExpr)
	p.registerInfix(token.QUESTION_DOT, p.parseGetAttr)
	p.registerInfix(token.QUESTION, p.parseTernary)
	p.registerInfix(token.SLASH_EQUALS, p.parseAssign)
	p.registerInfix(token.SLASH, p.parseInfixExpr)

	return p
}

// advanceToken moves to the next token from the lexer without error checking.
// Used internally by synchronize() during error recovery.
func (p *Parser) advanceToken() {
	p.prevToken = p.curToken
	p.curToken = p.peekToken
	p.peekToken, _ = p.l.Next()
}

// nextToken moves to the next token from the lexer, updating all of
// prevToken, curToken, and peekToken.
func (p *Parser) nextToken() error {
	var err error
	p.prevToken = p.curToken
	p.curToken = p.peekToken
	p.peekToken, err = p.l.Next()
	if err == nil {
		return nil
	}
	// All lexer errors are syntax errors and parsing is now broken.
	p.addError(NewSyntaxError(ErrorOpts{
		Code:          lexerErrorCode(err),
		Cause:         err,
		File:          p.l.Filename(),
		StartPosition: p.peekToken.StartPosition,
		EndPosition:   p.peekToken.EndPosition,
		SourceCode:    p.l.GetLineText(p.peekToken),
	}))
	return err
}

// Parse the program that is provided via the lexer.
// Returns the AST and any errors encountered. If there are errors, the AST
// may be partial (containing only successfully parsed statements).
func (p *Parser) Parse(ctx context.Context) (*ast.Program, error) {
	p.ctx = ctx
	// Errors may already exist because the constructor read two tokens.
	if p.hasErrors() {
		return nil, NewErrors(p.errors)
	}
	var statements []ast.Node
	for p.curToken.Type != token.EOF {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if p.tooManyErrors() {
			break
		}
		p.stmtErrorCount = len(p.errors)
		stmt := p.parseStatementStrict()
		if stmt != nil {
			statements = append(statements, stmt)
		} else if p.hadNewError() {
			p.synchronize()
		}
		p.nextToken()
	}
	if p.hasErrors() {
		return &ast.Program{Stmts: statements}, NewErrors(p.errors)
	}
	return &ast.Program{Stmts: statements}, nil
}

func (p *Parser) registerPrefix(tokenType token.Type, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType token.Type, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}

func (p *Parser) addError(err ParserError) {
	p.errors = append(p.errors, err)
}

func (p *Parser) hasErrors() bool {
	return len(p.errors) > 0
}

func (p *Parser) tooManyErrors() bool {
	return len(p.errors) >= MaxErrors
}

// hadNewError returns true if an error was added during the current statement.
func (p *Parser) hadNewError() bool {
	return len(p.errors) > p.stmtErrorCount
}

// synchronize skips tokens until a statement boundary is reached.
// This is used for error recovery to continue parsing after an error.
func (p *Parser) synchronize() {
	for !p.curTokenIs(token.EOF) {
		if statementTerminators[p.curToken.Type] {
			return
		}
		switch p.curToken.Type {
		case token.VAR, token.RETURN, token.IF, token.DEF,
			token.FOREACH, token.WHILE:
			return
		}
		prevPos := p.curToken.StartPosition
		p.advanceToken()
		// Safety: if we didn't advance (lexer stuck), bail out
		if p.curToken.StartPosition == prevPos {
			return
		}
	}
}

func (p *Parser) noPrefixParseFnError(t token.Token) {
	p.addError(NewParserError(ErrorOpts{
		ErrType:       "parse error",
		Code:          errors.E1003,
		Message:       fmt.Sprintf("invalid syntax (unexpected %q)", t.Literal),
		File:          p.l.Filename(),
		StartPosition: t.StartPosition,
		EndPosition:   t.EndPosition,
		SourceCode:    p.l.GetLineText(t),
	}))
}

// peekError raises an error if the next token is not the expected type.
func (p *Parser) peekError(context string, expected token.Type, got token.Token) {
	code := errors.E1001
	if got.Type == token.EOF {
		code = errors.E1007
	}
	p.addError(NewParserError(ErrorOpts{
		ErrType: "parse error",
		Code:    code,
		Message: fmt.Sprintf("unexpected %s while parsing %s (expected %s)",
			tokenDescription(got), context, tokenTypeDescription(expected)),
		File:          p.l.Filename(),
		StartPosition: got.StartPosition,
		EndPosition:   got.EndPosition,
		SourceCode:    p.l.GetLineText(got),
	}))
}

// cancelled checks if the parsing context has been cancelled.
func (p *Parser) cancelled() bool {
	if p.ctx == nil {
		return false
	}
	select {
	case <-p.ctx.Done():
		p.addError(NewParserError(ErrorOpts{
			ErrType: "context error",
			Cause:   p.ctx.Err(),
		}))
		return true
	default:
		return false
	}
}

func (p *Parser) parseStatementStrict() ast.Node {
	stmt := p.parseStatement()
	if stmt == nil {
		return nil
	}
	// A statement ends with a semicolon, a terminator, or a closing brace of
	// its own block (if/while/foreach/def).
	if p.curTokenIs(token.SEMICOLON) || p.curTokenIs(token.RBRACE) ||
		statementTerminators[p.peekToken.Type] {
		return stmt
	}
	p.setTokenError(p.curToken, "unexpected token %q following statement", p.peekToken.Literal)
	return nil
}

func (p *Parser) parseStatement() ast.Node {
	var stmt ast.Node
	switch p.curToken.Type {
	case token.VAR:
		stmt = p.parseVar()
	case token.RETURN:
		stmt = p.parseReturn()
	case token.BREAK:
		stmt = &ast.Break{BreakPos: p.curToken.StartPosition}
	case token.CONTINUE:
		stmt = &ast.Continue{ContinuePos: p.curToken.StartPosition}
	case token.FOREACH:
		stmt = p.parseForeach()
	case token.WHILE:
		stmt = p.parseWhile()
	case token.NEWLINE, token.SEMICOLON:
		stmt = nil
	default:
		stmt = p.parseExpressionStatement()
	}
	if p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
	}
	return stmt
}

func (p *Parser) parseNode(precedence int) ast.Node {
	if p.curToken.Type == token.EOF || p.hadNewError() {
		return nil
	}
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > p.maxDepth {
		p.setCodedError(p.curToken, errors.E1009, "maximum nesting depth exceeded")
		return nil
	}
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken)
		return nil
	}
	leftExp, ok := prefix()
	if !ok || p.hadNewError() || leftExp == nil {
		return nil
	}
	for !p.peekTokenIs(token.SEMICOLON) && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}
		if err := p.nextToken(); err != nil {
			return nil
		}
		leftExp, ok = infix(leftExp)
		if !ok || p.hadNewError() {
			return nil
		}
	}
	return leftExp
}

func (p *Parser) parseExpression(precedence int) ast.Expr {
	node := p.parseNode(precedence)
	if node == nil || p.hadNewError() {
		return nil
	}
	if expr, ok := node.(ast.Expr); ok {
		return expr
	}
	p.setCodedError(p.prevToken, errors.E1004, "expected expression")
	return nil
}

func (p *Parser) illegalToken() (ast.Node, bool) {
	if p.curTokenIs(token.EOF) {
		p.setCodedError(p.curToken, errors.E1004, "unexpected end of input")
		return nil, false
	}
	p.setCodedError(p.curToken, errors.E1003, "illegal token %s", p.curToken.Literal)
	return nil, false
}

func (p *Parser) setTokenError(t token.Token, msg string, args ...interface{}) {
	p.setCodedError(t, errors.E1003, msg, args...)
}

func (p *Parser) setCodedError(t token.Token, code errors.ErrorCode, msg string, args ...interface{}) {
	p.addError(NewParserError(ErrorOpts{
		ErrType:       "parse error",
		Code:          code,
		Message:       fmt.Sprintf(msg, args...),
		File:          p.l.Filename(),
		StartPosition: t.StartPosition,
		EndPosition:   t.EndPosition,
		SourceCode:    p.l.GetLineText(t),
	}))
}

func (p *Parser) newIdent(tok token.Token) *ast.Ident {
	return &ast.Ident{NamePos: tok.StartPosition, Name: tok.Literal}
}

func (p *Parser) curTokenIs(t token.Type) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.Type) bool {
	return p.peekToken.Type == t
}

// expectPeek validates if the next token is of the given type, and advances if
// it is. If it's a different type, then an error is stored.
func (p *Parser) expectPeek(context string, t token.Type) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(context, t, p.peekToken)
	return false
}

func (p *Parser) peekPrecedence() int {
	if p, ok := precedences[p.peekToken.Type]; ok {
		return p
	}
	return LOWEST
}

func (p *Parser) currentPrecedence() int {
	if p, ok := precedences[p.curToken.Type]; ok {
		return p
	}
	return LOWEST
}

func (p *Parser) eatNewlines() {
	for p.curTokenIs(token.NEWLINE) {
		if err := p.nextToken(); err != nil {
			return
		}
	}
}

func (p *Parser) skipPeekNewlines() bool {
	for p.peekTokenIs(token.NEWLINE) {
		if err := p.nextToken(); err != nil {
			return false
		}
	}
	return true
}

// skipNewlinesAndPeek checks if the given token type appears after optional
// newlines. If found, it skips the newlines and returns true (with peekToken
// now being the target). If not found, it returns false without consuming
// any tokens.
func (p *Parser) skipNewlinesAndPeek(targetType token.Type) bool {
	if p.peekTokenIs(targetType) {
		return true
	}
	if !p.peekTokenIs(token.NEWLINE) {
		return false
	}
	savedPrev, savedCur, savedPeek := p.prevToken, p.curToken, p.peekToken
	savedLexer := p.l.SaveState()
	for p.peekTokenIs(token.NEWLINE) {
		p.advanceToken()
	}
	if p.peekTokenIs(targetType) {
		return true
	}
	p.prevToken, p.curToken, p.peekToken = savedPrev, savedCur, savedPeek
	p.l.RestoreState(savedLexer)
	return false
}

func lexerErrorCode(err error) errors.ErrorCode {
	msg := err.Error()
	switch {
	case strings.HasPrefix(msg, "unterminated"):
		return errors.E1002
	case strings.HasPrefix(msg, "invalid escape"):
		return errors.E1010
	case strings.HasPrefix(msg, "invalid hex"):
		return errors.E1008
	}
	return errors.E1003
}
