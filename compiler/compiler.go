// Package compiler turns a parsed expression into an executable Statement:
// a singly linked chain of nodes evaluated against an object.Context.
//
// # Nodes and signals
//
// Every statement compiles to an Executable, which returns a value and a
// Signal. Normal lets the chain continue; Return, Break and Continue unwind
// to the enclosing function or loop; End stops the enclosing chain with the
// current value. Expressions compile to object.Evaluable nodes and are
// wrapped when they appear in statement position.
//
// # Access paths
//
// Identifiers, property chains, index and call expressions, "new" and
// projections compile to accessor paths. Each path gets its own
// optimizer.Site, which starts interpreted and is compiled by the
// controller once it is hot.
//
// # Errors
//
// Compilation does not stop at the first problem. Errors are collected
// with go-multierror and returned together.
package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/mvel/mvel-sub010/ast"
	"github.com/mvel/mvel-sub010/errors"
	"github.com/mvel/mvel-sub010/hook"
	"github.com/mvel/mvel-sub010/internal/token"
	"github.com/mvel/mvel-sub010/optimizer"
)

// SourceLocation is an alias to errors.SourceLocation for convenience.
type SourceLocation = errors.SourceLocation

// Config holds compiler configuration options.
type Config struct {
	// Filename is the source filename, used for error messages and
	// debugger frames.
	Filename string

	// Source is the original source code, used for error messages and
	// access path source text.
	Source string

	// Controller creates the tiered sites of access paths. If nil, a
	// controller with the default configuration is created.
	Controller *optimizer.Controller

	// Interceptors are the interceptors available to "@Name" expressions.
	Interceptors map[string]hook.Interceptor

	// DebugInfo inserts a line marker wherever a statement starts on a new
	// source line.
	DebugInfo bool
}

// Compiler compiles one AST into a Statement.
type Compiler struct {
	filename     string
	source       string
	lines        []string
	ctrl         *optimizer.Controller
	interceptors map[string]hook.Interceptor
	debugInfo    bool

	sites     []*optimizer.Site
	loopDepth int
	lastLine  int
	errs      *multierror.Error
}

// Compile compiles the given AST node into a Statement. Pass nil for cfg to
// use default settings.
func Compile(node ast.Node, cfg *Config) (*Statement, error) {
	return New(cfg).CompileAST(node)
}

// New creates and returns a new Compiler. Pass nil for cfg to use defaults.
func New(cfg *Config) *Compiler {
	c := &Compiler{}
	if cfg != nil {
		c.filename = cfg.Filename
		c.source = cfg.Source
		c.ctrl = cfg.Controller
		c.interceptors = cfg.Interceptors
		c.debugInfo = cfg.DebugInfo
	}
	if c.ctrl == nil {
		c.ctrl = optimizer.New(optimizer.DefaultConfig())
	}
	if c.source != "" {
		c.lines = strings.Split(c.source, "\n")
	}
	return c
}

// CompileAST compiles the given node. All compile errors found are
// returned together.
func (c *Compiler) CompileAST(node ast.Node) (*Statement, error) {
	var stmts []ast.Node
	switch node := node.(type) {
	case *ast.Program:
		stmts = node.Stmts
	case *ast.Block:
		stmts = node.Stmts
	default:
		stmts = []ast.Node{node}
	}
	body := c.compileChain(stmts)
	if err := c.errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	source := c.source
	if source == "" {
		source = node.String()
	}
	return &Statement{
		source:   source,
		filename: c.filename,
		body:     body,
		sites:    c.sites,
	}, nil
}

func (c *Compiler) fail(err error) {
	c.errs = multierror.Append(c.errs, err)
}

// formatErrorWithCode creates a CompileError with an error code and optional
// suggestions.
func (c *Compiler) formatErrorWithCode(code errors.ErrorCode, msg string, pos token.Position, suggestions []errors.Suggestion) error {
	filename := c.filename
	if filename == "" {
		filename = "unknown"
	}
	return &errors.CompileError{
		Code:        code,
		Message:     msg,
		Filename:    filename,
		Line:        pos.LineNumber(),
		Column:      pos.ColumnNumber(),
		SourceLine:  c.getSourceLine(pos.Line),
		Suggestions: suggestions,
	}
}

func (c *Compiler) unknownInterceptor(name string, pos token.Position) error {
	names := make([]string, 0, len(c.interceptors))
	for n := range c.interceptors {
		names = append(names, n)
	}
	sort.Strings(names)
	return c.formatErrorWithCode(
		errors.E2001,
		fmt.Sprintf("unknown interceptor %q", name),
		pos,
		errors.SuggestSimilar(name, names),
	)
}

// getSourceLine retrieves a specific line from the source code.
// lineNum is 0-indexed.
func (c *Compiler) getSourceLine(lineNum int) string {
	if lineNum < 0 || lineNum >= len(c.lines) {
		return ""
	}
	return c.lines[lineNum]
}

// location returns the runtime error location of a node.
func (c *Compiler) location(pos token.Position) SourceLocation {
	return SourceLocation{
		Filename: c.filename,
		Line:     pos.LineNumber(),
		Column:   pos.ColumnNumber(),
		Source:   c.getSourceLine(pos.Line),
	}
}

// text returns the source text of a node, falling back to its String form.
func (c *Compiler) text(node ast.Node) string {
	start, end := node.Pos().Char, node.End().Char
	if c.source != "" && start >= 0 && end <= len(c.source) && start < end {
		return c.source[start:end]
	}
	return node.String()
}
