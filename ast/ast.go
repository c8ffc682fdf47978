// Package ast defines the abstract syntax tree representation of expressions.
package ast

import (
	"bytes"
	"strings"

	"github.com/mvel/mvel-sub010/internal/token"
)

// Node represents a portion of the syntax tree. All nodes have position
// information indicating where they appear in the source code.
type Node interface {
	// Pos returns the position of the first character belonging to the node.
	Pos() token.Position

	// End returns the position of the first character immediately after the node.
	End() token.Position

	// String returns a human friendly representation of the Node. This should
	// be similar to the original source code, but not necessarily identical.
	String() string
}

// Stmt represents a statement node. Statements cause side effects but
// do not evaluate to a value.
type Stmt interface {
	Node
	stmtNode()
}

// Expr represents an expression node. Expressions evaluate to a value
// and may be embedded within other expressions.
type Expr interface {
	Node
	exprNode()
}

// Program is the root node produced by the parser: an ordered list of
// statements and expressions.
type Program struct {
	Stmts []Node
}

func (p *Program) Pos() token.Position {
	if len(p.Stmts) > 0 {
		return p.Stmts[0].Pos()
	}
	return token.NoPos
}

func (p *Program) End() token.Position {
	if len(p.Stmts) > 0 {
		return p.Stmts[len(p.Stmts)-1].End()
	}
	return token.NoPos
}

func (p *Program) String() string {
	parts := make([]string, 0, len(p.Stmts))
	for _, s := range p.Stmts {
		parts = append(parts, s.String())
	}
	return strings.Join(parts, "; ")
}

// Block is a brace-delimited sequence of statements.
type Block struct {
	Lbrace token.Position
	Stmts  []Node
	Rbrace token.Position
}

func (b *Block) stmtNode() {}

func (b *Block) Pos() token.Position { return b.Lbrace }
func (b *Block) End() token.Position { return b.Rbrace.Advance(1) }

func (b *Block) String() string {
	var out bytes.Buffer
	out.WriteString("{ ")
	for i, s := range b.Stmts {
		if i > 0 {
			out.WriteString("; ")
		}
		out.WriteString(s.String())
	}
	out.WriteString(" }")
	return out.String()
}

// BadExpr is a placeholder for an expression that failed to parse. It lets
// the parser keep going after an error.
type BadExpr struct {
	From token.Position
	To   token.Position
}

func (x *BadExpr) exprNode() {}

func (x *BadExpr) Pos() token.Position { return x.From }
func (x *BadExpr) End() token.Position { return x.To }
func (x *BadExpr) String() string      { return "<bad expression>" }

// BadStmt is a placeholder for a statement that failed to parse.
type BadStmt struct {
	From token.Position
	To   token.Position
}

func (s *BadStmt) stmtNode() {}

func (s *BadStmt) Pos() token.Position { return s.From }
func (s *BadStmt) End() token.Position { return s.To }
func (s *BadStmt) String() string      { return "<bad statement>" }
