package ast

import (
	"github.com/mvel/mvel-sub010/internal/token"
)

// Var is a statement that declares a new variable in the current scope.
type Var struct {
	VarPos token.Position
	Name   *Ident
	Value  Expr // nil declares the variable as null
}

func (s *Var) stmtNode() {}

func (s *Var) Pos() token.Position { return s.VarPos }
func (s *Var) End() token.Position {
	if s.Value != nil {
		return s.Value.End()
	}
	return s.Name.End()
}

func (s *Var) String() string {
	if s.Value == nil {
		return "var " + s.Name.Name
	}
	return "var " + s.Name.Name + " = " + s.Value.String()
}

// Return ends the enclosing function (or the whole statement) with a value.
type Return struct {
	ReturnPos token.Position
	Value     Expr // may be nil
}

func (s *Return) stmtNode() {}

func (s *Return) Pos() token.Position { return s.ReturnPos }
func (s *Return) End() token.Position {
	if s.Value != nil {
		return s.Value.End()
	}
	return s.ReturnPos.Advance(6)
}

func (s *Return) String() string {
	if s.Value == nil {
		return "return"
	}
	return "return " + s.Value.String()
}

// Break exits the innermost loop.
type Break struct {
	BreakPos token.Position
}

func (s *Break) stmtNode() {}

func (s *Break) Pos() token.Position { return s.BreakPos }
func (s *Break) End() token.Position { return s.BreakPos.Advance(5) }
func (s *Break) String() string      { return "break" }

// Continue skips to the next iteration of the innermost loop.
type Continue struct {
	ContinuePos token.Position
}

func (s *Continue) stmtNode() {}

func (s *Continue) Pos() token.Position { return s.ContinuePos }
func (s *Continue) End() token.Position { return s.ContinuePos.Advance(8) }
func (s *Continue) String() string      { return "continue" }

// Foreach iterates over a collection: foreach (item : items) { ... }.
type Foreach struct {
	ForPos   token.Position
	Var      *Ident
	Iterable Expr
	Body     *Block
}

func (s *Foreach) stmtNode() {}

func (s *Foreach) Pos() token.Position { return s.ForPos }
func (s *Foreach) End() token.Position { return s.Body.End() }

func (s *Foreach) String() string {
	return "foreach (" + s.Var.Name + " : " + s.Iterable.String() + ") " + s.Body.String()
}

// While repeats its body while the condition is truthy.
type While struct {
	WhilePos token.Position
	Cond     Expr
	Body     *Block
}

func (s *While) stmtNode() {}

func (s *While) Pos() token.Position { return s.WhilePos }
func (s *While) End() token.Position { return s.Body.End() }

func (s *While) String() string {
	return "while (" + s.Cond.String() + ") " + s.Body.String()
}
