package ast

import (
	"bytes"
	"strings"

	"github.com/mvel/mvel-sub010/internal/token"
)

// Ident is an expression node that refers to a variable by name.
type Ident struct {
	NamePos token.Position // position of identifier
	Name    string         // identifier name
}

func (x *Ident) exprNode() {}

func (x *Ident) Pos() token.Position { return x.NamePos }
func (x *Ident) End() token.Position { return x.NamePos.Advance(len(x.Name)) }

func (x *Ident) String() string { return x.Name }

// This refers to the current context object.
type This struct {
	ThisPos token.Position
}

func (x *This) exprNode() {}

func (x *This) Pos() token.Position { return x.ThisPos }
func (x *This) End() token.Position { return x.ThisPos.Advance(4) }

func (x *This) String() string { return "this" }

// Prefix is an operator expression where the operator precedes the operand.
// Examples include "!false" and "-x".
type Prefix struct {
	OpPos token.Position // position of operator
	Op    string         // operator: "!", "-"
	X     Expr           // operand
}

func (x *Prefix) exprNode() {}

func (x *Prefix) Pos() token.Position { return x.OpPos }
func (x *Prefix) End() token.Position { return x.X.End() }

func (x *Prefix) String() string {
	return "(" + x.Op + x.X.String() + ")"
}

// Infix is an operator expression where the operator is between the operands.
// Examples include "x + y" and "5 - 1".
type Infix struct {
	X     Expr           // left operand
	OpPos token.Position // position of operator
	Op    string         // operator: "+", "-", "*", "/", "contains", etc.
	Y     Expr           // right operand
}

func (x *Infix) exprNode() {}

func (x *Infix) Pos() token.Position { return x.X.Pos() }
func (x *Infix) End() token.Position { return x.Y.End() }

func (x *Infix) String() string {
	return "(" + x.X.String() + " " + x.Op + " " + x.Y.String() + ")"
}

// Ternary is an expression node that evaluates to one of two values based on
// a condition.
type Ternary struct {
	Cond     Expr
	Question token.Position
	IfTrue   Expr
	Colon    token.Position
	IfFalse  Expr
}

func (x *Ternary) exprNode() {}

func (x *Ternary) Pos() token.Position { return x.Cond.Pos() }
func (x *Ternary) End() token.Position { return x.IfFalse.End() }

func (x *Ternary) String() string {
	return "(" + x.Cond.String() + " ? " + x.IfTrue.String() + " : " + x.IfFalse.String() + ")"
}

// GetAttr is an expression node that describes the access of a property on
// an object.
type GetAttr struct {
	X        Expr           // object expression
	Period   token.Position // position of "." or "?."
	Attr     *Ident         // attribute name
	Optional bool           // true if null-safe (?.)
}

func (x *GetAttr) exprNode() {}

func (x *GetAttr) Pos() token.Position { return x.X.Pos() }
func (x *GetAttr) End() token.Position { return x.Attr.End() }

func (x *GetAttr) String() string {
	var out bytes.Buffer
	out.WriteString(x.X.String())
	if x.Optional {
		out.WriteString("?.")
	} else {
		out.WriteString(".")
	}
	out.WriteString(x.Attr.Name)
	return out.String()
}

// Index is an expression node that describes indexing on an object.
type Index struct {
	X      Expr           // object expression
	Lbrack token.Position // position of "["
	Index  Expr           // index expression
	Rbrack token.Position // position of "]"
}

func (x *Index) exprNode() {}

func (x *Index) Pos() token.Position { return x.X.Pos() }
func (x *Index) End() token.Position { return x.Rbrack.Advance(1) }

func (x *Index) String() string {
	return x.X.String() + "[" + x.Index.String() + "]"
}

// Call is an expression node that describes the invocation of a function or
// method. A method call has a *GetAttr as its Fun.
type Call struct {
	Fun    Expr           // function expression
	Lparen token.Position // position of "("
	Args   []Expr         // function arguments
	Rparen token.Position // position of ")"
}

func (x *Call) exprNode() {}

func (x *Call) Pos() token.Position { return x.Fun.Pos() }
func (x *Call) End() token.Position { return x.Rparen.Advance(1) }

func (x *Call) String() string {
	args := make([]string, 0, len(x.Args))
	for _, a := range x.Args {
		args = append(args, a.String())
	}
	return x.Fun.String() + "(" + strings.Join(args, ", ") + ")"
}

// New is an object creation expression: new Point(1, 2).
type New struct {
	NewPos token.Position
	Type   *Ident
	Args   []Expr
	Rparen token.Position
}

func (x *New) exprNode() {}

func (x *New) Pos() token.Position { return x.NewPos }
func (x *New) End() token.Position { return x.Rparen.Advance(1) }

func (x *New) String() string {
	args := make([]string, 0, len(x.Args))
	for _, a := range x.Args {
		args = append(args, a.String())
	}
	return "new " + x.Type.Name + "(" + strings.Join(args, ", ") + ")"
}

// Projection derives a new list from a collection: (item in collection if filter).
// The item expression and the filter are evaluated with each element as the
// context object.
type Projection struct {
	Lparen     token.Position
	Item       Expr
	Collection Expr
	Filter     Expr // nil when there is no filter
	Rparen     token.Position
}

func (x *Projection) exprNode() {}

func (x *Projection) Pos() token.Position { return x.Lparen }
func (x *Projection) End() token.Position { return x.Rparen.Advance(1) }

func (x *Projection) String() string {
	var out bytes.Buffer
	out.WriteString("(")
	out.WriteString(x.Item.String())
	out.WriteString(" in ")
	out.WriteString(x.Collection.String())
	if x.Filter != nil {
		out.WriteString(" if ")
		out.WriteString(x.Filter.String())
	}
	out.WriteString(")")
	return out.String()
}

// Assign is an assignment to an access path: x = 1, foo.bar += 2, a[0] = v.
type Assign struct {
	Target Expr           // *Ident, *GetAttr or *Index
	OpPos  token.Position // position of the operator
	Op     string         // "=", "+=", "-=", "*=", "/="
	Value  Expr
}

func (x *Assign) exprNode() {}

func (x *Assign) Pos() token.Position { return x.Target.Pos() }
func (x *Assign) End() token.Position { return x.Value.End() }

func (x *Assign) String() string {
	return x.Target.String() + " " + x.Op + " " + x.Value.String()
}

// If is an expression node that represents an if/else expression.
type If struct {
	If          token.Position // position of "if" keyword
	Cond        Expr           // condition
	Consequence *Block         // then branch
	Alternative Node           // else branch: *Block, *If or nil
}

func (x *If) exprNode() {}

func (x *If) Pos() token.Position { return x.If }
func (x *If) End() token.Position {
	if x.Alternative != nil {
		return x.Alternative.End()
	}
	return x.Consequence.End()
}

func (x *If) String() string {
	var out bytes.Buffer
	out.WriteString("if (")
	out.WriteString(x.Cond.String())
	out.WriteString(") ")
	out.WriteString(x.Consequence.String())
	if x.Alternative != nil {
		out.WriteString(" else ")
		out.WriteString(x.Alternative.String())
	}
	return out.String()
}

// Intercept wraps an expression with a named interceptor: @Name expr.
type Intercept struct {
	At   token.Position
	Name *Ident
	X    Node
}

func (x *Intercept) exprNode() {}

func (x *Intercept) Pos() token.Position { return x.At }
func (x *Intercept) End() token.Position { return x.X.End() }

func (x *Intercept) String() string {
	return "@" + x.Name.Name + " " + x.X.String()
}
