package ast

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/mvel/mvel-sub010/internal/token"
)

// Int is an expression node that holds an integer literal.
type Int struct {
	ValuePos token.Position // position of the literal
	Literal  string         // the literal text (e.g., "42", "0x2a")
	Value    int64          // the parsed value
}

func (x *Int) exprNode() {}

func (x *Int) Pos() token.Position { return x.ValuePos }
func (x *Int) End() token.Position { return x.ValuePos.Advance(len(x.Literal)) }

func (x *Int) String() string { return x.Literal }

// Float is an expression node that holds a floating point literal.
type Float struct {
	ValuePos token.Position
	Literal  string
	Value    float64
}

func (x *Float) exprNode() {}

func (x *Float) Pos() token.Position { return x.ValuePos }
func (x *Float) End() token.Position { return x.ValuePos.Advance(len(x.Literal)) }

func (x *Float) String() string { return x.Literal }

// String is an expression node that holds a string literal.
type String struct {
	ValuePos token.Position
	EndPos   token.Position
	Value    string
}

func (x *String) exprNode() {}

func (x *String) Pos() token.Position { return x.ValuePos }
func (x *String) End() token.Position { return x.EndPos }

func (x *String) String() string { return strconv.Quote(x.Value) }

// Nil is an expression node that holds a null literal.
type Nil struct {
	NilPos  token.Position
	Literal string // "null" or "nil"
}

func (x *Nil) exprNode() {}

func (x *Nil) Pos() token.Position { return x.NilPos }
func (x *Nil) End() token.Position { return x.NilPos.Advance(len(x.Literal)) }

func (x *Nil) String() string { return "null" }

// Bool is an expression node that holds a boolean literal.
type Bool struct {
	ValuePos token.Position
	Literal  string
	Value    bool
}

func (x *Bool) exprNode() {}

func (x *Bool) Pos() token.Position { return x.ValuePos }
func (x *Bool) End() token.Position { return x.ValuePos.Advance(len(x.Literal)) }

func (x *Bool) String() string { return x.Literal }

// List is an inline list literal: [a, b, c].
type List struct {
	Lbrack token.Position
	Items  []Expr
	Rbrack token.Position
}

func (x *List) exprNode() {}

func (x *List) Pos() token.Position { return x.Lbrack }
func (x *List) End() token.Position { return x.Rbrack.Advance(1) }

func (x *List) String() string {
	items := make([]string, 0, len(x.Items))
	for _, item := range x.Items {
		items = append(items, item.String())
	}
	return "[" + strings.Join(items, ", ") + "]"
}

// InlineArray is an inline array literal: {a, b, c}.
type InlineArray struct {
	Lbrace token.Position
	Items  []Expr
	Rbrace token.Position
}

func (x *InlineArray) exprNode() {}

func (x *InlineArray) Pos() token.Position { return x.Lbrace }
func (x *InlineArray) End() token.Position { return x.Rbrace.Advance(1) }

func (x *InlineArray) String() string {
	items := make([]string, 0, len(x.Items))
	for _, item := range x.Items {
		items = append(items, item.String())
	}
	return "{" + strings.Join(items, ", ") + "}"
}

// MapItem is one key/value entry of a map literal.
type MapItem struct {
	Key   Expr
	Value Expr
}

// Map is an inline map literal: ['key' : value, ...] or [:] for an empty map.
type Map struct {
	Lbrack token.Position
	Items  []MapItem
	Rbrack token.Position
}

func (x *Map) exprNode() {}

func (x *Map) Pos() token.Position { return x.Lbrack }
func (x *Map) End() token.Position { return x.Rbrack.Advance(1) }

func (x *Map) String() string {
	if len(x.Items) == 0 {
		return "[:]"
	}
	var out bytes.Buffer
	out.WriteString("[")
	for i, item := range x.Items {
		if i > 0 {
			out.WriteString(", ")
		}
		out.WriteString(item.Key.String())
		out.WriteString(": ")
		out.WriteString(item.Value.String())
	}
	out.WriteString("]")
	return out.String()
}

// Func is a function literal. Named functions are declared in the current
// scope when evaluated; anonymous functions evaluate to a closure.
type Func struct {
	Def    token.Position
	Name   *Ident // nil for anonymous functions
	Params []*Ident
	Body   *Block
}

func (x *Func) exprNode() {}

func (x *Func) Pos() token.Position { return x.Def }
func (x *Func) End() token.Position { return x.Body.End() }

func (x *Func) String() string {
	var out bytes.Buffer
	out.WriteString("def ")
	if x.Name != nil {
		out.WriteString(x.Name.Name)
	}
	params := make([]string, 0, len(x.Params))
	for _, p := range x.Params {
		params = append(params, p.Name)
	}
	out.WriteString("(")
	out.WriteString(strings.Join(params, ", "))
	out.WriteString(") ")
	out.WriteString(x.Body.String())
	return out.String()
}
