package ast

import (
	"testing"

	"github.com/mvel/mvel-sub010/internal/token"
	"github.com/stretchr/testify/require"
)

func ident(name string, col int) *Ident {
	return &Ident{NamePos: token.Position{Column: col, Char: col}, Name: name}
}

func TestString(t *testing.T) {
	program := &Program{
		Stmts: []Node{
			&Var{
				VarPos: token.Position{Line: 1, Column: 1},
				Name:   ident("myVar", 5),
				Value:  ident("anotherVar", 13),
			},
			&Infix{X: ident("x", 0), Op: "+", Y: ident("y", 4)},
		},
	}
	require.Equal(t, "var myVar = anotherVar; (x + y)", program.String())
}

func TestBadExpr(t *testing.T) {
	from := token.Position{Line: 1, Column: 5, File: "test.mvel"}
	to := token.Position{Line: 1, Column: 15, File: "test.mvel"}
	bad := &BadExpr{From: from, To: to}
	require.Equal(t, from, bad.Pos())
	require.Equal(t, to, bad.End())
	require.Equal(t, "<bad expression>", bad.String())
	var _ Expr = bad
}

func TestBadStmt(t *testing.T) {
	bad := &BadStmt{}
	require.Equal(t, "<bad statement>", bad.String())
	var _ Stmt = bad
}

func TestPropertyPathString(t *testing.T) {
	// foo?.bar.baz[0].name(1, 'a')
	path := &Call{
		Fun: &GetAttr{
			X: &Index{
				X: &GetAttr{
					X:    &GetAttr{X: ident("foo", 0), Attr: ident("bar", 5), Optional: true},
					Attr: ident("baz", 9),
				},
				Index: &Int{Literal: "0", Value: 0},
			},
			Attr: ident("name", 16),
		},
		Args: []Expr{&Int{Literal: "1", Value: 1}, &String{Value: "a"}},
	}
	require.Equal(t, `foo?.bar.baz[0].name(1, "a")`, path.String())
}

func TestMapString(t *testing.T) {
	require.Equal(t, "[:]", (&Map{}).String())
	m := &Map{Items: []MapItem{{Key: &String{Value: "key1"}, Value: ident("x", 10)}}}
	require.Equal(t, `["key1": x]`, m.String())
}

func TestProjectionString(t *testing.T) {
	p := &Projection{
		Item:       ident("name", 1),
		Collection: ident("users", 9),
		Filter:     &Infix{X: ident("age", 0), Op: ">", Y: &Int{Literal: "18", Value: 18}},
	}
	require.Equal(t, "(name in users if (age > 18))", p.String())
}

func TestStatementsString(t *testing.T) {
	body := &Block{Stmts: []Node{&Break{}}}
	require.Equal(t, "foreach (x : items) { break }",
		(&Foreach{Var: ident("x", 0), Iterable: ident("items", 0), Body: body}).String())
	require.Equal(t, "while (true) { break }",
		(&While{Cond: &Bool{Literal: "true", Value: true}, Body: body}).String())
	require.Equal(t, "return", (&Return{}).String())
	require.Equal(t, "def add(a, b) { return (a + b) }", (&Func{
		Name:   ident("add", 4),
		Params: []*Ident{ident("a", 8), ident("b", 11)},
		Body: &Block{Stmts: []Node{&Return{Value: &Infix{
			X: ident("a", 0), Op: "+", Y: ident("b", 0),
		}}}},
	}).String())
}

func TestIdentEnd(t *testing.T) {
	id := ident("abc", 3)
	require.Equal(t, 6, id.End().Column)
}
