package compiler

import (
	"math"

	"github.com/mvel/mvel-sub010/ast"
	"github.com/mvel/mvel-sub010/errors"
	"github.com/mvel/mvel-sub010/object"
	"github.com/mvel/mvel-sub010/op"
)

// constant is a literal, converted once at compile time.
type constant struct {
	value any
}

func (c *constant) Eval(*object.Context) (any, error) { return c.value, nil }

type listNode struct {
	items []object.Evaluable
}

func (n *listNode) Eval(ctx *object.Context) (any, error) {
	out := make([]any, len(n.items))
	for i, item := range n.items {
		v, err := item.Eval(ctx)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

type mapEntry struct {
	key   object.Evaluable
	value object.Evaluable
}

// mapNode builds a map[string]any. Keys are converted with ToString.
type mapNode struct {
	entries []mapEntry
}

func (n *mapNode) Eval(ctx *object.Context) (any, error) {
	out := make(map[string]any, len(n.entries))
	for _, e := range n.entries {
		k, err := e.key.Eval(ctx)
		if err != nil {
			return nil, err
		}
		v, err := e.value.Eval(ctx)
		if err != nil {
			return nil, err
		}
		out[object.ToString(k)] = v
	}
	return out, nil
}

type prefixNode struct {
	op   op.UnaryOpType
	x    object.Evaluable
	loc  SourceLocation
	text string
}

func (n *prefixNode) Eval(ctx *object.Context) (any, error) {
	x, err := n.x.Eval(ctx)
	if err != nil {
		return nil, err
	}
	v, err := object.UnaryOp(n.op, x)
	if err != nil {
		return nil, errors.AtSpan(err, n.loc, n.text)
	}
	return v, nil
}

type binaryNode struct {
	op   op.BinaryOpType
	x, y object.Evaluable
	loc  SourceLocation
	text string
}

func (n *binaryNode) Eval(ctx *object.Context) (any, error) {
	x, err := n.x.Eval(ctx)
	if err != nil {
		return nil, err
	}
	switch n.op {
	case op.And:
		if !object.Truthy(x) {
			return false, nil
		}
	case op.Or:
		if object.Truthy(x) {
			return true, nil
		}
	}
	y, err := n.y.Eval(ctx)
	if err != nil {
		return nil, err
	}
	v, err := object.BinaryOp(n.op, x, y)
	if err != nil {
		return nil, errors.AtSpan(err, n.loc, n.text)
	}
	return v, nil
}

type compareNode struct {
	op   op.CompareOpType
	x, y object.Evaluable
	loc  SourceLocation
	text string
}

func (n *compareNode) Eval(ctx *object.Context) (any, error) {
	x, err := n.x.Eval(ctx)
	if err != nil {
		return nil, err
	}
	y, err := n.y.Eval(ctx)
	if err != nil {
		return nil, err
	}
	v, err := object.CompareOp(n.op, x, y)
	if err != nil {
		return nil, errors.AtSpan(err, n.loc, n.text)
	}
	return v, nil
}

type ternaryNode struct {
	cond, ifTrue, ifFalse object.Evaluable
}

func (n *ternaryNode) Eval(ctx *object.Context) (any, error) {
	cond, err := n.cond.Eval(ctx)
	if err != nil {
		return nil, err
	}
	if object.Truthy(cond) {
		return n.ifTrue.Eval(ctx)
	}
	return n.ifFalse.Eval(ctx)
}

// funcNode creates a function value closing over the scope it is evaluated
// in. Named functions are also declared in that scope.
type funcNode struct {
	name   string
	params []string
	body   *funcBody
}

func (n *funcNode) Eval(ctx *object.Context) (any, error) {
	fn := &object.Function{Name: n.name, Params: n.params, Body: n.body, Scope: ctx.Scope()}
	if n.name != "" {
		ctx.Scope().Declare(n.name, fn)
	}
	return fn, nil
}

type funcBody struct {
	body *chain
}

func (b *funcBody) Eval(ctx *object.Context) (any, error) {
	v, _, err := b.body.Exec(ctx)
	return v, err
}

func (c *Compiler) compileExpr(node ast.Node) (object.Evaluable, bool) {
	switch node := node.(type) {
	case *ast.Int:
		if node.Value >= math.MinInt && node.Value <= math.MaxInt {
			return &constant{value: int(node.Value)}, true
		}
		return &constant{value: node.Value}, true
	case *ast.Float:
		return &constant{value: node.Value}, true
	case *ast.String:
		return &constant{value: node.Value}, true
	case *ast.Bool:
		return &constant{value: node.Value}, true
	case *ast.Nil:
		return &constant{value: nil}, true
	case *ast.List:
		items, ok := c.compileExprs(node.Items)
		return &listNode{items: items}, ok
	case *ast.InlineArray:
		items, ok := c.compileExprs(node.Items)
		return &listNode{items: items}, ok
	case *ast.Map:
		n := &mapNode{entries: make([]mapEntry, 0, len(node.Items))}
		ok := true
		for _, item := range node.Items {
			k, kok := c.compileExpr(item.Key)
			v, vok := c.compileExpr(item.Value)
			ok = ok && kok && vok
			n.entries = append(n.entries, mapEntry{key: k, value: v})
		}
		return n, ok
	case *ast.Prefix:
		return c.compilePrefix(node)
	case *ast.Infix:
		return c.compileInfix(node)
	case *ast.Ternary:
		cond, ok1 := c.compileExpr(node.Cond)
		t, ok2 := c.compileExpr(node.IfTrue)
		f, ok3 := c.compileExpr(node.IfFalse)
		return &ternaryNode{cond: cond, ifTrue: t, ifFalse: f}, ok1 && ok2 && ok3
	case *ast.Assign:
		return c.compileAssign(node)
	case *ast.Func:
		return c.compileFunc(node)
	case *ast.If:
		return c.compileIf(node)
	case *ast.Intercept:
		return c.compileIntercept(node)
	case *ast.Ident, *ast.This, *ast.GetAttr, *ast.Index, *ast.Call, *ast.New, *ast.Projection:
		return c.compileAccess(node.(ast.Expr))
	case *ast.Block, *ast.Var, *ast.Return, *ast.While, *ast.Foreach, *ast.Break, *ast.Continue:
		exec, ok := c.compileStmt(node)
		if !ok {
			return nil, false
		}
		return &execExpr{exec: exec}, true
	}
	c.fail(c.formatErrorWithCode(errors.E2006, "unsupported node: "+node.String(), node.Pos(), nil))
	return nil, false
}

func (c *Compiler) compileExprs(nodes []ast.Expr) ([]object.Evaluable, bool) {
	out := make([]object.Evaluable, len(nodes))
	ok := true
	for i, n := range nodes {
		var itemOK bool
		out[i], itemOK = c.compileExpr(n)
		ok = ok && itemOK
	}
	return out, ok
}

// fold evaluates a node whose operands are all constants once, at compile
// time. Nodes that fail are left to fail at runtime with their location.
func fold(n object.Evaluable, operands ...object.Evaluable) object.Evaluable {
	for _, o := range operands {
		if _, ok := o.(*constant); !ok {
			return n
		}
	}
	v, err := n.Eval(nil)
	if err != nil {
		return n
	}
	return &constant{value: v}
}

func (c *Compiler) compilePrefix(node *ast.Prefix) (object.Evaluable, bool) {
	x, ok := c.compileExpr(node.X)
	if !ok {
		return nil, false
	}
	opType, found := op.Unary(node.Op)
	if !found {
		c.fail(c.formatErrorWithCode(errors.E2006, "unknown operator: "+node.Op, node.Pos(), nil))
		return nil, false
	}
	n := &prefixNode{op: opType, x: x, loc: c.location(node.Pos()), text: c.text(node)}
	return fold(n, x), true
}

func (c *Compiler) compileInfix(node *ast.Infix) (object.Evaluable, bool) {
	x, ok1 := c.compileExpr(node.X)
	y, ok2 := c.compileExpr(node.Y)
	if !ok1 || !ok2 {
		return nil, false
	}
	loc, text := c.location(node.OpPos), c.text(node)
	if opType, found := op.Compare(node.Op); found {
		return fold(&compareNode{op: opType, x: x, y: y, loc: loc, text: text}, x, y), true
	}
	if opType, found := op.Binary(node.Op); found {
		return fold(&binaryNode{op: opType, x: x, y: y, loc: loc, text: text}, x, y), true
	}
	c.fail(c.formatErrorWithCode(errors.E2006, "unknown operator: "+node.Op, node.OpPos, nil))
	return nil, false
}

func (c *Compiler) compileFunc(node *ast.Func) (object.Evaluable, bool) {
	params := make([]string, len(node.Params))
	for i, p := range node.Params {
		params[i] = p.Name
	}
	// Loops do not extend into function bodies.
	depth := c.loopDepth
	c.loopDepth = 0
	body := c.compileChain(node.Body.Stmts)
	c.loopDepth = depth

	n := &funcNode{params: params, body: &funcBody{body: body}}
	if node.Name != nil {
		n.name = node.Name.Name
	}
	return n, true
}
