package compiler

import (
	"github.com/mvel/mvel-sub010/accessor"
	"github.com/mvel/mvel-sub010/ast"
	"github.com/mvel/mvel-sub010/errors"
	"github.com/mvel/mvel-sub010/object"
	"github.com/mvel/mvel-sub010/op"
	"github.com/mvel/mvel-sub010/optimizer"
)

// siteNode reads an access path through its tiered site.
type siteNode struct {
	site *optimizer.Site
}

func (n *siteNode) Eval(ctx *object.Context) (any, error) {
	return n.site.Get(ctx)
}

// assignNode writes an access path. Compound operators read the current
// value first.
type assignNode struct {
	site     *optimizer.Site
	op       op.BinaryOpType
	compound bool
	value    object.Evaluable
	loc      SourceLocation
	text     string
}

func (n *assignNode) Eval(ctx *object.Context) (any, error) {
	v, err := n.value.Eval(ctx)
	if err != nil {
		return nil, err
	}
	if n.compound {
		current, err := n.site.Get(ctx)
		if err != nil {
			return nil, err
		}
		if v, err = object.BinaryOp(n.op, current, v); err != nil {
			return nil, errors.AtSpan(err, n.loc, n.text)
		}
	}
	return n.site.Set(ctx, v)
}

func (c *Compiler) newSite(path *accessor.Path) *optimizer.Site {
	site := c.ctrl.Site(path)
	c.sites = append(c.sites, site)
	return site
}

func (c *Compiler) compileAccess(expr ast.Expr) (object.Evaluable, bool) {
	path, ok := c.buildPath(expr)
	if !ok {
		return nil, false
	}
	return &siteNode{site: c.newSite(path)}, true
}

func (c *Compiler) compileAssign(node *ast.Assign) (object.Evaluable, bool) {
	switch target := node.Target.(type) {
	case *ast.Ident, *ast.Index:
	case *ast.GetAttr:
		if target.Optional {
			c.fail(c.formatErrorWithCode(errors.E2004, "cannot assign through a null-safe property", node.Pos(), nil))
			return nil, false
		}
	default:
		c.fail(c.formatErrorWithCode(errors.E2004, "invalid assignment target: "+node.Target.String(), node.Pos(), nil))
		return nil, false
	}
	path, ok := c.buildPath(node.Target)
	value, valueOK := c.compileExpr(node.Value)
	if !ok || !valueOK {
		return nil, false
	}
	n := &assignNode{
		site:  c.newSite(path),
		value: value,
		loc:   c.location(node.OpPos),
		text:  c.text(node),
	}
	n.op, n.compound = op.AssignOp(node.Op)
	return n, true
}

// buildPath converts an expression into an access path. Expressions that
// are not paths themselves become the root value of the path.
func (c *Compiler) buildPath(expr ast.Expr) (*accessor.Path, bool) {
	path, ok := c.pathOf(expr)
	if !ok {
		return nil, false
	}
	path.Source = c.text(expr)
	path.Span = c.location(expr.Pos())
	return path, true
}

func (c *Compiler) pathOf(expr ast.Expr) (*accessor.Path, bool) {
	switch x := expr.(type) {
	case *ast.Ident:
		return &accessor.Path{Root: accessor.Root{
			Kind:   accessor.RootIdent,
			Name:   x.Name,
			Source: x.Name,
			Span:   c.location(x.Pos()),
		}}, true
	case *ast.This:
		return &accessor.Path{Root: accessor.Root{
			Kind:   accessor.RootThis,
			Source: "this",
			Span:   c.location(x.Pos()),
		}}, true
	case *ast.New:
		args, ok := c.compileExprs(x.Args)
		return &accessor.Path{Root: accessor.Root{
			Kind:   accessor.RootNew,
			Name:   x.Type.Name,
			Args:   args,
			Source: c.text(x),
			Span:   c.location(x.Pos()),
		}}, ok
	case *ast.GetAttr:
		path, ok := c.pathOf(x.X)
		if !ok {
			return nil, false
		}
		path.Segments = append(path.Segments, accessor.Segment{
			Kind:     accessor.Property,
			Name:     x.Attr.Name,
			NullSafe: x.Optional,
			Source:   x.Attr.Name,
			Span:     c.location(x.Attr.Pos()),
		})
		return path, true
	case *ast.Index:
		path, ok := c.pathOf(x.X)
		key, keyOK := c.compileExpr(x.Index)
		if !ok || !keyOK {
			return nil, false
		}
		path.Segments = append(path.Segments, accessor.Segment{
			Kind:   accessor.Index,
			Key:    key,
			Source: "[" + c.text(x.Index) + "]",
			Span:   c.location(x.Lbrack),
		})
		return path, true
	case *ast.Call:
		return c.callPath(x)
	case *ast.Projection:
		path, ok := c.pathOf(x.Collection)
		item, itemOK := c.compileExpr(x.Item)
		ok = ok && itemOK
		seg := accessor.Segment{
			Kind:   accessor.Projection,
			Item:   item,
			Source: c.text(x),
			Span:   c.location(x.Pos()),
		}
		if x.Filter != nil {
			filter, filterOK := c.compileExpr(x.Filter)
			ok = ok && filterOK
			seg.Filter = filter
		}
		if !ok {
			return nil, false
		}
		path.Segments = append(path.Segments, seg)
		return path, true
	}
	value, ok := c.compileExpr(expr)
	if !ok {
		return nil, false
	}
	return &accessor.Path{Root: accessor.Root{
		Kind:   accessor.RootValue,
		Value:  value,
		Source: c.text(expr),
		Span:   c.location(expr.Pos()),
	}}, true
}

func (c *Compiler) callPath(x *ast.Call) (*accessor.Path, bool) {
	args, argsOK := c.compileExprs(x.Args)
	switch fn := x.Fun.(type) {
	case *ast.Ident:
		return &accessor.Path{Root: accessor.Root{
			Kind:   accessor.RootIdent,
			Name:   fn.Name,
			Args:   args,
			Call:   true,
			Source: c.text(x),
			Span:   c.location(fn.Pos()),
		}}, argsOK
	case *ast.GetAttr:
		path, ok := c.pathOf(fn.X)
		if !ok || !argsOK {
			return nil, false
		}
		path.Segments = append(path.Segments, accessor.Segment{
			Kind:     accessor.Call,
			Name:     fn.Attr.Name,
			Args:     args,
			NullSafe: fn.Optional,
			Source:   fn.Attr.Name,
			Span:     c.location(fn.Attr.Pos()),
		})
		return path, true
	}
	path, ok := c.pathOf(x.Fun)
	if !ok || !argsOK {
		return nil, false
	}
	path.Segments = append(path.Segments, accessor.Segment{
		Kind:   accessor.Call,
		Args:   args,
		Source: c.text(x),
		Span:   c.location(x.Lparen),
	})
	return path, true
}

// CompileTarget compiles an assignable access path (an identifier, property
// or index expression) into a site for use as a write target.
func (c *Compiler) CompileTarget(node ast.Node) (*optimizer.Site, error) {
	if prog, ok := node.(*ast.Program); ok && len(prog.Stmts) == 1 {
		node = prog.Stmts[0]
	}
	var target ast.Expr
	switch x := node.(type) {
	case *ast.Ident, *ast.Index:
		target = x.(ast.Expr)
	case *ast.GetAttr:
		if !x.Optional {
			target = x
		}
	}
	if target == nil {
		return nil, c.formatErrorWithCode(errors.E2004, "not an assignable expression: "+node.String(), node.Pos(), nil)
	}
	path, ok := c.buildPath(target)
	if !ok {
		return nil, c.errs.ErrorOrNil()
	}
	return c.newSite(path), nil
}
