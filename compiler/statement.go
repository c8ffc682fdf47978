package compiler

import (
	stderrors "errors"
	"reflect"
	"sort"

	"github.com/mvel/mvel-sub010/ast"
	"github.com/mvel/mvel-sub010/errors"
	"github.com/mvel/mvel-sub010/hook"
	"github.com/mvel/mvel-sub010/object"
	"github.com/mvel/mvel-sub010/optimizer"
	"github.com/mvel/mvel-sub010/resolver"
)

// Signal tells the enclosing chain how to continue after a node.
type Signal int

const (
	Normal Signal = iota
	Return
	Break
	Continue
	// End stops the enclosing chain with the current value.
	End
)

func (s Signal) String() string {
	switch s {
	case Normal:
		return "normal"
	case Return:
		return "return"
	case Break:
		return "break"
	case Continue:
		return "continue"
	case End:
		return "end"
	}
	return "unknown"
}

// Executable is a node in statement position.
type Executable interface {
	Exec(ctx *object.Context) (any, Signal, error)
}

// errHalted unwinds an evaluation stopped by the debugger.
var errHalted = stderrors.New("evaluation halted by debugger")

type link struct {
	node   Executable
	marker bool
	next   *link
}

// chain is a singly linked sequence of nodes. Its value is the value of the
// last node executed.
type chain struct {
	head *link
}

func (c *chain) Exec(ctx *object.Context) (any, Signal, error) {
	var result any
	for l := c.head; l != nil; l = l.next {
		v, sig, err := l.node.Exec(ctx)
		if err != nil {
			return nil, Normal, err
		}
		if l.marker {
			continue
		}
		switch sig {
		case Normal:
			result = v
		case End:
			return v, Normal, nil
		default:
			return v, sig, nil
		}
	}
	return result, Normal, nil
}

func (c *chain) Eval(ctx *object.Context) (any, error) {
	v, _, err := c.Exec(ctx)
	return v, err
}

// Statement is a compiled expression. It is immutable apart from the tiering
// state of its access sites and is safe for concurrent use.
type Statement struct {
	source   string
	filename string
	body     *chain
	sites    []*optimizer.Site
}

// Eval runs the statement and returns its value.
func (s *Statement) Eval(ctx *object.Context) (any, error) {
	v, _, err := s.body.Exec(ctx)
	if err == errHalted {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Source returns the source text of the statement.
func (s *Statement) Source() string { return s.source }

// Sites returns the tiered access sites of the statement.
func (s *Statement) Sites() []*optimizer.Site { return s.sites }

// exprExec runs an expression in statement position.
type exprExec struct {
	expr object.Evaluable
}

func (e *exprExec) Exec(ctx *object.Context) (any, Signal, error) {
	v, err := e.expr.Eval(ctx)
	return v, Normal, err
}

// execExpr runs a statement node in expression position. Signals are
// dropped: the value is what the node produced.
type execExpr struct {
	exec Executable
}

func (e *execExpr) Eval(ctx *object.Context) (any, error) {
	v, _, err := e.exec.Exec(ctx)
	return v, err
}

type lineMarker struct {
	source string
	line   int
}

func (m *lineMarker) Exec(ctx *object.Context) (any, Signal, error) {
	dbg := ctx.Env().Debugger
	if dbg == nil {
		return nil, Normal, nil
	}
	frame := hook.Frame{SourceName: m.source, Line: m.line, Scope: ctx.Scope()}
	if dbg.OnLine(frame) == hook.End {
		return nil, Normal, errHalted
	}
	return nil, Normal, nil
}

type returnNode struct {
	value object.Evaluable
}

func (r *returnNode) Exec(ctx *object.Context) (any, Signal, error) {
	if r.value == nil {
		return nil, Return, nil
	}
	v, err := r.value.Eval(ctx)
	if err != nil {
		return nil, Normal, err
	}
	return v, Return, nil
}

type signalNode struct {
	signal Signal
}

func (s *signalNode) Exec(*object.Context) (any, Signal, error) {
	return nil, s.signal, nil
}

type varNode struct {
	name  string
	value object.Evaluable
}

func (n *varNode) Exec(ctx *object.Context) (any, Signal, error) {
	var v any
	if n.value != nil {
		var err error
		if v, err = n.value.Eval(ctx); err != nil {
			return nil, Normal, err
		}
	}
	ctx.Scope().Declare(n.name, v)
	return v, Normal, nil
}

type ifNode struct {
	cond        object.Evaluable
	consequence *chain
	alternative Executable // *chain, *ifNode or nil
}

func (n *ifNode) Exec(ctx *object.Context) (any, Signal, error) {
	cond, err := n.cond.Eval(ctx)
	if err != nil {
		return nil, Normal, err
	}
	if object.Truthy(cond) {
		return n.consequence.Exec(ctx)
	}
	if n.alternative != nil {
		return n.alternative.Exec(ctx)
	}
	return nil, Normal, nil
}

func (n *ifNode) Eval(ctx *object.Context) (any, error) {
	v, _, err := n.Exec(ctx)
	return v, err
}

type whileNode struct {
	cond object.Evaluable
	body *chain
}

func (n *whileNode) Exec(ctx *object.Context) (any, Signal, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, Normal, err
		}
		cond, err := n.cond.Eval(ctx)
		if err != nil {
			return nil, Normal, err
		}
		if !object.Truthy(cond) {
			return nil, Normal, nil
		}
		v, sig, err := n.body.Exec(ctx)
		if err != nil {
			return nil, Normal, err
		}
		switch sig {
		case Break:
			return nil, Normal, nil
		case Return:
			return v, Return, nil
		}
	}
}

type foreachNode struct {
	name     string
	iterable object.Evaluable
	body     *chain
	loc      SourceLocation
	text     string
}

func (n *foreachNode) Exec(ctx *object.Context) (any, Signal, error) {
	coll, err := n.iterable.Eval(ctx)
	if err != nil {
		return nil, Normal, err
	}
	items, err := iterate(coll)
	if err != nil {
		return nil, Normal, errors.AtSpan(err, n.loc, n.text)
	}
	item := resolver.NewItemResolver(n.name, nil, ctx.Scope())
	child := ctx.WithScope(item)
	for _, v := range items {
		if err := ctx.Err(); err != nil {
			return nil, Normal, err
		}
		item.SetValue(v)
		out, sig, err := n.body.Exec(child)
		if err != nil {
			return nil, Normal, err
		}
		switch sig {
		case Break:
			return nil, Normal, nil
		case Return:
			return out, Return, nil
		}
	}
	return nil, Normal, nil
}

// iterate lists the items a foreach visits: the elements of a slice or
// array, the characters of a string, the keys of a map in sorted order, or
// 1..n for an integer n.
func iterate(coll any) ([]any, error) {
	switch coll := coll.(type) {
	case nil:
		return nil, errors.Errorf(errors.KindNullTarget, "cannot iterate over null")
	case []any:
		return coll, nil
	case string:
		items := make([]any, 0, len(coll))
		for _, r := range coll {
			items = append(items, string(r))
		}
		return items, nil
	}
	if object.IsInteger(coll) {
		n, _ := object.ToInt(coll)
		items := make([]any, 0, max(n, 0))
		for i := int64(1); i <= n; i++ {
			items = append(items, int(i))
		}
		return items, nil
	}
	rv := object.Indirect(reflect.ValueOf(coll))
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return items, nil
	case reflect.Map:
		keys := rv.MapKeys()
		items := make([]any, len(keys))
		for i, k := range keys {
			items[i] = k.Interface()
		}
		sort.Slice(items, func(i, j int) bool {
			return object.ToString(items[i]) < object.ToString(items[j])
		})
		return items, nil
	}
	return nil, errors.Errorf(errors.KindType, "cannot iterate over %s", object.TypeName(coll))
}

type interceptNode struct {
	name        string
	interceptor hook.Interceptor
	target      Executable
}

func (n *interceptNode) Exec(ctx *object.Context) (any, Signal, error) {
	switch n.interceptor.Before(ctx.Scope()) {
	case hook.Skip:
		return hook.Skipped, Normal, nil
	case hook.End:
		return nil, End, nil
	}
	v, sig, err := n.target.Exec(ctx)
	if err != nil {
		return nil, Normal, err
	}
	if n.interceptor.After(v, ctx.Scope()) == hook.End && sig == Normal {
		return v, End, nil
	}
	return v, sig, nil
}

func (n *interceptNode) Eval(ctx *object.Context) (any, error) {
	v, _, err := n.Exec(ctx)
	return v, err
}

// compileChain compiles a statement list into a chain, inserting line
// markers when debug info is enabled.
func (c *Compiler) compileChain(stmts []ast.Node) *chain {
	ch := &chain{}
	var tail *link
	add := func(l *link) {
		if tail == nil {
			ch.head = l
		} else {
			tail.next = l
		}
		tail = l
	}
	for _, stmt := range stmts {
		if c.debugInfo {
			if line := stmt.Pos().LineNumber(); line != c.lastLine {
				c.lastLine = line
				add(&link{node: &lineMarker{source: c.filename, line: line}, marker: true})
			}
		}
		node, ok := c.compileStmt(stmt)
		if !ok {
			continue
		}
		add(&link{node: node})
	}
	return ch
}

func (c *Compiler) compileStmt(node ast.Node) (Executable, bool) {
	switch node := node.(type) {
	case *ast.Var:
		n := &varNode{name: node.Name.Name}
		if node.Value != nil {
			value, ok := c.compileExpr(node.Value)
			if !ok {
				return nil, false
			}
			n.value = value
		}
		return n, true
	case *ast.Return:
		n := &returnNode{}
		if node.Value != nil {
			value, ok := c.compileExpr(node.Value)
			if !ok {
				return nil, false
			}
			n.value = value
		}
		return n, true
	case *ast.Break:
		if c.loopDepth == 0 {
			c.fail(c.formatErrorWithCode(errors.E2002, "break outside of a loop", node.Pos(), nil))
			return nil, false
		}
		return &signalNode{signal: Break}, true
	case *ast.Continue:
		if c.loopDepth == 0 {
			c.fail(c.formatErrorWithCode(errors.E2003, "continue outside of a loop", node.Pos(), nil))
			return nil, false
		}
		return &signalNode{signal: Continue}, true
	case *ast.Block:
		return c.compileChain(node.Stmts), true
	case *ast.If:
		return c.compileIf(node)
	case *ast.While:
		cond, ok := c.compileExpr(node.Cond)
		body := c.compileLoopBody(node.Body)
		if !ok {
			return nil, false
		}
		return &whileNode{cond: cond, body: body}, true
	case *ast.Foreach:
		iterable, ok := c.compileExpr(node.Iterable)
		body := c.compileLoopBody(node.Body)
		if !ok {
			return nil, false
		}
		return &foreachNode{
			name:     node.Var.Name,
			iterable: iterable,
			body:     body,
			loc:      c.location(node.Iterable.Pos()),
			text:     c.text(node.Iterable),
		}, true
	case *ast.Intercept:
		return c.compileIntercept(node)
	case *ast.BadStmt, *ast.BadExpr:
		c.fail(c.formatErrorWithCode(errors.E2006, "cannot compile invalid syntax", node.Pos(), nil))
		return nil, false
	}
	expr, ok := c.compileExpr(node)
	if !ok {
		return nil, false
	}
	if exec, ok := expr.(Executable); ok {
		return exec, true
	}
	return &exprExec{expr: expr}, true
}

func (c *Compiler) compileLoopBody(body *ast.Block) *chain {
	c.loopDepth++
	defer func() { c.loopDepth-- }()
	return c.compileChain(body.Stmts)
}

func (c *Compiler) compileIf(node *ast.If) (*ifNode, bool) {
	cond, ok := c.compileExpr(node.Cond)
	n := &ifNode{cond: cond, consequence: c.compileChain(node.Consequence.Stmts)}
	switch alt := node.Alternative.(type) {
	case *ast.Block:
		n.alternative = c.compileChain(alt.Stmts)
	case *ast.If:
		elseIf, elseOK := c.compileIf(alt)
		ok = ok && elseOK
		n.alternative = elseIf
	}
	return n, ok
}

func (c *Compiler) compileIntercept(node *ast.Intercept) (*interceptNode, bool) {
	ic, found := c.interceptors[node.Name.Name]
	target, ok := c.compileStmt(node.X)
	if !found {
		c.fail(c.unknownInterceptor(node.Name.Name, node.Name.Pos()))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return &interceptNode{name: node.Name.Name, interceptor: ic, target: target}, true
}
