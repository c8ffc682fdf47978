package mvel

import (
	"context"

	"github.com/mvel/mvel-sub010/compiler"
	"github.com/mvel/mvel-sub010/object"
	"github.com/mvel/mvel-sub010/optimizer"
	"github.com/mvel/mvel-sub010/resolver"
)

// Expression is a compiled expression. It is safe for concurrent use.
type Expression struct {
	engine *Engine
	stmt   *compiler.Statement
}

// Source returns the source text the expression was compiled from.
func (x *Expression) Source() string { return x.stmt.Source() }

// Sites returns the expression's access sites.
func (x *Expression) Sites() []*optimizer.Site { return x.stmt.Sites() }

// Eval evaluates the expression with root as the context object ("this")
// and vars as the variables. Assignments to new variables are written into
// vars, which may be nil.
func (x *Expression) Eval(ctx context.Context, root any, vars map[string]any) (any, error) {
	if vars == nil {
		vars = map[string]any{}
	}
	return x.EvalScope(ctx, root, resolver.NewMapResolver(vars))
}

// EvalScope evaluates the expression against a caller-supplied resolver
// chain.
func (x *Expression) EvalScope(ctx context.Context, root any, scope resolver.Resolver) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	return x.stmt.Eval(object.NewContext(ctx, x.engine.env, root, scope))
}

// SetExpression is a compiled assignment target.
type SetExpression struct {
	engine *Engine
	source string
	site   *optimizer.Site
}

// Source returns the source text of the target.
func (s *SetExpression) Source() string { return s.source }

// Apply assigns value to the target, resolved against root and scope. The
// value is converted to the target's type where needed. It returns the
// value as stored.
func (s *SetExpression) Apply(ctx context.Context, root any, scope resolver.Resolver, value any) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.site.Set(object.NewContext(ctx, s.engine.env, root, scope), value)
}
