package object

import (
	"context"

	"github.com/edwingeng/deque"

	"github.com/mvel/mvel-sub010/errors"
	"github.com/mvel/mvel-sub010/resolver"
)

// DefaultMaxCallDepth is the default bound on nested function calls.
const DefaultMaxCallDepth = 512

// Context is the state of one evaluation: the root object, the current
// "this" object, the variable scope and the shared Env. Child contexts are
// derived with WithThis and WithScope and share the Env, the Go context and
// the call stack of their parent.
//
// A Context belongs to a single evaluation and must not be shared between
// goroutines.
type Context struct {
	ctx   context.Context
	root  any
	this  any
	scope resolver.Resolver
	env   *Env
	calls *CallStack
}

// NewContext returns a Context for a top-level evaluation. "this" starts out
// as the root object. A nil scope is replaced with an empty map scope.
func NewContext(ctx context.Context, env *Env, root any, scope resolver.Resolver) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if env == nil {
		env = NewEnv()
	}
	if scope == nil {
		scope = resolver.NewMapResolver(nil)
	}
	return &Context{
		ctx:   ctx,
		root:  root,
		this:  root,
		scope: scope,
		env:   env,
		calls: NewCallStack(env.MaxCallDepth),
	}
}

func (c *Context) Root() any                { return c.root }
func (c *Context) This() any                { return c.this }
func (c *Context) Scope() resolver.Resolver { return c.scope }
func (c *Context) Env() *Env                { return c.env }
func (c *Context) Calls() *CallStack        { return c.calls }
func (c *Context) Context() context.Context { return c.ctx }

// Err returns a KindCancelled error once the Go context is done.
func (c *Context) Err() error {
	if err := c.ctx.Err(); err != nil {
		return errors.Wrap(errors.KindCancelled, err, "evaluation cancelled")
	}
	return nil
}

// WithThis returns a child context whose "this" object is this.
func (c *Context) WithThis(this any) *Context {
	child := *c
	child.this = this
	return &child
}

// WithScope returns a child context evaluating against scope.
func (c *Context) WithScope(scope resolver.Resolver) *Context {
	child := *c
	child.scope = scope
	return &child
}

// CallStack is the bounded stack of function invocations of one evaluation.
type CallStack struct {
	frames deque.Deque
	max    int
}

// NewCallStack returns an empty stack holding at most max frames. A max of
// zero or less uses DefaultMaxCallDepth.
func NewCallStack(max int) *CallStack {
	if max <= 0 {
		max = DefaultMaxCallDepth
	}
	return &CallStack{frames: deque.NewDeque(), max: max}
}

// Push records a call to the named function.
func (s *CallStack) Push(name string) error {
	if s.frames.Len() >= s.max {
		return errors.Errorf(errors.KindRecursion,
			"maximum call depth of %d exceeded calling %s", s.max, name)
	}
	s.frames.PushBack(name)
	return nil
}

// Pop removes the innermost call.
func (s *CallStack) Pop() {
	if !s.frames.Empty() {
		s.frames.PopBack()
	}
}

// Depth returns the number of active calls.
func (s *CallStack) Depth() int { return s.frames.Len() }

// Current returns the name of the innermost call, or "" outside any call.
func (s *CallStack) Current() string {
	if s.frames.Empty() {
		return ""
	}
	name, _ := s.frames.Back().(string)
	return name
}
