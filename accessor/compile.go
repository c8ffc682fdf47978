package accessor

import (
	stderrors "errors"
	"reflect"

	"github.com/mvel/mvel-sub010/errors"
	"github.com/mvel/mvel-sub010/object"
)

// ErrShapeChanged matches the *ShapeMiss a compiled accessor returns when an
// input no longer matches the shapes it was built for.
var ErrShapeChanged = stderrors.New("accessor: shape changed")

// ShapeMiss records where a compiled accessor stopped: the node whose guards
// rejected its input, and that input. Every stage before the node has run;
// nothing at or after it has. Chain.Resume and Chain.ResumeSet continue from
// there.
type ShapeMiss struct {
	node *Node
	in   any
	prev string
}

func (m *ShapeMiss) Error() string { return ErrShapeChanged.Error() }

func (m *ShapeMiss) Is(target error) bool { return target == ErrShapeChanged }

// Node returns the node whose guards failed.
func (m *ShapeMiss) Node() *Node { return m.node }

var mapStringAny = reflect.TypeOf(map[string]any{})

type getFunc func(ctx *object.Context, in any) (any, error)

type guarded struct {
	step *Step
	get  getFunc
}

type stage struct {
	node  *Node
	steps []guarded
}

func (st *stage) match(ctx *object.Context, in any) *guarded {
	t := typeOf(in)
	for i := range st.steps {
		if st.steps[i].step.accepts(ctx, t, in) {
			return &st.steps[i]
		}
	}
	return nil
}

// Compiled is the compiled form of a chain: one pre-built stage per node,
// each guarded by the shapes the chain observed. It reads and writes exactly
// what the chain would for those shapes.
type Compiled struct {
	chain  *Chain
	stages []stage
}

// Compile builds the compiled form of a stable chain. It fails with a
// KindCompileFailure error when the chain is not stable or a step has no
// compiled form.
func Compile(c *Chain) (*Compiled, error) {
	if !c.Stable() {
		return nil, errors.Errorf(errors.KindCompileFailure, "%s: not every step has completed a read", c.path)
	}
	out := &Compiled{chain: c, stages: make([]stage, 0, c.size)}
	for n := c.head; n != nil; n = n.Next {
		steps := n.Steps()
		st := stage{node: n, steps: make([]guarded, len(steps))}
		for i := range steps {
			s := &steps[i]
			get, err := compileStep(s)
			if err != nil {
				return nil, errors.Wrap(errors.KindCompileFailure, err, "%s", c.path)
			}
			st.steps[i] = guarded{step: s, get: get}
		}
		out.stages = append(out.stages, st)
	}
	return out, nil
}

func compileStep(s *Step) (getFunc, error) {
	switch s.Kind {
	case HandlerStep, ProjectionStep:
		return nil, errors.Errorf(errors.KindCompileFailure, "%s step %q has no compiled form", s.Kind, s.name)
	case Function:
		if s.inner != nil && s.inner.Kind == HandlerStep {
			return nil, errors.Errorf(errors.KindCompileFailure, "handler step %q has no compiled form", s.name)
		}
	}
	if s.isRoot {
		if s.Kind == Variable && !s.call {
			name := s.name
			return func(ctx *object.Context, _ any) (any, error) {
				slot, err := ctx.Scope().Resolve(name)
				if err != nil {
					return nil, err
				}
				return slot.Get(), nil
			}, nil
		}
		return s.read, nil
	}
	switch s.Kind {
	case Field:
		if len(s.index) == 1 {
			i := s.index[0]
			if s.Shape.Kind() == reflect.Ptr {
				return func(_ *object.Context, in any) (any, error) {
					return reflect.ValueOf(in).Elem().Field(i).Interface(), nil
				}, nil
			}
			return func(_ *object.Context, in any) (any, error) {
				return reflect.ValueOf(in).Field(i).Interface(), nil
			}, nil
		}
	case MapKey:
		if !s.key.IsValid() {
			break
		}
		if s.Shape == mapStringAny {
			name := s.name
			return func(_ *object.Context, in any) (any, error) {
				return in.(map[string]any)[name], nil
			}, nil
		}
		key := s.key
		return func(_ *object.Context, in any) (any, error) {
			v := reflect.ValueOf(in).MapIndex(key)
			if !v.IsValid() {
				return nil, nil
			}
			return v.Interface(), nil
		}, nil
	case Getter:
		method, name := s.method, s.name
		return func(ctx *object.Context, in any) (any, error) {
			return object.CallReflect(ctx, name, reflect.ValueOf(in).Method(method), nil)
		}, nil
	case StaticField:
		st, name := s.static, s.name
		return func(_ *object.Context, _ any) (any, error) {
			v, _ := st.Field(name)
			return v, nil
		}, nil
	}
	return s.read, nil
}

// Chain returns the interpreted chain the accessor was compiled from.
func (c *Compiled) Chain() *Chain { return c.chain }

// Eval reads the value at the end of the path.
func (c *Compiled) Eval(ctx *object.Context) (any, error) { return c.Get(ctx) }

// Get reads the value at the end of the path, or returns a *ShapeMiss.
func (c *Compiled) Get(ctx *object.Context) (any, error) {
	var v any
	prev := ""
	for i := range c.stages {
		st := &c.stages[i]
		if i > 0 && isNull(v) {
			if st.node.nullSafe {
				return nil, nil
			}
			return nil, st.node.nullError(prev)
		}
		g := st.match(ctx, v)
		if g == nil {
			return nil, &ShapeMiss{node: st.node, in: v, prev: prev}
		}
		out, err := g.get(ctx, v)
		if err != nil {
			return nil, st.node.locate(err)
		}
		v = out
		prev, _ = st.node.source()
	}
	return v, nil
}

// Set writes value at the end of the path, or returns a *ShapeMiss without
// writing anything.
func (c *Compiled) Set(ctx *object.Context, value any) (any, error) {
	if len(c.stages) == 1 {
		return c.chain.Set(ctx, value)
	}
	var v any
	prev := ""
	last := len(c.stages) - 1
	for i := 0; i < last; i++ {
		st := &c.stages[i]
		if i > 0 && isNull(v) {
			if st.node.nullSafe {
				return nil, nil
			}
			return nil, st.node.nullError(prev)
		}
		g := st.match(ctx, v)
		if g == nil {
			return nil, &ShapeMiss{node: st.node, in: v, prev: prev}
		}
		out, err := g.get(ctx, v)
		if err != nil {
			return nil, st.node.locate(err)
		}
		v = out
		prev, _ = st.node.source()
	}
	st := &c.stages[last]
	if isNull(v) {
		if st.node.nullSafe {
			return nil, nil
		}
		return nil, st.node.nullError(prev)
	}
	g := st.match(ctx, v)
	if g == nil {
		return nil, &ShapeMiss{node: st.node, in: v, prev: prev}
	}
	out, err := g.step.write(ctx, v, value)
	if err != nil {
		return nil, st.node.locate(err)
	}
	st.node.succeeded.Store(true)
	return out, nil
}
