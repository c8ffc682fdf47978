package object

import (
	"context"
	stderrors "errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mvel/mvel-sub010/errors"
	"github.com/mvel/mvel-sub010/op"
	"github.com/mvel/mvel-sub010/resolver"
)

func TestEqualsAndHash(t *testing.T) {
	pairs := []struct {
		a, b any
	}{
		{1, int64(1)},
		{1, 1.0},
		{"x", "x"},
		{map[string]any{"key1": "var"}, map[string]any{"key1": "var"}},
		{map[string]any{"a": 1, "b": 2}, map[string]int{"b": 2, "a": 1}},
		{[]any{map[string]any{"k": []any{1}}}, []any{map[string]any{"k": []int{1}}}},
		{nil, nil},
	}
	for _, p := range pairs {
		require.True(t, Equals(p.a, p.b), "%v == %v", p.a, p.b)
		require.Equal(t, Hash(p.a), Hash(p.b), "hash(%v) == hash(%v)", p.a, p.b)
	}
	require.False(t, Equals([]any{1, "a"}, []int64{1}))
	require.False(t, Equals(nil, 0))
	require.False(t, Equals("1", 1))
	require.False(t, Equals(map[string]any{"a": 1}, map[string]any{"a": 2}))
	require.NotEqual(t, Hash(1.5), Hash(1))
}

func TestMapHashOrderIndependent(t *testing.T) {
	a := map[string]any{}
	b := map[string]any{}
	keys := []string{"alpha", "beta", "gamma", "delta", "epsilon"}
	for i, k := range keys {
		a[k] = i
	}
	for i := len(keys) - 1; i >= 0; i-- {
		b[keys[i]] = i
	}
	for i := 0; i < 10; i++ {
		require.Equal(t, Hash(a), Hash(b))
	}
}

func TestToString(t *testing.T) {
	require.Equal(t, "null", ToString(nil))
	require.Equal(t, "1.5", ToString(1.5))
	require.Equal(t, "3", ToString(uint16(3)))
	require.Equal(t, "true", ToString(true))
	require.Equal(t, "[1 2]", ToString([]int{1, 2}))
}

func TestTruthy(t *testing.T) {
	for _, v := range []any{nil, false, 0, 0.0, "", []int{}, map[string]any{}} {
		require.False(t, Truthy(v), "%#v", v)
	}
	for _, v := range []any{true, 1, -0.5, "x", []int{0}, struct{}{}} {
		require.True(t, Truthy(v), "%#v", v)
	}
}

func TestToIntAndFloat(t *testing.T) {
	i, err := ToInt("42")
	require.NoError(t, err)
	require.Equal(t, int64(42), i)

	i, err = ToInt(3.9)
	require.NoError(t, err)
	require.Equal(t, int64(3), i)

	_, err = ToInt("x")
	require.True(t, stderrors.Is(err, errors.ErrType))

	f, err := ToFloat(int8(2))
	require.NoError(t, err)
	require.Equal(t, 2.0, f)

	_, err = ToFloat([]int{})
	require.Error(t, err)
}

type point struct {
	X, Y int
}

func TestConvert(t *testing.T) {
	v, err := Convert(int64(5), reflect.TypeOf(int32(0)))
	require.NoError(t, err)
	require.Equal(t, int32(5), v)

	v, err = Convert("12", reflect.TypeOf(0))
	require.NoError(t, err)
	require.Equal(t, 12, v)

	v, err = Convert(2.7, reflect.TypeOf(0))
	require.NoError(t, err)
	require.Equal(t, 2, v)

	v, err = Convert(7, reflect.TypeOf(""))
	require.NoError(t, err)
	require.Equal(t, "7", v)

	v, err = Convert([]any{1, int64(2)}, reflect.TypeOf([]float64{}))
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2}, v)

	v, err = Convert(map[string]any{"a": 1}, reflect.TypeOf(map[string]int64{}))
	require.NoError(t, err)
	require.Equal(t, map[string]int64{"a": 1}, v)

	v, err = Convert(3, reflect.TypeOf(new(int)))
	require.NoError(t, err)
	require.Equal(t, 3, *(v.(*int)))

	v, err = Convert(nil, reflect.TypeOf([]int{}))
	require.NoError(t, err)
	require.Nil(t, v)

	_, err = Convert(nil, reflect.TypeOf(0))
	require.True(t, stderrors.Is(err, errors.ErrType))

	_, err = Convert(300, reflect.TypeOf(uint8(0)))
	require.Error(t, err)

	_, err = Convert("x", reflect.TypeOf(point{}))
	require.Error(t, err)
}

func TestContextDerivation(t *testing.T) {
	env := NewEnv()
	root := map[string]any{"a": 1}
	scope := resolver.NewMapResolver(map[string]any{"x": 1})
	ctx := NewContext(context.Background(), env, root, scope)

	require.Equal(t, root, ctx.This())
	child := ctx.WithThis("item")
	require.Equal(t, "item", child.This())
	require.Equal(t, root, child.Root())
	require.Equal(t, root, ctx.This())
	require.Same(t, env, child.Env())
	require.Same(t, ctx.Calls(), child.Calls())

	inner := resolver.NewItemResolver("i", 0, scope)
	scoped := child.WithScope(inner)
	require.Equal(t, resolver.Resolver(inner), scoped.Scope())
	require.Equal(t, "item", scoped.This())
	require.NoError(t, ctx.Err())

	goCtx, cancel := context.WithCancel(context.Background())
	cancel()
	cancelled := NewContext(goCtx, nil, nil, nil)
	err := cancelled.Err()
	require.True(t, stderrors.Is(err, errors.ErrCancelled))
	require.True(t, stderrors.Is(err, context.Canceled))
	require.NotNil(t, cancelled.Scope())
}

func TestCallStack(t *testing.T) {
	s := NewCallStack(2)
	require.NoError(t, s.Push("a"))
	require.NoError(t, s.Push("b"))
	require.Equal(t, "b", s.Current())
	err := s.Push("c")
	require.True(t, stderrors.Is(err, errors.ErrRecursion))
	s.Pop()
	require.Equal(t, 1, s.Depth())
	s.Pop()
	s.Pop()
	require.Equal(t, "", s.Current())
	require.Equal(t, DefaultMaxCallDepth, NewCallStack(0).max)
}

type constBody struct {
	fn func(ctx *Context) (any, error)
}

func (b constBody) Eval(ctx *Context) (any, error) { return b.fn(ctx) }

func TestFunctionCall(t *testing.T) {
	captured := resolver.NewMapResolver(map[string]any{"base": 100})
	fn := &Function{
		Name:   "add",
		Params: []string{"a"},
		Scope:  captured,
		Body: constBody{func(ctx *Context) (any, error) {
			a, err := ctx.Scope().Resolve("a")
			if err != nil {
				return nil, err
			}
			base, err := ctx.Scope().Resolve("base")
			if err != nil {
				return nil, err
			}
			ctx.Scope().Declare("local", true)
			return BinaryOp(op.Add, a.Get(), base.Get())
		}},
	}
	ctx := NewContext(context.Background(), nil, nil, nil)
	got, err := Invoke(ctx, fn, []any{5})
	require.NoError(t, err)
	require.Equal(t, 105, got)
	require.False(t, captured.IsResolvable("local"))
	require.Equal(t, 0, ctx.Calls().Depth())

	_, err = fn.Call(ctx, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "expected 1 argument(s)")
	require.Equal(t, "def add(...)", ToString(fn))
}

func TestRecursionLimit(t *testing.T) {
	env := NewEnv()
	env.MaxCallDepth = 10
	var fn *Function
	fn = &Function{Name: "loop", Body: constBody{func(ctx *Context) (any, error) {
		return fn.Call(ctx, nil)
	}}}
	_, err := fn.Call(NewContext(context.Background(), env, nil, nil), nil)
	require.True(t, stderrors.Is(err, errors.ErrRecursion))
}

func TestInvokeGoFunc(t *testing.T) {
	ctx := NewContext(context.Background(), nil, nil, nil)

	got, err := Invoke(ctx, func(a int, b float64) float64 { return float64(a) + b }, []any{int64(1), 2})
	require.NoError(t, err)
	require.Equal(t, 3.0, got)

	got, err = Invoke(ctx, func(c context.Context, parts ...string) string {
		return fmt.Sprint(len(parts))
	}, []any{"a", "b", "c"})
	require.NoError(t, err)
	require.Equal(t, "3", got)

	got, err = Invoke(ctx, func(c *Context) any { return c.Root() }, nil)
	require.NoError(t, err)
	require.Nil(t, got)

	_, err = Invoke(ctx, func() (int, error) { return 0, fmt.Errorf("boom") }, nil)
	require.EqualError(t, err, "boom")

	got, err = Invoke(ctx, func() (int, string) { return 1, "a" }, nil)
	require.NoError(t, err)
	require.Equal(t, []any{1, "a"}, got)

	_, err = Invoke(ctx, func() { panic("bad") }, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "panic")

	_, err = Invoke(ctx, func(a int) {}, nil)
	require.Error(t, err)

	_, err = Invoke(ctx, 3, nil)
	require.True(t, stderrors.Is(err, errors.ErrType))

	_, err = Invoke(ctx, nil, nil)
	require.True(t, stderrors.Is(err, errors.ErrNullTarget))

	require.True(t, IsCallable(func() {}))
	require.True(t, IsCallable(&Function{}))
	require.False(t, IsCallable("x"))
}

func TestEnvRegistry(t *testing.T) {
	env := NewEnv()
	env.RegisterStatic(&StaticType{
		Name:    "Math",
		Fields:  map[string]any{"PI": 3.14},
		Methods: map[string]any{"abs": func(x float64) float64 { return x }},
	})
	st, ok := env.Static("Math")
	require.True(t, ok)
	v, ok := st.Field("PI")
	require.True(t, ok)
	require.Equal(t, 3.14, v)
	require.True(t, st.SetField("PI", 3.0))
	require.False(t, st.SetField("E", 2.7))
	_, ok = st.Method("abs")
	require.True(t, ok)
	require.Equal(t, []string{"Math"}, env.StaticNames())

	h := PropertyHandlerFuncs{GetFunc: func(name string, target any, scope resolver.Resolver) (any, error) {
		return name, nil
	}}
	env.RegisterHandler(reflect.TypeOf(point{}), h)
	got, ok := env.Handler(reflect.TypeOf(point{}))
	require.True(t, ok)
	_, err := got.SetProperty("x", point{}, nil, 1)
	require.Error(t, err)
}
