package compiler

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/require"

	"github.com/mvel/mvel-sub010/errors"
	"github.com/mvel/mvel-sub010/hook"
	"github.com/mvel/mvel-sub010/object"
	"github.com/mvel/mvel-sub010/optimizer"
	"github.com/mvel/mvel-sub010/parser"
	"github.com/mvel/mvel-sub010/resolver"
)

func compile(t *testing.T, src string, cfg *Config) *Statement {
	t.Helper()
	prog, err := parser.Parse(context.Background(), src)
	require.Nil(t, err)
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.Source = src
	stmt, err := Compile(prog, cfg)
	require.Nil(t, err)
	return stmt
}

func newCtx(vars map[string]any) *object.Context {
	return object.NewContext(context.Background(), nil, nil, resolver.NewMapResolver(vars))
}

func run(t *testing.T, src string, vars map[string]any) (any, error) {
	t.Helper()
	return compile(t, src, nil).Eval(newCtx(vars))
}

func TestExpressions(t *testing.T) {
	vars := map[string]any{"x": 10, "y": 5, "s": "go"}
	tests := []struct {
		input    string
		expected any
	}{
		{"x + y", 15},
		{"x - y * 2", 0},
		{"10 / 4", 2},
		{"10 / 4.0", 2.5},
		{"7 % 3", 1},
		{"-x + 2", -8},
		{"'a' + 1", "a1"},
		{"s + '!' ", "go!"},
		{"!true", false},
		{"x > y && y > 1", true},
		{"x == 10 || missing", true},
		{"false && missing", false},
		{"x == 10.0", true},
		{"'hello' contains 'ell'", true},
		{"[1, 2, 3] contains 2", true},
		{"x > 5 ? 'big' : 'small'", "big"},
		{"null == null", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := run(t, tt.input, vars)
			require.Nil(t, err)
			require.Equal(t, tt.expected, v)
		})
	}
}

func TestConstantFolding(t *testing.T) {
	stmt := compile(t, "1 + 2 * 3", nil)
	require.Empty(t, stmt.Sites())
	c, ok := stmt.body.head.node.(*exprExec).expr.(*constant)
	require.True(t, ok)
	require.Equal(t, 7, c.value)
}

func TestRuntimeErrorLocation(t *testing.T) {
	_, err := run(t, "x = 1\ny = x / 0", nil)
	require.True(t, stderrors.Is(err, errors.ErrArithmetic))
	var evalErr *errors.EvaluationError
	require.True(t, stderrors.As(err, &evalErr))
	require.Equal(t, 2, evalErr.Location.Line)
	require.Equal(t, "x / 0", evalErr.Segment)
}

func TestPropertyAccess(t *testing.T) {
	vars := map[string]any{
		"person": map[string]any{"name": "Ann", "tags": []any{"a", "b"}},
		"a":      nil,
	}
	v, err := run(t, "person.name", vars)
	require.Nil(t, err)
	require.Equal(t, "Ann", v)

	v, err = run(t, "person.tags[1]", vars)
	require.Nil(t, err)
	require.Equal(t, "b", v)

	v, err = run(t, "person.name.toUpperCase()", vars)
	require.Nil(t, err)
	require.Equal(t, "ANN", v)

	v, err = run(t, "a?.b.c", vars)
	require.Nil(t, err)
	require.Nil(t, v)

	_, err = run(t, "a.b", vars)
	require.True(t, stderrors.Is(err, errors.ErrNullTarget))
}

func TestMapAndListLiterals(t *testing.T) {
	v, err := run(t, "['a': 1, 'b': [1, 2], 3: 'x']", nil)
	require.Nil(t, err)
	require.Equal(t, map[string]any{"a": 1, "b": []any{1, 2}, "3": "x"}, v)

	v, err = run(t, "[:]", nil)
	require.Nil(t, err)
	require.Equal(t, map[string]any{}, v)

	v, err = run(t, "var a = {1, 'two'}; a", nil)
	require.Nil(t, err)
	require.Equal(t, []any{1, "two"}, v)
}

type Person struct {
	Name string
	Age  int
}

func TestAssignment(t *testing.T) {
	p := &Person{Name: "a", Age: 1}
	m := map[string]any{}
	vars := map[string]any{"p": p, "m": m, "x": 1}

	v, err := run(t, "x = 5; x += 2; x", vars)
	require.Nil(t, err)
	require.Equal(t, 7, v)

	_, err = run(t, "p.age = 30; p.name = 'b'", vars)
	require.Nil(t, err)
	require.Equal(t, 30, p.Age)
	require.Equal(t, "b", p.Name)

	_, err = run(t, "m['k'] = 1; m.other = 2", vars)
	require.Nil(t, err)
	require.Equal(t, map[string]any{"k": 1, "other": 2}, m)

	v, err = run(t, "var y = 3; y * 2", vars)
	require.Nil(t, err)
	require.Equal(t, 6, v)
}

func TestIfElse(t *testing.T) {
	src := "if (x > 5) { 'big' } else if (x > 2) { 'mid' } else { 'small' }"
	stmt := compile(t, src, nil)
	for x, expected := range map[int]string{9: "big", 3: "mid", 0: "small"} {
		v, err := stmt.Eval(newCtx(map[string]any{"x": x}))
		require.Nil(t, err)
		require.Equal(t, expected, v)
	}
}

func TestLoops(t *testing.T) {
	v, err := run(t, "var sum = 0; foreach (i : [1, 2, 3]) { sum += i }; sum", nil)
	require.Nil(t, err)
	require.Equal(t, 6, v)

	v, err = run(t, "var i = 0; while (i < 10) { i += 1; if (i == 5) { break } }; i", nil)
	require.Nil(t, err)
	require.Equal(t, 5, v)

	v, err = run(t, "var n = 0; foreach (i : 5) { if (i % 2 == 0) { continue }; n += i }; n", nil)
	require.Nil(t, err)
	require.Equal(t, 9, v)

	v, err = run(t, "var out = ''; foreach (c : 'abc') { out = c + out }; out", nil)
	require.Nil(t, err)
	require.Equal(t, "cba", v)

	v, err = run(t, "var keys = ''; foreach (k : m) { keys += k }; keys",
		map[string]any{"m": map[string]int{"b": 1, "a": 2}})
	require.Nil(t, err)
	require.Equal(t, "ab", v)

	_, err = run(t, "foreach (i : null) { }", nil)
	require.True(t, stderrors.Is(err, errors.ErrNullTarget))
}

func TestFunctions(t *testing.T) {
	v, err := run(t, "def add(a, b) { return a + b }; add(2, 3)", nil)
	require.Nil(t, err)
	require.Equal(t, 5, v)

	v, err = run(t, "var f = def (x) { x * 2 }; f(4)", nil)
	require.Nil(t, err)
	require.Equal(t, 8, v)

	v, err = run(t, "def fact(n) { if (n <= 1) { return 1 }; return n * fact(n - 1) }; fact(5)", nil)
	require.Nil(t, err)
	require.Equal(t, 120, v)

	v, err = run(t, "def find(xs) { foreach (x : xs) { if (x > 2) { return x } }; return -1 }; find([1, 5, 7])", nil)
	require.Nil(t, err)
	require.Equal(t, 5, v)

	_, err = run(t, "def inf(n) { inf(n + 1) }; inf(0)", nil)
	require.True(t, stderrors.Is(err, errors.ErrRecursion))
}

func TestFunctionErrorStack(t *testing.T) {
	_, err := run(t, "def inner(x) { x / 0 }\ndef outer(x) { inner(x) }\nouter(1)", nil)
	var evalErr *errors.EvaluationError
	require.True(t, stderrors.As(err, &evalErr))
	require.Len(t, evalErr.Stack, 2)
	require.Equal(t, "inner", evalErr.Stack[0].Function)
	require.Equal(t, 1, evalErr.Stack[0].Location.Line)
	require.Equal(t, "outer", evalErr.Stack[1].Function)
}

func TestReturnAtTopLevel(t *testing.T) {
	v, err := run(t, "return 1; 2", nil)
	require.Nil(t, err)
	require.Equal(t, 1, v)
}

func TestProjection(t *testing.T) {
	people := []any{
		map[string]any{"name": "a", "age": 10},
		map[string]any{"name": "b", "age": 20},
		map[string]any{"name": "c", "age": 30},
	}
	v, err := run(t, "(name in people if age > 18)", map[string]any{"people": people})
	require.Nil(t, err)
	require.Equal(t, []any{"b", "c"}, v)

	v, err = run(t, "(name in people).size()", map[string]any{"people": people})
	require.Nil(t, err)
	require.Equal(t, 3, v)
}

func TestCompileErrors(t *testing.T) {
	prog, err := parser.Parse(context.Background(), "break; continue; @Nope 1")
	require.Nil(t, err)
	_, err = Compile(prog, &Config{Interceptors: map[string]hook.Interceptor{"Note": hook.Funcs{}}})
	require.NotNil(t, err)

	var merr *multierror.Error
	require.True(t, stderrors.As(err, &merr))
	require.Len(t, merr.Errors, 3)

	var compileErr *errors.CompileError
	require.True(t, stderrors.As(merr.Errors[0], &compileErr))
	require.Equal(t, errors.E2002, compileErr.Code)
	require.True(t, stderrors.As(merr.Errors[2], &compileErr))
	require.Equal(t, errors.E2001, compileErr.Code)
	require.Equal(t, "Note", compileErr.Suggestions[0].Value)
}

func TestInterceptors(t *testing.T) {
	var before, after int
	var seen any
	interceptors := map[string]hook.Interceptor{
		"Count": hook.Funcs{
			BeforeFunc: func(resolver.Resolver) hook.Action { before++; return hook.Normal },
			AfterFunc: func(result any, _ resolver.Resolver) hook.Action {
				after++
				seen = result
				return hook.Normal
			},
		},
		"Skip": hook.Funcs{
			BeforeFunc: func(resolver.Resolver) hook.Action { return hook.Skip },
		},
		"Stop": hook.Funcs{
			AfterFunc: func(any, resolver.Resolver) hook.Action { return hook.End },
		},
	}
	cfg := func() *Config { return &Config{Interceptors: interceptors} }

	v, err := compile(t, "@Count x + 1", cfg()).Eval(newCtx(map[string]any{"x": 1}))
	require.Nil(t, err)
	require.Equal(t, 2, v)
	require.Equal(t, 1, before)
	require.Equal(t, 1, after)
	require.Equal(t, 2, seen)

	vars := map[string]any{"x": 1}
	v, err = compile(t, "@Skip x = 5; x", cfg()).Eval(newCtx(vars))
	require.Nil(t, err)
	require.Equal(t, 1, v)

	v, err = compile(t, "@Skip x = 5", cfg()).Eval(newCtx(vars))
	require.Nil(t, err)
	require.Equal(t, hook.Skipped, v)

	v, err = compile(t, "@Stop 1; x = 2; 3", cfg()).Eval(newCtx(vars))
	require.Nil(t, err)
	require.Equal(t, 1, v)
	require.Equal(t, 1, vars["x"])
}

func TestLineMarkers(t *testing.T) {
	src := "x = 1\ny = 2\n\nz = 3"
	var lines []int
	env := object.NewEnv()
	env.Debugger = hook.DebuggerFunc(func(frame hook.Frame) hook.Action {
		lines = append(lines, frame.Line)
		require.Equal(t, "calc.mvel", frame.SourceName)
		return hook.Normal
	})
	stmt := compile(t, src, &Config{DebugInfo: true, Filename: "calc.mvel"})
	vars := map[string]any{}
	ctx := object.NewContext(context.Background(), env, nil, resolver.NewMapResolver(vars))
	v, err := stmt.Eval(ctx)
	require.Nil(t, err)
	require.Equal(t, 3, v)
	require.Equal(t, []int{1, 2, 4}, lines)

	// Without debug info there are no markers.
	lines = nil
	_, err = compile(t, src, nil).Eval(ctx)
	require.Nil(t, err)
	require.Empty(t, lines)
}

func TestBreakpointEndsEvaluation(t *testing.T) {
	env := object.NewEnv()
	var frames []hook.Frame
	bp := hook.NewBreakpoints(func(frame hook.Frame) hook.Action {
		frames = append(frames, frame)
		return hook.End
	})
	bp.Set("", 2)
	env.Debugger = bp

	vars := map[string]any{}
	stmt := compile(t, "x = 1\ny = 2\nz = 3", &Config{DebugInfo: true})
	ctx := object.NewContext(context.Background(), env, nil, resolver.NewMapResolver(vars))
	v, err := stmt.Eval(ctx)
	require.Nil(t, err)
	require.Nil(t, v)
	require.Len(t, frames, 1)
	require.Equal(t, 1, vars["x"])
	require.NotContains(t, vars, "y")

	slot, ok := frames[0].Scope.Lookup("x")
	require.True(t, ok)
	require.Equal(t, 1, slot.Get())
}

func TestCancellation(t *testing.T) {
	stmt := compile(t, "while (true) { 1 }", nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := stmt.Eval(object.NewContext(ctx, nil, nil, nil))
	require.True(t, stderrors.Is(err, errors.ErrCancelled))
}

func TestSitesPromote(t *testing.T) {
	ctrl := optimizer.New(optimizer.Config{PromotionThreshold: 3})
	stmt := compile(t, "x + y", &Config{Controller: ctrl})
	require.Len(t, stmt.Sites(), 2)

	ctx := newCtx(map[string]any{"x": 10, "y": 5})
	for i := 0; i < 4; i++ {
		v, err := stmt.Eval(ctx)
		require.Nil(t, err)
		require.Equal(t, 15, v)
	}
	for _, site := range stmt.Sites() {
		require.Equal(t, optimizer.Hot, site.Tier())
	}
}

func TestConcurrentEval(t *testing.T) {
	ctrl := optimizer.New(optimizer.Config{PromotionThreshold: 10})
	stmt := compile(t, "p.name + ':' + (n * 2)", &Config{Controller: ctrl})

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			var p any = &Person{Name: "s"}
			if g%2 == 1 {
				p = map[string]any{"name": "m"}
			}
			for i := 0; i < 50; i++ {
				v, err := stmt.Eval(newCtx(map[string]any{"p": p, "n": i}))
				if err != nil {
					t.Errorf("eval: %v", err)
					return
				}
				name := "s"
				if g%2 == 1 {
					name = "m"
				}
				if v != name+":"+object.ToString(i*2) {
					t.Errorf("unexpected %v", v)
					return
				}
			}
		}(g)
	}
	wg.Wait()
}

func TestCompileTarget(t *testing.T) {
	prog, err := parser.Parse(context.Background(), "p.name")
	require.Nil(t, err)
	site, err := New(&Config{Source: "p.name"}).CompileTarget(prog)
	require.Nil(t, err)
	require.Equal(t, "p.name", site.Path().String())

	p := &Person{Name: "a"}
	_, err = site.Set(newCtx(map[string]any{"p": p}), "b")
	require.Nil(t, err)
	require.Equal(t, "b", p.Name)

	prog, err = parser.Parse(context.Background(), "x + 1")
	require.Nil(t, err)
	_, err = New(nil).CompileTarget(prog)
	var compileErr *errors.CompileError
	require.True(t, stderrors.As(err, &compileErr))
	require.Equal(t, errors.E2004, compileErr.Code)
}
