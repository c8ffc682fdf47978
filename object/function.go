package object

import (
	"fmt"
	"reflect"

	"github.com/mvel/mvel-sub010/errors"
	"github.com/mvel/mvel-sub010/resolver"
)

// Evaluable is anything that produces a value from a Context: compiled
// statements, expression nodes and accessor chains.
type Evaluable interface {
	Eval(ctx *Context) (any, error)
}

// Function is a function defined in an expression with "def". It captures
// the scope it was defined in.
type Function struct {
	Name   string
	Params []string
	Body   Evaluable
	Scope  resolver.Resolver
}

func (f *Function) String() string {
	if f.Name == "" {
		return "def(...)"
	}
	return fmt.Sprintf("def %s(...)", f.Name)
}

func (f *Function) displayName() string {
	if f.Name == "" {
		return "<lambda>"
	}
	return f.Name
}

// Call invokes the function. Arguments bind to parameters positionally in a
// fresh FunctionScope whose outer link is the captured scope.
func (f *Function) Call(ctx *Context, args []any) (any, error) {
	if len(args) != len(f.Params) {
		return nil, errors.Errorf(errors.KindInvalidOperation,
			"%s: expected %d argument(s), got %d", f.displayName(), len(f.Params), len(args))
	}
	if err := ctx.Calls().Push(f.displayName()); err != nil {
		return nil, err
	}
	defer ctx.Calls().Pop()

	outer := f.Scope
	if outer == nil {
		outer = ctx.Scope()
	}
	scope := resolver.NewFunctionScope(outer)
	for i, name := range f.Params {
		scope.Define(name, args[i])
	}
	v, err := f.Body.Eval(ctx.WithScope(scope))
	if err != nil {
		return nil, errors.WithFrame(err, f.displayName())
	}
	return v, nil
}

// IsCallable reports whether v can be invoked with Invoke.
func IsCallable(v any) bool {
	if _, ok := v.(*Function); ok {
		return true
	}
	return v != nil && reflect.TypeOf(v).Kind() == reflect.Func
}

// Invoke calls a script Function or a Go func with the given arguments.
func Invoke(ctx *Context, fn any, args []any) (any, error) {
	switch fn := fn.(type) {
	case *Function:
		return fn.Call(ctx, args)
	case nil:
		return nil, errors.Errorf(errors.KindNullTarget, "cannot call null")
	}
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func {
		return nil, errors.Errorf(errors.KindType, "%s is not callable", TypeName(fn))
	}
	return CallReflect(ctx, "function", rv, args)
}

// CallReflect calls a Go function value. A leading context.Context or
// *Context parameter is supplied automatically, arguments are converted to
// the parameter types, a trailing error result is returned as the error and
// multiple results are returned as a []any.
func CallReflect(ctx *Context, name string, fn reflect.Value, args []any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf(errors.KindInvalidOperation, "panic in %s: %v", name, r)
			result = nil
		}
	}()

	fnType := fn.Type()
	numIn := fnType.NumIn()
	var callArgs []reflect.Value
	start := 0
	if numIn > 0 {
		switch first := fnType.In(0); {
		case first == contextPtrType:
			callArgs = append(callArgs, reflect.ValueOf(ctx))
			start = 1
		case first.Kind() == reflect.Interface && first.Implements(contextInterface):
			callArgs = append(callArgs, reflect.ValueOf(ctx.Context()))
			start = 1
		}
	}
	params := numIn - start
	if fnType.IsVariadic() {
		if len(args) < params-1 {
			return nil, errors.Errorf(errors.KindInvalidOperation,
				"%s: expected at least %d argument(s), got %d", name, params-1, len(args))
		}
	} else if len(args) != params {
		return nil, errors.Errorf(errors.KindInvalidOperation,
			"%s: expected %d argument(s), got %d", name, params, len(args))
	}
	for i, arg := range args {
		var target reflect.Type
		if fnType.IsVariadic() && i >= params-1 {
			target = fnType.In(numIn - 1).Elem()
		} else {
			target = fnType.In(start + i)
		}
		v, err := ConvertValue(arg, target)
		if err != nil {
			return nil, errors.Wrap(errors.KindType, err, "%s: argument %d", name, i+1)
		}
		callArgs = append(callArgs, v)
	}
	return processResults(fnType, fn.Call(callArgs))
}

func processResults(fnType reflect.Type, results []reflect.Value) (any, error) {
	n := len(results)
	if n > 0 && fnType.Out(n-1) == errorInterface {
		if errVal := results[n-1]; !errVal.IsNil() {
			return nil, errVal.Interface().(error)
		}
		results = results[:n-1]
		n--
	}
	switch n {
	case 0:
		return nil, nil
	case 1:
		return results[0].Interface(), nil
	}
	items := make([]any, n)
	for i, rv := range results {
		items[i] = rv.Interface()
	}
	return items, nil
}
