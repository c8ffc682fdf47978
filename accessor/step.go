package accessor

import (
	"reflect"

	"github.com/mvel/mvel-sub010/errors"
	"github.com/mvel/mvel-sub010/object"
	"github.com/mvel/mvel-sub010/resolver"
)

// Kind identifies how a step reads (and writes) its value.
type Kind int

const (
	Variable Kind = iota
	This
	Literal
	New
	StaticType
	StaticField
	StaticMethod
	Getter
	MapKey
	IndexStep
	Method
	Function
	Intrinsic
	ProjectionStep
	Field
	HandlerStep
)

var kindNames = [...]string{
	Variable:       "variable",
	This:           "this",
	Literal:        "literal",
	New:            "new",
	StaticType:     "static type",
	StaticField:    "static field",
	StaticMethod:   "static method",
	Getter:         "getter",
	MapKey:         "map key",
	IndexStep:      "index",
	Method:         "method",
	Function:       "function",
	Intrinsic:      "intrinsic",
	ProjectionStep: "projection",
	Field:          "field",
	HandlerStep:    "handler",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Step is the classified implementation of one node for one input shape.
// Steps are immutable once cached.
type Step struct {
	Kind  Kind
	Shape reflect.Type // input type the step was classified for

	name   string
	root   *Root
	seg    *Segment
	args   []Evaluable
	isRoot bool
	onThis bool // root name resolved as a property of "this"
	call   bool // invoke the value read by the step

	index      []int        // Field
	method     int          // Getter, Method
	setter     int          // Getter; -1 when read-only
	setterType reflect.Type // Getter
	key        reflect.Value
	strictKey  bool         // MapKey only matched because the key was present
	thisShape  reflect.Type // StaticType root
	static     *object.StaticType
	handler    object.PropertyHandler
	intrinsic  *intrinsic
	inner      *Step // Function: the property holding the callable
}

// Name returns the property, method or variable name the step resolves.
func (s *Step) Name() string { return s.name }

func typeOf(v any) reflect.Type {
	if v == nil {
		return nil
	}
	return reflect.TypeOf(v)
}

// isNull reports whether v is null, including typed nil pointers.
func isNull(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Func:
		return rv.IsNil()
	}
	return false
}

// accepts reports whether this cached step is still valid for the input.
func (s *Step) accepts(ctx *object.Context, t reflect.Type, in any) bool {
	if s.isRoot {
		switch s.Kind {
		case This, Literal, New:
			return true
		case Variable:
			return ctx.Scope().IsResolvable(s.name)
		case StaticType:
			return !ctx.Scope().IsResolvable(s.name) && typeOf(ctx.This()) == s.thisShape
		}
		this := ctx.This()
		return !ctx.Scope().IsResolvable(s.name) && typeOf(this) == s.Shape && s.hasKey(this)
	}
	if s.static != nil {
		return in == any(s.static)
	}
	return t == s.Shape && s.hasKey(in)
}

// hasKey reports whether a map input still holds the key a strict map step
// was classified on. Other steps always pass.
func (s *Step) hasKey(in any) bool {
	k := s
	if s.Kind == Function && s.inner != nil {
		k = s.inner
	}
	if k.Kind != MapKey || !k.strictKey {
		return true
	}
	return reflect.ValueOf(in).MapIndex(k.key).IsValid()
}

func evalArgs(ctx *object.Context, args []Evaluable) ([]any, error) {
	if len(args) == 0 {
		return nil, nil
	}
	values := make([]any, len(args))
	for i, arg := range args {
		v, err := arg.Eval(ctx)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

func (s *Step) read(ctx *object.Context, in any) (any, error) {
	if s.onThis {
		in = ctx.This()
	}
	switch s.Kind {
	case Variable:
		slot, err := ctx.Scope().Resolve(s.name)
		if err != nil {
			return nil, err
		}
		if s.call {
			return s.invoke(ctx, slot.Get())
		}
		return slot.Get(), nil
	case This:
		return ctx.This(), nil
	case Literal:
		return s.root.Value.Eval(ctx)
	case New:
		args, err := evalArgs(ctx, s.args)
		if err != nil {
			return nil, err
		}
		return object.CallReflect(ctx, "new "+s.static.Name, reflect.ValueOf(s.static.Constructor), args)
	case StaticType:
		return s.static, nil
	case StaticField:
		v, _ := s.static.Field(s.name)
		return v, nil
	case StaticMethod:
		m, _ := s.static.Method(s.name)
		if !s.call {
			return m, nil
		}
		return s.invoke(ctx, m)
	case Getter, Method:
		args, err := evalArgs(ctx, s.args)
		if err != nil {
			return nil, err
		}
		return object.CallReflect(ctx, s.name, reflect.ValueOf(in).Method(s.method), args)
	case MapKey:
		return readMapKey(ctx, s, in)
	case IndexStep:
		return readIndex(ctx, s, in)
	case Function:
		fn := in
		if s.inner != nil {
			var err error
			if fn, err = s.inner.read(ctx, in); err != nil {
				return nil, err
			}
		}
		return s.invoke(ctx, fn)
	case Intrinsic:
		args, err := evalArgs(ctx, s.args)
		if err != nil {
			return nil, err
		}
		return s.intrinsic.fn(reflect.ValueOf(in), args)
	case ProjectionStep:
		return project(ctx, s.seg, in)
	case Field:
		return readField(s, in)
	case HandlerStep:
		return s.handler.GetProperty(s.name, in, ctx.Scope())
	}
	return nil, errors.Errorf(errors.KindInvalidOperation, "unsupported step kind %s", s.Kind)
}

func (s *Step) invoke(ctx *object.Context, fn any) (any, error) {
	args, err := evalArgs(ctx, s.args)
	if err != nil {
		return nil, err
	}
	return object.Invoke(ctx, fn, args)
}

func (s *Step) write(ctx *object.Context, in any, value any) (any, error) {
	if s.onThis {
		in = ctx.This()
	}
	switch s.Kind {
	case Variable:
		ctx.Scope().Assign(s.name, value)
		return value, nil
	case StaticField:
		s.static.SetField(s.name, value)
		return value, nil
	case Getter:
		if s.setter < 0 {
			return nil, notWritable(s, in)
		}
		v, err := object.ConvertValue(value, s.setterType)
		if err != nil {
			return nil, err
		}
		out := reflect.ValueOf(in).Method(s.setter).Call([]reflect.Value{v})
		if len(out) > 0 {
			if err, ok := out[len(out)-1].Interface().(error); ok && err != nil {
				return nil, err
			}
		}
		return v.Interface(), nil
	case MapKey:
		return writeMapKey(ctx, s, in, value)
	case IndexStep:
		return writeIndex(ctx, s, in, value)
	case Field:
		return writeField(s, in, value)
	case HandlerStep:
		return s.handler.SetProperty(s.name, in, ctx.Scope(), value)
	}
	return nil, notWritable(s, in)
}

func notWritable(s *Step, in any) error {
	err := errors.Errorf(errors.KindPropertyAccess, "cannot assign to %s %q", s.Kind, s.name)
	err.TargetType = object.TypeName(in)
	return err
}

func mapKeyFor(ctx *object.Context, s *Step, t reflect.Type) (reflect.Value, error) {
	if s.key.IsValid() {
		return s.key, nil
	}
	key, err := s.seg.Key.Eval(ctx)
	if err != nil {
		return reflect.Value{}, err
	}
	return object.ConvertValue(key, t.Key())
}

func readMapKey(ctx *object.Context, s *Step, in any) (any, error) {
	rv := reflect.ValueOf(in)
	key, err := mapKeyFor(ctx, s, rv.Type())
	if err != nil {
		return nil, err
	}
	v := rv.MapIndex(key)
	if !v.IsValid() {
		return nil, nil
	}
	return v.Interface(), nil
}

func writeMapKey(ctx *object.Context, s *Step, in any, value any) (any, error) {
	rv := reflect.ValueOf(in)
	key, err := mapKeyFor(ctx, s, rv.Type())
	if err != nil {
		return nil, err
	}
	v, err := object.ConvertValue(value, rv.Type().Elem())
	if err != nil {
		return nil, err
	}
	if rv.IsNil() {
		return nil, errors.Errorf(errors.KindNullTarget, "assignment to entry in nil map")
	}
	rv.SetMapIndex(key, v)
	return v.Interface(), nil
}

func indexFor(ctx *object.Context, s *Step, length int) (int, error) {
	key, err := s.seg.Key.Eval(ctx)
	if err != nil {
		return 0, err
	}
	i, err := object.ToInt(key)
	if err != nil {
		return 0, err
	}
	if i < 0 || i >= int64(length) {
		return 0, errors.Errorf(errors.KindIndex, "index %d out of range [0:%d]", i, length)
	}
	return int(i), nil
}

func readIndex(ctx *object.Context, s *Step, in any) (any, error) {
	if str, ok := in.(string); ok {
		key, err := s.seg.Key.Eval(ctx)
		if err != nil {
			return nil, err
		}
		i, err := object.ToInt(key)
		if err != nil {
			return nil, err
		}
		return runeAt(str, i)
	}
	rv := object.Indirect(reflect.ValueOf(in))
	i, err := indexFor(ctx, s, rv.Len())
	if err != nil {
		return nil, err
	}
	return rv.Index(i).Interface(), nil
}

func writeIndex(ctx *object.Context, s *Step, in any, value any) (any, error) {
	rv := reflect.ValueOf(in)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Slice && !rv.CanAddr() {
		return nil, notWritable(s, in)
	}
	i, err := indexFor(ctx, s, rv.Len())
	if err != nil {
		return nil, err
	}
	v, err := object.ConvertValue(value, rv.Type().Elem())
	if err != nil {
		return nil, err
	}
	rv.Index(i).Set(v)
	return v.Interface(), nil
}

func readField(s *Step, in any) (any, error) {
	rv := reflect.ValueOf(in)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	f, err := rv.FieldByIndexErr(s.index)
	if err != nil {
		return nil, errors.Wrap(errors.KindNullTarget, err, "field %q", s.name)
	}
	return f.Interface(), nil
}

func writeField(s *Step, in any, value any) (any, error) {
	rv := reflect.ValueOf(in)
	if rv.Kind() != reflect.Ptr {
		err := errors.Errorf(errors.KindPropertyAccess,
			"cannot assign field %q of a %s value (a pointer is required)", s.name, rv.Type())
		err.TargetType = rv.Type().String()
		return nil, err
	}
	f, err := rv.Elem().FieldByIndexErr(s.index)
	if err != nil {
		return nil, errors.Wrap(errors.KindNullTarget, err, "field %q", s.name)
	}
	if !f.CanSet() {
		return nil, notWritable(s, in)
	}
	v, err := object.ConvertValue(value, f.Type())
	if err != nil {
		return nil, err
	}
	f.Set(v)
	return v.Interface(), nil
}

func project(ctx *object.Context, seg *Segment, in any) (any, error) {
	rv := object.Indirect(reflect.ValueOf(in))
	out := make([]any, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		elem := rv.Index(i).Interface()
		child := ctx.WithThis(elem).WithScope(resolver.NewItemResolver("$", elem, ctx.Scope()))
		if seg.Filter != nil {
			ok, err := seg.Filter.Eval(child)
			if err != nil {
				return nil, err
			}
			if !object.Truthy(ok) {
				continue
			}
		}
		v, err := seg.Item.Eval(child)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
