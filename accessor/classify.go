package accessor

import (
	"reflect"
	"sort"
	"unicode"
	"unicode/utf8"

	"github.com/mvel/mvel-sub010/errors"
	"github.com/mvel/mvel-sub010/object"
	"github.com/mvel/mvel-sub010/resolver"
)

var errorInterface = reflect.TypeOf((*error)(nil)).Elem()

func capitalize(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}

// classify decides how the node reads its value for the given input. The
// result is cached per input shape by the caller.
func (n *Node) classify(ctx *object.Context, in any) (Step, error) {
	n.classifications.Add(1)
	if n.root != nil {
		return classifyRoot(ctx, n.root)
	}
	seg := n.seg
	var step Step
	var err error
	switch seg.Kind {
	case Property:
		step, err = classifyProperty(ctx, seg.Name, in, false)
	case Index:
		step, err = classifyIndex(in)
	case Call:
		step, err = classifyCall(ctx, seg.Name, in, len(seg.Args))
		step.args = seg.Args
	case Projection:
		step, err = classifyProjection(in)
	}
	step.seg = seg
	return step, err
}

func classifyRoot(ctx *object.Context, r *Root) (Step, error) {
	step := Step{isRoot: true, root: r, name: r.Name, args: r.Args}
	switch r.Kind {
	case RootThis:
		step.Kind = This
		return step, nil
	case RootValue:
		step.Kind = Literal
		return step, nil
	case RootNew:
		st, ok := ctx.Env().Static(r.Name)
		if !ok {
			return step, unknownName(ctx, "type", r.Name)
		}
		if st.Constructor == nil || reflect.TypeOf(st.Constructor).Kind() != reflect.Func {
			return step, errors.Errorf(errors.KindInvalidOperation, "type %s has no constructor", r.Name)
		}
		step.Kind, step.static = New, st
		return step, nil
	}

	if ctx.Scope().IsResolvable(r.Name) {
		step.Kind, step.call = Variable, r.Call
		return step, nil
	}
	this := ctx.This()
	if !isNull(this) {
		var prop Step
		var err error
		if r.Call {
			prop, err = classifyCall(ctx, r.Name, this, len(r.Args))
		} else {
			prop, err = classifyProperty(ctx, r.Name, this, true)
		}
		if err == nil {
			prop.isRoot, prop.onThis, prop.root, prop.args = true, true, r, r.Args
			prop.Shape = reflect.TypeOf(this)
			return prop, nil
		}
	}
	if !r.Call {
		if st, ok := ctx.Env().Static(r.Name); ok {
			step.Kind, step.static, step.thisShape = StaticType, st, typeOf(this)
			return step, nil
		}
	}
	if r.Call {
		return step, unknownName(ctx, "function", r.Name)
	}
	return step, unknownName(ctx, "variable", r.Name)
}

func unknownName(ctx *object.Context, what, name string) error {
	candidates := append(resolver.Names(ctx.Scope()), ctx.Env().StaticNames()...)
	err := errors.Errorf(errors.KindUnresolvedVariable, "unresolvable %s: %s", what, name)
	if hint := errors.FormatSuggestions(errors.SuggestSimilar(name, candidates)); hint != "" {
		return err.WithHint(hint)
	}
	return err
}

// classifyProperty tries, in order: a registered handler, a getter/setter
// pair, a map key, an intrinsic property, and a plain struct field. When
// strictMap is set a map only matches if it already holds the key.
func classifyProperty(ctx *object.Context, name string, in any, strictMap bool) (Step, error) {
	if st, ok := in.(*object.StaticType); ok {
		return classifyStatic(st, name, false)
	}
	t := reflect.TypeOf(in)
	if h, ok := ctx.Env().Handler(t); ok {
		return Step{Kind: HandlerStep, Shape: t, name: name, handler: h}, nil
	}
	if step, ok := findGetter(t, name); ok {
		return step, nil
	}
	if t.Kind() == reflect.Map && t.Key().Kind() == reflect.String {
		key := reflect.ValueOf(name).Convert(t.Key())
		if !strictMap || reflect.ValueOf(in).MapIndex(key).IsValid() {
			return Step{Kind: MapKey, Shape: t, name: name, key: key, strictKey: strictMap}, nil
		}
	}
	if in, ok := lookupIntrinsic(name, t, false); ok {
		return Step{Kind: Intrinsic, Shape: t, name: name, intrinsic: in}, nil
	}
	if base := baseType(t); base.Kind() == reflect.Struct {
		if f, ok := findField(base, name); ok {
			return Step{Kind: Field, Shape: t, name: name, index: f.Index}, nil
		}
	}
	return Step{}, noProperty(name, in)
}

func baseType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

func findField(t reflect.Type, name string) (reflect.StructField, bool) {
	for _, candidate := range []string{name, capitalize(name)} {
		if f, ok := t.FieldByName(candidate); ok && f.IsExported() {
			return f, true
		}
	}
	return reflect.StructField{}, false
}

func findGetter(t reflect.Type, name string) (Step, bool) {
	upper := capitalize(name)
	for _, candidate := range []string{"Get" + upper, upper, "Is" + upper} {
		m, ok := t.MethodByName(candidate)
		if !ok {
			continue
		}
		mt := m.Type
		if mt.NumIn() != 1 {
			continue
		}
		if mt.NumOut() != 1 && !(mt.NumOut() == 2 && mt.Out(1) == errorInterface) {
			continue
		}
		step := Step{Kind: Getter, Shape: t, name: name, method: m.Index, setter: -1}
		if s, ok := t.MethodByName("Set" + upper); ok && s.Type.NumIn() == 2 {
			step.setter, step.setterType = s.Index, s.Type.In(1)
		}
		return step, true
	}
	return Step{}, false
}

func findMethod(t reflect.Type, name string) (reflect.Method, bool) {
	for _, candidate := range []string{name, capitalize(name)} {
		if m, ok := t.MethodByName(candidate); ok {
			return m, true
		}
	}
	return reflect.Method{}, false
}

// classifyCall resolves name(args) against the input: an intrinsic, a static
// method, a Go method, or a property holding something callable. An empty
// name invokes the input itself.
func classifyCall(ctx *object.Context, name string, in any, nargs int) (Step, error) {
	t := reflect.TypeOf(in)
	if name == "" {
		if !object.IsCallable(in) {
			return Step{}, errors.Errorf(errors.KindType, "%s is not callable", object.TypeName(in))
		}
		return Step{Kind: Function, Shape: t}, nil
	}
	if st, ok := in.(*object.StaticType); ok {
		return classifyStatic(st, name, true)
	}
	if in, ok := lookupIntrinsic(name, t, true); ok {
		return Step{Kind: Intrinsic, Shape: t, name: name, intrinsic: in}, nil
	}
	if m, ok := findMethod(t, name); ok {
		return Step{Kind: Method, Shape: t, name: m.Name, method: m.Index}, nil
	}
	prop, err := classifyProperty(ctx, name, in, true)
	if err == nil {
		return Step{Kind: Function, Shape: t, name: name, inner: &prop}, nil
	}
	return Step{}, noProperty(name, in)
}

func classifyStatic(st *object.StaticType, name string, call bool) (Step, error) {
	step := Step{Shape: reflect.TypeOf(st), name: name, static: st, call: call}
	if !call {
		if _, ok := st.Field(name); ok {
			step.Kind = StaticField
			return step, nil
		}
	}
	if _, ok := st.Method(name); ok {
		step.Kind = StaticMethod
		return step, nil
	}
	candidates := make([]string, 0, len(st.Fields)+len(st.Methods))
	for k := range st.Fields {
		candidates = append(candidates, k)
	}
	for k := range st.Methods {
		candidates = append(candidates, k)
	}
	err := errors.Errorf(errors.KindPropertyAccess, "type %s has no static member %q", st.Name, name)
	err.TargetType = st.Name
	if hint := errors.FormatSuggestions(errors.SuggestSimilar(name, candidates)); hint != "" {
		err = err.WithHint(hint)
	}
	return step, err
}

func classifyIndex(in any) (Step, error) {
	t := reflect.TypeOf(in)
	switch baseType(t).Kind() {
	case reflect.Map:
		if t.Kind() == reflect.Map {
			return Step{Kind: MapKey, Shape: t}, nil
		}
	case reflect.Slice, reflect.Array, reflect.String:
		return Step{Kind: IndexStep, Shape: t}, nil
	}
	err := errors.Errorf(errors.KindType, "%s is not indexable", object.TypeName(in))
	err.TargetType = object.TypeName(in)
	return Step{}, err
}

func classifyProjection(in any) (Step, error) {
	t := reflect.TypeOf(in)
	switch baseType(t).Kind() {
	case reflect.Slice, reflect.Array:
		return Step{Kind: ProjectionStep, Shape: t}, nil
	}
	err := errors.Errorf(errors.KindType, "cannot project over %s", object.TypeName(in))
	err.TargetType = object.TypeName(in)
	return Step{}, err
}

func noProperty(name string, in any) error {
	err := errors.Errorf(errors.KindPropertyAccess, "could not access property %q", name)
	err.TargetType = object.TypeName(in)
	if hint := errors.FormatSuggestions(errors.SuggestSimilar(name, memberNames(in))); hint != "" {
		err = err.WithHint(hint)
	}
	return err
}

// memberNames lists the properties and methods of a value, for suggestions.
func memberNames(in any) []string {
	t := reflect.TypeOf(in)
	var names []string
	for i := 0; i < t.NumMethod(); i++ {
		names = append(names, t.Method(i).Name)
	}
	rv := object.Indirect(reflect.ValueOf(in))
	switch rv.Kind() {
	case reflect.Struct:
		for i := 0; i < rv.NumField(); i++ {
			if f := rv.Type().Field(i); f.IsExported() {
				names = append(names, f.Name)
			}
		}
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			for _, k := range rv.MapKeys() {
				names = append(names, k.String())
			}
		}
	}
	sort.Strings(names)
	return names
}
