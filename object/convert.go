package object

import (
	"context"
	"reflect"
	"strconv"

	"github.com/mvel/mvel-sub010/errors"
)

var (
	errorInterface   = reflect.TypeOf((*error)(nil)).Elem()
	contextInterface = reflect.TypeOf((*context.Context)(nil)).Elem()
	contextPtrType   = reflect.TypeOf((*Context)(nil))
)

// Convert returns v converted to the Go type t, as needed to pass arguments
// to Go functions and to assign into typed fields, slices and maps.
func Convert(v any, t reflect.Type) (any, error) {
	rv, err := ConvertValue(v, t)
	if err != nil {
		return nil, err
	}
	return rv.Interface(), nil
}

// ConvertValue is like Convert but returns a reflect.Value assignable to t.
func ConvertValue(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		switch t.Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, errors.Errorf(errors.KindType, "cannot assign null to %s", t)
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return toNumeric(v, t)
	case reflect.Bool:
		switch v := v.(type) {
		case bool:
			return reflect.ValueOf(v).Convert(t), nil
		case string:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return reflect.Value{}, errors.Wrap(errors.KindType, err, "cannot convert %q to bool", v)
			}
			return reflect.ValueOf(b).Convert(t), nil
		}
	case reflect.String:
		return reflect.ValueOf(ToString(v)).Convert(t), nil
	case reflect.Slice:
		return toSlice(rv, t)
	case reflect.Array:
		return toArray(rv, t)
	case reflect.Map:
		return toMap(rv, t)
	case reflect.Ptr:
		elem, err := ConvertValue(v, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(elem)
		return ptr, nil
	}
	if rv.Type().ConvertibleTo(t) && rv.Kind() == t.Kind() {
		return rv.Convert(t), nil
	}
	return reflect.Value{}, errors.Errorf(errors.KindType, "cannot convert %s to %s", TypeName(v), t)
}

func toNumeric(v any, t reflect.Type) (reflect.Value, error) {
	switch t.Kind() {
	case reflect.Float32, reflect.Float64:
		f, err := ToFloat(v)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(f).Convert(t), nil
	}
	var i int64
	if f, ok := v.(float64); ok {
		i = int64(f)
	} else if f, ok := v.(float32); ok {
		i = int64(f)
	} else {
		var err error
		if i, err = ToInt(v); err != nil {
			return reflect.Value{}, err
		}
	}
	out := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if i < 0 || out.OverflowUint(uint64(i)) {
			return reflect.Value{}, errors.Errorf(errors.KindType, "%d overflows %s", i, t)
		}
		out.SetUint(uint64(i))
	default:
		if out.OverflowInt(i) {
			return reflect.Value{}, errors.Errorf(errors.KindType, "%d overflows %s", i, t)
		}
		out.SetInt(i)
	}
	return out, nil
}

func toSlice(rv reflect.Value, t reflect.Type) (reflect.Value, error) {
	if s, ok := rv.Interface().(string); ok && t.Elem().Kind() == reflect.Uint8 {
		return reflect.ValueOf([]byte(s)).Convert(t), nil
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return reflect.Value{}, errors.Errorf(errors.KindType, "expected a list, got %s", rv.Type())
	}
	out := reflect.MakeSlice(t, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		elem, err := ConvertValue(rv.Index(i).Interface(), t.Elem())
		if err != nil {
			return reflect.Value{}, errors.Wrap(errors.KindType, err, "failed to convert element %d", i)
		}
		out = reflect.Append(out, elem)
	}
	return out, nil
}

func toArray(rv reflect.Value, t reflect.Type) (reflect.Value, error) {
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return reflect.Value{}, errors.Errorf(errors.KindType, "expected a list, got %s", rv.Type())
	}
	out := reflect.New(t).Elem()
	for i := 0; i < rv.Len() && i < t.Len(); i++ {
		elem, err := ConvertValue(rv.Index(i).Interface(), t.Elem())
		if err != nil {
			return reflect.Value{}, errors.Wrap(errors.KindType, err, "failed to convert element %d", i)
		}
		out.Index(i).Set(elem)
	}
	return out, nil
}

func toMap(rv reflect.Value, t reflect.Type) (reflect.Value, error) {
	if rv.Kind() != reflect.Map {
		return reflect.Value{}, errors.Errorf(errors.KindType, "expected a map, got %s", rv.Type())
	}
	out := reflect.MakeMapWithSize(t, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k, err := ConvertValue(iter.Key().Interface(), t.Key())
		if err != nil {
			return reflect.Value{}, err
		}
		v, err := ConvertValue(iter.Value().Interface(), t.Elem())
		if err != nil {
			return reflect.Value{}, errors.Wrap(errors.KindType, err, "failed to convert value for key %v", iter.Key())
		}
		out.SetMapIndex(k, v)
	}
	return out, nil
}
