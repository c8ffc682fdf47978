// Package object defines the runtime value model of the evaluator: coercion,
// arithmetic, equality and hashing over plain Go values, together with the
// evaluation Context and the Env registry passed through every evaluation.
//
// Values are ordinary Go values (any). nil is null. Numbers follow a small
// tower: int op int stays int, any other pair of integers widens to int64 and
// anything involving a float becomes float64.
package object

import (
	"fmt"
	"reflect"
	"strconv"
	"unicode/utf8"

	"github.com/mvel/mvel-sub010/errors"
)

// TypeName returns a short description of the runtime type of v.
func TypeName(v any) string {
	if v == nil {
		return "null"
	}
	return reflect.TypeOf(v).String()
}

// IsNumber reports whether v is a Go integer or float.
func IsNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, uintptr,
		float32, float64:
		return true
	}
	return false
}

// IsInteger reports whether v is a Go integer.
func IsInteger(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, uintptr:
		return true
	}
	return false
}

// IsFloat reports whether v is a float32 or float64.
func IsFloat(v any) bool {
	switch v.(type) {
	case float32, float64:
		return true
	}
	return false
}

func toInt64(v any) (int64, bool) {
	switch v := v.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), true
	case uintptr:
		return int64(v), true
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	}
	if i, ok := toInt64(v); ok {
		return float64(i), true
	}
	return 0, false
}

// ToInt converts numbers, numeric strings and bools to an int64.
func ToInt(v any) (int64, error) {
	if i, ok := toInt64(v); ok {
		return i, nil
	}
	switch v := v.(type) {
	case float64:
		return int64(v), nil
	case float32:
		return int64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		i, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, errors.Wrap(errors.KindType, err, "cannot convert %q to an integer", v)
		}
		return i, nil
	}
	return 0, errors.Errorf(errors.KindType, "expected an integer (%s given)", TypeName(v))
}

// ToFloat converts numbers and numeric strings to a float64.
func ToFloat(v any) (float64, error) {
	if f, ok := toFloat64(v); ok {
		return f, nil
	}
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, errors.Wrap(errors.KindType, err, "cannot convert %q to a number", s)
		}
		return f, nil
	}
	return 0, errors.Errorf(errors.KindType, "expected a number (%s given)", TypeName(v))
}

// ToString returns the display form of v. null renders as "null".
func ToString(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case fmt.Stringer:
		return v.String()
	case error:
		return v.Error()
	}
	if i, ok := toInt64(v); ok {
		return strconv.FormatInt(i, 10)
	}
	return fmt.Sprint(v)
}

// Truthy reports whether v counts as true in a condition. null, false, zero
// numbers, empty strings and empty collections are false.
func Truthy(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	}
	if f, ok := toFloat64(v); ok {
		return f != 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Ptr, reflect.Interface, reflect.Func:
		return !rv.IsNil()
	}
	return true
}

// Len returns the length of strings, slices, arrays and maps. Strings are
// measured in runes.
func Len(v any) (int, bool) {
	if s, ok := v.(string); ok {
		return utf8.RuneCountInString(s), true
	}
	if v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), true
	}
	return 0, false
}

// Indirect follows pointers and interfaces until a non-pointer value or nil.
func Indirect(rv reflect.Value) reflect.Value {
	for rv.IsValid() && (rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return reflect.Value{}
		}
		rv = rv.Elem()
	}
	return rv
}
