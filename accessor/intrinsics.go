package accessor

import (
	"reflect"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/mvel/mvel-sub010/errors"
	"github.com/mvel/mvel-sub010/object"
)

// intrinsic is a built-in member of strings, slices, arrays and maps, such
// as list.size() or s.toUpperCase().
type intrinsic struct {
	name     string
	kinds    []reflect.Kind
	property bool // also usable without parentheses
	minArgs  int
	maxArgs  int
	impl     func(rv reflect.Value, args []any) (any, error)
}

func (in *intrinsic) fn(rv reflect.Value, args []any) (any, error) {
	if len(args) < in.minArgs || len(args) > in.maxArgs {
		if in.minArgs == in.maxArgs {
			return nil, errors.Errorf(errors.KindInvalidOperation,
				"%s() takes %d argument(s) (%d given)", in.name, in.minArgs, len(args))
		}
		return nil, errors.Errorf(errors.KindInvalidOperation,
			"%s() takes %d to %d arguments (%d given)", in.name, in.minArgs, in.maxArgs, len(args))
	}
	return in.impl(object.Indirect(rv), args)
}

var (
	collections = []reflect.Kind{reflect.Slice, reflect.Array, reflect.Map, reflect.String}
	sequences   = []reflect.Kind{reflect.Slice, reflect.Array}
	strs        = []reflect.Kind{reflect.String}
	maps        = []reflect.Kind{reflect.Map}
)

var intrinsics = map[string]*intrinsic{}

func register(in *intrinsic) {
	intrinsics[in.name] = in
}

func init() {
	size := func(rv reflect.Value, _ []any) (any, error) {
		if rv.Kind() == reflect.String {
			return utf8.RuneCountInString(rv.String()), nil
		}
		return rv.Len(), nil
	}
	empty := func(rv reflect.Value, _ []any) (any, error) { return rv.Len() == 0, nil }
	register(&intrinsic{name: "size", kinds: collections, property: true, impl: size})
	register(&intrinsic{name: "length", kinds: collections, property: true, impl: size})
	register(&intrinsic{name: "isEmpty", kinds: collections, property: true, impl: empty})
	register(&intrinsic{name: "empty", kinds: collections, property: true, impl: empty})

	register(&intrinsic{name: "contains", kinds: collections, minArgs: 1, maxArgs: 1,
		impl: func(rv reflect.Value, args []any) (any, error) {
			return object.Contains(rv.Interface(), args[0])
		}})
	register(&intrinsic{name: "containsKey", kinds: maps, minArgs: 1, maxArgs: 1,
		impl: func(rv reflect.Value, args []any) (any, error) {
			key, err := object.ConvertValue(args[0], rv.Type().Key())
			if err != nil {
				return false, nil
			}
			return rv.MapIndex(key).IsValid(), nil
		}})
	register(&intrinsic{name: "get", kinds: []reflect.Kind{reflect.Slice, reflect.Array, reflect.Map}, minArgs: 1, maxArgs: 1,
		impl: func(rv reflect.Value, args []any) (any, error) {
			if rv.Kind() == reflect.Map {
				key, err := object.ConvertValue(args[0], rv.Type().Key())
				if err != nil {
					return nil, err
				}
				if v := rv.MapIndex(key); v.IsValid() {
					return v.Interface(), nil
				}
				return nil, nil
			}
			i, err := object.ToInt(args[0])
			if err != nil {
				return nil, err
			}
			if i < 0 || i >= int64(rv.Len()) {
				return nil, errors.Errorf(errors.KindIndex, "index %d out of range [0:%d]", i, rv.Len())
			}
			return rv.Index(int(i)).Interface(), nil
		}})
	register(&intrinsic{name: "indexOf", kinds: []reflect.Kind{reflect.Slice, reflect.Array, reflect.String}, minArgs: 1, maxArgs: 1,
		impl: func(rv reflect.Value, args []any) (any, error) {
			if rv.Kind() == reflect.String {
				s := rv.String()
				i := strings.Index(s, object.ToString(args[0]))
				if i < 0 {
					return -1, nil
				}
				return utf8.RuneCountInString(s[:i]), nil
			}
			for i := 0; i < rv.Len(); i++ {
				if object.Equals(rv.Index(i).Interface(), args[0]) {
					return i, nil
				}
			}
			return -1, nil
		}})
	register(&intrinsic{name: "keySet", kinds: maps,
		impl: func(rv reflect.Value, _ []any) (any, error) {
			keys := sortedKeys(rv)
			out := make([]any, len(keys))
			for i, k := range keys {
				out[i] = k.Interface()
			}
			return out, nil
		}})
	register(&intrinsic{name: "values", kinds: maps,
		impl: func(rv reflect.Value, _ []any) (any, error) {
			keys := sortedKeys(rv)
			out := make([]any, len(keys))
			for i, k := range keys {
				out[i] = rv.MapIndex(k).Interface()
			}
			return out, nil
		}})

	stringFunc := func(name string, f func(string) string) {
		register(&intrinsic{name: name, kinds: strs,
			impl: func(rv reflect.Value, _ []any) (any, error) { return f(rv.String()), nil }})
	}
	stringFunc("toUpperCase", strings.ToUpper)
	stringFunc("toLowerCase", strings.ToLower)
	stringFunc("trim", strings.TrimSpace)

	stringTest := func(name string, f func(string, string) bool) {
		register(&intrinsic{name: name, kinds: strs, minArgs: 1, maxArgs: 1,
			impl: func(rv reflect.Value, args []any) (any, error) {
				return f(rv.String(), object.ToString(args[0])), nil
			}})
	}
	stringTest("startsWith", strings.HasPrefix)
	stringTest("endsWith", strings.HasSuffix)

	register(&intrinsic{name: "substring", kinds: strs, minArgs: 1, maxArgs: 2,
		impl: func(rv reflect.Value, args []any) (any, error) {
			runes := []rune(rv.String())
			begin, err := object.ToInt(args[0])
			if err != nil {
				return nil, err
			}
			end := int64(len(runes))
			if len(args) == 2 {
				if end, err = object.ToInt(args[1]); err != nil {
					return nil, err
				}
			}
			if begin < 0 || end > int64(len(runes)) || begin > end {
				return nil, errors.Errorf(errors.KindIndex, "substring [%d:%d] out of range for length %d", begin, end, len(runes))
			}
			return string(runes[begin:end]), nil
		}})
	register(&intrinsic{name: "charAt", kinds: strs, minArgs: 1, maxArgs: 1,
		impl: func(rv reflect.Value, args []any) (any, error) {
			i, err := object.ToInt(args[0])
			if err != nil {
				return nil, err
			}
			return runeAt(rv.String(), i)
		}})
	register(&intrinsic{name: "split", kinds: strs, minArgs: 1, maxArgs: 1,
		impl: func(rv reflect.Value, args []any) (any, error) {
			parts := strings.Split(rv.String(), object.ToString(args[0]))
			out := make([]any, len(parts))
			for i, p := range parts {
				out[i] = p
			}
			return out, nil
		}})
}

// lookupIntrinsic finds the intrinsic member name for values of type t.
func lookupIntrinsic(name string, t reflect.Type, call bool) (*intrinsic, bool) {
	in, ok := intrinsics[name]
	if !ok || (!call && !in.property) {
		return nil, false
	}
	kind := baseType(t).Kind()
	for _, k := range in.kinds {
		if k == kind {
			return in, true
		}
	}
	return nil, false
}

func sortedKeys(rv reflect.Value) []reflect.Value {
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return object.ToString(keys[i].Interface()) < object.ToString(keys[j].Interface())
	})
	return keys
}

// runeAt returns the i'th character of s as a string. Strings are indexed by
// rune, matching foreach over a string.
func runeAt(s string, i int64) (any, error) {
	if i >= 0 {
		var n int64
		for _, r := range s {
			if n == i {
				return string(r), nil
			}
			n++
		}
	}
	return nil, errors.Errorf(errors.KindIndex, "index %d out of range [0:%d]", i, utf8.RuneCountInString(s))
}
