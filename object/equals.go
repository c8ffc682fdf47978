package object

import (
	"math"
	"reflect"

	"github.com/segmentio/fasthash/fnv1a"
)

// Equals reports whether a and b are equal. Numbers compare by value across
// Go types, and lists and maps compare element by element.
func Equals(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if IsNumber(a) && IsNumber(b) {
		if IsFloat(a) || IsFloat(b) {
			x, _ := toFloat64(a)
			y, _ := toFloat64(b)
			return x == y
		}
		x, _ := toInt64(a)
		y, _ := toInt64(b)
		return x == y
	}
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	}
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch ra.Kind() {
	case reflect.Slice, reflect.Array:
		if rb.Kind() != reflect.Slice && rb.Kind() != reflect.Array {
			return false
		}
		if ra.Len() != rb.Len() {
			return false
		}
		for i := 0; i < ra.Len(); i++ {
			if !Equals(ra.Index(i).Interface(), rb.Index(i).Interface()) {
				return false
			}
		}
		return true
	case reflect.Map:
		if rb.Kind() != reflect.Map || ra.Len() != rb.Len() {
			return false
		}
		iter := ra.MapRange()
		for iter.Next() {
			other, ok := mapLookup(rb, iter.Key().Interface())
			if !ok || !Equals(iter.Value().Interface(), other) {
				return false
			}
		}
		return true
	}
	if ra.Type().Comparable() && rb.Type().Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

func mapLookup(m reflect.Value, key any) (any, bool) {
	if key != nil {
		k := reflect.ValueOf(key)
		if k.Type().AssignableTo(m.Type().Key()) {
			v := m.MapIndex(k)
			if v.IsValid() {
				return v.Interface(), true
			}
			return nil, false
		}
	}
	iter := m.MapRange()
	for iter.Next() {
		if Equals(iter.Key().Interface(), key) {
			return iter.Value().Interface(), true
		}
	}
	return nil, false
}

const nullHash = 0x6e756c6c

// Hash returns a 64-bit hash of v consistent with Equals: values that are
// equal hash the same. Map hashes do not depend on iteration order.
func Hash(v any) uint64 {
	switch v := v.(type) {
	case nil:
		return nullHash
	case string:
		return fnv1a.HashString64(v)
	case bool:
		if v {
			return fnv1a.HashUint64(1)
		}
		return fnv1a.HashUint64(0)
	}
	if IsNumber(v) {
		f, _ := toFloat64(v)
		if i, ok := toInt64(v); ok {
			return fnv1a.HashUint64(uint64(i))
		}
		if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1<<63 {
			return fnv1a.HashUint64(uint64(int64(f)))
		}
		return fnv1a.HashUint64(math.Float64bits(f))
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		h := fnv1a.Init64
		for i := 0; i < rv.Len(); i++ {
			h = fnv1a.AddUint64(h, Hash(rv.Index(i).Interface()))
		}
		return h
	case reflect.Map:
		var sum uint64
		iter := rv.MapRange()
		for iter.Next() {
			entry := fnv1a.AddUint64(Hash(iter.Key().Interface()), Hash(iter.Value().Interface()))
			sum += entry
		}
		return fnv1a.AddUint64(fnv1a.HashString64("map"), sum)
	case reflect.Ptr, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return fnv1a.HashUint64(uint64(rv.Pointer()))
	}
	return fnv1a.HashString64(TypeName(v) + ":" + ToString(v))
}
