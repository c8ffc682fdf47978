package object

import (
	"math"
	"reflect"
	"strings"

	"github.com/mvel/mvel-sub010/errors"
	"github.com/mvel/mvel-sub010/op"
)

// BinaryOp applies an arithmetic or membership operation. The logical
// operators are short-circuited by the caller and are evaluated here only on
// already computed operands.
func BinaryOp(opType op.BinaryOpType, a, b any) (any, error) {
	switch opType {
	case op.And:
		return Truthy(a) && Truthy(b), nil
	case op.Or:
		return Truthy(a) || Truthy(b), nil
	case op.Contains:
		return Contains(a, b)
	case op.Add:
		_, aStr := a.(string)
		_, bStr := b.(string)
		if aStr || bStr {
			return ToString(a) + ToString(b), nil
		}
	}
	if !IsNumber(a) || !IsNumber(b) {
		return nil, errors.Errorf(errors.KindType,
			"unsupported operation for %s: %s on type %s", TypeName(a), opType, TypeName(b))
	}
	if IsFloat(a) || IsFloat(b) {
		x, _ := toFloat64(a)
		y, _ := toFloat64(b)
		return floatOp(opType, x, y)
	}
	x, _ := toInt64(a)
	y, _ := toInt64(b)
	result, err := intOp(opType, x, y)
	if err != nil {
		return nil, err
	}
	_, aInt := a.(int)
	_, bInt := b.(int)
	if i, ok := result.(int64); ok && aInt && bInt {
		return int(i), nil
	}
	return result, nil
}

func intOp(opType op.BinaryOpType, x, y int64) (any, error) {
	switch opType {
	case op.Add:
		return x + y, nil
	case op.Subtract:
		return x - y, nil
	case op.Multiply:
		return x * y, nil
	case op.Divide:
		if y == 0 {
			return nil, errors.Errorf(errors.KindArithmetic, "division by zero")
		}
		return x / y, nil
	case op.Modulo:
		if y == 0 {
			return nil, errors.Errorf(errors.KindArithmetic, "modulo by zero")
		}
		return x % y, nil
	case op.Power:
		if y < 0 {
			return math.Pow(float64(x), float64(y)), nil
		}
		result := int64(1)
		for ; y > 0; y-- {
			result *= x
		}
		return result, nil
	}
	return nil, errors.Errorf(errors.KindInvalidOperation, "unsupported operation: %s", opType)
}

func floatOp(opType op.BinaryOpType, x, y float64) (any, error) {
	switch opType {
	case op.Add:
		return x + y, nil
	case op.Subtract:
		return x - y, nil
	case op.Multiply:
		return x * y, nil
	case op.Divide:
		if y == 0 {
			return nil, errors.Errorf(errors.KindArithmetic, "division by zero")
		}
		return x / y, nil
	case op.Modulo:
		if y == 0 {
			return nil, errors.Errorf(errors.KindArithmetic, "modulo by zero")
		}
		return math.Mod(x, y), nil
	case op.Power:
		return math.Pow(x, y), nil
	}
	return nil, errors.Errorf(errors.KindInvalidOperation, "unsupported operation: %s", opType)
}

// UnaryOp applies a prefix operation.
func UnaryOp(opType op.UnaryOpType, v any) (any, error) {
	switch opType {
	case op.Not:
		return !Truthy(v), nil
	case op.Negative:
		switch v := v.(type) {
		case int:
			return -v, nil
		case float64:
			return -v, nil
		case float32:
			return -float64(v), nil
		}
		if i, ok := toInt64(v); ok {
			return -i, nil
		}
		return nil, errors.Errorf(errors.KindType, "bad operand type for unary -: %s", TypeName(v))
	}
	return nil, errors.Errorf(errors.KindInvalidOperation, "unsupported operation: %s", opType)
}

// Compare orders two numbers or two strings, returning -1, 0 or 1.
func Compare(a, b any) (int, error) {
	if IsNumber(a) && IsNumber(b) {
		if IsFloat(a) || IsFloat(b) {
			x, _ := toFloat64(a)
			y, _ := toFloat64(b)
			return cmp(x, y), nil
		}
		x, _ := toInt64(a)
		y, _ := toInt64(b)
		return cmp(x, y), nil
	}
	if x, ok := a.(string); ok {
		if y, ok := b.(string); ok {
			return strings.Compare(x, y), nil
		}
	}
	if x, ok := a.(bool); ok {
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0, nil
			case !x:
				return -1, nil
			}
			return 1, nil
		}
	}
	return 0, errors.Errorf(errors.KindType,
		"unable to compare %s and %s", TypeName(a), TypeName(b))
}

func cmp[T int64 | float64](x, y T) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

// CompareOp evaluates a comparison. Equality is defined by Equals and works
// on any pair of values; ordering requires comparable operands.
func CompareOp(opType op.CompareOpType, a, b any) (bool, error) {
	switch opType {
	case op.Equal:
		return Equals(a, b), nil
	case op.NotEqual:
		return !Equals(a, b), nil
	}
	c, err := Compare(a, b)
	if err != nil {
		return false, err
	}
	switch opType {
	case op.LessThan:
		return c < 0, nil
	case op.LessThanOrEqual:
		return c <= 0, nil
	case op.GreaterThan:
		return c > 0, nil
	case op.GreaterThanOrEqual:
		return c >= 0, nil
	}
	return false, errors.Errorf(errors.KindInvalidOperation, "unsupported comparison: %s", opType)
}

// Contains reports whether container holds item: a substring of a string, an
// element of a list or a key of a map.
func Contains(container, item any) (bool, error) {
	if s, ok := container.(string); ok {
		return strings.Contains(s, ToString(item)), nil
	}
	if container == nil {
		return false, errors.Errorf(errors.KindNullTarget, "contains on null")
	}
	rv := reflect.ValueOf(container)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if Equals(rv.Index(i).Interface(), item) {
				return true, nil
			}
		}
		return false, nil
	case reflect.Map:
		if item != nil {
			key := reflect.ValueOf(item)
			if key.Type().AssignableTo(rv.Type().Key()) {
				return rv.MapIndex(key).IsValid(), nil
			}
		}
		iter := rv.MapRange()
		for iter.Next() {
			if Equals(iter.Key().Interface(), item) {
				return true, nil
			}
		}
		return false, nil
	}
	return false, errors.Errorf(errors.KindType, "%s does not support contains", TypeName(container))
}
