package object

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mvel/mvel-sub010/errors"
	"github.com/mvel/mvel-sub010/op"
)

func TestNumberTower(t *testing.T) {
	tests := []struct {
		name     string
		op       op.BinaryOpType
		a, b     any
		expected any
	}{
		{"int+int", op.Add, 10, 5, 15},
		{"int+int64", op.Add, 10, int64(5), int64(15)},
		{"int32*int8", op.Multiply, int32(3), int8(4), int64(12)},
		{"int+float", op.Add, 1, 0.5, 1.5},
		{"float32-int", op.Subtract, float32(2), 1, float64(1)},
		{"int/int truncates", op.Divide, 7, 2, 3},
		{"negative truncates", op.Divide, -7, 2, -3},
		{"float/int", op.Divide, 7.0, 2, 3.5},
		{"mod", op.Modulo, 7, 3, 1},
		{"float mod", op.Modulo, 7.5, 2, 1.5},
		{"pow", op.Power, 2, 10, 1024},
		{"negative pow", op.Power, 2, -1, 0.5},
		{"uint", op.Add, uint8(200), uint8(100), int64(300)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BinaryOp(tt.op, tt.a, tt.b)
			require.NoError(t, err)
			require.Equal(t, tt.expected, got)
		})
	}
}

func TestDivisionByZero(t *testing.T) {
	for _, tc := range []struct {
		op   op.BinaryOpType
		a, b any
	}{
		{op.Divide, 1, 0},
		{op.Modulo, 1, 0},
		{op.Divide, 1.5, 0.0},
	} {
		_, err := BinaryOp(tc.op, tc.a, tc.b)
		require.Error(t, err)
		require.True(t, stderrors.Is(err, errors.ErrArithmetic))
	}
}

func TestStringConcat(t *testing.T) {
	got, err := BinaryOp(op.Add, "a", 1)
	require.NoError(t, err)
	require.Equal(t, "a1", got)

	got, err = BinaryOp(op.Add, 1.5, "x")
	require.NoError(t, err)
	require.Equal(t, "1.5x", got)

	got, err = BinaryOp(op.Add, nil, "x")
	require.NoError(t, err)
	require.Equal(t, "nullx", got)

	_, err = BinaryOp(op.Subtract, "a", 1)
	require.Error(t, err)
	require.True(t, stderrors.Is(err, errors.ErrType))
}

func TestLogicalAndContains(t *testing.T) {
	got, err := BinaryOp(op.And, 1, "")
	require.NoError(t, err)
	require.Equal(t, false, got)

	got, err = BinaryOp(op.Or, 0, []int{1})
	require.NoError(t, err)
	require.Equal(t, true, got)

	ok, err := Contains("hello", "ell")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = Contains([]any{1, "two"}, int64(1))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = Contains(map[string]int{"a": 1}, "b")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = Contains(map[int]string{3: "x"}, int64(3))
	require.NoError(t, err)
	require.True(t, ok)

	_, err = Contains(nil, 1)
	require.True(t, stderrors.Is(err, errors.ErrNullTarget))

	_, err = Contains(42, 1)
	require.True(t, stderrors.Is(err, errors.ErrType))
}

func TestUnary(t *testing.T) {
	got, err := UnaryOp(op.Negative, 3)
	require.NoError(t, err)
	require.Equal(t, -3, got)

	got, err = UnaryOp(op.Negative, int16(3))
	require.NoError(t, err)
	require.Equal(t, int64(-3), got)

	got, err = UnaryOp(op.Not, "")
	require.NoError(t, err)
	require.Equal(t, true, got)

	_, err = UnaryOp(op.Negative, "x")
	require.Error(t, err)
}

func TestCompare(t *testing.T) {
	tests := []struct {
		op       op.CompareOpType
		a, b     any
		expected bool
	}{
		{op.LessThan, 1, 2, true},
		{op.LessThan, 2.5, int64(2), false},
		{op.GreaterThanOrEqual, 3, 3.0, true},
		{op.LessThanOrEqual, "abc", "abd", true},
		{op.Equal, 1, 1.0, true},
		{op.Equal, nil, nil, true},
		{op.NotEqual, "1", 1, true},
		{op.GreaterThan, true, false, true},
	}
	for _, tt := range tests {
		got, err := CompareOp(tt.op, tt.a, tt.b)
		require.NoError(t, err)
		require.Equal(t, tt.expected, got, "%v %s %v", tt.a, tt.op, tt.b)
	}
	_, err := CompareOp(op.LessThan, "a", 1)
	require.Error(t, err)
}
