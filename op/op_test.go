package op

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBinaryLookup(t *testing.T) {
	tests := []struct {
		text string
		op   BinaryOpType
	}{
		{"+", Add},
		{"-", Subtract},
		{"*", Multiply},
		{"/", Divide},
		{"%", Modulo},
		{"&&", And},
		{"||", Or},
		{"**", Power},
		{"contains", Contains},
	}
	for _, tt := range tests {
		got, ok := Binary(tt.text)
		require.True(t, ok, tt.text)
		require.Equal(t, tt.op, got)
		require.Equal(t, tt.text, got.String())
	}
	_, ok := Binary("^")
	require.False(t, ok)
	require.True(t, And.IsLogical())
	require.False(t, Add.IsLogical())
}

func TestCompareLookup(t *testing.T) {
	for _, text := range []string{"<", "<=", "==", "!=", ">", ">="} {
		got, ok := Compare(text)
		require.True(t, ok)
		require.Equal(t, text, got.String())
	}
	_, ok := Compare("=")
	require.False(t, ok)
	require.Equal(t, "", CompareOpType(99).String())
}

func TestUnaryLookup(t *testing.T) {
	got, ok := Unary("!")
	require.True(t, ok)
	require.Equal(t, Not, got)
	got, ok = Unary("-")
	require.True(t, ok)
	require.Equal(t, "-", got.String())
	_, ok = Unary("+")
	require.False(t, ok)
}

func TestAssignOp(t *testing.T) {
	got, ok := AssignOp("+=")
	require.True(t, ok)
	require.Equal(t, Add, got)
	got, ok = AssignOp("/=")
	require.True(t, ok)
	require.Equal(t, Divide, got)
	_, ok = AssignOp("=")
	require.False(t, ok)
	_, ok = AssignOp("==")
	require.False(t, ok)
}
