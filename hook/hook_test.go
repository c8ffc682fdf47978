package hook

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mvel/mvel-sub010/resolver"
)

func TestActionString(t *testing.T) {
	require.Equal(t, "normal", Normal.String())
	require.Equal(t, "skip", Skip.String())
	require.Equal(t, "end", End.String())
	require.Equal(t, "unknown", Action(9).String())
}

func TestFuncs(t *testing.T) {
	var seen any
	f := Funcs{AfterFunc: func(result any, scope resolver.Resolver) Action {
		seen = result
		return End
	}}
	require.Equal(t, Normal, f.Before(nil))
	require.Equal(t, End, f.After(3, nil))
	require.Equal(t, 3, seen)
}

func TestBreakpoints(t *testing.T) {
	var hits []int
	bp := NewBreakpoints(func(frame Frame) Action {
		hits = append(hits, frame.Line)
		return End
	})
	bp.Set("main.mvel", 2)
	bp.Set("", 5)

	require.Equal(t, Normal, bp.OnLine(Frame{SourceName: "main.mvel", Line: 1}))
	require.Equal(t, End, bp.OnLine(Frame{SourceName: "main.mvel", Line: 2}))
	require.Equal(t, Normal, bp.OnLine(Frame{SourceName: "other.mvel", Line: 2}))
	require.Equal(t, End, bp.OnLine(Frame{SourceName: "other.mvel", Line: 5}))
	require.Equal(t, []int{2, 5}, hits)

	bp.Clear("main.mvel", 2)
	require.False(t, bp.Has("main.mvel", 2))
}

func TestSkipped(t *testing.T) {
	require.Equal(t, "<skipped>", Skipped.(interface{ String() string }).String())
}
