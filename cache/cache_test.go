package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFingerprint(t *testing.T) {
	require.Equal(t, Fingerprint("x + y"), Fingerprint("x + y"))
	require.NotEqual(t, Fingerprint("x + y"), Fingerprint("x+y"))
	require.NotEqual(t, Fingerprint("ab", "c"), Fingerprint("a", "bc"))
	require.Len(t, Fingerprint("a").String(), 16)
}

func TestDefaultCapacity(t *testing.T) {
	require.Equal(t, DefaultCapacity, New[int](0).Capacity())
	require.Equal(t, 10, New[int](10).Capacity())
}

func TestSetGet(t *testing.T) {
	c := New[string](4)
	k := Fingerprint("a")
	_, ok := c.Get(k)
	require.False(t, ok)

	c.Set(k, "one")
	v, ok := c.Get(k)
	require.True(t, ok)
	require.Equal(t, "one", v)

	c.Set(k, "two")
	v, _ = c.Get(k)
	require.Equal(t, "two", v)
	require.Equal(t, 1, c.Len())

	hits, misses := c.Stats()
	require.Equal(t, uint64(2), hits)
	require.Equal(t, uint64(1), misses)
}

func TestEviction(t *testing.T) {
	c := New[int](3)
	for i, s := range []string{"a", "b", "c"} {
		c.Set(Fingerprint(s), i)
	}
	// Touch "a" so "b" becomes the oldest.
	_, ok := c.Get(Fingerprint("a"))
	require.True(t, ok)
	c.Set(Fingerprint("d"), 3)

	require.Equal(t, 3, c.Len())
	_, ok = c.Get(Fingerprint("b"))
	require.False(t, ok)
	_, ok = c.Get(Fingerprint("a"))
	require.True(t, ok)
}

func TestGetOrCompile(t *testing.T) {
	c := New[int](4)
	calls := 0
	compile := func() (int, error) {
		calls++
		return 42, nil
	}
	k := Fingerprint("x")
	for i := 0; i < 3; i++ {
		v, err := c.GetOrCompile(k, compile)
		require.Nil(t, err)
		require.Equal(t, 42, v)
	}
	require.Equal(t, 1, calls)

	boom := errors.New("boom")
	_, err := c.GetOrCompile(Fingerprint("bad"), func() (int, error) { return 0, boom })
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, c.Len())
}

func TestInvalidateAndClear(t *testing.T) {
	c := New[int](4)
	c.Set(Fingerprint("a"), 1)
	c.Set(Fingerprint("b"), 2)
	c.Invalidate(Fingerprint("a"))
	_, ok := c.Get(Fingerprint("a"))
	require.False(t, ok)
	require.Equal(t, 1, c.Len())
	c.Clear()
	require.Equal(t, 0, c.Len())
}

func TestConcurrentAccess(t *testing.T) {
	c := New[int](8)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				k := Fingerprint(string(rune('a' + (g+i)%12)))
				c.Set(k, i)
				c.Get(k)
			}
		}(g)
	}
	wg.Wait()
	require.LessOrEqual(t, c.Len(), 8)
}

func TestGetOrCompileConcurrentMiss(t *testing.T) {
	c := New[*int](4)
	var calls atomic.Int32
	release := make(chan struct{})
	compile := func() (*int, error) {
		calls.Add(1)
		<-release
		v := 7
		return &v, nil
	}
	k := Fingerprint("shared")
	results := make([]*int, 8)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.GetOrCompile(k, compile)
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = v
		}(i)
	}
	close(release)
	wg.Wait()
	require.Equal(t, int32(1), calls.Load())
	for _, v := range results[1:] {
		require.Same(t, results[0], v)
	}
}

func TestGetOrCompilePanic(t *testing.T) {
	c := New[int](4)
	k := Fingerprint("p")
	require.Panics(t, func() {
		_, _ = c.GetOrCompile(k, func() (int, error) { panic("boom") })
	})
	v, err := c.GetOrCompile(k, func() (int, error) { return 1, nil })
	require.Nil(t, err)
	require.Equal(t, 1, v)
}

func TestOnEvict(t *testing.T) {
	c := New[int](2)
	var evicted []int
	c.OnEvict(func(_ Key, v int) { evicted = append(evicted, v) })
	c.Set(Fingerprint("a"), 1)
	c.Set(Fingerprint("b"), 2)
	c.Set(Fingerprint("c"), 3)
	require.Equal(t, []int{1}, evicted)

	c.Invalidate(Fingerprint("b"))
	require.Equal(t, []int{1, 2}, evicted)

	_, err := c.GetOrCompile(Fingerprint("d"), func() (int, error) { return 4, nil })
	require.Nil(t, err)
	c.Clear()
	require.ElementsMatch(t, []int{1, 2, 3, 4}, evicted)
	require.Equal(t, 0, c.Len())
}
