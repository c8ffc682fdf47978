package optimizer

import (
	"bytes"
	"context"
	"reflect"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mvel/mvel-sub010/accessor"
	"github.com/mvel/mvel-sub010/object"
	"github.com/mvel/mvel-sub010/resolver"
)

type Person struct {
	Name string
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) record(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) count(t EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

func namePath(root string) *accessor.Path {
	return &accessor.Path{
		Source: root + ".name",
		Root:   accessor.Root{Kind: accessor.RootIdent, Name: root, Source: root},
		Segments: []accessor.Segment{
			{Kind: accessor.Property, Name: "name", Source: "name"},
		},
	}
}

func newCtx(env *object.Env, vars map[string]any) *object.Context {
	return object.NewContext(context.Background(), env, nil, resolver.NewMapResolver(vars))
}

func TestDefaults(t *testing.T) {
	c := New(Config{})
	require.Equal(t, uint(DefaultPromotionThreshold), c.Threshold())
	require.True(t, c.PromotionEnabled())
	require.False(t, c.NullSafetyDefault())
	require.Equal(t, DefaultConfig().TenureLimit, uint(c.tenure))
}

func TestPromotionAtThreshold(t *testing.T) {
	rec := &recorder{}
	c := New(Config{PromotionThreshold: 3, OnEvent: rec.record})
	site := c.Site(namePath("p"))
	ctx := newCtx(nil, map[string]any{"p": &Person{Name: "a"}})

	for i := 0; i < 2; i++ {
		v, err := site.Get(ctx)
		require.Nil(t, err)
		require.Equal(t, "a", v)
		require.Equal(t, Cold, site.Tier())
	}
	_, err := site.Get(ctx)
	require.Nil(t, err)
	require.Equal(t, Hot, site.Tier())

	v, err := site.Get(ctx)
	require.Nil(t, err)
	require.Equal(t, "a", v)

	require.Equal(t, 1, rec.count(EventPromoted))
	stats := c.Stats()
	require.Equal(t, uint64(1), stats.Promotions)
	require.Equal(t, 1, stats.Live)
	require.Equal(t, uint64(1), stats.Sites)
}

func TestSinglePromotionUnderConcurrency(t *testing.T) {
	rec := &recorder{}
	c := New(Config{PromotionThreshold: 100, OnEvent: rec.record})
	site := c.Site(namePath("p"))

	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx := newCtx(nil, map[string]any{"p": &Person{Name: "x"}})
			for i := 0; i < 50; i++ {
				v, err := site.Get(ctx)
				if err != nil || v != "x" {
					t.Errorf("got %v, %v", v, err)
					return
				}
			}
		}()
	}
	wg.Wait()

	require.Equal(t, Hot, site.Tier())
	require.Equal(t, 1, rec.count(EventPromoted))
	require.Equal(t, uint64(1), c.Stats().Promotions)
}

func TestDeoptimizeResetsUses(t *testing.T) {
	rec := &recorder{}
	c := New(Config{PromotionThreshold: 2, OnEvent: rec.record})
	site := c.Site(namePath("p"))
	ctx := newCtx(nil, map[string]any{"p": &Person{Name: "a"}})

	for i := 0; i < 2; i++ {
		_, err := site.Get(ctx)
		require.Nil(t, err)
	}
	require.Equal(t, Hot, site.Tier())

	c.Deoptimize()
	require.Equal(t, uint64(1), c.Epoch())
	require.Equal(t, 0, c.Stats().Live)

	v, err := site.Get(ctx)
	require.Nil(t, err)
	require.Equal(t, "a", v)
	require.Equal(t, Cold, site.Tier())
	require.Equal(t, uint64(1), site.Uses())
	require.Equal(t, 1, rec.count(EventDeoptimized))

	_, err = site.Get(ctx)
	require.Nil(t, err)
	require.Equal(t, Hot, site.Tier())
	require.Equal(t, 2, rec.count(EventPromoted))
}

func TestGuardMissDeoptimizes(t *testing.T) {
	c := New(Config{PromotionThreshold: 2})
	site := c.Site(namePath("x"))
	people := newCtx(nil, map[string]any{"x": &Person{Name: "p"}})
	maps := newCtx(nil, map[string]any{"x": map[string]any{"name": "m"}})

	for i := 0; i < 2; i++ {
		_, err := site.Get(people)
		require.Nil(t, err)
	}
	require.Equal(t, Hot, site.Tier())

	v, err := site.Get(maps)
	require.Nil(t, err)
	require.Equal(t, "m", v)
	require.Equal(t, Cold, site.Tier())
	require.Equal(t, uint64(0), site.Uses())
	require.Equal(t, uint64(1), c.Stats().Deopts)

	// Both shapes are now cached, so the next compiled form guards both.
	for i := 0; i < 2; i++ {
		_, err := site.Get(maps)
		require.Nil(t, err)
	}
	require.Equal(t, Hot, site.Tier())
	v, err = site.Get(people)
	require.Nil(t, err)
	require.Equal(t, "p", v)
	require.Equal(t, Hot, site.Tier())
}

type Bag map[string]any

func TestPinnedOnCompileFailure(t *testing.T) {
	rec := &recorder{}
	c := New(Config{PromotionThreshold: 2, OnEvent: rec.record})
	env := object.NewEnv()
	env.RegisterHandler(reflect.TypeOf(Bag{}), object.PropertyHandlerFuncs{
		GetFunc: func(name string, _ any, _ resolver.Resolver) (any, error) { return name, nil },
	})
	site := c.Site(namePath("b"))
	ctx := newCtx(env, map[string]any{"b": Bag{}})

	for i := 0; i < 5; i++ {
		v, err := site.Get(ctx)
		require.Nil(t, err)
		require.Equal(t, "name", v)
	}
	require.Equal(t, ColdPinned, site.Tier())
	require.Equal(t, 1, rec.count(EventPinned))
	require.Equal(t, uint64(1), c.Stats().Pinned)
}

func TestUnstableSiteIsRetried(t *testing.T) {
	c := New(Config{PromotionThreshold: 2})
	path := &accessor.Path{
		Root: accessor.Root{Kind: accessor.RootIdent, Name: "a"},
		Segments: []accessor.Segment{
			{Kind: accessor.Property, Name: "name", NullSafe: true},
		},
	}
	site := c.Site(path)
	null := newCtx(nil, map[string]any{"a": nil})
	for i := 0; i < 2; i++ {
		v, err := site.Get(null)
		require.Nil(t, err)
		require.Nil(t, v)
	}
	require.Equal(t, Cold, site.Tier())
	require.Equal(t, uint64(0), site.Uses())

	ctx := newCtx(nil, map[string]any{"a": &Person{Name: "n"}})
	for i := 0; i < 2; i++ {
		_, err := site.Get(ctx)
		require.Nil(t, err)
	}
	require.Equal(t, Hot, site.Tier())
}

func TestOverload(t *testing.T) {
	rec := &recorder{}
	c := New(Config{PromotionThreshold: 1, TenureLimit: 2, OnEvent: rec.record})
	ctx := newCtx(nil, map[string]any{
		"a": &Person{}, "b": &Person{}, "c": &Person{},
	})

	var sites []*Site
	for _, name := range []string{"a", "b", "c"} {
		site := c.Site(namePath(name))
		_, err := site.Get(ctx)
		require.Nil(t, err)
		sites = append(sites, site)
	}
	require.True(t, c.Overloaded())
	require.False(t, c.PromotionEnabled())
	require.Equal(t, Hot, sites[0].Tier())
	require.Equal(t, Hot, sites[1].Tier())
	require.Equal(t, Cold, sites[2].Tier())
	require.Equal(t, 1, rec.count(EventOverloaded))

	c.Reclaim()
	require.False(t, c.Overloaded())
	_, err := sites[2].Get(ctx)
	require.Nil(t, err)
	require.Equal(t, Hot, sites[2].Tier())
}

func TestDisablePromotion(t *testing.T) {
	c := New(Config{PromotionThreshold: 1})
	c.DisablePromotion()
	site := c.Site(namePath("p"))
	ctx := newCtx(nil, map[string]any{"p": &Person{}})

	_, err := site.Get(ctx)
	require.Nil(t, err)
	require.Equal(t, Cold, site.Tier())

	c.EnablePromotion()
	_, err = site.Get(ctx)
	require.Nil(t, err)
	require.Equal(t, Hot, site.Tier())

	c.SetThreshold(0)
	require.Equal(t, uint(DefaultPromotionThreshold), c.Threshold())
}

func TestSetThroughSite(t *testing.T) {
	c := New(Config{PromotionThreshold: 1})
	site := c.Site(namePath("p"))
	p := &Person{Name: "a"}
	ctx := newCtx(nil, map[string]any{"p": p})

	_, err := site.Get(ctx)
	require.Nil(t, err)
	require.Equal(t, Hot, site.Tier())

	v, err := site.Set(ctx, "b")
	require.Nil(t, err)
	require.Equal(t, "b", v)
	require.Equal(t, "b", p.Name)

	m := map[string]any{}
	_, err = site.Set(newCtx(nil, map[string]any{"p": m}), "c")
	require.Nil(t, err)
	require.Equal(t, "c", m["name"])
	require.Equal(t, Cold, site.Tier())
}

func TestEventsAreLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	c := New(Config{PromotionThreshold: 1, Logger: &logger})
	site := c.Site(namePath("p"))
	_, err := site.Get(newCtx(nil, map[string]any{"p": &Person{}}))
	require.Nil(t, err)
	require.Contains(t, buf.String(), `"event":"promoted"`)
	require.Contains(t, buf.String(), `"path":"p.name"`)
}

type Cursor struct {
	calls int
	asMap bool
}

func (c *Cursor) Next() any {
	c.calls++
	if c.asMap {
		return map[string]any{"name": "m"}
	}
	return &Person{Name: "p"}
}

func TestGuardMissDoesNotRepeatSteps(t *testing.T) {
	c := New(Config{PromotionThreshold: 3})
	site := c.Site(&accessor.Path{
		Root: accessor.Root{Kind: accessor.RootIdent, Name: "cur"},
		Segments: []accessor.Segment{
			{Kind: accessor.Call, Name: "next"},
			{Kind: accessor.Property, Name: "name"},
		},
	})
	cur := &Cursor{}
	ctx := newCtx(nil, map[string]any{"cur": cur})
	for i := 0; i < 3; i++ {
		_, err := site.Get(ctx)
		require.Nil(t, err)
	}
	require.Equal(t, Hot, site.Tier())

	cur.asMap = true
	cur.calls = 0
	v, err := site.Get(ctx)
	require.Nil(t, err)
	require.Equal(t, "m", v)
	require.Equal(t, 1, cur.calls)
	require.Equal(t, Cold, site.Tier())
}

func TestLoweredThresholdPromotes(t *testing.T) {
	c := New(Config{PromotionThreshold: 10})
	site := c.Site(namePath("p"))
	ctx := newCtx(nil, map[string]any{"p": &Person{Name: "a"}})
	for i := 0; i < 5; i++ {
		_, err := site.Get(ctx)
		require.Nil(t, err)
	}
	require.Equal(t, Cold, site.Tier())

	c.SetThreshold(3)
	_, err := site.Get(ctx)
	require.Nil(t, err)
	require.Equal(t, Hot, site.Tier())
	require.Equal(t, uint64(1), c.Stats().Promotions)
}

func TestWriteOnlySitePromotes(t *testing.T) {
	c := New(Config{PromotionThreshold: 3})
	site := c.Site(namePath("p"))
	p := &Person{}
	ctx := newCtx(nil, map[string]any{"p": p})
	for i := 0; i < 3; i++ {
		_, err := site.Set(ctx, "a")
		require.Nil(t, err)
	}
	require.Equal(t, Hot, site.Tier())

	v, err := site.Set(ctx, "b")
	require.Nil(t, err)
	require.Equal(t, "b", v)
	require.Equal(t, "b", p.Name)
	require.Equal(t, Hot, site.Tier())
}

func TestReleaseDropsLiveSites(t *testing.T) {
	c := New(Config{PromotionThreshold: 1})
	site := c.Site(namePath("p"))
	ctx := newCtx(nil, map[string]any{"p": &Person{}})
	_, err := site.Get(ctx)
	require.Nil(t, err)
	require.Equal(t, 1, c.Stats().Live)

	c.Release(site)
	require.Equal(t, 0, c.Stats().Live)
	require.Equal(t, Hot, site.Tier())

	// The epoch check still reverts a released site.
	c.Deoptimize()
	_, err = site.Get(ctx)
	require.Nil(t, err)
	require.Equal(t, uint64(1), c.Stats().Deopts)
}
