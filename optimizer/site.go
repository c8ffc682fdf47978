package optimizer

import (
	"sync/atomic"

	"github.com/mvel/mvel-sub010/accessor"
	"github.com/mvel/mvel-sub010/errors"
	"github.com/mvel/mvel-sub010/object"
)

// Tier is the state of a site.
type Tier int

const (
	// Cold sites run the interpreted chain and count uses.
	Cold Tier = iota
	// Hot sites run a compiled accessor.
	Hot
	// ColdPinned sites failed to compile and stay interpreted for good.
	ColdPinned
)

func (t Tier) String() string {
	switch t {
	case Cold:
		return "cold"
	case Hot:
		return "hot"
	case ColdPinned:
		return "cold-pinned"
	}
	return "unknown"
}

type accessorForm interface {
	Get(ctx *object.Context) (any, error)
	Set(ctx *object.Context, value any) (any, error)
}

// form is an immutable (accessor, tier, epoch) triple. Sites swap whole
// forms, so an evaluation always runs the form it loaded.
type form struct {
	acc   accessorForm
	tier  Tier
	epoch uint64
}

// Site is the tiering state machine of one access path.
type Site struct {
	ctrl   *Controller
	chain  *accessor.Chain
	cold   *form
	active atomic.Pointer[form]
	uses   atomic.Uint64

	// promoting is held by the one goroutine attempting a promotion.
	promoting atomic.Bool
}

// Path returns the access path of the site.
func (s *Site) Path() *accessor.Path { return s.chain.Path() }

// Chain returns the interpreted chain of the site.
func (s *Site) Chain() *accessor.Chain { return s.chain }

// Tier returns the tier of the active form.
func (s *Site) Tier() Tier { return s.active.Load().tier }

// Uses returns the use counter. It restarts at zero on deoptimization.
func (s *Site) Uses() uint64 { return s.uses.Load() }

// Eval reads the value at the end of the path.
func (s *Site) Eval(ctx *object.Context) (any, error) { return s.Get(ctx) }

// Get reads the value at the end of the path with the active form. On a
// guard miss the interpreted chain takes over at the node that missed, so
// the steps already run by the compiled form are not repeated.
func (s *Site) Get(ctx *object.Context) (any, error) {
	f := s.current()
	v, err := f.acc.Get(ctx)
	if miss, ok := err.(*accessor.ShapeMiss); ok {
		s.deoptimize(f, "shape changed")
		return s.chain.Resume(ctx, miss)
	}
	s.count(f)
	return v, err
}

// Set writes value at the end of the path with the active form.
func (s *Site) Set(ctx *object.Context, value any) (any, error) {
	f := s.current()
	v, err := f.acc.Set(ctx, value)
	if miss, ok := err.(*accessor.ShapeMiss); ok {
		s.deoptimize(f, "shape changed")
		return s.chain.ResumeSet(ctx, miss, value)
	}
	s.count(f)
	return v, err
}

// current loads the active form, reverting a hot form from a stale epoch.
func (s *Site) current() *form {
	f := s.active.Load()
	if f.tier == Hot && f.epoch != s.ctrl.epoch.Load() {
		if s.active.CompareAndSwap(f, s.cold) {
			s.uses.Store(0)
			s.ctrl.deopts.Add(1)
			s.ctrl.emit(EventDeoptimized, s.chain.Path().String(), "epoch")
		}
		return s.active.Load()
	}
	return f
}

func (s *Site) count(f *form) {
	if f.tier != Cold {
		return
	}
	if s.uses.Add(1) < s.ctrl.threshold.Load() {
		return
	}
	if !s.promoting.CompareAndSwap(false, true) {
		return
	}
	defer s.promoting.Store(false)
	if s.active.Load() == f && s.uses.Load() >= s.ctrl.threshold.Load() {
		s.promote()
	}
}

// promote runs on one goroutine at a time: the one holding the promoting
// flag.
func (s *Site) promote() {
	c := s.ctrl
	if !c.PromotionEnabled() || !s.chain.Stable() {
		s.uses.Store(0)
		return
	}
	compiled, err := accessor.Compile(s.chain)
	if err != nil {
		s.active.Store(&form{acc: s.chain, tier: ColdPinned})
		c.pinned.Add(1)
		cause := err.Error()
		if e, ok := err.(*errors.EvaluationError); ok {
			cause = e.Message
		}
		c.emit(EventPinned, s.chain.Path().String(), cause)
		return
	}
	c.install(s, compiled)
	c.emit(EventPromoted, s.chain.Path().String(), "threshold")
}

func (s *Site) deoptimize(f *form, cause string) {
	if !s.active.CompareAndSwap(f, s.cold) {
		return
	}
	s.uses.Store(0)
	s.ctrl.forget(s)
	s.ctrl.deopts.Add(1)
	s.ctrl.emit(EventDeoptimized, s.chain.Path().String(), cause)
}
