// Package optimizer decides, per access path, whether the interpreted or the
// compiled accessor runs. Sites start Cold, are compiled once they reach the
// promotion threshold, and fall back to Cold on deoptimization.
package optimizer

import (
	"sync"
	"sync/atomic"

	"github.com/ahrtr/gocontainer/set"
	"github.com/rs/zerolog"
	"github.com/tevino/abool/v2"

	"github.com/mvel/mvel-sub010/accessor"
)

// Controller owns the tiering state shared by all sites of an engine.
type Controller struct {
	threshold atomic.Uint64
	tenure    uint64
	nullSafe  bool
	logger    zerolog.Logger
	onEvent   func(Event)

	epoch atomic.Uint64

	// mu guards live, and orders promotions against Deoptimize.
	mu   sync.Mutex
	live set.Interface

	disabled   *abool.AtomicBool
	overloaded *abool.AtomicBool

	sites      atomic.Uint64
	promotions atomic.Uint64
	pinned     atomic.Uint64
	deopts     atomic.Uint64
	compiled   atomic.Uint64
	tenured    atomic.Uint64
}

// New returns a Controller for the given configuration.
func New(cfg Config) *Controller {
	cfg = cfg.normalize()
	c := &Controller{
		tenure:     uint64(cfg.TenureLimit),
		nullSafe:   cfg.NullSafetyDefault,
		logger:     *cfg.Logger,
		onEvent:    cfg.OnEvent,
		live:       set.New(),
		disabled:   abool.NewBool(false),
		overloaded: abool.NewBool(false),
	}
	c.threshold.Store(uint64(cfg.PromotionThreshold))
	return c
}

// Site creates the tiering state machine for one access path.
func (c *Controller) Site(path *accessor.Path) *Site {
	c.sites.Add(1)
	s := &Site{ctrl: c, chain: accessor.NewChain(path, c.nullSafe)}
	s.cold = &form{acc: s.chain, tier: Cold}
	s.active.Store(s.cold)
	return s
}

// NullSafetyDefault reports whether sites treat every segment as null-safe.
func (c *Controller) NullSafetyDefault() bool { return c.nullSafe }

// Epoch returns the current deoptimization epoch.
func (c *Controller) Epoch() uint64 { return c.epoch.Load() }

// Threshold returns the current promotion threshold.
func (c *Controller) Threshold() uint { return uint(c.threshold.Load()) }

// SetThreshold changes the promotion threshold for subsequent uses. Cold
// sites whose counter is already past the new threshold promote on their
// next use.
func (c *Controller) SetThreshold(n uint) {
	if n == 0 {
		n = DefaultPromotionThreshold
	}
	c.threshold.Store(uint64(n))
}

// DisablePromotion stops new promotions. Hot sites stay hot.
func (c *Controller) DisablePromotion() { c.disabled.Set() }

// EnablePromotion resumes promotions.
func (c *Controller) EnablePromotion() { c.disabled.UnSet() }

// PromotionEnabled reports whether sites may currently be promoted.
func (c *Controller) PromotionEnabled() bool {
	return !c.disabled.IsSet() && !c.overloaded.IsSet()
}

// Overloaded reports whether the tenure limit has been reached.
func (c *Controller) Overloaded() bool { return c.overloaded.IsSet() }

// Deoptimize invalidates every compiled form. Each hot site reverts to its
// interpreted form on its next use.
func (c *Controller) Deoptimize() {
	c.mu.Lock()
	defer c.mu.Unlock()
	epoch := c.epoch.Add(1)
	live := c.live.Size()
	c.live.Clear()
	c.logger.Debug().Uint64("epoch", epoch).Int("live", live).Msg("deoptimize")
}

// Reclaim deoptimizes everything and restarts the tenure count, clearing
// the overloaded state.
func (c *Controller) Reclaim() {
	c.Deoptimize()
	c.tenured.Store(0)
	c.overloaded.UnSet()
}

// Stats is a snapshot of the controller counters.
type Stats struct {
	Sites      uint64 `json:"sites"`
	Live       int    `json:"live"`
	Epoch      uint64 `json:"epoch"`
	Promotions uint64 `json:"promotions"`
	Pinned     uint64 `json:"pinned"`
	Deopts     uint64 `json:"deopts"`
	Compiled   uint64 `json:"compiled"`
	Overloaded bool   `json:"overloaded"`
	Threshold  uint   `json:"threshold"`
}

// Stats returns the current counters.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	live := c.live.Size()
	c.mu.Unlock()
	return Stats{
		Sites:      c.sites.Load(),
		Live:       live,
		Epoch:      c.epoch.Load(),
		Promotions: c.promotions.Load(),
		Pinned:     c.pinned.Load(),
		Deopts:     c.deopts.Load(),
		Compiled:   c.compiled.Load(),
		Overloaded: c.overloaded.IsSet(),
		Threshold:  c.Threshold(),
	}
}

// install publishes a compiled form under the current epoch. It holds mu so
// that a concurrent Deoptimize either precedes it (and the form carries the
// new epoch) or follows it (and clears the site from the live set).
func (c *Controller) install(s *Site, compiled *accessor.Compiled) {
	c.mu.Lock()
	s.active.Store(&form{acc: compiled, tier: Hot, epoch: c.epoch.Load()})
	c.live.Add(s)
	c.mu.Unlock()

	c.promotions.Add(1)
	c.compiled.Add(1)
	if c.tenured.Add(1) >= c.tenure && c.overloaded.SetToIf(false, true) {
		c.emit(EventOverloaded, s.chain.Path().String(), "tenure limit reached")
	}
}

// Release drops sites from the live set, for statements the caller no
// longer tracks. Released sites keep working; a hot one still reverts on the
// next Deoptimize through the epoch check.
func (c *Controller) Release(sites ...*Site) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range sites {
		c.live.Remove(s)
	}
}

func (c *Controller) forget(s *Site) {
	c.mu.Lock()
	c.live.Remove(s)
	c.mu.Unlock()
}
