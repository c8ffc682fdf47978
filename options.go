package mvel

import (
	"reflect"

	"github.com/rs/zerolog"

	"github.com/mvel/mvel-sub010/hook"
	"github.com/mvel/mvel-sub010/object"
	"github.com/mvel/mvel-sub010/optimizer"
)

// DefaultCacheSize is the default number of compiled expressions an Engine
// keeps.
const DefaultCacheSize = 512

// Option configures an Engine.
type Option func(*options)

type options struct {
	optimizer    optimizer.Config
	statics      []*object.StaticType
	handlers     map[reflect.Type]object.PropertyHandler
	interceptors map[string]hook.Interceptor
	debugger     hook.Debugger
	debugInfo    bool
	filename     string
	cacheSize    int
	maxCallDepth int
}

func collectOptions(opts ...Option) *options {
	o := &options{
		optimizer:    optimizer.DefaultConfig(),
		handlers:     map[reflect.Type]object.PropertyHandler{},
		interceptors: map[string]hook.Interceptor{},
		cacheSize:    DefaultCacheSize,
		maxCallDepth: object.DefaultMaxCallDepth,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// WithConfig replaces the optimizer configuration. Options given after it
// (WithPromotionThreshold, WithLogger, ...) still apply on top.
func WithConfig(cfg optimizer.Config) Option {
	return func(o *options) {
		o.optimizer = cfg
	}
}

// WithPromotionThreshold sets how many interpreted evaluations an access
// site performs before it is compiled.
func WithPromotionThreshold(n uint) Option {
	return func(o *options) {
		o.optimizer.PromotionThreshold = n
	}
}

// WithTenureLimit bounds how many compiled sites may exist before the
// engine reports itself overloaded.
func WithTenureLimit(n uint) Option {
	return func(o *options) {
		o.optimizer.TenureLimit = n
	}
}

// WithNullSafety makes every property access null-safe, as if written
// with "?.".
func WithNullSafety(enabled bool) Option {
	return func(o *options) {
		o.optimizer.NullSafetyDefault = enabled
	}
}

// WithLogger sets the logger used for tier changes and compilation.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.optimizer.Logger = &logger
	}
}

// WithEventHandler registers a callback invoked on every tier change.
func WithEventHandler(fn func(optimizer.Event)) Option {
	return func(o *options) {
		o.optimizer.OnEvent = fn
	}
}

// WithStatic makes a static type (fields, methods, constructor) available
// by name, e.g. Math.max(1, 2) or new Point(1, 2).
func WithStatic(t *object.StaticType) Option {
	return func(o *options) {
		o.statics = append(o.statics, t)
	}
}

// WithPropertyHandler routes property access on values of type t through h.
// Handlers take precedence over methods, map keys and fields.
func WithPropertyHandler(t reflect.Type, h object.PropertyHandler) Option {
	return func(o *options) {
		o.handlers[t] = h
	}
}

// WithInterceptor registers an interceptor available to source code as
// @name.
func WithInterceptor(name string, i hook.Interceptor) Option {
	return func(o *options) {
		o.interceptors[name] = i
	}
}

// WithDebugInfo enables line markers in compiled expressions.
func WithDebugInfo(enabled bool) Option {
	return func(o *options) {
		o.debugInfo = enabled
	}
}

// WithDebugger sets the debugger that receives line markers. It implies
// WithDebugInfo(true).
func WithDebugger(d hook.Debugger) Option {
	return func(o *options) {
		o.debugger = d
		o.debugInfo = true
	}
}

// WithFilename sets the filename used in error messages and debugger frames.
func WithFilename(filename string) Option {
	return func(o *options) {
		o.filename = filename
	}
}

// WithCacheSize sets how many compiled expressions the engine keeps.
func WithCacheSize(n int) Option {
	return func(o *options) {
		o.cacheSize = n
	}
}

// WithMaxCallDepth bounds nested function calls.
func WithMaxCallDepth(n int) Option {
	return func(o *options) {
		o.maxCallDepth = n
	}
}
