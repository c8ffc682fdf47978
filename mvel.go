// Package mvel is an embeddable expression language with MVEL-style syntax.
//
// Expressions are compiled once and evaluated many times against a root
// object and a set of variables:
//
//	engine := mvel.NewEngine()
//	expr, err := engine.Compile("person.name.toUpperCase()")
//	result, err := expr.Eval(ctx, nil, map[string]any{"person": p})
//
// Every property access in an expression is an adaptive site. A site starts
// out interpreted, classifying the shape of the values it sees. After a
// number of evaluations (see WithPromotionThreshold) it is compiled against
// the shapes seen so far. A compiled site that meets a new shape falls back
// to the interpreter and may be promoted again later.
//
// A compiled Expression is safe for concurrent use.
package mvel

import (
	"context"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mvel/mvel-sub010/ast"
	"github.com/mvel/mvel-sub010/cache"
	"github.com/mvel/mvel-sub010/compiler"
	"github.com/mvel/mvel-sub010/hook"
	"github.com/mvel/mvel-sub010/object"
	"github.com/mvel/mvel-sub010/optimizer"
	"github.com/mvel/mvel-sub010/parser"
)

// Engine compiles and evaluates expressions. It owns the tiering
// controller, the environment of static types and property handlers, and a
// cache of compiled expressions.
type Engine struct {
	ctrl         *optimizer.Controller
	env          *object.Env
	interceptors map[string]hook.Interceptor
	filename     string
	debugInfo    bool
	logger       zerolog.Logger
	expressions  *cache.Cache[*Expression]
	setters      *cache.Cache[*SetExpression]
}

// NewEngine returns an Engine configured by the given options.
func NewEngine(opts ...Option) *Engine {
	o := collectOptions(opts...)
	env := object.NewEnv()
	for _, t := range o.statics {
		env.RegisterStatic(t)
	}
	for t, h := range o.handlers {
		env.RegisterHandler(t, h)
	}
	env.Debugger = o.debugger
	env.MaxCallDepth = o.maxCallDepth

	logger := zerolog.Nop()
	if o.optimizer.Logger != nil {
		logger = *o.optimizer.Logger
	}
	e := &Engine{
		ctrl:         optimizer.New(o.optimizer),
		env:          env,
		interceptors: o.interceptors,
		filename:     o.filename,
		debugInfo:    o.debugInfo,
		logger:       logger,
		expressions:  cache.New[*Expression](o.cacheSize),
		setters:      cache.New[*SetExpression](o.cacheSize),
	}
	// Evicted statements may still be held by callers; their sites only
	// leave the live set.
	e.expressions.OnEvict(func(key cache.Key, expr *Expression) {
		e.ctrl.Release(expr.stmt.Sites()...)
		e.logger.Debug().Str("key", key.String()).Msg("evicted expression")
	})
	e.setters.OnEvict(func(_ cache.Key, set *SetExpression) {
		e.ctrl.Release(set.site)
	})
	return e
}

// Controller returns the engine's tiering controller.
func (e *Engine) Controller() *optimizer.Controller { return e.ctrl }

// Env returns the engine's environment.
func (e *Engine) Env() *object.Env { return e.env }

func (e *Engine) key(kind, source string) cache.Key {
	return cache.Fingerprint(kind, source, e.filename, strconv.FormatBool(e.debugInfo))
}

func (e *Engine) compilerConfig(source string) *compiler.Config {
	return &compiler.Config{
		Filename:     e.filename,
		Source:       source,
		Controller:   e.ctrl,
		Interceptors: e.interceptors,
		DebugInfo:    e.debugInfo,
	}
}

func (e *Engine) parse(source string) (*ast.Program, error) {
	var opts []parser.Option
	if e.filename != "" {
		opts = append(opts, parser.WithFilename(e.filename))
	}
	return parser.Parse(context.Background(), source, opts...)
}

// Compile parses and compiles source. Compiled expressions are cached by
// source text, so compiling the same source twice returns the same
// Expression and its access sites keep their tiering state.
func (e *Engine) Compile(source string) (*Expression, error) {
	key := e.key("expr", source)
	return e.expressions.GetOrCompile(key, func() (*Expression, error) {
		prog, err := e.parse(source)
		if err != nil {
			return nil, err
		}
		stmt, err := compiler.Compile(prog, e.compilerConfig(source))
		if err != nil {
			return nil, err
		}
		e.logger.Debug().
			Str("key", key.String()).
			Int("sites", len(stmt.Sites())).
			Msg("compiled expression")
		return &Expression{engine: e, stmt: stmt}, nil
	})
}

// CompileSetExpression compiles source as an assignment target, such as
// "person.address.city" or "items[0]".
func (e *Engine) CompileSetExpression(source string) (*SetExpression, error) {
	key := e.key("set", source)
	return e.setters.GetOrCompile(key, func() (*SetExpression, error) {
		prog, err := e.parse(source)
		if err != nil {
			return nil, err
		}
		site, err := compiler.New(e.compilerConfig(source)).CompileTarget(prog)
		if err != nil {
			return nil, err
		}
		return &SetExpression{engine: e, source: source, site: site}, nil
	})
}

// Eval compiles source (or fetches it from the cache) and evaluates it.
func (e *Engine) Eval(ctx context.Context, source string, root any, vars map[string]any) (any, error) {
	expr, err := e.Compile(source)
	if err != nil {
		return nil, err
	}
	return expr.Eval(ctx, root, vars)
}

// Deoptimize returns every compiled site of this engine to the interpreter.
func (e *Engine) Deoptimize() {
	e.ctrl.Deoptimize()
	e.logger.Info().Uint64("epoch", e.ctrl.Epoch()).Msg("deoptimized")
}

// Stats reports tiering and cache counters.
type Stats struct {
	optimizer.Stats
	Cached      int    `json:"cached"`
	CacheHits   uint64 `json:"cache_hits"`
	CacheMisses uint64 `json:"cache_misses"`
}

func (e *Engine) Stats() Stats {
	hits, misses := e.expressions.Stats()
	return Stats{
		Stats:       e.ctrl.Stats(),
		Cached:      e.expressions.Len(),
		CacheHits:   hits,
		CacheMisses: misses,
	}
}

var (
	defaultEngine     *Engine
	defaultEngineOnce sync.Once
)

// Default returns the engine used by the package-level functions.
func Default() *Engine {
	defaultEngineOnce.Do(func() {
		defaultEngine = NewEngine()
	})
	return defaultEngine
}

// Compile compiles source with the default engine.
func Compile(source string) (*Expression, error) {
	return Default().Compile(source)
}

// Eval evaluates source with the default engine.
func Eval(ctx context.Context, source string, root any, vars map[string]any) (any, error) {
	return Default().Eval(ctx, source, root, vars)
}
