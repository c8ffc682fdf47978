// Package hook defines the interception points offered by the evaluator:
// interceptors wrapped around individual nodes and the line-marker contract
// used by debuggers.
package hook

import (
	"sync"

	"github.com/mvel/mvel-sub010/resolver"
)

// Action tells the evaluator how to continue after a hook runs.
type Action int

const (
	// Normal continues evaluation.
	Normal Action = iota
	// Skip bypasses the wrapped node, which evaluates to Skipped.
	Skip
	// End stops the enclosing statement chain with the current result.
	End
)

func (a Action) String() string {
	switch a {
	case Normal:
		return "normal"
	case Skip:
		return "skip"
	case End:
		return "end"
	}
	return "unknown"
}

type skipped struct{}

func (skipped) String() string { return "<skipped>" }

// Skipped is the result of a node whose interceptor returned Skip.
var Skipped any = skipped{}

// Interceptor is called around the node it is attached to with "@Name".
type Interceptor interface {
	Before(scope resolver.Resolver) Action
	After(result any, scope resolver.Resolver) Action
}

// Funcs adapts plain functions to the Interceptor interface. Nil functions
// return Normal.
type Funcs struct {
	BeforeFunc func(scope resolver.Resolver) Action
	AfterFunc  func(result any, scope resolver.Resolver) Action
}

func (f Funcs) Before(scope resolver.Resolver) Action {
	if f.BeforeFunc == nil {
		return Normal
	}
	return f.BeforeFunc(scope)
}

func (f Funcs) After(result any, scope resolver.Resolver) Action {
	if f.AfterFunc == nil {
		return Normal
	}
	return f.AfterFunc(result, scope)
}

// Frame is a snapshot offered to the debugger at each line marker.
type Frame struct {
	SourceName string
	Line       int
	Scope      resolver.Resolver
}

// Debugger receives line markers from expressions compiled with debug info.
// Returning End terminates the evaluation.
type Debugger interface {
	OnLine(frame Frame) Action
}

// DebuggerFunc adapts a function to the Debugger interface.
type DebuggerFunc func(frame Frame) Action

func (f DebuggerFunc) OnLine(frame Frame) Action { return f(frame) }

// Breakpoints is a Debugger that calls OnBreak only for registered lines.
// It is safe for concurrent use.
type Breakpoints struct {
	mu      sync.RWMutex
	lines   map[string]map[int]bool
	OnBreak func(frame Frame) Action
}

// NewBreakpoints returns an empty breakpoint set calling onBreak.
func NewBreakpoints(onBreak func(frame Frame) Action) *Breakpoints {
	return &Breakpoints{lines: map[string]map[int]bool{}, OnBreak: onBreak}
}

// Set adds a breakpoint. An empty source name matches any source.
func (b *Breakpoints) Set(source string, line int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.lines[source] == nil {
		b.lines[source] = map[int]bool{}
	}
	b.lines[source][line] = true
}

// Clear removes a breakpoint.
func (b *Breakpoints) Clear(source string, line int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.lines[source], line)
}

// Has reports whether a breakpoint matches the given line.
func (b *Breakpoints) Has(source string, line int) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lines[source][line] || b.lines[""][line]
}

func (b *Breakpoints) OnLine(frame Frame) Action {
	if b.OnBreak == nil || !b.Has(frame.SourceName, frame.Line) {
		return Normal
	}
	return b.OnBreak(frame)
}
