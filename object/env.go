package object

import (
	"reflect"
	"sort"
	"sync"

	"github.com/mvel/mvel-sub010/errors"
	"github.com/mvel/mvel-sub010/hook"
	"github.com/mvel/mvel-sub010/resolver"
)

// PropertyHandler resolves properties for host types the built-in
// classification does not understand (or should not be used for). A handler
// registered for a type is consulted before any built-in rule.
type PropertyHandler interface {
	GetProperty(name string, target any, scope resolver.Resolver) (any, error)
	SetProperty(name string, target any, scope resolver.Resolver, value any) (any, error)
}

// PropertyHandlerFuncs adapts functions to PropertyHandler. A nil SetFunc
// makes the properties read-only.
type PropertyHandlerFuncs struct {
	GetFunc func(name string, target any, scope resolver.Resolver) (any, error)
	SetFunc func(name string, target any, scope resolver.Resolver, value any) (any, error)
}

func (h PropertyHandlerFuncs) GetProperty(name string, target any, scope resolver.Resolver) (any, error) {
	return h.GetFunc(name, target, scope)
}

func (h PropertyHandlerFuncs) SetProperty(name string, target any, scope resolver.Resolver, value any) (any, error) {
	if h.SetFunc == nil {
		return nil, readOnlyError(name, target)
	}
	return h.SetFunc(name, target, scope, value)
}

// StaticType is a named type exposed to expressions, giving access to
// static fields, static methods and a constructor for "new Name(...)".
type StaticType struct {
	Name        string
	Fields      map[string]any
	Methods     map[string]any // Go funcs
	Constructor any            // Go func, may be nil

	mu sync.RWMutex
}

// Field returns a static field value.
func (t *StaticType) Field(name string) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.Fields[name]
	return v, ok
}

// SetField replaces an existing static field.
func (t *StaticType) SetField(name string, value any) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.Fields[name]; !ok {
		return false
	}
	t.Fields[name] = value
	return true
}

// Method returns a static method.
func (t *StaticType) Method(name string) (any, bool) {
	m, ok := t.Methods[name]
	return m, ok
}

// Env is the registry shared by all evaluations of an engine: static types,
// property handlers and the debugger. It is passed by reference through
// every evaluation; register everything before evaluating.
type Env struct {
	mu       sync.RWMutex
	statics  map[string]*StaticType
	handlers map[reflect.Type]PropertyHandler

	// Debugger receives line markers from statements compiled with debug
	// info. May be nil.
	Debugger hook.Debugger

	// MaxCallDepth bounds nested function calls.
	MaxCallDepth int
}

// NewEnv returns an empty Env.
func NewEnv() *Env {
	return &Env{
		statics:      map[string]*StaticType{},
		handlers:     map[reflect.Type]PropertyHandler{},
		MaxCallDepth: DefaultMaxCallDepth,
	}
}

// RegisterStatic makes a static type available by name.
func (e *Env) RegisterStatic(t *StaticType) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if t.Fields == nil {
		t.Fields = map[string]any{}
	}
	e.statics[t.Name] = t
}

// Static looks up a static type by name.
func (e *Env) Static(name string) (*StaticType, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	t, ok := e.statics[name]
	return t, ok
}

// StaticNames returns the names of all registered static types.
func (e *Env) StaticNames() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.statics))
	for name := range e.statics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterHandler installs a property handler for values of type t.
func (e *Env) RegisterHandler(t reflect.Type, h PropertyHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[t] = h
}

// Handler returns the property handler registered for t.
func (e *Env) Handler(t reflect.Type) (PropertyHandler, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	h, ok := e.handlers[t]
	return h, ok
}

func readOnlyError(name string, target any) error {
	return errors.Errorf(errors.KindPropertyAccess, "property %q of %s is read-only", name, TypeName(target))
}
