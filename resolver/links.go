package resolver

import "sort"

// MapResolver is a link backed by a map of host variables.
type MapResolver struct {
	vars map[string]any
	next Resolver
}

// NewMapResolver returns a link backed by vars. The map is used directly,
// so assignments are visible to the host. A nil map is allocated lazily.
func NewMapResolver(vars map[string]any) *MapResolver {
	return &MapResolver{vars: vars}
}

// Variables returns the backing map.
func (m *MapResolver) Variables() map[string]any { return m.vars }

func (m *MapResolver) IsResolvable(name string) bool       { return isResolvable(m, name) }
func (m *MapResolver) Resolve(name string) (Slot, error)   { return resolve(m, name) }
func (m *MapResolver) Declare(name string, value any) Slot { return declare(m, name, value) }
func (m *MapResolver) Assign(name string, value any) Slot  { return assign(m, name, value) }
func (m *MapResolver) Next() Resolver                      { return m.next }
func (m *MapResolver) SetNext(next Resolver)               { m.next = next }
func (m *MapResolver) Append(next Resolver) error          { return appendLink(m, next) }
func (m *MapResolver) Insert(next Resolver) error          { return insertLink(m, next) }
func (m *MapResolver) Names() []string                     { return mapNames(m.vars) }
func (m *MapResolver) Define(name string, v any) (Slot, bool) {
	return defineIn(&m.vars, name, v), true
}

func (m *MapResolver) Lookup(name string) (Slot, bool) {
	if _, ok := m.vars[name]; ok {
		return &mapSlot{vars: m.vars, name: name}, true
	}
	return nil, false
}

// FunctionScope is the link pushed for each function invocation. It holds
// the parameters and locals of the call, and it stops declarations made
// inside the function from reaching the caller's scope.
type FunctionScope struct {
	vars map[string]any
	next Resolver
}

// NewFunctionScope returns an empty function scope whose outer link is
// next (usually the scope captured by the closure).
func NewFunctionScope(next Resolver) *FunctionScope {
	return &FunctionScope{vars: map[string]any{}, next: next}
}

func (f *FunctionScope) IsResolvable(name string) bool       { return isResolvable(f, name) }
func (f *FunctionScope) Resolve(name string) (Slot, error)   { return resolve(f, name) }
func (f *FunctionScope) Declare(name string, value any) Slot { return declare(f, name, value) }
func (f *FunctionScope) Assign(name string, value any) Slot  { return assign(f, name, value) }
func (f *FunctionScope) Next() Resolver                      { return f.next }
func (f *FunctionScope) SetNext(next Resolver)               { f.next = next }
func (f *FunctionScope) Append(next Resolver) error          { return appendLink(f, next) }
func (f *FunctionScope) Insert(next Resolver) error          { return insertLink(f, next) }
func (f *FunctionScope) Names() []string                     { return mapNames(f.vars) }
func (f *FunctionScope) Define(name string, v any) (Slot, bool) {
	return defineIn(&f.vars, name, v), true
}

func (f *FunctionScope) Lookup(name string) (Slot, bool) {
	if _, ok := f.vars[name]; ok {
		return &mapSlot{vars: f.vars, name: name}, true
	}
	return nil, false
}

// ItemResolver holds a single loop or projection item. It never accepts
// declarations; they pass through to the next link.
type ItemResolver struct {
	name  string
	value any
	next  Resolver
}

// NewItemResolver returns a link owning only name.
func NewItemResolver(name string, value any, next Resolver) *ItemResolver {
	return &ItemResolver{name: name, value: value, next: next}
}

// SetValue replaces the item, typically once per loop iteration.
func (it *ItemResolver) SetValue(value any) { it.value = value }

// Value returns the current item.
func (it *ItemResolver) Value() any { return it.value }

func (it *ItemResolver) IsResolvable(name string) bool       { return isResolvable(it, name) }
func (it *ItemResolver) Resolve(name string) (Slot, error)   { return resolve(it, name) }
func (it *ItemResolver) Declare(name string, value any) Slot { return declare(it, name, value) }
func (it *ItemResolver) Assign(name string, value any) Slot  { return assign(it, name, value) }
func (it *ItemResolver) Next() Resolver                      { return it.next }
func (it *ItemResolver) SetNext(next Resolver)               { it.next = next }
func (it *ItemResolver) Append(next Resolver) error          { return appendLink(it, next) }
func (it *ItemResolver) Insert(next Resolver) error          { return insertLink(it, next) }
func (it *ItemResolver) Names() []string                     { return []string{it.name} }
func (it *ItemResolver) Define(string, any) (Slot, bool)     { return nil, false }

func (it *ItemResolver) Lookup(name string) (Slot, bool) {
	if name == it.name {
		return itemSlot{it}, true
	}
	return nil, false
}

type mapSlot struct {
	vars map[string]any
	name string
}

func (s *mapSlot) Name() string  { return s.name }
func (s *mapSlot) Get() any      { return s.vars[s.name] }
func (s *mapSlot) Set(value any) { s.vars[s.name] = value }

type itemSlot struct{ it *ItemResolver }

func (s itemSlot) Name() string  { return s.it.name }
func (s itemSlot) Get() any      { return s.it.value }
func (s itemSlot) Set(value any) { s.it.value = value }

func defineIn(vars *map[string]any, name string, value any) Slot {
	if *vars == nil {
		*vars = map[string]any{}
	}
	(*vars)[name] = value
	return &mapSlot{vars: *vars, name: name}
}

func mapNames(vars map[string]any) []string {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
