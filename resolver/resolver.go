// Package resolver implements the variable scope chain used during
// evaluation.
//
// A chain is a singly linked list of links. Lookups walk outward from the
// innermost link until one claims the name. Each evaluation owns its chain;
// links are not safe for concurrent mutation.
package resolver

import (
	"fmt"
	"sort"

	"github.com/mvel/mvel-sub010/errors"
)

// Slot is a handle to a named variable owned by one link of a chain.
type Slot interface {
	Name() string
	Get() any
	Set(value any)
}

// Resolver is one link of a scope chain. The chain operations (IsResolvable,
// Resolve, Declare, Assign) start at the receiver and walk outward.
type Resolver interface {
	// IsResolvable reports whether any link from here outward owns name.
	IsResolvable(name string) bool

	// Resolve returns the slot of the nearest link owning name.
	Resolve(name string) (Slot, error)

	// Declare creates the variable in the innermost link that accepts
	// declarations, replacing any value it already holds there.
	Declare(name string, value any) Slot

	// Assign writes into the nearest link owning name, or declares it.
	Assign(name string, value any) Slot

	// Next returns the next outer link, or nil at the end of the chain.
	Next() Resolver

	// Append attaches next at the outer end of the chain.
	Append(next Resolver) error

	// Insert splices next (and its own chain) directly after this link.
	Insert(next Resolver) error

	// Lookup returns the slot for name when this link itself owns it.
	Lookup(name string) (Slot, bool)

	// Define creates name in this link. Links that do not hold declarations
	// return false.
	Define(name string, value any) (Slot, bool)

	// Names returns the names owned by this link.
	Names() []string

	// SetNext replaces the next link. Prefer Append and Insert, which check
	// for cycles.
	SetNext(next Resolver)
}

func isResolvable(r Resolver, name string) bool {
	for link := r; link != nil; link = link.Next() {
		if _, ok := link.Lookup(name); ok {
			return true
		}
	}
	return false
}

func resolve(r Resolver, name string) (Slot, error) {
	for link := r; link != nil; link = link.Next() {
		if slot, ok := link.Lookup(name); ok {
			return slot, nil
		}
	}
	err := errors.Errorf(errors.KindUnresolvedVariable, "unresolved variable %q", name)
	if hint := errors.FormatSuggestions(errors.SuggestSimilar(name, Names(r))); hint != "" {
		return nil, err.WithHint(hint)
	}
	return nil, err
}

func declare(r Resolver, name string, value any) Slot {
	var last Resolver
	for link := r; link != nil; link = link.Next() {
		if slot, ok := link.Define(name, value); ok {
			return slot
		}
		last = link
	}
	// No link accepts declarations: give the chain a home for them.
	home := NewMapResolver(nil)
	last.SetNext(home)
	slot, _ := home.Define(name, value)
	return slot
}

func assign(r Resolver, name string, value any) Slot {
	for link := r; link != nil; link = link.Next() {
		if slot, ok := link.Lookup(name); ok {
			slot.Set(value)
			return slot
		}
	}
	return declare(r, name, value)
}

func contains(chain, link Resolver) bool {
	for l := chain; l != nil; l = l.Next() {
		if l == link {
			return true
		}
	}
	return false
}

func last(r Resolver) Resolver {
	for r.Next() != nil {
		r = r.Next()
	}
	return r
}

func appendLink(r, next Resolver) error {
	if next == nil {
		return nil
	}
	if contains(next, r) || contains(r, next) {
		return fmt.Errorf("resolver: append would create a cycle")
	}
	last(r).SetNext(next)
	return nil
}

func insertLink(r, next Resolver) error {
	if next == nil {
		return nil
	}
	if contains(next, r) || contains(r, next) {
		return fmt.Errorf("resolver: insert would create a cycle")
	}
	rest := r.Next()
	r.SetNext(next)
	if rest != nil {
		last(next).SetNext(rest)
	}
	return nil
}

// Names returns the sorted set of names visible from r.
func Names(r Resolver) []string {
	seen := map[string]bool{}
	var names []string
	for link := r; link != nil; link = link.Next() {
		for _, name := range link.Names() {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

// Depth returns the number of links in the chain starting at r.
func Depth(r Resolver) int {
	n := 0
	for link := r; link != nil; link = link.Next() {
		n++
	}
	return n
}
