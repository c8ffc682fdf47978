// Package cache provides a thread-safe LRU cache for compiled statements,
// keyed by a fingerprint of the source text and the compile settings.
//
//	c := cache.New[*Expression](512)
//	expr, err := c.GetOrCompile(cache.Fingerprint(src, filename), compile)
package cache

import (
	"container/list"
	"encoding/hex"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/zeebo/blake3"
)

// DefaultCapacity is used when New is given a capacity of zero or less.
const DefaultCapacity = 256

var errCompilePanicked = errors.New("cache: compile panicked")

// Key identifies a cache entry.
type Key [32]byte

func (k Key) String() string { return hex.EncodeToString(k[:8]) }

// Fingerprint hashes the given parts into a Key. Parts are length-prefixed so
// that ("ab", "c") and ("a", "bc") produce different keys.
func Fingerprint(parts ...string) Key {
	h := blake3.New()
	var n [8]byte
	for _, p := range parts {
		l := uint64(len(p))
		for i := range n {
			n[i] = byte(l >> (8 * i))
		}
		h.Write(n[:])
		h.Write([]byte(p))
	}
	var k Key
	copy(k[:], h.Sum(nil))
	return k
}

type entry[V any] struct {
	key   Key
	value V
}

// call is a compile in progress. Waiters block on done.
type call[V any] struct {
	done  chan struct{}
	value V
	err   error
}

// Cache is an LRU cache. Once the capacity is reached the least recently
// used entry is evicted. Safe for concurrent use.
type Cache[V any] struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[Key]*list.Element
	inflight map[Key]*call[V]
	onEvict  func(Key, V)
	hits     atomic.Uint64
	misses   atomic.Uint64
}

// New creates a cache holding at most capacity entries.
func New[V any](capacity int) *Cache[V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache[V]{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[Key]*list.Element, capacity),
		inflight: map[Key]*call[V]{},
	}
}

// OnEvict registers fn to be called with every entry that leaves the cache,
// whether evicted, invalidated or cleared. fn runs without the cache lock
// held.
func (c *Cache[V]) OnEvict(fn func(Key, V)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvict = fn
}

// Get returns the value for key and marks it most recently used.
func (c *Cache[V]) Get(key Key) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getLocked(key)
}

func (c *Cache[V]) getLocked(key Key) (V, bool) {
	el, ok := c.items[key]
	if !ok {
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	c.hits.Add(1)
	c.ll.MoveToFront(el)
	return el.Value.(*entry[V]).value, true
}

// Set inserts or replaces the value for key.
func (c *Cache[V]) Set(key Key, value V) {
	c.mu.Lock()
	evicted := c.setLocked(key, value)
	fn := c.onEvict
	c.mu.Unlock()
	c.notify(fn, evicted)
}

func (c *Cache[V]) setLocked(key Key, value V) []*entry[V] {
	if el, ok := c.items[key]; ok {
		el.Value.(*entry[V]).value = value
		c.ll.MoveToFront(el)
		return nil
	}
	var evicted []*entry[V]
	if c.ll.Len() >= c.capacity {
		if e := c.evictLocked(); e != nil {
			evicted = append(evicted, e)
		}
	}
	c.items[key] = c.ll.PushFront(&entry[V]{key: key, value: value})
	return evicted
}

// GetOrCompile returns the cached value for key, or calls compile and caches
// its result. Errors are not cached. Concurrent callers missing on the same
// key wait for a single compile and share its result.
func (c *Cache[V]) GetOrCompile(key Key, compile func() (V, error)) (V, error) {
	c.mu.Lock()
	if v, ok := c.getLocked(key); ok {
		c.mu.Unlock()
		return v, nil
	}
	if cl, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		<-cl.done
		return cl.value, cl.err
	}
	cl := &call[V]{done: make(chan struct{})}
	c.inflight[key] = cl
	c.mu.Unlock()

	var evicted []*entry[V]
	var fn func(Key, V)
	returned := false
	defer func() {
		if !returned {
			cl.err = errCompilePanicked
		}
		c.mu.Lock()
		delete(c.inflight, key)
		if cl.err == nil {
			evicted = c.setLocked(key, cl.value)
		}
		fn = c.onEvict
		c.mu.Unlock()
		close(cl.done)
		c.notify(fn, evicted)
	}()
	cl.value, cl.err = compile()
	returned = true
	return cl.value, cl.err
}

// Invalidate removes a single entry.
func (c *Cache[V]) Invalidate(key Key) {
	c.mu.Lock()
	var removed []*entry[V]
	if el, ok := c.items[key]; ok {
		c.ll.Remove(el)
		delete(c.items, key)
		removed = append(removed, el.Value.(*entry[V]))
	}
	fn := c.onEvict
	c.mu.Unlock()
	c.notify(fn, removed)
}

// Clear removes all entries.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	removed := make([]*entry[V], 0, c.ll.Len())
	for el := c.ll.Front(); el != nil; el = el.Next() {
		removed = append(removed, el.Value.(*entry[V]))
	}
	c.ll.Init()
	c.items = make(map[Key]*list.Element, c.capacity)
	fn := c.onEvict
	c.mu.Unlock()
	c.notify(fn, removed)
}

func (c *Cache[V]) notify(fn func(Key, V), entries []*entry[V]) {
	if fn == nil {
		return
	}
	for _, e := range entries {
		fn(e.key, e.value)
	}
}

func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func (c *Cache[V]) Capacity() int { return c.capacity }

// Stats reports hit and miss counts since creation.
func (c *Cache[V]) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *Cache[V]) evictLocked() *entry[V] {
	el := c.ll.Back()
	if el == nil {
		return nil
	}
	c.ll.Remove(el)
	e := el.Value.(*entry[V])
	delete(c.items, e.key)
	return e
}
