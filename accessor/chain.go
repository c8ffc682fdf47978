package accessor

import (
	"sync/atomic"

	"github.com/mvel/mvel-sub010/errors"
	"github.com/mvel/mvel-sub010/object"
)

// MaxShapes bounds the number of input shapes a node remembers. Older
// entries are evicted first.
const MaxShapes = 8

// Node is one step position of a chain. It caches the steps it has
// classified, one per observed input shape.
type Node struct {
	Next *Node

	root     *Root
	seg      *Segment
	nullSafe bool

	shapes          atomic.Pointer[[]Step]
	classifications atomic.Uint64
	succeeded       atomic.Bool
}

// Segment returns the path segment of the node, or nil for the root node.
func (n *Node) Segment() *Segment { return n.seg }

// Steps returns a snapshot of the cached steps.
func (n *Node) Steps() []Step {
	if p := n.shapes.Load(); p != nil {
		return *p
	}
	return nil
}

// Classifications reports how many times the node ran classification.
func (n *Node) Classifications() uint64 { return n.classifications.Load() }

func (n *Node) source() (string, errors.SourceLocation) {
	if n.seg != nil {
		return n.seg.Source, n.seg.Span
	}
	return n.root.Source, n.root.Span
}

func (n *Node) locate(err error) error {
	if _, ok := err.(*ShapeMiss); ok {
		return err
	}
	src, span := n.source()
	return errors.AtSpan(err, span, src)
}

func (n *Node) nullError(prev string) error {
	src, span := n.source()
	name := src
	if n.seg != nil && n.seg.Name != "" {
		name = n.seg.Name
	}
	err := errors.Errorf(errors.KindNullTarget, "cannot access %q: %s is null", name, prev)
	err.Hint = "use ?. for null-safe access"
	return errors.AtSpan(err, span, src)
}

func (n *Node) lookup(ctx *object.Context, in any) (*Step, error) {
	t := typeOf(in)
	if p := n.shapes.Load(); p != nil {
		steps := *p
		for i := range steps {
			if steps[i].accepts(ctx, t, in) {
				return &steps[i], nil
			}
		}
	}
	step, err := n.classify(ctx, in)
	if err != nil {
		return nil, err
	}
	return n.remember(step), nil
}

// remember publishes a new step with copy-on-write so readers never see a
// partially built cache.
func (n *Node) remember(step Step) *Step {
	for {
		old := n.shapes.Load()
		var steps []Step
		if old != nil {
			steps = make([]Step, 0, len(*old)+1)
			steps = append(steps, *old...)
		}
		if len(steps) >= MaxShapes {
			steps = steps[1:]
		}
		steps = append(steps, step)
		if n.shapes.CompareAndSwap(old, &steps) {
			return &steps[len(steps)-1]
		}
	}
}

func (n *Node) read(ctx *object.Context, in any) (any, error) {
	step, err := n.lookup(ctx, in)
	if err != nil {
		return nil, err
	}
	v, err := step.read(ctx, in)
	if err == nil {
		n.markSucceeded()
	}
	return v, err
}

func (n *Node) write(ctx *object.Context, in any, value any) (any, error) {
	step, err := n.lookup(ctx, in)
	if err != nil {
		return nil, err
	}
	v, err := step.write(ctx, in, value)
	if err == nil {
		n.markSucceeded()
	}
	return v, err
}

func (n *Node) markSucceeded() {
	if !n.succeeded.Load() {
		n.succeeded.Store(true)
	}
}

// Chain is the interpreted form of a path: a linked sequence of nodes that
// classify lazily and cache their steps per input shape.
type Chain struct {
	path *Path
	head *Node
	size int
}

// NewChain builds the interpreted chain for a path. When nullSafe is set
// every segment behaves as if written with "?.".
func NewChain(path *Path, nullSafe bool) *Chain {
	c := &Chain{path: path, head: &Node{root: &path.Root}, size: 1}
	prev := c.head
	for i := range path.Segments {
		seg := &path.Segments[i]
		n := &Node{seg: seg, nullSafe: nullSafe || seg.NullSafe}
		prev.Next = n
		prev = n
		c.size++
	}
	return c
}

// Path returns the path the chain executes.
func (c *Chain) Path() *Path { return c.path }

// Nodes returns the nodes of the chain, root first.
func (c *Chain) Nodes() []*Node {
	nodes := make([]*Node, 0, c.size)
	for n := c.head; n != nil; n = n.Next {
		nodes = append(nodes, n)
	}
	return nodes
}

// Classifications reports the total classification work done by the chain.
func (c *Chain) Classifications() uint64 {
	var total uint64
	for n := c.head; n != nil; n = n.Next {
		total += n.Classifications()
	}
	return total
}

// Stable reports whether every node has classified at least one shape and
// completed a successful read or write, the precondition for Compile.
func (c *Chain) Stable() bool {
	for n := c.head; n != nil; n = n.Next {
		if n.shapes.Load() == nil || !n.succeeded.Load() {
			return false
		}
	}
	return true
}

// Eval reads the value at the end of the path.
func (c *Chain) Eval(ctx *object.Context) (any, error) { return c.Get(ctx) }

// Get reads the value at the end of the path. A null value in front of a
// null-safe segment yields null without touching the remaining nodes.
func (c *Chain) Get(ctx *object.Context) (any, error) {
	return c.getFrom(ctx, c.head, nil, "")
}

// Resume finishes a read that a compiled accessor abandoned, starting at the
// node that missed with the value that node was given. Nodes before it are
// not evaluated again.
func (c *Chain) Resume(ctx *object.Context, miss *ShapeMiss) (any, error) {
	return c.getFrom(ctx, miss.node, miss.in, miss.prev)
}

// ResumeSet finishes a write that a compiled accessor abandoned.
func (c *Chain) ResumeSet(ctx *object.Context, miss *ShapeMiss, value any) (any, error) {
	if miss.node == c.head && c.head.Next == nil {
		return c.Set(ctx, value)
	}
	return c.setFrom(ctx, miss.node, miss.in, miss.prev, value)
}

func (c *Chain) getFrom(ctx *object.Context, start *Node, v any, prev string) (any, error) {
	for n := start; n != nil; n = n.Next {
		if n != c.head && isNull(v) {
			if n.nullSafe {
				return nil, nil
			}
			return nil, n.nullError(prev)
		}
		out, err := n.read(ctx, v)
		if err != nil {
			return nil, n.locate(err)
		}
		v = out
		prev, _ = n.source()
	}
	return v, nil
}

// Set writes value at the end of the path and returns the value written,
// after conversion to the target's type. The write happens only once every
// check has passed.
func (c *Chain) Set(ctx *object.Context, value any) (any, error) {
	if c.head.Next == nil {
		v, err := c.setRoot(ctx, value)
		if err != nil {
			return nil, c.head.locate(err)
		}
		return v, nil
	}
	return c.setFrom(ctx, c.head, nil, "", value)
}

func (c *Chain) setFrom(ctx *object.Context, start *Node, v any, prev string, value any) (any, error) {
	n := start
	for ; ; n = n.Next {
		if n != c.head && isNull(v) {
			if n.nullSafe {
				return nil, nil
			}
			return nil, n.nullError(prev)
		}
		if n.Next == nil {
			break
		}
		out, err := n.read(ctx, v)
		if err != nil {
			return nil, n.locate(err)
		}
		v = out
		prev, _ = n.source()
	}
	out, err := n.write(ctx, v, value)
	if err != nil {
		return nil, n.locate(err)
	}
	return out, nil
}

// setRoot assigns a bare name: an existing variable, else a writable
// property of "this", else a new variable.
func (c *Chain) setRoot(ctx *object.Context, value any) (any, error) {
	r := c.head.root
	if r.Kind != RootIdent || r.Call {
		return nil, errors.Errorf(errors.KindInvalidOperation, "cannot assign to %s", c.path)
	}
	scope := ctx.Scope()
	if scope.IsResolvable(r.Name) {
		scope.Assign(r.Name, value)
		return value, nil
	}
	if this := ctx.This(); !isNull(this) {
		if step, err := classifyProperty(ctx, r.Name, this, true); err == nil {
			switch step.Kind {
			case Getter, MapKey, Field, HandlerStep, StaticField:
				return step.write(ctx, this, value)
			}
		}
	}
	scope.Assign(r.Name, value)
	return value, nil
}
