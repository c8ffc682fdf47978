// Package accessor implements access paths such as foo.bar[0].name: their
// interpreted execution through chains of classified steps, and the compiled
// closure pipelines that replace a chain once its shapes have stabilized.
package accessor

import (
	"strings"

	"github.com/mvel/mvel-sub010/errors"
	"github.com/mvel/mvel-sub010/object"
)

// Evaluable produces a value from an evaluation context. Arguments, index
// keys and projection items are Evaluables.
type Evaluable = object.Evaluable

// Handler is the host extension for resolving properties of specific types.
type Handler = object.PropertyHandler

// RootKind identifies what an access path starts from.
type RootKind int

const (
	// RootIdent is a bare name: a variable, a property of "this" or a
	// static type.
	RootIdent RootKind = iota
	// RootThis is the "this" keyword.
	RootThis
	// RootValue is a literal or a parenthesized sub-expression.
	RootValue
	// RootNew is an object creation: new Name(args).
	RootNew
)

// Root is the start of an access path.
type Root struct {
	Kind   RootKind
	Name   string      // RootIdent, RootNew
	Value  Evaluable   // RootValue
	Args   []Evaluable // RootNew arguments, or RootIdent call arguments
	Call   bool        // RootIdent directly followed by an argument list
	Source string
	Span   errors.SourceLocation
}

// SegmentKind identifies one step of an access path after the root.
type SegmentKind int

const (
	Property SegmentKind = iota
	Index
	Call
	Projection
)

func (k SegmentKind) String() string {
	switch k {
	case Property:
		return "property"
	case Index:
		return "index"
	case Call:
		return "call"
	case Projection:
		return "projection"
	}
	return "unknown"
}

// Segment is one step of an access path.
type Segment struct {
	Kind SegmentKind

	// Name is the property or method name. A Call with an empty name
	// invokes the current value.
	Name string

	Key    Evaluable   // Index
	Args   []Evaluable // Call
	Item   Evaluable   // Projection, evaluated with each element as "this"
	Filter Evaluable   // Projection, may be nil

	// NullSafe makes a null input short-circuit the rest of the path to
	// null instead of failing.
	NullSafe bool

	Source string
	Span   errors.SourceLocation
}

// Path is the identity of an access path: its root and segment sequence.
type Path struct {
	Source   string
	Span     errors.SourceLocation
	Root     Root
	Segments []Segment
}

func (p *Path) String() string {
	if p.Source != "" {
		return p.Source
	}
	var b strings.Builder
	switch p.Root.Kind {
	case RootThis:
		b.WriteString("this")
	case RootNew:
		b.WriteString("new ")
		b.WriteString(p.Root.Name)
		b.WriteString("(...)")
	case RootValue:
		b.WriteString("(...)")
	default:
		b.WriteString(p.Root.Name)
		if p.Root.Call {
			b.WriteString("(...)")
		}
	}
	for _, seg := range p.Segments {
		switch seg.Kind {
		case Property:
			if seg.NullSafe {
				b.WriteString("?.")
			} else {
				b.WriteString(".")
			}
			b.WriteString(seg.Name)
		case Index:
			b.WriteString("[...]")
		case Call:
			if seg.Name != "" {
				if seg.NullSafe {
					b.WriteString("?.")
				} else {
					b.WriteString(".")
				}
				b.WriteString(seg.Name)
			}
			b.WriteString("(...)")
		case Projection:
			b.WriteString(" projection")
		}
	}
	return b.String()
}
