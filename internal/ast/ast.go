// Package ast defines the PropPath syntax tree: fallback chains of paths,
// each path an ordered list of traversal segments.
package ast

import "regexp"

// ThrowMode controls whether a failed or null lookup aborts evaluation or
// degrades to null. The zero value means "inherit the ambient mode".
type ThrowMode uint8

const (
	ModeInherit ThrowMode = iota // no override, use the ambient mode
	ModeNever                    // absorb all failures as null
	ModeMissing                  // absence of a key/element is fatal, null values tolerated
	ModeNull                     // absence or a null value is fatal
)

func (m ThrowMode) String() string {
	switch m {
	case ModeInherit:
		return "inherit"
	case ModeNever:
		return "never"
	case ModeMissing:
		return "missing"
	case ModeNull:
		return "null"
	default:
		return "unknown"
	}
}

// Resolve returns the segment's own mode, or ambient when no override is set.
func (m ThrowMode) Resolve(ambient ThrowMode) ThrowMode {
	if m == ModeInherit {
		return ambient
	}
	return m
}

// Segment is one traversal/transform step of a path. The concrete types form
// a closed set; the compiler switches over them exhaustively.
type Segment interface {
	segment()
}

// Root selects a named input tree, or the first-declared one when Name is empty.
type Root struct {
	Name string
}

// Key is a single member/index access. Key holds a string or an int.
type Key struct {
	Key      any
	Mode     ThrowMode
	Preserve bool // '@': this segment's key becomes the path's result key
}

// Slice is a half-open range over a countable container. Nil bounds are open;
// negative bounds are relative to the container length.
type Slice struct {
	Start *int
	End   *int
	Mode  ThrowMode
}

// Bracket builds a list or associative result from one or more fallback chains,
// all evaluated against the same upstream value.
type Bracket struct {
	Chains      []Chain
	PreserveKey bool      // '@': force associative output
	Mode        ThrowMode // default mode for the bracket's elements
}

// Flatten merges one nesting level of the upstream container.
type Flatten struct {
	PreserveKeys bool
	Mode         ThrowMode
}

// RecursiveDepth is the traversal bound of the unbounded-looking '**' form.
// It guarantees termination on cyclic or very deep data.
const RecursiveDepth = 256

// OnEach applies the remainder of its path to each matched element. Depth 1
// visits direct children; RecursiveDepth makes the walk effectively unbounded.
type OnEach struct {
	Depth       int
	PreserveKey bool
	Mode        ThrowMode
}

// RegexFilter keeps container entries whose key (or stringable value) matches.
// Output keys are always preserved.
type RegexFilter struct {
	Pattern *regexp.Regexp
	ByKey   bool
	Mode    ThrowMode
}

// StackRef yields the value Index steps back in the evaluation history
// (0 = current value, 1 = its parent, ...).
type StackRef struct {
	Index int
	Mode  ThrowMode
}

func (Root) segment()        {}
func (Key) segment()         {}
func (Slice) segment()       {}
func (Bracket) segment()     {}
func (Flatten) segment()     {}
func (OnEach) segment()      {}
func (RegexFilter) segment() {}
func (StackRef) segment()    {}

// ResultKey names a path's entry in a bracket's keyed output. Exactly one of
// the fields is meaningful: a literal key, a nested path evaluated per match,
// or a key preserved from one of the path's own segments.
type ResultKey struct {
	Literal   any // string or int
	Dynamic   *Path
	Preserved bool
}

// ChainElement is either a *Path or a Literal.
type ChainElement interface {
	chainElement()
}

// Path is an ordered sequence of segments applied to a value, optionally
// tagged with a result key.
type Path struct {
	Segments []Segment
	Key      *ResultKey
}

// Literal is a value that is not looked up; it terminates fallback chains and
// serves as a dynamic-key default. A literal may still carry a result key
// declared ahead of it in a bracket chain.
type Literal struct {
	Value any // string or int
	Key   *ResultKey
}

func (*Path) chainElement()   {}
func (Literal) chainElement() {}

// Chain is an ordered list of alternatives tried in sequence until one yields
// non-null. Only the last element runs under the chain's declared throw mode.
type Chain struct {
	Elements []ChainElement
}
