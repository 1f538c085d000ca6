// Package evalctx holds the shared evaluation context threaded through every
// compiled step: the named roots, the diagnostic key stack, the value-history
// stack, the ambient throw mode, and the failure hooks.
package evalctx

import (
	"strings"

	"github.com/Nandan108/prop-path/internal/access"
	"github.com/Nandan108/prop-path/internal/ast"
	"github.com/Nandan108/prop-path/internal/stack"
)

// KeyFrame is one entry of the diagnostic key stack: the label of the segment
// being evaluated and the throw mode it runs under.
type KeyFrame struct {
	Label string
	Mode  ast.ThrowMode
}

// Ctx is the mutable evaluation state shared by a compiled step tree for the
// duration of one extraction call. It is not safe for concurrent use; callers
// hold one Ctx per invocation.
type Ctx struct {
	RootNames []string
	RootVals  []any

	Keys   *stack.Stack[KeyFrame]
	Values *stack.Stack[any]

	Mode     ast.ThrowMode
	Accessor access.Accessor

	// OnEvalFailure converts an evaluation failure into the host's error
	// representation. Scoped to a single invocation.
	OnEvalFailure func(*EvalError) error

	// OnParseFailure observes compile-time failures before they abort
	// compilation.
	OnParseFailure func(*SyntaxError) error
}

// New returns a context with empty stacks and the given ambient mode.
func New(mode ast.ThrowMode, acc access.Accessor) *Ctx {
	if acc == nil {
		acc = access.Default()
	}
	return &Ctx{
		Keys:     stack.NewWithCapacity[KeyFrame](8),
		Values:   stack.NewWithCapacity[any](8),
		Mode:     mode,
		Accessor: acc,
	}
}

// SetRoots installs the named input trees for one extraction call, replacing
// any previous set, and resets both stacks.
func (c *Ctx) SetRoots(names []string, vals []any) {
	c.RootNames = names
	c.RootVals = vals
	c.Keys.Reset()
	c.Values.Reset()
}

// Root resolves a named root, or the first-declared one when name is empty.
func (c *Ctx) Root(name string) (any, bool) {
	if len(c.RootNames) == 0 {
		return nil, false
	}
	if name == "" {
		return c.RootVals[0], true
	}
	for i, n := range c.RootNames {
		if n == name {
			return c.RootVals[i], true
		}
	}
	return nil, false
}

// RootMap rebuilds the root set as a map for failure snapshots.
func (c *Ctx) RootMap() map[string]any {
	if len(c.RootNames) == 0 {
		return nil
	}
	m := make(map[string]any, len(c.RootNames))
	for i, n := range c.RootNames {
		m[n] = c.RootVals[i]
	}
	return m
}

// Snapshot captures the current stack depths so sibling fallback or bracket
// branches can be rewound to a common starting point.
type Snapshot struct {
	keys   int
	values int
}

func (c *Ctx) Snapshot() Snapshot {
	return Snapshot{keys: c.Keys.Len(), values: c.Values.Len()}
}

func (c *Ctx) Rewind(s Snapshot) {
	c.Keys.TruncateTo(s.keys)
	c.Values.TruncateTo(s.values)
}

// PushKey records a segment label for property-path reporting.
func (c *Ctx) PushKey(label string, mode ast.ThrowMode) {
	c.Keys.Push(KeyFrame{Label: label, Mode: mode})
}

func (c *Ctx) PopKey() {
	c.Keys.Pop()
}

// PropertyPath renders the key stack as a human-readable dotted path.
func (c *Ctx) PropertyPath() string {
	frames := c.Keys.ToSlice()
	labels := make([]string, 0, len(frames))
	for _, f := range frames {
		labels = append(labels, f.Label)
	}
	return strings.Join(labels, ".")
}

// Fail builds an evaluation failure carrying the current property path and
// root set, routed through the per-call hook when one is installed.
func (c *Ctx) Fail(code Code, params map[string]any) error {
	e := &EvalError{
		Code:   code,
		Path:   c.PropertyPath(),
		Params: params,
		Roots:  c.RootMap(),
	}
	if c.OnEvalFailure != nil {
		if err := c.OnEvalFailure(e); err != nil {
			return err
		}
	}
	return e
}

// FailParse reports a compile-time failure through the parse hook and returns
// the error that aborts compilation.
func (c *Ctx) FailParse(e *SyntaxError) error {
	if c.OnParseFailure != nil {
		if err := c.OnParseFailure(e); err != nil {
			return err
		}
	}
	return e
}
