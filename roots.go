package proppath

// Roots is the ordered set of named input trees available to an expression.
// The first-declared entry is the implicit default root. Order matters, so
// Roots is built incrementally rather than from a Go map.
type Roots struct {
	names []string
	vals  []any
}

// NewRoots returns an empty root set.
func NewRoots() *Roots {
	return &Roots{}
}

// RootsOf builds a root set holding a single named tree.
func RootsOf(name string, tree any) *Roots {
	return NewRoots().Set(name, tree)
}

// Set adds a named tree, replacing the value (but keeping the position) of
// an already-declared name. It returns the receiver for chaining.
func (r *Roots) Set(name string, tree any) *Roots {
	for i, n := range r.names {
		if n == name {
			r.vals[i] = tree
			return r
		}
	}
	r.names = append(r.names, name)
	r.vals = append(r.vals, tree)
	return r
}

// Get looks up a named tree.
func (r *Roots) Get(name string) (any, bool) {
	for i, n := range r.names {
		if n == name {
			return r.vals[i], true
		}
	}
	return nil, false
}

// Names returns the declared root names in order.
func (r *Roots) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len reports the number of declared roots.
func (r *Roots) Len() int {
	return len(r.names)
}
