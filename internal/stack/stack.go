package stack

import (
	"slices"
)

// Stack is a LIFO collection with snapshot/rewind support, used by the
// evaluation context for key-path and value-history bookkeeping.
type Stack[T any] struct {
	items []T
}

func New[T any]() *Stack[T] {
	return &Stack[T]{}
}

// NewWithCapacity reduces allocations when approximate stack size is known.
func NewWithCapacity[T any](capacity int) *Stack[T] {
	return &Stack[T]{
		items: make([]T, 0, capacity),
	}
}

// Push adds elements in order with the last element at the top.
func (s *Stack[T]) Push(items ...T) {
	s.items = append(s.items, items...)
}

func (s *Stack[T]) Pop() (T, bool) {
	if len(s.items) == 0 {
		var zero T
		return zero, false
	}

	index := len(s.items) - 1
	item := s.items[index]
	s.items = s.items[:index]
	return item, true
}

func (s *Stack[T]) Peek() (T, bool) {
	if len(s.items) == 0 {
		var zero T
		return zero, false
	}

	return s.items[len(s.items)-1], true
}

func (s *Stack[T]) IsEmpty() bool {
	return len(s.items) == 0
}

func (s *Stack[T]) Len() int {
	return len(s.items)
}

// At returns the element depth positions below the top (0 = top).
func (s *Stack[T]) At(depth int) (T, bool) {
	if depth < 0 || depth >= len(s.items) {
		var zero T
		return zero, false
	}

	return s.items[len(s.items)-1-depth], true
}

// TruncateTo discards elements above the given length, rewinding the stack
// to a snapshot previously taken with Len. Lengths at or above the current
// size are no-ops.
func (s *Stack[T]) TruncateTo(n int) {
	if n < 0 {
		n = 0
	}
	if n < len(s.items) {
		s.items = s.items[:n]
	}
}

func (s *Stack[T]) Reset() {
	s.items = s.items[:0]
}

// ToSlice orders from bottom to top of the stack.
func (s *Stack[T]) ToSlice() []T {
	return slices.Clone(s.items)
}

func (s *Stack[T]) Clone() *Stack[T] {
	return &Stack[T]{
		items: slices.Clone(s.items),
	}
}
