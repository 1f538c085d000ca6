package stack

import (
	"testing"
)

func TestStack_New(t *testing.T) {
	s := New[int]()

	if !s.IsEmpty() {
		t.Error("New() stack should be empty")
	}

	if s.Len() != 0 {
		t.Errorf("New() stack length = %d, want 0", s.Len())
	}
}

func TestStack_NewWithCapacity(t *testing.T) {
	s := NewWithCapacity[string](10)

	if !s.IsEmpty() {
		t.Error("NewWithCapacity() stack should be empty")
	}

	if s.Len() != 0 {
		t.Errorf("NewWithCapacity() stack length = %d, want 0", s.Len())
	}
}

func TestStack_PushAndPop(t *testing.T) {
	s := New[int]()

	s.Push(1)
	s.Push(2)
	s.Push(3)

	if s.Len() != 3 {
		t.Errorf("Push() stack length = %d, want 3", s.Len())
	}

	if s.IsEmpty() {
		t.Error("Push() stack should not be empty")
	}

	// LIFO order
	val, ok := s.Pop()
	if !ok || val != 3 {
		t.Errorf("Pop() = %d, %t, want 3, true", val, ok)
	}

	val, ok = s.Pop()
	if !ok || val != 2 {
		t.Errorf("Pop() = %d, %t, want 2, true", val, ok)
	}

	val, ok = s.Pop()
	if !ok || val != 1 {
		t.Errorf("Pop() = %d, %t, want 1, true", val, ok)
	}

	val, ok = s.Pop()
	if ok || val != 0 {
		t.Errorf("Pop() from empty stack = %d, %t, want 0, false", val, ok)
	}

	if !s.IsEmpty() {
		t.Error("Pop() stack should be empty after popping all elements")
	}
}

func TestStack_Peek(t *testing.T) {
	s := New[string]()

	val, ok := s.Peek()
	if ok || val != "" {
		t.Errorf("Peek() on empty stack = %q, %t, want \"\", false", val, ok)
	}

	s.Push("first")
	s.Push("second")

	val, ok = s.Peek()
	if !ok || val != "second" {
		t.Errorf("Peek() = %q, %t, want \"second\", true", val, ok)
	}

	// Ensure peek doesn't modify stack
	if s.Len() != 2 {
		t.Errorf("Peek() changed stack length to %d, want 2", s.Len())
	}
}

func TestStack_At(t *testing.T) {
	s := New[string]()
	s.Push("bottom", "middle", "top")

	val, ok := s.At(0)
	if !ok || val != "top" {
		t.Errorf("At(0) = %q, %t, want \"top\", true", val, ok)
	}

	val, ok = s.At(1)
	if !ok || val != "middle" {
		t.Errorf("At(1) = %q, %t, want \"middle\", true", val, ok)
	}

	val, ok = s.At(2)
	if !ok || val != "bottom" {
		t.Errorf("At(2) = %q, %t, want \"bottom\", true", val, ok)
	}

	val, ok = s.At(3)
	if ok || val != "" {
		t.Errorf("At(3) past bottom = %q, %t, want \"\", false", val, ok)
	}

	val, ok = s.At(-1)
	if ok || val != "" {
		t.Errorf("At(-1) = %q, %t, want \"\", false", val, ok)
	}
}

func TestStack_TruncateTo(t *testing.T) {
	s := New[int]()
	s.Push(1, 2)

	mark := s.Len()

	s.Push(3, 4, 5)
	s.TruncateTo(mark)

	if s.Len() != 2 {
		t.Errorf("TruncateTo(%d) stack length = %d, want 2", mark, s.Len())
	}

	val, _ := s.Peek()
	if val != 2 {
		t.Errorf("After TruncateTo(), top = %d, want 2", val)
	}

	// Rewinding past the current size is a no-op
	s.TruncateTo(10)
	if s.Len() != 2 {
		t.Errorf("TruncateTo(10) stack length = %d, want 2", s.Len())
	}

	s.TruncateTo(-1)
	if !s.IsEmpty() {
		t.Error("TruncateTo(-1) should empty the stack")
	}
}

func TestStack_Reset(t *testing.T) {
	s := New[int]()
	s.Push(1, 2, 3)

	s.Reset()

	if !s.IsEmpty() {
		t.Error("Reset() stack should be empty")
	}

	s.Push(7)
	val, ok := s.Peek()
	if !ok || val != 7 {
		t.Errorf("Push() after Reset() top = %d, %t, want 7, true", val, ok)
	}
}

func TestStack_ToSlice(t *testing.T) {
	s := New[int]()
	s.Push(1)
	s.Push(2)
	s.Push(3)

	slice := s.ToSlice()

	expected := []int{1, 2, 3}
	if len(slice) != len(expected) {
		t.Errorf("ToSlice() length = %d, want %d", len(slice), len(expected))
	}

	for i, val := range expected {
		if slice[i] != val {
			t.Errorf("ToSlice()[%d] = %d, want %d", i, slice[i], val)
		}
	}

	// Ensure modifying slice doesn't affect stack
	slice[0] = 999

	bottomSlice := s.ToSlice()
	if bottomSlice[0] != 1 {
		t.Errorf("After modifying ToSlice() result, original stack changed: got %d, want 1", bottomSlice[0])
	}
}

func TestStack_Clone(t *testing.T) {
	s := New[int]()
	s.Push(1, 2, 3)

	c := s.Clone()

	c.Push(4)
	if s.Len() != 3 {
		t.Errorf("Push() on clone changed original length to %d, want 3", s.Len())
	}

	val, _ := c.Peek()
	if val != 4 {
		t.Errorf("Clone() top = %d, want 4", val)
	}
}
