package cache

import (
	"sync"
	"testing"
)

func TestKey(t *testing.T) {
	if Key("a.b", 0) == Key("a.b", 1) {
		t.Error("Key() should separate identical sources with different modes")
	}
	if Key("a.b", 0) == Key("a.c", 0) {
		t.Error("Key() should separate different sources")
	}
	if Key("a.b", 2) != Key("a.b", 2) {
		t.Error("Key() should be deterministic")
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory()

	if _, ok := m.Get(1); ok {
		t.Error("Get() on empty cache should miss")
	}

	m.Put(1, "compiled")
	v, ok := m.Get(1)
	if !ok || v != "compiled" {
		t.Errorf("Get(1) = %v, %t, want compiled, true", v, ok)
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}

	// Overwrite keeps one entry.
	m.Put(1, "recompiled")
	v, _ = m.Get(1)
	if v != "recompiled" {
		t.Errorf("Get(1) after overwrite = %v, want recompiled", v)
	}
	if m.Len() != 1 {
		t.Errorf("Len() after overwrite = %d, want 1", m.Len())
	}

	m.Clear()
	if m.Len() != 0 {
		t.Errorf("Len() after Clear() = %d, want 0", m.Len())
	}
	if _, ok := m.Get(1); ok {
		t.Error("Get() after Clear() should miss")
	}
}

func TestMemory_Concurrent(t *testing.T) {
	m := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := Key("expr", uint8(n%4))
				m.Put(key, n)
				m.Get(key)
			}
		}(i)
	}
	wg.Wait()

	if m.Len() != 4 {
		t.Errorf("Len() = %d, want 4 distinct keys", m.Len())
	}
}
