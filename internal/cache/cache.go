// Package cache memoizes compiled extractors keyed by a hash of the source
// expression and the default throw mode. The cache is an injectable object
// rather than a hidden singleton, so tests can assert population without
// cross-test pollution.
package cache

import (
	"hash/fnv"
	"sync"
)

// Cache stores compiled extractors. Implementations must be safe for
// concurrent use.
type Cache interface {
	Get(key uint64) (any, bool)
	Put(key uint64, value any)
	Clear()
}

// Key hashes an expression and its default throw mode into a cache key.
func Key(source string, mode uint8) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(source))
	_, _ = h.Write([]byte{0, mode})
	return h.Sum64()
}

// Memory is the default in-memory Cache.
type Memory struct {
	mu      sync.RWMutex
	entries map[uint64]any
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[uint64]any)}
}

func (m *Memory) Get(key uint64) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	return v, ok
}

func (m *Memory) Put(key uint64, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
}

func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[uint64]any)
}

// Len reports the number of cached extractors.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
