package sequence

import (
	"context"
	"sync"
)

// Memory is an in-process allocator keyed by prefix. It backs the
// no-database mode and tests.
type Memory struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewMemory creates an empty allocator.
func NewMemory() *Memory {
	return &Memory{counters: make(map[string]int64)}
}

// Next returns the next number in the prefix stream, starting at 1.
func (m *Memory) Next(_ context.Context, prefix string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[prefix]++
	return m.counters[prefix], nil
}
