package checkpointer

import (
	"context"
	"sync"
)

// Memory keeps the checkpoint in process memory. It is used for dry runs and tests.
type Memory struct {
	mu     sync.Mutex
	height uint64
	exists bool
	writes []uint64
}

func NewMemory() *Memory {
	return &Memory{}
}

// NewMemoryAt returns a Memory checkpointer that already holds height.
func NewMemoryAt(height uint64) *Memory {
	return &Memory{height: height, exists: true}
}

func (m *Memory) Initialize(context.Context) error { return nil }

func (m *Memory) Write(_ context.Context, height uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.height = height
	m.exists = true
	m.writes = append(m.writes, height)
	return nil
}

func (m *Memory) Read(context.Context) (uint64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.height, m.exists, nil
}

func (m *Memory) Remove(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.height = 0
	m.exists = false
	return nil
}

// Writes returns every height written so far, in order.
func (m *Memory) Writes() []uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]uint64, len(m.writes))
	copy(out, m.writes)
	return out
}

var _ Checkpointer = (*Memory)(nil)
