package datastores

import (
	"bytes"
	"context"
	"sync"
)

// Slot is one named location in a local key-value storage.
// Read returns [ErrSlotEmpty] when nothing was ever written.
type Slot interface {
	Read(context.Context) ([]byte, error)
	Write(context.Context, []byte) error
}

// MemorySlot implements [Slot] in process memory.
type MemorySlot struct {
	mu     sync.Mutex
	value  []byte
	set    bool
	writes int
}

var _ Slot = (*MemorySlot)(nil)

// NewMemorySlot returns a slot holding value, or an empty slot when value is nil.
func NewMemorySlot(value []byte) *MemorySlot {
	return &MemorySlot{value: bytes.Clone(value), set: value != nil}
}

func (s *MemorySlot) Read(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return nil, ErrSlotEmpty
	}
	return bytes.Clone(s.value), nil
}

func (s *MemorySlot) Write(_ context.Context, b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value, s.set = bytes.Clone(b), true
	s.writes++
	return nil
}

// Writes counts the calls to Write.
func (s *MemorySlot) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
