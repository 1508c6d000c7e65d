package cart

import (
	"context"
	"errors"
	"sync"
)

// ErrSlotNotFound is returned by Load when nothing is stored under the slot.
var ErrSlotNotFound = errors.New("cart slot not found")

// SlotStore persists serialized carts under a named slot.
type SlotStore interface {
	Load(ctx context.Context, slot string) ([]byte, error)
	Save(ctx context.Context, slot string, payload []byte) error
	Remove(ctx context.Context, slot string) error
}

// MemoryStore keeps slots in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: make(map[string][]byte)}
}

func (s *MemoryStore) Load(_ context.Context, slot string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payload, ok := s.slots[slot]
	if !ok {
		return nil, ErrSlotNotFound
	}
	out := make([]byte, len(payload))
	copy(out, payload)
	return out, nil
}

func (s *MemoryStore) Save(_ context.Context, slot string, payload []byte) error {
	stored := make([]byte, len(payload))
	copy(stored, payload)
	s.mu.Lock()
	s.slots[slot] = stored
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, slot string) error {
	s.mu.Lock()
	delete(s.slots, slot)
	s.mu.Unlock()
	return nil
}
