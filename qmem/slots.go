package qmem

import "sync"

// SlotStore is the fixed-depth array of per-slot circuit blueprints used by
// the local and remote-queue modes. In gpu mode the store stays empty; slot
// content lives in device state instead.
//
// A write fully replaces the slot's blueprint. Writes to different slots are
// independent; concurrent writes to the same slot race and the last writer
// wins.
type SlotStore struct {
	mu    sync.RWMutex
	slots []*Circuit
}

// NewSlotStore allocates a store with empty content for every slot.
func NewSlotStore(depth int) *SlotStore {
	return &SlotStore{slots: make([]*Circuit, depth)}
}

// Depth returns the number of slots.
func (s *SlotStore) Depth() int {
	return len(s.slots)
}

// Put replaces the blueprint at index. The index must already be validated.
func (s *SlotStore) Put(index int, c *Circuit) {
	s.mu.Lock()
	s.slots[index] = c
	s.mu.Unlock()
}

// Get returns the blueprint at index, or nil if the slot was never written.
func (s *SlotStore) Get(index int) *Circuit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slots[index]
}
