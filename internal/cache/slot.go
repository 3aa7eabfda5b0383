package cache

import (
	"sync"
)

// DefaultSlotName is the key the recipe shelf is persisted under.
const DefaultSlotName = "savedRecipes"

// Slot is one named piece of persisted client state. Load returns nil
// data and no error when the slot has never been written.
type Slot interface {
	Load() ([]byte, error)
	Save(data []byte) error
}

// MemorySlot keeps the slot in process memory.
type MemorySlot struct {
	mu   sync.Mutex
	data []byte
}

// NewMemorySlot returns an empty in-memory slot.
func NewMemorySlot() *MemorySlot {
	return &MemorySlot{}
}

func (m *MemorySlot) Load() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, nil
	}
	return append([]byte(nil), m.data...), nil
}

func (m *MemorySlot) Save(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	return nil
}
