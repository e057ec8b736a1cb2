package store

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrAlreadyExists is returned when an entity with the same identity is already stored.
var ErrAlreadyExists = errors.New("entity already exists")

// Entity is anything the in-memory store can index.
type Entity interface {
	Identity() uuid.UUID
}

// Memory is a process-lifetime collection of entities of one type.
// Entities are kept in insertion order and indexed by identity.
type Memory[T Entity] struct {
	mu    sync.RWMutex
	items []T
	index map[uuid.UUID]int
}

func NewMemory[T Entity]() *Memory[T] {
	return &Memory[T]{
		items: make([]T, 0),
		index: make(map[uuid.UUID]int),
	}
}

// List returns a snapshot of every stored entity in insertion order.
func (m *Memory[T]) List() []T {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]T, len(m.items))
	copy(out, m.items)
	return out
}

// FindByID returns the entity whose identity equals id.
func (m *Memory[T]) FindByID(id uuid.UUID) (T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pos, ok := m.index[id]
	if !ok {
		var zero T
		return zero, false
	}
	return m.items[pos], true
}

// Add appends entity and returns the stored value.
func (m *Memory[T]) Add(entity T) (T, error) {
	id := entity.Identity()

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.index[id]; exists {
		var zero T
		return zero, ErrAlreadyExists
	}
	m.index[id] = len(m.items)
	m.items = append(m.items, entity)
	return entity, nil
}

func (m *Memory[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
