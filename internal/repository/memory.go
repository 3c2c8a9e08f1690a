package repository

import (
	"context"
	"maps"
	"sync"
)

// MemoryJoins keeps remembered joins in process memory. It is used when no
// database is configured and loses its content on restart.
type MemoryJoins struct {
	mu   sync.RWMutex
	data map[string]map[int64]int64
}

func NewMemoryJoins() *MemoryJoins {
	return &MemoryJoins{data: make(map[string]map[int64]int64)}
}

func (m *MemoryJoins) Joined(_ context.Context, email string) (map[int64]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[int64]int64)
	maps.Copy(out, m.data[normalizeEmail(email)])
	return out, nil
}

func (m *MemoryJoins) Sync(_ context.Context, email string, remember map[int64]int64, forget []int64) error {
	email = normalizeEmail(email)
	if email == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	joins := m.data[email]
	if joins == nil {
		joins = make(map[int64]int64)
		m.data[email] = joins
	}
	maps.Copy(joins, remember)
	for _, itemID := range forget {
		delete(joins, itemID)
	}
	if len(joins) == 0 {
		delete(m.data, email)
	}
	return nil
}
