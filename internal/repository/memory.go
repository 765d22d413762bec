package repository

import (
	"context"
	"sync"

	"washbook/internal/models"
)

type MemorySnapshotCache struct {
	mu       sync.RWMutex
	snapshot []models.Reservation
	set      bool
}

func NewMemorySnapshotCache() *MemorySnapshotCache {
	return &MemorySnapshotCache{}
}

func (m *MemorySnapshotCache) GetSnapshot(ctx context.Context) ([]models.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.set {
		return nil, nil
	}
	out := make([]models.Reservation, len(m.snapshot))
	copy(out, m.snapshot)
	return out, nil
}

func (m *MemorySnapshotCache) SetSnapshot(ctx context.Context, snapshot []models.Reservation) error {
	cp := make([]models.Reservation, len(snapshot))
	copy(cp, snapshot)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = cp
	m.set = true
	return nil
}

func (m *MemorySnapshotCache) ClearSnapshot(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = nil
	m.set = false
	return nil
}
