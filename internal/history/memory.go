package history

import (
	"context"
	"slices"
	"sync"
)

// MemoryRepository keeps records in process memory.
type MemoryRepository struct {
	mu     sync.RWMutex
	byUser map[string][]Record
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byUser: make(map[string][]Record)}
}

// Save implements Repository.
func (m *MemoryRepository) Save(_ context.Context, r Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.byUser[r.UserID] = append(m.byUser[r.UserID], r)
	return nil
}

// ListByUser implements Repository.
func (m *MemoryRepository) ListByUser(_ context.Context, userID string, limit int) ([]Record, error) {
	m.mu.RLock()
	records := slices.Clone(m.byUser[userID])
	m.mu.RUnlock()

	return newestFirst(records, limit), nil
}

// Close implements Repository.
func (m *MemoryRepository) Close() error {
	return nil
}

// newestFirst sorts records by creation time, newest first, and applies limit.
// Records created at the same instant keep reverse insertion order.
func newestFirst(records []Record, limit int) []Record {
	slices.Reverse(records)
	slices.SortStableFunc(records, func(a, b Record) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	if records == nil {
		records = []Record{}
	}
	return records
}
