package store

import (
	"context"
	"sync"

	"telemetry-anomaly-monitor/src/types"
)

// MemoryStore keeps readings in process. Err, when set, fails every call.
type MemoryStore struct {
	mu      sync.Mutex
	records []types.StructuredRecord
	Err     error
}

func NewMemoryStore(records ...types.StructuredRecord) *MemoryStore {
	return &MemoryStore{records: append([]types.StructuredRecord(nil), records...)}
}

func (m *MemoryStore) Append(ctx context.Context, rec types.StructuredRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *MemoryStore) ReadAllOrderedByTime(ctx context.Context) ([]types.StructuredRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return nil, &types.MissingHistoryError{Store: "memory", Err: m.Err}
	}
	out := append([]types.StructuredRecord(nil), m.records...)
	SortByTime(out)
	return out, nil
}

// MemoryLog is an in-process RawLog or ErrorLog.
type MemoryLog[T any] struct {
	mu      sync.Mutex
	entries []T
	Err     error
}

func (m *MemoryLog[T]) Append(ctx context.Context, rec T) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	m.entries = append(m.entries, rec)
	return nil
}

func (m *MemoryLog[T]) Entries() []T {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]T(nil), m.entries...)
}
