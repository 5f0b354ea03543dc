package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests and hosts that manage their
// own durable storage.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]*ArrivalCardRecord
	byKey   map[string]string
	failErr error
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:  make(map[string]*ArrivalCardRecord),
		byKey: make(map[string]string),
	}
}

// FailWith makes every subsequent Save return err. Passing nil clears the
// injected failure. Test hook for persistence-failure paths.
func (m *MemoryStore) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failErr = err
}

// Save implements Store.
func (m *MemoryStore) Save(ctx context.Context, record *ArrivalCardRecord) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failErr != nil {
		return "", m.failErr
	}

	if id, ok := m.byKey[record.DerivedKey]; ok {
		existing := m.byID[id]
		existing.Artifact = record.Artifact
		record.ID = id
		return id, nil
	}

	id := record.ID
	if id == "" {
		id = uuid.New().String()
	}
	stored := *record
	stored.ID = id
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	m.byID[id] = &stored
	m.byKey[record.DerivedKey] = id
	record.ID = id
	return id, nil
}

// ListByPassport implements Store.
func (m *MemoryStore) ListByPassport(ctx context.Context, passportID string) ([]*ArrivalCardRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var records []*ArrivalCardRecord
	for _, r := range m.byID {
		if r.PassportID == passportID {
			copied := *r
			records = append(records, &copied)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

// Get implements Store.
func (m *MemoryStore) Get(ctx context.Context, id string) (*ArrivalCardRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *r
	return &copied, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.byID, id)
	delete(m.byKey, r.DerivedKey)
	return nil
}

// Len returns the number of stored records.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}
