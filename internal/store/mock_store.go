// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite

package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu    sync.RWMutex
	state map[string]string
	audit []*AuditEntry
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		state: make(map[string]string),
	}
}

// GetState returns the value stored under key, or ErrNotFound.
func (m *MockStore) GetState(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.state[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// SetState stores value under key.
func (m *MockStore) SetState(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state[key] = value
	return nil
}

// DeleteState removes key. Deleting an absent key is a no-op.
func (m *MockStore) DeleteState(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.state, key)
	return nil
}

// AppendAudit stores an audit entry in memory.
func (m *MockStore) AppendAudit(ctx context.Context, e *AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	entry := *e
	m.audit = append(m.audit, &entry)
	return nil
}

// ListAudit returns stored audit entries matching the filter, newest first.
func (m *MockStore) ListAudit(ctx context.Context, filter AuditFilter) ([]*AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	var result []*AuditEntry
	for i := len(m.audit) - 1; i >= 0 && len(result) < limit; i-- {
		e := m.audit[i]
		if filter.Action != nil && e.Action != *filter.Action {
			continue
		}
		if filter.ServerCode != nil && e.ServerCode != *filter.ServerCode {
			continue
		}
		if filter.Since != nil && !e.CreatedAt.After(*filter.Since) {
			continue
		}
		entry := *e
		result = append(result, &entry)
	}
	return result, nil
}

// Close is a no-op for the mock store.
func (m *MockStore) Close() error {
	return nil
}
