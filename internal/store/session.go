// ABOUTME: Typed accessors over the string-keyed state store
// ABOUTME: JSON encoding and validation happen here, at the storage boundary

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// SessionState wraps a StateStore with typed accessors for the session keys.
// All composite values go through whole-value read-modify-write: callers read
// the full list, transform it, and write the full list back. Two writers
// racing on the same key will overwrite each other; that matches the storage
// semantics of the original system and is pinned by tests rather than fixed.
type SessionState struct {
	store StateStore
}

// NewSessionState creates typed session-state accessors over the given store.
func NewSessionState(s StateStore) *SessionState {
	return &SessionState{store: s}
}

// Tenants returns the persisted tenant list. A missing key is an empty list.
// Every entry is validated before being returned.
func (s *SessionState) Tenants(ctx context.Context) ([]Tenant, error) {
	raw, err := s.store.GetState(ctx, KeyTenants)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var tenants []Tenant
	if err := json.Unmarshal([]byte(raw), &tenants); err != nil {
		return nil, decodeError(KeyTenants, err)
	}
	for i := range tenants {
		if err := tenants[i].Validate(); err != nil {
			return nil, fmt.Errorf("tenant %d: %w", i, err)
		}
	}
	return tenants, nil
}

// SaveTenants replaces the entire persisted tenant list.
func (s *SessionState) SaveTenants(ctx context.Context, tenants []Tenant) error {
	for i := range tenants {
		if err := tenants[i].Validate(); err != nil {
			return fmt.Errorf("tenant %d: %w", i, err)
		}
	}
	if tenants == nil {
		tenants = []Tenant{}
	}
	data, err := json.Marshal(tenants)
	if err != nil {
		return fmt.Errorf("encoding tenants: %w", err)
	}
	return s.store.SetState(ctx, KeyTenants, string(data))
}

// ActiveCompany returns the active session's company, or nil if none is set.
func (s *SessionState) ActiveCompany(ctx context.Context) (*ActiveCompany, error) {
	raw, err := s.store.GetState(ctx, KeyCompany)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var ac ActiveCompany
	if err := json.Unmarshal([]byte(raw), &ac); err != nil {
		return nil, decodeError(KeyCompany, err)
	}
	if err := ac.Validate(); err != nil {
		return nil, err
	}
	return &ac, nil
}

// SetActiveCompany overwrites the active session's company.
func (s *SessionState) SetActiveCompany(ctx context.Context, ac *ActiveCompany) error {
	if err := ac.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(ac)
	if err != nil {
		return fmt.Errorf("encoding active company: %w", err)
	}
	return s.store.SetState(ctx, KeyCompany, string(data))
}

// ClearActiveCompany removes the active session's company.
func (s *SessionState) ClearActiveCompany(ctx context.Context) error {
	return s.store.DeleteState(ctx, KeyCompany)
}

// Token returns the stored backend auth token, or "" if none is set.
func (s *SessionState) Token(ctx context.Context) (string, error) {
	return s.getString(ctx, KeyToken)
}

// SetToken stores the backend auth token.
func (s *SessionState) SetToken(ctx context.Context, token string) error {
	return s.store.SetState(ctx, KeyToken, token)
}

// ClearToken removes the stored backend auth token.
func (s *SessionState) ClearToken(ctx context.Context) error {
	return s.store.DeleteState(ctx, KeyToken)
}

// LastPage returns the remembered dashboard path, or "" if none is set.
func (s *SessionState) LastPage(ctx context.Context) (string, error) {
	return s.getString(ctx, KeyLastPage)
}

// SetLastPage remembers the dashboard path to restore after the next sign-in.
func (s *SessionState) SetLastPage(ctx context.Context, path string) error {
	return s.store.SetState(ctx, KeyLastPage, path)
}

// ClearLastPage forgets the remembered dashboard path.
func (s *SessionState) ClearLastPage(ctx context.Context) error {
	return s.store.DeleteState(ctx, KeyLastPage)
}

// ServerURL returns the stored active base URL, or "" if none is set.
func (s *SessionState) ServerURL(ctx context.Context) (string, error) {
	return s.getString(ctx, KeyServerURL)
}

// SetServerURL stores the active base URL.
func (s *SessionState) SetServerURL(ctx context.Context, url string) error {
	return s.store.SetState(ctx, KeyServerURL, url)
}

func (s *SessionState) getString(ctx context.Context, key string) (string, error) {
	v, err := s.store.GetState(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}
