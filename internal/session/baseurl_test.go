// ABOUTME: Tests for the active base-URL resolver
// ABOUTME: Covers default fallback and runtime switching

package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epicsolution1211/crm-session-gateway/internal/store"
)

const defaultURL = "https://app.example.com/api"

func TestActiveBaseURL_DefaultWhenUnset(t *testing.T) {
	state := store.NewSessionState(store.NewMockStore())
	r := NewBaseURLResolver(state, defaultURL)

	assert.Equal(t, defaultURL, r.ActiveBaseURL(context.Background()))
}

func TestActiveBaseURL_StoredValueWins(t *testing.T) {
	state := store.NewSessionState(store.NewMockStore())
	r := NewBaseURLResolver(state, defaultURL)
	ctx := context.Background()

	require.NoError(t, r.SetActiveBaseURL(ctx, "https://eu1.example.com/api"))
	assert.Equal(t, "https://eu1.example.com/api", r.ActiveBaseURL(ctx))
}

func TestSetActiveBaseURL_Persists(t *testing.T) {
	mock := store.NewMockStore()
	state := store.NewSessionState(mock)
	r := NewBaseURLResolver(state, defaultURL)
	ctx := context.Background()

	require.NoError(t, r.SetActiveBaseURL(ctx, "https://us1.example.com/api"))

	// A second resolver over the same store sees the switch.
	r2 := NewBaseURLResolver(store.NewSessionState(mock), defaultURL)
	assert.Equal(t, "https://us1.example.com/api", r2.ActiveBaseURL(ctx))
}
