// ABOUTME: Tests for the backend HTTP client
// ABOUTME: Uses httptest servers to verify request shapes and error message extraction

package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epicsolution1211/crm-session-gateway/internal/store"
)

// staticBase is a BaseURLSource returning a settable URL.
type staticBase struct {
	url string
}

func (s *staticBase) ActiveBaseURL(ctx context.Context) string { return s.url }

func TestResolveServerCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/company/server_urls", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "EU1", body["server_code"])

		json.NewEncoder(w).Encode(map[string]string{"server_url": "https://eu1.example.com/api"})
	}))
	defer srv.Close()

	c := New(srv.URL, &staticBase{}, time.Second)
	url, err := c.ResolveServerCode(context.Background(), "EU1")
	require.NoError(t, err)
	assert.Equal(t, "https://eu1.example.com/api", url)
}

func TestResolveServerCode_BackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "unknown server code"})
	}))
	defer srv.Close()

	c := New(srv.URL, &staticBase{}, time.Second)
	_, err := c.ResolveServerCode(context.Background(), "NOPE")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "unknown server code", apiErr.Message)
}

func TestResolveServerCode_MessageField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"message": "directory unavailable"})
	}))
	defer srv.Close()

	c := New(srv.URL, &staticBase{}, time.Second)
	_, err := c.ResolveServerCode(context.Background(), "EU1")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "directory unavailable", apiErr.Message)
}

func TestAuthenticate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/session", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ops@example.com", body["email"])
		assert.Equal(t, "hunter2", body["password"])

		json.NewEncoder(w).Encode(map[string]any{
			"companies": []map[string]any{
				{
					"company": map[string]any{"id": 7, "name": "Acme"},
					"account": map[string]any{"acc_v_overview": true},
				},
			},
		})
	}))
	defer srv.Close()

	c := New("https://directory.invalid", &staticBase{}, time.Second)
	grants, err := c.Authenticate(context.Background(), srv.URL, "ops@example.com", "hunter2")
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, int64(7), grants[0].Company.ID)
	assert.Equal(t, "Acme", grants[0].Company.Name)
	require.NotNil(t, grants[0].Account.ViewOverview)
	assert.True(t, *grants[0].Account.ViewOverview)
}

func TestAuthenticate_InvalidCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid credentials"})
	}))
	defer srv.Close()

	c := New("https://directory.invalid", &staticBase{}, time.Second)
	_, err := c.Authenticate(context.Background(), srv.URL, "ops@example.com", "wrong")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "invalid credentials", apiErr.Message)
}

func TestSignIn_UsesActiveBaseURLAtCallTime(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]string{"token": "tok-123"})
	}))
	defer srv.Close()

	// Client constructed while pointing somewhere else entirely.
	base := &staticBase{url: "https://old.invalid"}
	c := New("https://directory.invalid", base, time.Second)

	// Switch after construction; the sign-in call must follow.
	base.url = srv.URL

	tenant := store.Tenant{
		Company:    store.Company{ID: 7, Name: "Acme"},
		ServerURL:  srv.URL,
		ServerCode: "EU1",
	}
	token, err := c.SignIn(context.Background(), tenant)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)
	assert.Equal(t, "/user/session/company", gotPath)
}

func TestSignOut_SwallowsBackendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New("https://directory.invalid", &staticBase{url: srv.URL}, time.Second)
	assert.NoError(t, c.SignOut(context.Background()))
}
