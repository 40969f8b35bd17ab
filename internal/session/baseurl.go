// ABOUTME: Single source of truth for the active backend base URL
// ABOUTME: Stored value wins; falls back to the configured production default

package session

import (
	"context"
	"log/slog"

	"github.com/epicsolution1211/crm-session-gateway/internal/store"
)

// BaseURLResolver decides which backend base URL is active. Every backend
// request reads it at call time, so switching takes effect immediately for
// clients constructed earlier.
type BaseURLResolver struct {
	state      *store.SessionState
	defaultURL string
	logger     *slog.Logger
}

// NewBaseURLResolver creates a resolver with the given fallback URL.
func NewBaseURLResolver(state *store.SessionState, defaultURL string) *BaseURLResolver {
	return &BaseURLResolver{
		state:      state,
		defaultURL: defaultURL,
		logger:     slog.Default().With("component", "baseurl"),
	}
}

// ActiveBaseURL returns the stored base URL, or the default when none is
// stored. A storage failure falls back to the default rather than stalling
// the request path.
func (r *BaseURLResolver) ActiveBaseURL(ctx context.Context) string {
	url, err := r.state.ServerURL(ctx)
	if err != nil {
		r.logger.Warn("failed to read active base URL, using default", "error", err)
		return r.defaultURL
	}
	if url == "" {
		return r.defaultURL
	}
	return url
}

// SetActiveBaseURL persists the new active base URL.
func (r *BaseURLResolver) SetActiveBaseURL(ctx context.Context, url string) error {
	return r.state.SetServerURL(ctx, url)
}
