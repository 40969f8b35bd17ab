// ABOUTME: Tenant selection: second-factor gating, base-URL switching, sign-in
// ABOUTME: The base-URL switch always completes before the sign-in call is issued

package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/epicsolution1211/crm-session-gateway/internal/metrics"
	"github.com/epicsolution1211/crm-session-gateway/internal/store"
)

// SignInClient defines the backend session calls the switcher needs.
type SignInClient interface {
	SignIn(ctx context.Context, tenant store.Tenant) (token string, err error)
	SignOut(ctx context.Context) error
}

// SignInError is a failed backend sign-in during tenant selection. It wraps
// the backend's error so callers can surface the backend's own message.
type SignInError struct {
	ServerCode string
	Err        error
}

func (e *SignInError) Error() string {
	return fmt.Sprintf("signing in to %s: %v", e.ServerCode, e.Err)
}

func (e *SignInError) Unwrap() error { return e.Err }

// SelectResult reports the outcome of a tenant selection.
type SelectResult struct {
	RequiresSecondFactor bool   `json:"requires_second_factor"`
	CompanyID            int64  `json:"company_id,omitempty"`
	SignedOut            bool   `json:"signed_out,omitempty"`
	Route                string `json:"route,omitempty"`
}

// Switcher activates tenants as the current session.
type Switcher struct {
	state   *store.SessionState
	base    *BaseURLResolver
	backend SignInClient
	audit   store.AuditStore
	logger  *slog.Logger
}

// NewSwitcher creates a Switcher.
func NewSwitcher(state *store.SessionState, base *BaseURLResolver, backend SignInClient, audit store.AuditStore) *Switcher {
	return &Switcher{
		state:   state,
		base:    base,
		backend: backend,
		audit:   audit,
		logger:  slog.Default().With("component", "session"),
	}
}

// SelectTenant makes the given tenant the active session.
//
// When the tenant's company or account requires a second factor, nothing is
// switched or signed in: the result only signals that the second factor must
// complete first (that flow belongs to the caller). Otherwise the active base
// URL is switched to the tenant's server before sign-in is issued, so the
// sign-in request targets the right backend. A failed sign-in propagates as a
// SignInError; the base-URL switch is not rolled back, and retrying the same
// tenant is idempotent.
func (s *Switcher) SelectTenant(ctx context.Context, tenant store.Tenant) (SelectResult, error) {
	if err := tenant.Validate(); err != nil {
		return SelectResult{}, err
	}

	if tenant.Company.OTPEnabled || tenant.Account.OTPEnabled {
		s.recordAudit(ctx, &store.AuditEntry{
			Action:     store.AuditSecondFactorRequired,
			ServerCode: tenant.ServerCode,
			CompanyID:  &tenant.Company.ID,
		})
		metrics.TenantSelections.WithLabelValues(metrics.OutcomeSecondFactor).Inc()
		return SelectResult{RequiresSecondFactor: true, CompanyID: tenant.Company.ID}, nil
	}

	if s.base.ActiveBaseURL(ctx) != tenant.ServerURL {
		if err := s.base.SetActiveBaseURL(ctx, tenant.ServerURL); err != nil {
			metrics.TenantSelections.WithLabelValues(metrics.OutcomeError).Inc()
			return SelectResult{}, fmt.Errorf("switching base URL: %w", err)
		}
	}

	token, err := s.backend.SignIn(ctx, tenant)
	if err != nil {
		metrics.TenantSelections.WithLabelValues(metrics.OutcomeError).Inc()
		return SelectResult{}, &SignInError{ServerCode: tenant.ServerCode, Err: err}
	}

	if err := s.state.SetToken(ctx, token); err != nil {
		return SelectResult{}, fmt.Errorf("storing token: %w", err)
	}
	if err := s.state.SetActiveCompany(ctx, &store.ActiveCompany{
		CompanyID:   tenant.Company.ID,
		CompanyName: tenant.Company.Name,
		ServerCode:  tenant.ServerCode,
	}); err != nil {
		return SelectResult{}, fmt.Errorf("storing active company: %w", err)
	}

	outcome := ResolveLandingRoute(tenant.Account)
	if outcome.SignOut {
		if err := s.SignOut(ctx); err != nil {
			return SelectResult{}, err
		}
		metrics.TenantSelections.WithLabelValues(metrics.OutcomeSignedOut).Inc()
		return SelectResult{SignedOut: true, Route: RouteLogin}, nil
	}

	route, err := s.applyLastPage(ctx, outcome.Route)
	if err != nil {
		return SelectResult{}, err
	}

	s.recordAudit(ctx, &store.AuditEntry{
		Action:     store.AuditTenantSelected,
		ServerCode: tenant.ServerCode,
		CompanyID:  &tenant.Company.ID,
		Detail:     map[string]any{"route": route},
	})
	metrics.TenantSelections.WithLabelValues(metrics.OutcomeOK).Inc()
	s.logger.Info("tenant selected",
		"server_code", tenant.ServerCode,
		"company_id", tenant.Company.ID,
		"route", route)
	return SelectResult{CompanyID: tenant.Company.ID, Route: route}, nil
}

// LandingRoute resolves the landing route for an account, applying the
// remembered last page. The override never suppresses a sign-out outcome.
func (s *Switcher) LandingRoute(ctx context.Context, account store.Account) (RouteOutcome, error) {
	outcome := ResolveLandingRoute(account)
	if outcome.SignOut {
		return outcome, nil
	}
	route, err := s.applyLastPage(ctx, outcome.Route)
	if err != nil {
		return RouteOutcome{}, err
	}
	return RouteOutcome{Route: route}, nil
}

// SignOut ends the active session: the backend is told, local session state
// is cleared either way.
func (s *Switcher) SignOut(ctx context.Context) error {
	if err := s.backend.SignOut(ctx); err != nil {
		s.logger.Warn("backend sign-out failed", "error", err)
	}
	if err := s.state.ClearActiveCompany(ctx); err != nil {
		return fmt.Errorf("clearing active company: %w", err)
	}
	if err := s.state.ClearToken(ctx); err != nil {
		return fmt.Errorf("clearing token: %w", err)
	}
	s.recordAudit(ctx, &store.AuditEntry{Action: store.AuditSignedOut})
	metrics.SignOuts.Inc()
	return nil
}

// applyLastPage replaces a computed route with the remembered last page, when
// one is set.
func (s *Switcher) applyLastPage(ctx context.Context, route string) (string, error) {
	lastPage, err := s.state.LastPage(ctx)
	if err != nil {
		return "", fmt.Errorf("reading last page: %w", err)
	}
	if lastPage != "" {
		return lastPage, nil
	}
	return route, nil
}

func (s *Switcher) recordAudit(ctx context.Context, e *store.AuditEntry) {
	if err := s.audit.AppendAudit(ctx, e); err != nil {
		s.logger.Warn("failed to record audit entry", "action", e.Action, "error", err)
	}
}
