// ABOUTME: Server registry: registers backend deployments and removes them
// ABOUTME: Enforces server-code uniqueness and cascades tenant deletes

package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/epicsolution1211/crm-session-gateway/internal/backend"
	"github.com/epicsolution1211/crm-session-gateway/internal/metrics"
	"github.com/epicsolution1211/crm-session-gateway/internal/store"
)

// BackendClient defines the backend calls the registry needs.
type BackendClient interface {
	ResolveServerCode(ctx context.Context, serverCode string) (string, error)
	Authenticate(ctx context.Context, serverURL, email, password string) ([]backend.CompanyGrant, error)
}

// ServerEntry is a registered backend deployment, derived from the tenant
// list (the tenants tagged with a server code are its existence proof).
type ServerEntry struct {
	ServerCode  string `json:"server_code"`
	ServerURL   string `json:"server_url"`
	TenantCount int    `json:"tenant_count"`
}

// RemoveResult reports what RemoveServer did.
type RemoveResult struct {
	Removed   int  `json:"removed"`
	SignedOut bool `json:"signed_out"`
}

// Registry registers and removes backend servers.
type Registry struct {
	state   *store.SessionState
	audit   store.AuditStore
	backend BackendClient
	logger  *slog.Logger
}

// New creates a Registry over the given session state and backend client.
func New(state *store.SessionState, audit store.AuditStore, client BackendClient) *Registry {
	return &Registry{
		state:   state,
		audit:   audit,
		backend: client,
		logger:  slog.Default().With("component", "registry"),
	}
}

// AddServer registers a backend deployment under serverCode.
//
// The steps run strictly in order and nothing is persisted until all of them
// succeed: duplicate check (before any network call), directory resolution,
// credential exchange, zero-companies check, then a single append of the
// tagged companies to the tenant list. Cross-server duplicates are allowed;
// a tenant is identified by (server_code, company id), not company id alone.
func (r *Registry) AddServer(ctx context.Context, serverCode, email, password string) error {
	tenants, err := r.state.Tenants(ctx)
	if err != nil {
		return fmt.Errorf("loading tenants: %w", err)
	}
	for i := range tenants {
		if tenants[i].ServerCode == serverCode {
			metrics.RegistrationFailures.WithLabelValues("duplicate").Inc()
			return ErrDuplicateServer
		}
	}

	serverURL, err := r.backend.ResolveServerCode(ctx, serverCode)
	if err != nil {
		metrics.RegistrationFailures.WithLabelValues("resolution").Inc()
		return &ResolutionError{ServerCode: serverCode, Err: err}
	}

	grants, err := r.backend.Authenticate(ctx, serverURL, email, password)
	if err != nil {
		metrics.RegistrationFailures.WithLabelValues("authentication").Inc()
		return &AuthenticationError{ServerURL: serverURL, Err: err}
	}
	if len(grants) == 0 {
		metrics.RegistrationFailures.WithLabelValues("no_companies").Inc()
		return ErrNoCompanies
	}

	for _, g := range grants {
		tenants = append(tenants, store.Tenant{
			Company:    g.Company,
			Account:    g.Account,
			ServerURL:  serverURL,
			ServerCode: serverCode,
		})
	}
	if err := r.state.SaveTenants(ctx, tenants); err != nil {
		return fmt.Errorf("persisting tenants: %w", err)
	}

	if err := r.audit.AppendAudit(ctx, &store.AuditEntry{
		Action:     store.AuditServerAdded,
		ServerCode: serverCode,
		Detail:     map[string]any{"companies": len(grants)},
	}); err != nil {
		r.logger.Warn("failed to record audit entry", "action", store.AuditServerAdded, "error", err)
	}

	metrics.ServersRegistered.Inc()
	r.logger.Info("server registered", "server_code", serverCode, "companies", len(grants))
	return nil
}

// RemoveServer removes all tenants registered under serverCode. When the
// active session lives on that server it is cleared along with the auth
// token, and SignedOut tells the caller to redirect to login. Removing an
// unknown code is a no-op, not an error.
func (r *Registry) RemoveServer(ctx context.Context, serverCode string) (RemoveResult, error) {
	tenants, err := r.state.Tenants(ctx)
	if err != nil {
		return RemoveResult{}, fmt.Errorf("loading tenants: %w", err)
	}

	kept := tenants[:0:0]
	for _, t := range tenants {
		if t.ServerCode != serverCode {
			kept = append(kept, t)
		}
	}
	removed := len(tenants) - len(kept)
	if removed == 0 {
		return RemoveResult{}, nil
	}

	if err := r.state.SaveTenants(ctx, kept); err != nil {
		return RemoveResult{}, fmt.Errorf("persisting tenants: %w", err)
	}

	result := RemoveResult{Removed: removed}

	active, err := r.state.ActiveCompany(ctx)
	if err != nil {
		return result, fmt.Errorf("loading active company: %w", err)
	}
	if active != nil && active.ServerCode == serverCode {
		if err := r.state.ClearActiveCompany(ctx); err != nil {
			return result, fmt.Errorf("clearing active company: %w", err)
		}
		if err := r.state.ClearToken(ctx); err != nil {
			return result, fmt.Errorf("clearing token: %w", err)
		}
		result.SignedOut = true
		metrics.SignOuts.Inc()
	}

	if err := r.audit.AppendAudit(ctx, &store.AuditEntry{
		Action:     store.AuditServerRemoved,
		ServerCode: serverCode,
		Detail:     map[string]any{"tenants_removed": removed, "signed_out": result.SignedOut},
	}); err != nil {
		r.logger.Warn("failed to record audit entry", "action", store.AuditServerRemoved, "error", err)
	}

	metrics.ServersRemoved.Inc()
	r.logger.Info("server removed",
		"server_code", serverCode,
		"tenants_removed", removed,
		"signed_out", result.SignedOut)
	return result, nil
}

// Servers lists the registered backend deployments, derived from the tenant
// list, in first-seen order.
func (r *Registry) Servers(ctx context.Context) ([]ServerEntry, error) {
	tenants, err := r.state.Tenants(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading tenants: %w", err)
	}

	index := make(map[string]int)
	var servers []ServerEntry
	for _, t := range tenants {
		if i, ok := index[t.ServerCode]; ok {
			servers[i].TenantCount++
			continue
		}
		index[t.ServerCode] = len(servers)
		servers = append(servers, ServerEntry{
			ServerCode:  t.ServerCode,
			ServerURL:   t.ServerURL,
			TenantCount: 1,
		})
	}
	return servers, nil
}
