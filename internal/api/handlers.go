// ABOUTME: Handlers for server registry, tenant, session, and audit endpoints
// ABOUTME: Thin JSON shims over the registry and switcher

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/epicsolution1211/crm-session-gateway/internal/registry"
	"github.com/epicsolution1211/crm-session-gateway/internal/store"
)

// tenantSummary is the wire shape of a selectable tenant.
type tenantSummary struct {
	ServerCode  string `json:"server_code"`
	CompanyID   int64  `json:"company_id"`
	CompanyName string `json:"company_name"`
	Avatar      string `json:"avatar,omitempty"`
	OTPEnabled  bool   `json:"otp_enabled"`
	Affiliate   bool   `json:"affiliate,omitempty"`
}

// sessionStatus is the wire shape of the current session.
type sessionStatus struct {
	SignedIn      bool                 `json:"signed_in"`
	ActiveCompany *store.ActiveCompany `json:"active_company,omitempty"`
	BaseURL       string               `json:"base_url"`
	LastPage      string               `json:"last_page,omitempty"`
}

func (s *Server) handleServersList(w http.ResponseWriter, r *http.Request) {
	servers, err := s.registry.Servers(r.Context())
	if err != nil {
		s.logger.Error("failed to list servers", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if servers == nil {
		servers = []registry.ServerEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"servers": servers})
}

func (s *Server) handleServerAdd(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ServerCode string `json:"server_code"`
		Email      string `json:"email"`
		Password   string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ServerCode == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "server_code, email, and password are required")
		return
	}

	if err := s.registry.AddServer(r.Context(), req.ServerCode, req.Email, req.Password); err != nil {
		s.writeRegistrationError(w, err)
		return
	}

	servers, err := s.registry.Servers(r.Context())
	if err != nil {
		s.logger.Error("failed to list servers", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"servers": servers})
}

func (s *Server) handleServerRemove(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	result, err := s.registry.RemoveServer(r.Context(), code)
	if err != nil {
		s.logger.Error("failed to remove server", "server_code", code, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleTenantsList(w http.ResponseWriter, r *http.Request) {
	tenants, err := s.state.Tenants(r.Context())
	if err != nil {
		s.logger.Error("failed to list tenants", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	summaries := make([]tenantSummary, 0, len(tenants))
	for _, t := range tenants {
		summaries = append(summaries, tenantSummary{
			ServerCode:  t.ServerCode,
			CompanyID:   t.Company.ID,
			CompanyName: t.Company.Name,
			Avatar:      t.Company.Avatar,
			OTPEnabled:  t.Company.OTPEnabled || t.Account.OTPEnabled,
			Affiliate:   t.Account.Affiliate,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"tenants": summaries})
}

func (s *Server) handleSelectTenant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ServerCode string `json:"server_code"`
		CompanyID  int64  `json:"company_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tenant, err := s.findTenant(r, req.ServerCode, req.CompanyID)
	if err != nil {
		s.logger.Error("failed to load tenants", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if tenant == nil {
		writeError(w, http.StatusNotFound, "no such tenant")
		return
	}

	result, err := s.switcher.SelectTenant(r.Context(), *tenant)
	if err != nil {
		s.logger.Error("tenant selection failed",
			"server_code", req.ServerCode,
			"company_id", req.CompanyID,
			"error", err)
		s.writeSelectError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	active, err := s.state.ActiveCompany(ctx)
	if err != nil {
		s.logger.Error("failed to load active company", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	token, err := s.state.Token(ctx)
	if err != nil {
		s.logger.Error("failed to load token", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	lastPage, err := s.state.LastPage(ctx)
	if err != nil {
		s.logger.Error("failed to load last page", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, sessionStatus{
		SignedIn:      token != "" && active != nil,
		ActiveCompany: active,
		BaseURL:       s.base.ActiveBaseURL(ctx),
		LastPage:      lastPage,
	})
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := s.switcher.SignOut(r.Context()); err != nil {
		s.logger.Error("sign-out failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"signed_out": true})
}

// handleSessionRoute recomputes the landing route for the active session.
func (s *Server) handleSessionRoute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	active, err := s.state.ActiveCompany(ctx)
	if err != nil {
		s.logger.Error("failed to load active company", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if active == nil {
		writeError(w, http.StatusNotFound, "no active session")
		return
	}

	tenant, err := s.findTenant(r, active.ServerCode, active.CompanyID)
	if err != nil {
		s.logger.Error("failed to load tenants", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if tenant == nil {
		writeError(w, http.StatusNotFound, "active tenant no longer registered")
		return
	}

	outcome, err := s.switcher.LandingRoute(ctx, tenant.Account)
	if err != nil {
		s.logger.Error("failed to resolve landing route", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleSetLastPage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Page string `json:"page"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var err error
	if req.Page == "" {
		err = s.state.ClearLastPage(r.Context())
	} else {
		err = s.state.SetLastPage(r.Context(), req.Page)
	}
	if err != nil {
		s.logger.Error("failed to store last page", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"last_page": req.Page})
}

func (s *Server) handleAuditList(w http.ResponseWriter, r *http.Request) {
	filter := store.AuditFilter{}
	q := r.URL.Query()

	if v := q.Get("action"); v != "" {
		action := store.AuditAction(v)
		filter.Action = &action
	}
	if v := q.Get("server_code"); v != "" {
		filter.ServerCode = &v
	}
	if v := q.Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be RFC 3339")
			return
		}
		filter.Since = &since
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		filter.Limit = limit
	}

	entries, err := s.audit.ListAudit(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list audit entries", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// findTenant looks up a registered tenant by (server code, company id).
// Returns nil when no such tenant is registered.
func (s *Server) findTenant(r *http.Request, serverCode string, companyID int64) (*store.Tenant, error) {
	tenants, err := s.state.Tenants(r.Context())
	if err != nil {
		return nil, err
	}
	for i := range tenants {
		if tenants[i].ServerCode == serverCode && tenants[i].Company.ID == companyID {
			return &tenants[i], nil
		}
	}
	return nil, nil
}
