// ABOUTME: HTTP JSON API for the dashboard shell and the sessionctl CLI
// ABOUTME: Registers routes, authenticates requests, and maps errors to status codes

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/epicsolution1211/crm-session-gateway/internal/auth"
	"github.com/epicsolution1211/crm-session-gateway/internal/backend"
	"github.com/epicsolution1211/crm-session-gateway/internal/registry"
	"github.com/epicsolution1211/crm-session-gateway/internal/session"
	"github.com/epicsolution1211/crm-session-gateway/internal/store"
)

// Server serves the local HTTP API.
type Server struct {
	registry *registry.Registry
	switcher *session.Switcher
	state    *store.SessionState
	base     *session.BaseURLResolver
	audit    store.AuditStore
	tokens   *auth.JWTManager

	// bcrypt hash of the operator password; empty disables login
	passwordHash string

	logger *slog.Logger
}

// New creates an API server over the given components.
func New(reg *registry.Registry, sw *session.Switcher, state *store.SessionState, base *session.BaseURLResolver, audit store.AuditStore, tokens *auth.JWTManager, passwordHash string) *Server {
	return &Server{
		registry:     reg,
		switcher:     sw,
		state:        state,
		base:         base,
		audit:        audit,
		tokens:       tokens,
		passwordHash: passwordHash,
		logger:       slog.Default().With("component", "api"),
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Public routes (no auth required)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /api/login", s.handleLogin)

	// Protected routes (auth required)
	requireAuth := auth.Middleware(s.tokens)

	mux.Handle("GET /api/servers", requireAuth(http.HandlerFunc(s.handleServersList)))
	mux.Handle("POST /api/servers", requireAuth(http.HandlerFunc(s.handleServerAdd)))
	mux.Handle("DELETE /api/servers/{code}", requireAuth(http.HandlerFunc(s.handleServerRemove)))

	mux.Handle("GET /api/tenants", requireAuth(http.HandlerFunc(s.handleTenantsList)))

	mux.Handle("GET /api/session", requireAuth(http.HandlerFunc(s.handleSessionStatus)))
	mux.Handle("POST /api/session/tenant", requireAuth(http.HandlerFunc(s.handleSelectTenant)))
	mux.Handle("DELETE /api/session", requireAuth(http.HandlerFunc(s.handleSignOut)))
	mux.Handle("GET /api/session/route", requireAuth(http.HandlerFunc(s.handleSessionRoute)))
	mux.Handle("PUT /api/session/last-page", requireAuth(http.HandlerFunc(s.handleSetLastPage)))

	mux.Handle("GET /api/audit", requireAuth(http.HandlerFunc(s.handleAuditList)))

	s.logger.Info("api routes registered")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleLogin exchanges the operator password for an API token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if s.passwordHash == "" {
		writeError(w, http.StatusForbidden, "login disabled: no password configured, run sessiond init")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("login rejected", "remote", r.RemoteAddr)
		writeError(w, http.StatusUnauthorized, "invalid password")
		return
	}

	token, err := s.tokens.Issue("operator")
	if err != nil {
		s.logger.Error("failed to issue token", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error body with the given status code.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeRegistrationError maps an AddServer failure to a status code, carrying
// the backend's own message through when one was returned.
func (s *Server) writeRegistrationError(w http.ResponseWriter, err error) {
	msg := registry.BackendMessage(err)

	var resErr *registry.ResolutionError
	var authErr *registry.AuthenticationError

	switch {
	case errors.Is(err, registry.ErrDuplicateServer):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &resErr):
		if msg == "" {
			msg = "server code could not be resolved"
		}
		writeError(w, http.StatusBadGateway, msg)
	case errors.As(err, &authErr):
		if msg == "" {
			msg = "authentication failed"
		}
		writeError(w, http.StatusUnauthorized, msg)
	case errors.Is(err, registry.ErrNoCompanies):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.logger.Error("server registration failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// writeSelectError maps a SelectTenant failure to a status code. A rejected
// sign-in carries the backend's own message through; anything else is a
// local storage or validation fault.
func (s *Server) writeSelectError(w http.ResponseWriter, err error) {
	var signInErr *session.SignInError
	if errors.As(err, &signInErr) {
		msg := ""
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) {
			msg = apiErr.Message
		}
		if msg == "" {
			msg = "sign-in failed"
		}
		writeError(w, http.StatusBadGateway, msg)
		return
	}
	writeError(w, http.StatusInternalServerError, "internal error")
}
