// ABOUTME: HTTP client for the remote dashboard backends
// ABOUTME: Directory lookup, credential exchange, and sign-in against a runtime-mutable base URL

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/epicsolution1211/crm-session-gateway/internal/store"
)

// APIError is a non-2xx response from a backend, carrying the most specific
// message the backend provided (its "error" or "message" field).
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend returned %d", e.StatusCode)
}

// BaseURLSource supplies the active base URL at request time. The client
// never captures a base URL at construction: switching the active server
// must affect requests already-configured clients make.
type BaseURLSource interface {
	ActiveBaseURL(ctx context.Context) string
}

// CompanyGrant is one company an authenticated account can access, as
// returned by a backend's session endpoint.
type CompanyGrant struct {
	Company store.Company `json:"company"`
	Account store.Account `json:"account"`
}

// Client talks to the server directory and to individual backend deployments.
type Client struct {
	http         *http.Client
	directoryURL string
	base         BaseURLSource
	logger       *slog.Logger
}

// New creates a backend client. directoryURL is the well-known server
// directory endpoint; base supplies the active base URL for session calls.
func New(directoryURL string, base BaseURLSource, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		http:         &http.Client{Timeout: timeout},
		directoryURL: strings.TrimRight(directoryURL, "/"),
		base:         base,
		logger:       slog.Default().With("component", "backend"),
	}
}

// ResolveServerCode asks the directory for the base URL of a server code.
func (c *Client) ResolveServerCode(ctx context.Context, serverCode string) (string, error) {
	var resp struct {
		ServerURL string `json:"server_url"`
	}
	req := map[string]string{"server_code": serverCode}
	if err := c.postJSON(ctx, c.directoryURL+"/company/server_urls", req, &resp); err != nil {
		return "", err
	}
	if resp.ServerURL == "" {
		return "", &APIError{StatusCode: http.StatusOK, Message: "directory returned empty server_url"}
	}
	return resp.ServerURL, nil
}

// Authenticate exchanges credentials against the given server and returns the
// companies the account can access. The server URL is passed explicitly
// because registration happens before the server becomes the active one.
func (c *Client) Authenticate(ctx context.Context, serverURL, email, password string) ([]CompanyGrant, error) {
	var resp struct {
		Companies []CompanyGrant `json:"companies"`
	}
	req := map[string]string{"email": email, "password": password}
	url := strings.TrimRight(serverURL, "/") + "/user/session"
	if err := c.postJSON(ctx, url, req, &resp); err != nil {
		return nil, err
	}
	return resp.Companies, nil
}

// SignIn activates a company session on the active backend and returns the
// auth token. Callers must switch the active base URL first when the tenant
// lives on a different server.
func (c *Client) SignIn(ctx context.Context, tenant store.Tenant) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	req := map[string]int64{"company_id": tenant.Company.ID}
	url := strings.TrimRight(c.base.ActiveBaseURL(ctx), "/") + "/user/session/company"
	if err := c.postJSON(ctx, url, req, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

// SignOut ends the session on the active backend. A failure is logged and
// swallowed: local session state is cleared regardless.
func (c *Client) SignOut(ctx context.Context) error {
	url := strings.TrimRight(c.base.ActiveBaseURL(ctx), "/") + "/user/session"
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("building sign-out request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("sign-out request failed", "error", err)
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		c.logger.Warn("sign-out rejected by backend", "status", resp.StatusCode)
	}
	return nil
}

// postJSON sends a JSON POST and decodes the response into out.
// Non-2xx responses become *APIError with the backend's message extracted.
func (c *Client) postJSON(ctx context.Context, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling backend: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    extractMessage(data),
		}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// extractMessage pulls the "error" or "message" field from an error body.
func extractMessage(data []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if body.Error != "" {
		return body.Error
	}
	return body.Message
}
