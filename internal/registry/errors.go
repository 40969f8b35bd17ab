// ABOUTME: Typed errors for server registration failures
// ABOUTME: Each carries the backend's own message when one was returned

package registry

import (
	"errors"
	"fmt"

	"github.com/epicsolution1211/crm-session-gateway/internal/backend"
)

// ErrDuplicateServer indicates the server code is already registered.
// Raised before any network call is made.
var ErrDuplicateServer = errors.New("server code already registered")

// ErrNoCompanies indicates the credentials were valid but the account has no
// accessible company. Distinct from an authentication failure: there is no
// client-side remedy.
var ErrNoCompanies = errors.New("account has no accessible companies")

// ResolutionError indicates the directory could not resolve a server code.
type ResolutionError struct {
	ServerCode string
	Err        error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolving server code %q: %v", e.ServerCode, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// AuthenticationError indicates the resolved server rejected the credentials.
type AuthenticationError struct {
	ServerURL string
	Err       error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authenticating against %s: %v", e.ServerURL, e.Err)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// BackendMessage extracts the backend-provided message from an error chain,
// or "" when the failure carried none (e.g. a network error).
func BackendMessage(err error) string {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}
