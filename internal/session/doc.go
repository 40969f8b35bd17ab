// Package session activates tenants and resolves where they land.
//
// The switcher enforces the selection protocol: a tenant needing a second
// factor is only signaled, never signed in; otherwise the active base URL is
// switched to the tenant's server strictly before the sign-in call, the
// returned token and company become the active session, and the landing
// route is computed from the account's capability flags with the remembered
// last page taking precedence. The base-URL resolver is the single source of
// truth for which backend all subsequent requests target.
package session
