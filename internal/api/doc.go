// Package api exposes the gateway's local HTTP JSON interface.
//
// The dashboard shell and the sessionctl CLI both speak to sessiond through
// this surface. Login exchanges the operator password for a short-lived JWT;
// every other route requires it as a bearer token. Registration failures map
// to distinct status codes so callers can tell a duplicate code (409) from a
// directory miss (502), rejected credentials (401), or an account with no
// companies (422), with the backend's own message carried through when it
// sent one.
package api
