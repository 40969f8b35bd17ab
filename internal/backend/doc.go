// Package backend is the HTTP client for remote dashboard backends.
//
// Three kinds of calls exist: directory lookups that resolve a server code to
// a base URL, credential exchange against an explicit server URL during
// registration, and session calls (sign-in, sign-out) against whatever base
// URL is active at the moment of the request. Backend error bodies carry an
// "error" or "message" field; both are surfaced through APIError.
package backend
