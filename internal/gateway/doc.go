// Package gateway assembles sessiond from its parts.
//
// New wires the SQLite store, the backend client with its runtime-mutable
// base URL, the server registry, the tenant switcher, and the HTTP API into
// one http.Server. Run serves it on a plain TCP listener or, when enabled,
// a Tailscale tsnet node, and shuts everything down in order when the
// context is canceled.
package gateway
