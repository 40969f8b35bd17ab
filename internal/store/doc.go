// Package store provides persistence for the session gateway.
//
// State is a durable string-keyed store (see StateStore) holding the active
// base URL, the tenant list, the active company, the remembered last page,
// and the backend auth token. SessionState layers typed, validated accessors
// over that store; composite values are JSON-encoded whole values, and every
// mutation is a read-modify-write of the complete value.
//
// Two implementations exist: SQLiteStore for production and MockStore for
// tests. An audit log of registry changes lives alongside the state.
package store
