// Package registry manages the set of registered backend servers.
//
// Registering a server is a strictly ordered credential exchange: the code is
// checked for uniqueness before any network call, resolved to a base URL via
// the directory, authenticated against, and only then are the returned
// companies tagged with the server's code and URL and appended to the
// persisted tenant list. Removal cascades over every tenant sharing the
// server code and force-signs-out the active session when it lived there.
package registry
