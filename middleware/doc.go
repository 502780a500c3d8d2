// Package middleware is the HTTP glue over goSession: it extracts inbound
// tokens (authorization header first, configured cookie second), injects a
// resolved request-scoped Session into the request context, delivers freshly
// minted tokens back through the response, and guards authenticated-only
// routes.
//
// Everything here is mechanical transport plumbing; the session semantics
// live in the root package.
package middleware
