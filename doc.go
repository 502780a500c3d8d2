// Package goSession issues and validates opaque bearer tokens and tracks,
// per identity, the set of concurrently active sessions. It is the Go
// counterpart of a classic "session middleware + token registry" stack:
// a process-wide [Manager] owns the token registry, and a lightweight
// request-scoped [Session] façade performs login, logout, access tracking,
// device binding, and active-session queries.
//
// The package is designed for concurrent server workloads: Manager methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build]. A [Session] is request-scoped state and must not be
// shared across requests.
//
// # Architecture boundaries
//
// goSession is the public surface. It exposes [Manager], [Session],
// [Builder], [Config], and value types (MetricsSnapshot, AuditEvent).
// Storage lives behind the engine.Engine capability (in-memory reference
// implementation plus a Redis implementation); record invariants are
// enforced by the registry subpackage; HTTP glue lives in middleware.
//
// # What this package must NOT do
//
//   - Verify credentials, evaluate permissions, or standardize token
//     formats. Tokens are opaque strings; "who may log in" is the caller's
//     problem.
//   - Expose storage clients or encoding details in its public API.
//   - Block on anything but engine I/O. There is no cross-session locking.
//
// # Concurrency contract
//
// Registry operations on the same token may race. Disposal racing a
// retrieval yields either a valid subject or absence; both are valid.
// Access-tracking refreshes and device-id updates are whole-record
// replaces: engines that implement the optional compare-and-swap
// capability get lost-update protection, plain engines get the documented
// last-write-wins behavior.
package goSession
