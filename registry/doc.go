// Package registry enforces the token registry invariants on top of the raw
// engine capability: every active token maps to exactly one subject, every
// subject is discoverable through its identity-derived category, and
// disposal removes both sides atomically from the perspective of readers.
//
// Namespaced registries can share one engine instance; each prefixes its
// keys and groups with its namespace, so isolated registries (one per test,
// one per tenant) never observe each other's tokens.
package registry
