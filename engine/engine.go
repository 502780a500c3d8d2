package engine

import (
	"context"
	"errors"
)

// ErrNotFound is the absence sentinel for Get. Callers treat it as a normal
// outcome, not a failure.
var ErrNotFound = errors.New("engine: key not found")

// ErrUnavailable wraps backend failures (connectivity, protocol, script
// errors). Implementations wrap the underlying error so callers can match
// with errors.Is.
var ErrUnavailable = errors.New("engine: backend unavailable")

// Engine is the keyed-storage capability consumed by the registry. It may be
// shared by every session in the process, or across processes when the
// backend is a shared store, so no operation may assume single-threaded
// access.
//
// Contract:
//   - Put upserts, replacing any prior value. An existing indexed entry
//     keeps its group membership; Put never touches the index.
//   - Get returns ErrNotFound for absent keys.
//   - Delete removes the primary entry only and is idempotent. For indexed
//     keys DeleteIndexed is the correct removal; a Delete-orphaned index
//     entry is tolerated and healed lazily by GetGroup.
//   - PutIndexed upserts and registers the key under group. When the key was
//     previously indexed under a different group it is migrated (removed
//     from the old group, added to the new) so a key never appears in two
//     groups nor lingers in a stale one.
//   - GetGroup returns every key currently indexed under group with its
//     value. Order is unspecified.
//   - DeleteIndexed removes the primary entry and its index membership
//     atomically with respect to readers, and is idempotent.
//   - Close releases backend resources. The engine's owner calls it once at
//     shutdown.
type Engine interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error

	PutIndexed(ctx context.Context, key string, value []byte, group string) error
	GetGroup(ctx context.Context, group string) (map[string][]byte, error)
	DeleteIndexed(ctx context.Context, key string) error

	Close() error
}

// Swapper is an optional capability for engines that can replace a value
// atomically only when it still matches an expected snapshot. The registry
// uses it to protect read-modify-write refreshes from lost updates; engines
// without it fall back to the base contract's whole-record replace.
type Swapper interface {
	// CompareAndSwap replaces key's value with next only when the current
	// value equals expected. It reports whether the swap happened; a missing
	// key is a plain false, not an error.
	CompareAndSwap(ctx context.Context, key string, expected, next []byte) (bool, error)
}
