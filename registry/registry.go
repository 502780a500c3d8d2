package registry

import (
	"context"
	"errors"
	"strings"

	"github.com/MrEthical07/goSession/engine"
	"github.com/google/uuid"
)

// refreshRetries bounds optimistic CAS attempts before Refresh degrades to
// a plain whole-record replace.
const refreshRetries = 3

// Registry owns the token→subject mapping and the category→{tokens} index
// over an [engine.Engine]. All methods are safe for concurrent use when the
// engine is.
type Registry struct {
	engine    engine.Engine
	namespace string
	keyPrefix string
	grpPrefix string
}

// New creates a registry over the given engine. namespace isolates this
// registry's keys within a shared engine; empty selects the default shared
// namespace.
func New(e engine.Engine, namespace string) *Registry {
	return &Registry{
		engine:    e,
		namespace: namespace,
		keyPrefix: "t:" + namespace + ":",
		grpPrefix: "c:" + namespace + ":",
	}
}

// CategoryFor derives the grouping key for an identity. Pure function, so
// the index scheme needs no separate category registration step and stays
// engine-agnostic.
func CategoryFor(identityID string) string {
	return "auth-" + identityID
}

func (r *Registry) keyFor(token string) string {
	return r.keyPrefix + token
}

func (r *Registry) groupFor(category string) string {
	return r.grpPrefix + category
}

// Register persists the subject under token, indexed by the category derived
// from the subject's current identity. An empty token mints a fresh one; an
// empty subject ID mints a stable session id. Registering an existing token
// is the update path: the indexed put re-derives the category, so the index
// stays consistent even if identity somehow changed.
//
// Register returns the token the subject is now reachable under.
func (r *Registry) Register(ctx context.Context, token string, sub *Subject) (string, error) {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}

	if token == "" {
		minted, err := NewToken(r.namespace)
		if err != nil {
			return "", err
		}
		token = minted
	}

	data, err := encodeSubject(sub)
	if err != nil {
		return "", err
	}

	group := r.groupFor(CategoryFor(sub.IdentityID))
	if err := r.engine.PutIndexed(ctx, r.keyFor(token), data, group); err != nil {
		return "", err
	}

	return token, nil
}

// Retrieve looks a token up. Absence is (nil, nil): a missing, disposed, and
// never-issued token are indistinguishable by design, all meaning "not a
// valid session".
func (r *Registry) Retrieve(ctx context.Context, token string) (*Subject, error) {
	data, err := r.engine.Get(ctx, r.keyFor(token))
	if err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return decodeSubject(data)
}

// RetrieveGroup returns the current membership snapshot of a category,
// keyed by token. Order is unspecified; callers must not depend on it.
func (r *Registry) RetrieveGroup(ctx context.Context, category string) (map[string]*Subject, error) {
	raw, err := r.engine.GetGroup(ctx, r.groupFor(category))
	if err != nil {
		return nil, err
	}

	out := make(map[string]*Subject, len(raw))
	for key, data := range raw {
		sub, decErr := decodeSubject(data)
		if decErr != nil {
			return nil, decErr
		}
		out[strings.TrimPrefix(key, r.keyPrefix)] = sub
	}
	return out, nil
}

// Dispose removes a token and its index membership. Disposing an absent
// token is a no-op, not an error.
func (r *Registry) Dispose(ctx context.Context, token string) error {
	return r.engine.DeleteIndexed(ctx, r.keyFor(token))
}

// DisposeGroup removes every session in a category and reports how many
// were disposed.
//
// ATOMICITY NOTE: membership is read first, then each entry is disposed; a
// session registered between the two phases survives this call. The stray
// session is caught by the next DisposeGroup invocation, which callers
// needing stronger guarantees can issue as a follow-up.
func (r *Registry) DisposeGroup(ctx context.Context, category string) (int, error) {
	raw, err := r.engine.GetGroup(ctx, r.groupFor(category))
	if err != nil {
		return 0, err
	}

	disposed := 0
	for key := range raw {
		if err := r.engine.DeleteIndexed(ctx, key); err != nil {
			return disposed, err
		}
		disposed++
	}
	return disposed, nil
}

// Refresh applies mutate to the stored subject and persists the result as a
// whole-record replace. When the engine advertises compare-and-swap, lost
// updates are prevented with bounded retries; otherwise (and after the
// retries run out) the write is the base contract's plain replace, where
// concurrent writers to the same token may overwrite each other.
//
// mutate must not change IdentityID: the category index is only re-derived
// by Register. Absence is (nil, nil), as with Retrieve.
func (r *Registry) Refresh(ctx context.Context, token string, mutate func(*Subject)) (*Subject, error) {
	key := r.keyFor(token)

	data, err := r.engine.Get(ctx, key)
	if err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	swapper, canSwap := r.engine.(engine.Swapper)

	for attempt := 0; canSwap && attempt < refreshRetries; attempt++ {
		sub, decErr := decodeSubject(data)
		if decErr != nil {
			return nil, decErr
		}
		mutate(sub)

		next, encErr := encodeSubject(sub)
		if encErr != nil {
			return nil, encErr
		}

		swapped, swapErr := swapper.CompareAndSwap(ctx, key, data, next)
		if swapErr != nil {
			return nil, swapErr
		}
		if swapped {
			return sub, nil
		}

		data, err = r.engine.Get(ctx, key)
		if err != nil {
			if errors.Is(err, engine.ErrNotFound) {
				// Lost the race to a disposal.
				return nil, nil
			}
			return nil, err
		}
	}

	sub, decErr := decodeSubject(data)
	if decErr != nil {
		return nil, decErr
	}
	mutate(sub)

	next, encErr := encodeSubject(sub)
	if encErr != nil {
		return nil, encErr
	}
	if err := r.engine.Put(ctx, key, next); err != nil {
		return nil, err
	}
	return sub, nil
}

// Namespace returns the registry's isolation namespace.
func (r *Registry) Namespace() string {
	return r.namespace
}
