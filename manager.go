package goSession

import (
	"context"
	"fmt"

	"github.com/MrEthical07/goSession/engine"
	"github.com/MrEthical07/goSession/registry"
)

// Manager is the process-wide session lifecycle coordinator. Build one at
// startup through [Builder.Build], share it across requests, and call Close
// at shutdown. All methods are safe for concurrent use.
type Manager struct {
	config     Config
	engine     engine.Engine
	ownsEngine bool
	registry   *registry.Registry
	metrics    *Metrics
	audit      *auditDispatcher
}

// Session creates a fresh request-scoped façade in the Anonymous state.
func (m *Manager) Session() *Session {
	return &Session{manager: m}
}

// Config returns the resolved configuration.
func (m *Manager) Config() Config {
	return cloneConfig(m.config)
}

// ActiveSessionsFor returns every active session for an explicit identity,
// keyed by token. This is the administrative variant of
// [Session.ActiveSessions]: it needs no authenticated instance.
func (m *Manager) ActiveSessionsFor(ctx context.Context, identityID string) (map[string]*registry.Subject, error) {
	group, err := m.registry.RetrieveGroup(ctx, registry.CategoryFor(identityID))
	if err != nil {
		return nil, m.engineFailure(ctx, err)
	}
	return group, nil
}

// RevokeToken disposes an arbitrary token without verifying ownership: the
// administrative escape hatch. Callers are responsible for knowing whose
// session they are revoking. Revoking an absent token is a no-op.
func (m *Manager) RevokeToken(ctx context.Context, token string) error {
	if err := m.registry.Dispose(ctx, token); err != nil {
		return m.engineFailure(ctx, err)
	}

	m.metrics.Inc(MetricRevoke)
	m.emit(ctx, AuditEvent{
		EventType:   AuditRevoke,
		TokenDigest: registry.TokenDigest(token),
		Success:     true,
	})
	return nil
}

// RevokeAll disposes every active session for an identity ("log out all
// devices") and reports how many were disposed.
func (m *Manager) RevokeAll(ctx context.Context, identityID string) (int, error) {
	disposed, err := m.registry.DisposeGroup(ctx, registry.CategoryFor(identityID))
	if err != nil {
		return disposed, m.engineFailure(ctx, err)
	}

	m.metrics.Inc(MetricRevokeAll)
	m.emit(ctx, AuditEvent{
		EventType:  AuditRevokeAll,
		IdentityID: identityID,
		Success:    true,
	})
	return disposed, nil
}

// MetricsSnapshot copies the current counters and histograms for exporters.
func (m *Manager) MetricsSnapshot() MetricsSnapshot {
	return m.metrics.Snapshot()
}

// AuditDropped reports events dropped by the dispatcher under backpressure.
func (m *Manager) AuditDropped() uint64 {
	return m.audit.Dropped()
}

// Close drains the audit dispatcher and, when the manager owns its engine
// (the default memory engine), tears the engine down. Injected engines are
// the caller's to close.
func (m *Manager) Close() error {
	m.audit.Close()
	if m.ownsEngine {
		return m.engine.Close()
	}
	return nil
}

func (m *Manager) emit(ctx context.Context, event AuditEvent) {
	if m.audit == nil {
		return
	}
	event.Timestamp = now()
	m.audit.Emit(ctx, event)
}

// engineFailure wraps a registry/engine error in the public sentinel and
// accounts for it. NotFound never reaches here; absence is not an error.
func (m *Manager) engineFailure(ctx context.Context, err error) error {
	m.metrics.Inc(MetricEngineFailure)
	m.emit(ctx, AuditEvent{
		EventType: AuditEngineFailed,
		Error:     err.Error(),
	})
	return fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
}
