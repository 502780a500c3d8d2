package goSession

import (
	"errors"

	"github.com/MrEthical07/goSession/engine"
	"github.com/MrEthical07/goSession/registry"
)

// Builder assembles a [Manager]. A builder is single-use: configure it,
// call Build once, then discard it.
type Builder struct {
	config Config
	engine engine.Engine

	auditSink AuditSink

	built bool
}

// New creates a builder carrying the documented defaults: cookie "session"
// (Path "/", HttpOnly, SameSite=Lax), access tracking off, audit and
// metrics off, and a fresh in-process memory engine unless one is injected.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithEngine injects the storage engine. The engine stays caller-owned:
// Manager.Close will not close it. Without this call, Build constructs a
// memory engine the manager owns and tears down.
func (b *Builder) WithEngine(e engine.Engine) *Builder {
	b.engine = e
	return b
}

// WithAuditSink sets the destination for lifecycle audit events and enables
// the audit dispatcher.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = true
	return b
}

// WithNamespace sets the registry isolation namespace (the registryId/seed
// option).
func (b *Builder) WithNamespace(namespace string) *Builder {
	b.config.Registry.Namespace = namespace
	return b
}

// WithAccessTracking toggles lastAccessed/lastIp refresh on resolve.
func (b *Builder) WithAccessTracking(enabled bool) *Builder {
	b.config.Registry.TrackAccess = enabled
	return b
}

// WithMetricsEnabled toggles the in-process metrics collector.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and assembles the manager.
func (b *Builder) Build() (*Manager, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	eng := b.engine
	ownsEngine := false
	if eng == nil {
		eng = engine.NewMemory()
		ownsEngine = true
	}

	m := &Manager{
		config:     cfg,
		engine:     eng,
		ownsEngine: ownsEngine,
		registry:   registry.New(eng, cfg.Registry.Namespace),
		metrics:    NewMetrics(cfg.Metrics),
		audit:      newAuditDispatcher(cfg.Audit, b.auditSink),
	}

	b.built = true

	return m, nil
}
