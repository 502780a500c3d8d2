package goSession

import (
	"errors"
	"net/http"
	"strings"
)

// Config is the full option surface of the session manager. All options are
// resolved once at [Builder.Build]; a built [Manager] never consults mutable
// configuration again.
type Config struct {
	Cookie   CookieConfig
	Registry RegistryConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
COOKIE CONFIG
====================================
*/

// CookieConfig controls how the middleware layer delivers tokens back to
// clients. The core never touches cookies itself; it hands these attributes
// to whatever TokenTransport is bound to the session.
type CookieConfig struct {
	Name     string // session cookie name, default "session"
	Path     string // default "/"
	HTTPOnly bool
	Secure   bool
	SameSite http.SameSite
}

/*
====================================
REGISTRY CONFIG
====================================
*/

// RegistryConfig controls the token registry behind the manager.
type RegistryConfig struct {
	// Namespace isolates this registry's keys inside a shared storage
	// engine (the registryId / seed option). Empty means the default
	// shared namespace.
	Namespace string
	// TrackAccess refreshes lastAccessed/lastIp on every successful
	// resolve. Off by default: it costs one extra engine write per request.
	TrackAccess bool
}

// AuditConfig controls the buffered audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process metrics collector.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

func defaultConfig() Config {
	return Config{
		Cookie: CookieConfig{
			Name:     "session",
			Path:     "/",
			HTTPOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
		Registry: RegistryConfig{},
		Audit: AuditConfig{
			BufferSize: 256,
			DropIfFull: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	// No reference types inside Config yet; a value copy is a deep copy.
	return cfg
}

// Validate reports configuration combinations the manager refuses to run
// with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Cookie.Name) == "" {
		return errors.New("Cookie.Name must not be empty")
	}
	if strings.ContainsAny(c.Cookie.Name, " ;,=") {
		return errors.New("Cookie.Name contains invalid characters")
	}
	if strings.Contains(c.Registry.Namespace, ":") {
		return errors.New("Registry.Namespace must not contain ':'")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit.BufferSize must be positive when audit is enabled")
	}
	return nil
}
