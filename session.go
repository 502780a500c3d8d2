package goSession

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goSession/engine"
	"github.com/MrEthical07/goSession/registry"
)

// now is indirected for tests that pin timestamps.
var now = time.Now

// TokenTransport delivers a freshly minted token back to the client. The
// middleware package binds one that sets the authorization response header
// and the configured cookie; the core only ever calls DeliverToken.
type TokenTransport interface {
	DeliverToken(token string)
}

// Session is the request-scoped lifecycle façade. It starts Anonymous;
// Resolve or LogIn move it to Authenticated. One Session serves one request
// and must not be shared across goroutines.
//
// Lifecycle operations other than Resolve and LogIn are silent no-ops while
// Anonymous: request-handling code should not have to branch on every call.
type Session struct {
	manager   *Manager
	transport TokenTransport

	authenticated bool
	id            string
	identityID    string
	token         string
	deviceID      string
	firstAccessed time.Time
	lastAccessed  time.Time
	firstIP       string
	lastIP        string
	userAgent     string
}

// WithTransport binds outbound token delivery and returns the session for
// chaining.
func (s *Session) WithTransport(t TokenTransport) *Session {
	s.transport = t
	return s
}

// Resolve authenticates the session from an inbound token. An empty token
// is the expected shape of an unauthenticated request: no registry call is
// made and no error returned. An unknown or disposed token likewise leaves
// the session Anonymous with a nil error; only engine failures are errors.
//
// On a hit the session hydrates every subject field and, when access
// tracking is enabled, persists a lastAccessed/lastIp refresh. With a plain
// (non-CAS) engine that refresh is a whole-record replace and may race a
// concurrent device-id update on the same token; see the package
// concurrency contract.
func (s *Session) Resolve(ctx context.Context, token string) error {
	if s.manager == nil {
		return ErrManagerNotReady
	}

	if token == "" {
		s.manager.metrics.Inc(MetricResolveAnonymous)
		return nil
	}

	started := now()

	sub, err := s.manager.registry.Retrieve(ctx, token)
	if err != nil {
		return s.manager.engineFailure(ctx, err)
	}
	if sub == nil {
		s.manager.metrics.Inc(MetricResolveMiss)
		s.manager.emit(ctx, AuditEvent{
			EventType:   AuditResolveMiss,
			TokenDigest: registry.TokenDigest(token),
			IP:          clientIPFromContext(ctx),
		})
		return nil
	}

	ip := clientIPFromContext(ctx)
	if ip == "" {
		ip = sub.LastIP
	}

	s.authenticated = true
	s.token = token
	s.id = sub.ID
	s.identityID = sub.IdentityID
	s.deviceID = sub.DeviceID
	s.firstAccessed = sub.FirstAccessed
	s.lastAccessed = now()
	s.firstIP = sub.FirstIP
	s.lastIP = ip
	s.userAgent = sub.UserAgent

	if s.manager.config.Registry.TrackAccess {
		// A nil refreshed subject means a disposal won the race; the session
		// stays hydrated for this request, which is a valid outcome.
		_, err := s.manager.registry.Refresh(ctx, token, func(r *registry.Subject) {
			r.LastAccessed = s.lastAccessed
			r.LastIP = s.lastIP
		})
		if err != nil {
			return s.manager.engineFailure(ctx, err)
		}
		s.manager.metrics.Inc(MetricAccessRefresh)
	}

	s.manager.metrics.Inc(MetricResolveHit)
	s.manager.metrics.Observe(MetricResolveLatency, now().Sub(started))
	return nil
}

// LogIn mints a new session for identityID and returns its token. Valid
// from any state: logging in while already authenticated creates an
// additional, independent session for the new identity and rebinds this
// façade to it. IP and user agent are captured from ctx (see WithClientIP
// and WithUserAgent). When a transport is bound the token is also delivered
// outward.
func (s *Session) LogIn(ctx context.Context, identityID string) (string, error) {
	if s.manager == nil {
		return "", ErrManagerNotReady
	}

	ts := now()
	ip := clientIPFromContext(ctx)
	ua := userAgentFromContext(ctx)

	sub := &registry.Subject{
		IdentityID:    identityID,
		FirstAccessed: ts,
		LastAccessed:  ts,
		FirstIP:       ip,
		LastIP:        ip,
		UserAgent:     ua,
	}

	token, err := s.manager.registry.Register(ctx, "", sub)
	if err != nil {
		if errors.Is(err, engine.ErrUnavailable) {
			return "", s.manager.engineFailure(ctx, err)
		}
		return "", errors.Join(ErrTokenGeneration, err)
	}

	s.authenticated = true
	s.token = token
	s.id = sub.ID
	s.identityID = identityID
	s.deviceID = ""
	s.firstAccessed = ts
	s.lastAccessed = ts
	s.firstIP = ip
	s.lastIP = ip
	s.userAgent = ua

	if s.transport != nil {
		s.transport.DeliverToken(token)
	}

	s.manager.metrics.Inc(MetricLogIn)
	s.manager.emit(ctx, AuditEvent{
		EventType:   AuditLogIn,
		IdentityID:  identityID,
		SessionID:   sub.ID,
		TokenDigest: registry.TokenDigest(token),
		IP:          ip,
		UserAgent:   ua,
		Success:     true,
	})

	return token, nil
}

// LogOut disposes the current token and returns the session to Anonymous.
// No-op while Anonymous.
func (s *Session) LogOut(ctx context.Context) error {
	if s.manager == nil {
		return ErrManagerNotReady
	}
	if !s.authenticated {
		return nil
	}

	if err := s.manager.registry.Dispose(ctx, s.token); err != nil {
		return s.manager.engineFailure(ctx, err)
	}

	s.manager.metrics.Inc(MetricLogOut)
	s.manager.emit(ctx, AuditEvent{
		EventType:   AuditLogOut,
		IdentityID:  s.identityID,
		SessionID:   s.id,
		TokenDigest: registry.TokenDigest(s.token),
		Success:     true,
	})

	s.reset()
	return nil
}

// LogOutToken revokes another active session belonging to the same
// identity, without touching this façade's own state. Passing the session's
// own token behaves as LogOut. The target must belong to the caller's
// identity; revoking sessions across identities is [Manager.RevokeToken]'s
// job. Revoking an already-absent token is a no-op. No-op while Anonymous.
func (s *Session) LogOutToken(ctx context.Context, token string) error {
	if s.manager == nil {
		return ErrManagerNotReady
	}
	if !s.authenticated {
		return nil
	}
	if token == s.token {
		return s.LogOut(ctx)
	}

	sub, err := s.manager.registry.Retrieve(ctx, token)
	if err != nil {
		return s.manager.engineFailure(ctx, err)
	}
	if sub == nil {
		return nil
	}
	if sub.IdentityID != s.identityID {
		return ErrNotSessionOwner
	}

	if err := s.manager.registry.Dispose(ctx, token); err != nil {
		return s.manager.engineFailure(ctx, err)
	}

	s.manager.metrics.Inc(MetricRevoke)
	s.manager.emit(ctx, AuditEvent{
		EventType:   AuditRevoke,
		IdentityID:  s.identityID,
		SessionID:   sub.ID,
		TokenDigest: registry.TokenDigest(token),
		Success:     true,
	})
	return nil
}

// UpdateDeviceID binds a client-supplied device correlation id to the
// current session and persists it as a whole-record replace. No-op while
// Anonymous.
func (s *Session) UpdateDeviceID(ctx context.Context, deviceID string) error {
	if s.manager == nil {
		return ErrManagerNotReady
	}
	if !s.authenticated {
		return nil
	}

	_, err := s.manager.registry.Refresh(ctx, s.token, func(r *registry.Subject) {
		r.DeviceID = deviceID
	})
	if err != nil {
		return s.manager.engineFailure(ctx, err)
	}

	s.deviceID = deviceID
	s.manager.metrics.Inc(MetricDeviceUpdate)
	s.manager.emit(ctx, AuditEvent{
		EventType:  AuditDeviceBound,
		IdentityID: s.identityID,
		SessionID:  s.id,
		Success:    true,
	})
	return nil
}

// ActiveSessions returns every active session for the caller's own
// identity, keyed by token. Returns (nil, nil) while Anonymous.
func (s *Session) ActiveSessions(ctx context.Context) (map[string]*registry.Subject, error) {
	if s.manager == nil {
		return nil, ErrManagerNotReady
	}
	if !s.authenticated {
		return nil, nil
	}
	return s.manager.ActiveSessionsFor(ctx, s.identityID)
}

// Authenticated reports whether the session resolved or logged in.
func (s *Session) Authenticated() bool { return s.authenticated }

// IdentityID returns the owning identity, empty while Anonymous.
func (s *Session) IdentityID() string { return s.identityID }

// Token returns the current bearer token, empty while Anonymous.
func (s *Session) Token() string { return s.token }

// SessionID returns the stable session id, which survives token rotation.
func (s *Session) SessionID() string { return s.id }

// DeviceID returns the bound device correlation id, empty when unbound.
func (s *Session) DeviceID() string { return s.deviceID }

// FirstAccessed returns the session creation time.
func (s *Session) FirstAccessed() time.Time { return s.firstAccessed }

// LastAccessed returns the most recent tracked access time.
func (s *Session) LastAccessed() time.Time { return s.lastAccessed }

// FirstIP returns the IP recorded at creation.
func (s *Session) FirstIP() string { return s.firstIP }

// LastIP returns the IP of the most recent tracked access.
func (s *Session) LastIP() string { return s.lastIP }

// UserAgent returns the user agent recorded at creation.
func (s *Session) UserAgent() string { return s.userAgent }

func (s *Session) reset() {
	s.authenticated = false
	s.id = ""
	s.identityID = ""
	s.token = ""
	s.deviceID = ""
	s.firstAccessed = time.Time{}
	s.lastAccessed = time.Time{}
	s.firstIP = ""
	s.lastIP = ""
	s.userAgent = ""
}
