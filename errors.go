package goSession

import "errors"

var (
	// ErrManagerNotReady is returned when a Session is used before its Manager
	// was built.
	ErrManagerNotReady = errors.New("manager not initialized")
	// ErrEngineUnavailable wraps storage engine failures surfaced through
	// Manager and Session operations.
	ErrEngineUnavailable = errors.New("storage engine unavailable")
	// ErrTokenGeneration is returned when the entropy source fails while
	// minting a token. Callers should treat it as fatal.
	ErrTokenGeneration = errors.New("token generation failed")
	// ErrNotSessionOwner is returned by Session.LogOutToken when the target
	// token belongs to a different identity.
	ErrNotSessionOwner = errors.New("token does not belong to session identity")
)
