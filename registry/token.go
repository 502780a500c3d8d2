package registry

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// tokenRawSize gives 192 bits of entropy, comfortably past the point where
// collisions are a deployment concern rather than a math concern.
const tokenRawSize = 24

// NewToken mints an opaque bearer token: 24 random bytes, base64url without
// padding (32 characters). A non-empty seed is mixed in through HMAC-SHA256
// keyed by the seed over the random bytes, namespacing the token shape
// without ever lowering its entropy.
//
// NewToken fails only when the entropy source does; callers treat that as a
// process-level fault, not a per-call condition.
func NewToken(seed string) (string, error) {
	var raw [tokenRawSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}

	if seed != "" {
		mac := hmac.New(sha256.New, []byte(seed))
		mac.Write(raw[:])
		sum := mac.Sum(nil)
		copy(raw[:], sum[:tokenRawSize])
	}

	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

// TokenDigest returns a short stable fingerprint of a token, safe to put in
// audit events and logs where the token itself must never appear.
func TokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}
