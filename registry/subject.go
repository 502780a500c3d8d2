package registry

import (
	"encoding/json"
	"fmt"
	"time"
)

// Subject is the persisted record for one active session. The bearer token
// is the storage key and is never stored inside the record; ID survives
// token rotation.
//
// ID, FirstAccessed, and FirstIP are write-once at creation. Everything
// else is replaced wholesale on update.
type Subject struct {
	ID         string `json:"id"`
	IdentityID string `json:"identityId"`
	DeviceID   string `json:"deviceId,omitempty"`

	FirstAccessed time.Time `json:"firstAccessed"`
	LastAccessed  time.Time `json:"lastAccessed"`

	FirstIP   string `json:"firstIp,omitempty"`
	LastIP    string `json:"lastIp,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
}

// Clone returns an independent copy.
func (s *Subject) Clone() *Subject {
	if s == nil {
		return nil
	}
	out := *s
	return &out
}

func encodeSubject(s *Subject) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode subject: %w", err)
	}
	return data, nil
}

func decodeSubject(data []byte) (*Subject, error) {
	var s Subject
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode subject: %w", err)
	}
	return &s, nil
}
