package session

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ErrNoProfile is returned by UserProfile.Decode when no identity is present.
var ErrNoProfile = errors.New("session: no user profile")

// UserProfile is the identity payload exactly as the backend returned it.
// The manager only cares whether it is present; Decode lets the application
// read the fields it knows about.
type UserProfile json.RawMessage

// Present reports whether the profile holds a value other than JSON null.
func (p UserProfile) Present() bool {
	trimmed := bytes.TrimSpace(p)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// Decode unmarshals the profile into v.
func (p UserProfile) Decode(v any) error {
	if !p.Present() {
		return ErrNoProfile
	}
	return json.Unmarshal(p, v)
}

func (p UserProfile) MarshalJSON() ([]byte, error) {
	if !p.Present() {
		return []byte("null"), nil
	}
	return p, nil
}

func (p *UserProfile) UnmarshalJSON(data []byte) error {
	if p == nil {
		return errors.New("session: UnmarshalJSON on nil UserProfile")
	}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*p = nil
		return nil
	}
	*p = append((*p)[0:0], data...)
	return nil
}

func (p UserProfile) clone() UserProfile {
	if !p.Present() {
		return nil
	}
	out := make(UserProfile, len(p))
	copy(out, p)
	return out
}

// AuthResponse is the body shared by the identity, login and register
// endpoints.
type AuthResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	User    UserProfile `json:"user,omitempty"`
}
