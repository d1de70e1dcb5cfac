package routegate

import "errors"

var (
	// ErrMissingCredential is returned when a protected route is requested without the credential cookie.
	ErrMissingCredential = errors.New("missing credential")
	// ErrInvalidCredential covers every verification failure: bad signature, malformed or expired token.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrConfiguration reports a deployment defect, such as an absent signing secret.
	// Users see the same redirect as for ErrInvalidCredential.
	ErrConfiguration = errors.New("guard misconfigured")
	// ErrGuardNotReady is returned by methods called on a nil Guard.
	ErrGuardNotReady = errors.New("guard not initialized")
	// ErrBuilderUsed is returned when Build is called twice on the same Builder.
	ErrBuilderUsed = errors.New("builder already used")
)
