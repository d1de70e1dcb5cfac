package session

import (
	"errors"
	"fmt"
)

// Kind classifies a session failure.
type Kind uint8

const (
	// KindNetworkFailure means the backend could not be reached, timed out,
	// or answered with a server error.
	KindNetworkFailure Kind = iota + 1
	// KindUnauthenticated means the identity endpoint answered but there is
	// no session. Bootstrap absorbs it.
	KindUnauthenticated
	// KindBackendRejected means the backend refused the request and usually
	// explains why in Error.Message.
	KindBackendRejected
)

func (k Kind) String() string {
	switch k {
	case KindNetworkFailure:
		return "network_failure"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindBackendRejected:
		return "backend_rejected"
	default:
		return "unknown"
	}
}

// Sentinels matching each Kind for use with errors.Is.
var (
	ErrNetworkFailure  = errors.New("session: backend unavailable")
	ErrUnauthenticated = errors.New("session: not authenticated")
	ErrBackendRejected = errors.New("session: rejected by backend")
)

// Error is the classified failure returned by Backend calls and by
// Manager.Login and Manager.Register.
type Error struct {
	Kind Kind
	// Op is the endpoint operation: "me", "login", "register" or "logout".
	Op string
	// Status is the HTTP status when one was received.
	Status int
	// Message is the backend-provided explanation, safe to show to a user.
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("session %s: %s: %s", e.Op, e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("session %s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("session %s: %s: status %d", e.Op, e.Kind, e.Status)
	default:
		return fmt.Sprintf("session %s: %s", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the Kind sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNetworkFailure:
		return e.Kind == KindNetworkFailure
	case ErrUnauthenticated:
		return e.Kind == KindUnauthenticated
	case ErrBackendRejected:
		return e.Kind == KindBackendRejected
	}
	return false
}

// KindOf returns the Kind of err, or zero when err is not a session error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}

// MessageOf returns the backend-provided message carried by err, if any.
func MessageOf(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Message
	}
	return ""
}
