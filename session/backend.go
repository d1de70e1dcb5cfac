package session

import "context"

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the register request body.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Backend is the identity service as the Manager sees it. Implementations
// return either a response with Success set or a non-nil *Error; a response
// with Success false must be reported as an error.
type Backend interface {
	Me(ctx context.Context) (AuthResponse, error)
	Login(ctx context.Context, creds Credentials) (AuthResponse, error)
	Register(ctx context.Context, reg Registration) (AuthResponse, error)
	Logout(ctx context.Context) error
}
