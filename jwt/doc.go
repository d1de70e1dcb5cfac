// Package jwt verifies the signed credential carried in the access-token cookie
// and, for operators and tests, signs credentials with the same key material.
//
// Verification is strict: the algorithm is pinned to the configured method,
// an expiry claim is mandatory and a subject must be present. Every failure is
// reported as one of the package sentinels so callers can log a reason without
// handling library-specific errors.
package jwt
