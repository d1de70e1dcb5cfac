// Package routegate is the route access guard that sits in front of a web
// application's pages.
//
// For every inbound navigation the [Guard] classifies the path as protected,
// login entry or public, reads the credential cookie and returns a [Decision]:
// proceed, or redirect. Protected paths without a valid credential go to the
// login page. An authenticated visitor asking for the login page is sent to
// the protected home instead.
//
// # Failure policy
//
// The guard fails closed. A missing, malformed, forged or expired credential
// on a protected path redirects to login. A missing signing key also
// redirects, and is reported to operators as [ErrConfiguration] rather than
// being confused with a user that is simply logged out. Verification detail
// goes to the log and the audit sink, never to the visitor.
//
// # Concurrency
//
// A built Guard is immutable apart from its counters and is safe for
// concurrent use. Evaluate performs no I/O.
//
// # Subpackages
//
//   - jwt: credential verification and signing.
//   - middleware: net/http adapters around Evaluate.
//   - session: the client-side session manager and its HTTP backend.
//   - metrics/export: Prometheus and OpenTelemetry exporters.
package routegate
