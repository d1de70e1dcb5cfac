// Package middleware adapts a routegate.Guard to net/http.
//
// # Handlers
//
//   - [Guard] runs Guard.Evaluate for every navigation and either calls the
//     next handler or answers with a redirect.
//   - [RequireCredential] protects API handlers: it verifies the credential
//     cookie (or a bearer token) and answers 401 instead of redirecting.
//
// Both read the credential from the cookie named by Guard.CookieName and put
// the verified subject into the request context, see [SubjectFromContext].
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to the Guard).
//   - Decide route classes itself.
//   - Reveal why a credential was rejected in the response.
package middleware
