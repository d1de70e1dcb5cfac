// Package session keeps the client process's view of who is logged in.
//
// A single [Manager] per process holds a [State]: the identity returned by
// the backend, and whether the startup fetch has settled yet. Only the four
// operations Bootstrap, Login, Register and Logout change it. Everything else
// reads through State, Ready or Wait.
//
// # Failure policy
//
// The policy is visible in the signatures. Bootstrap returns a State and no
// error: any failure becomes "no identity". Login and Register return a
// classified *[Error] so the caller can show a message. Logout returns
// nothing and always clears the local identity, even when the backend is
// unreachable.
//
// # Backend
//
// [HTTPBackend] talks to the identity REST API. It keeps a cookie jar so the
// credential cookie set by login is sent with later calls.
package session
