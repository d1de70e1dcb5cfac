package session

// State is a snapshot of the session. The zero value is not the initial
// state; a new Manager starts with Loading set.
type State struct {
	Identity UserProfile
	Loading  bool
}

// Authenticated reports whether an identity is cached.
func (s State) Authenticated() bool {
	return s.Identity.Present()
}

func (s State) clone() State {
	s.Identity = s.Identity.clone()
	return s
}
