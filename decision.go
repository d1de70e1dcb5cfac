package routegate

// DecisionKind is one of the two outcomes the hosting pipeline understands.
type DecisionKind uint8

const (
	// DecisionAllow continues processing the request.
	DecisionAllow DecisionKind = iota
	// DecisionRedirect sends the client to Decision.Location.
	DecisionRedirect
)

func (k DecisionKind) String() string {
	if k == DecisionRedirect {
		return "redirect"
	}
	return "allow"
}

// Decision is the result of Guard.Evaluate.
type Decision struct {
	Kind     DecisionKind
	Location string
	Class    RouteClass
	// Subject is the verified credential subject, empty unless the
	// credential was verified during this evaluation.
	Subject string
}

// Allowed reports whether the request may proceed.
func (d Decision) Allowed() bool {
	return d.Kind == DecisionAllow
}

func allow(class RouteClass, subject string) Decision {
	return Decision{Kind: DecisionAllow, Class: class, Subject: subject}
}

func redirectTo(class RouteClass, location string) Decision {
	return Decision{Kind: DecisionRedirect, Location: location, Class: class}
}
