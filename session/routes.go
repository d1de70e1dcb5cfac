package session

// Identity REST endpoints, relative to Config.BaseURL.
const (
	routeMe       = "/api/auth/me"
	routeLogin    = "/api/auth/login"
	routeRegister = "/api/auth/register"
	routeLogout   = "/api/auth/logout"
)
