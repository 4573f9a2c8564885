package server

// Route path constants. The login route itself comes from the login_url
// setting.
const (
	RouteRoot       = "/"
	RouteLogout     = "/logout"
	RouteHealth     = "/healthz"
	RouteMasquerade = "/masquerade"

	// RouteSingleSignOnSuffix is appended to login_url
	RouteSingleSignOnSuffix = "/sso/{params...}"
)
