package server

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())

	// LOGIN
	loginURL := s.config.GetLoginURL()
	s.RegisterRouteHandler("GET "+loginURL, ChainMiddleware(s.LoginHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+loginURL, ChainMiddleware(s.LoginHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+loginURL+RouteSingleSignOnSuffix, ChainMiddleware(s.SingleSignOnHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+loginURL+RouteSingleSignOnSuffix, ChainMiddleware(s.SingleSignOnHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteMasquerade, ChainMiddleware(s.MasqueradeHandler(), s.HTMLMiddleWare()...))

	// Everything else sits behind the gate
	s.RegisterRouteHandler(RouteRoot, ChainMiddleware(s.content.ServeHTTP, s.HTMLMiddleWare(s.GateMiddleware)...))
}
