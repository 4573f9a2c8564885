package server

import (
	"net/http"

	"github.com/jrsteele09/go-auth-gate/auth"
)

// SessionCookieName is the cookie carrying the session token
const SessionCookieName = "zugzwang_sid"

// setSessionCookie sends a browser session cookie; the server side
// keep-alive decides when it stops being valid.
func (s *Server) setSessionCookie(w http.ResponseWriter, rc *auth.RequestContext, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookies(rc),
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter, rc *auth.RequestContext) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookies(rc),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// secureCookies is false for plain http deployments and local access
func (s *Server) secureCookies(rc *auth.RequestContext) bool {
	return s.config.GetScheme() == "https" && !rc.LocalAccess
}

// writeResult turns a login flow result into a response
func (s *Server) writeResult(w http.ResponseWriter, r *http.Request, res auth.Result) {
	switch res.Kind {
	case auth.Redirect:
		http.Redirect(w, r, res.Location, res.Status)
	case auth.ShowForm:
		s.renderLoginForm(w, r, res.Form)
	default:
		http.Redirect(w, r, RouteRoot, http.StatusSeeOther)
	}
}
