package server

import (
	"bytes"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/jrsteele09/go-auth-gate/auth"
	autherrors "github.com/jrsteele09/go-auth-gate/internal/errors"
	"github.com/rs/zerolog/log"
)

// LoginPageData contains data for rendering the login page
type LoginPageData struct {
	AppName string
	Action  string // form target, login_url plus the kept params
	Form    *auth.LoginForm
}

// LoginHandler serves GET and POST on login_url
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.handleLogin(w, r)
	}
}

// SingleSignOnHandler serves login_url/sso/{marker}/{secret}/{username}[/{context}]
func (s *Server) SingleSignOnHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := strings.Split(r.PathValue("params"), "/")
		s.handleLogin(w, r, params...)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request, params ...string) {
	rc := RequestContextFrom(r.Context())
	if rc == nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	attempting := r.Method == http.MethodPost || len(params) > 0
	if attempting && s.throttle.Blocked(rc.RemoteAddr) {
		log.Warn().Str("remote_addr", rc.RemoteAddr).Msg("Login throttled")
		retry := int(math.Ceil(s.throttle.RetryAfter(rc.RemoteAddr).Seconds()))
		w.Header().Set("Retry-After", strconv.Itoa(max(retry, 1)))
		http.Error(w, "Too many failed logins. Please try again later.", http.StatusTooManyRequests)
		return
	}

	res, err := s.login.Login(r.Context(), rc, params...)
	if err != nil {
		if errors.Is(err, auth.ErrPolicyRejection) {
			http.NotFound(w, r)
			return
		}
		log.Error().Err(err).Msg("Login failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if rc.LoginFailed {
		s.throttle.Fail(rc.RemoteAddr)
	}
	s.writeResult(w, r, res)
}

// LogoutHandler ends the session and returns to the login page
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc := RequestContextFrom(r.Context())
		if rc == nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		res, err := s.login.Logout(r.Context(), rc)
		if err != nil {
			log.Error().Err(err).Msg("Logout failed")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		s.writeResult(w, r, res)
	}
}

// MasqueradeHandler lets a logged in operator act as the POSTed user_id.
// The path always needs a session, whatever auth_urls says.
func (s *Server) MasqueradeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc := RequestContextFrom(r.Context())
		if rc == nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		res, err := s.gate.Authenticate(r.Context(), rc, true)
		if err != nil {
			log.Error().Err(err).Msg("Masquerade authentication failed")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if res.Kind == auth.Redirect {
			http.Redirect(w, r, res.Location, res.Status)
			return
		}

		userID := rc.Form.Get("user_id")
		if userID == "" {
			http.Error(w, "user_id is required", http.StatusBadRequest)
			return
		}
		res, err = s.login.Masquerade(r.Context(), rc, userID)
		switch {
		case errors.Is(err, auth.ErrMasqueradeDenied), errors.Is(err, autherrors.ErrUserNotFound):
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		case err != nil:
			log.Error().Err(err).Msg("Masquerade failed")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		s.writeResult(w, r, res)
	}
}

func (s *Server) renderLoginForm(w http.ResponseWriter, _ *http.Request, form *auth.LoginForm) {
	action := s.config.GetLoginURL()
	if len(form.Params) > 0 {
		action += "?" + strings.Join(form.Params, "&")
	}
	data := LoginPageData{
		AppName: s.config.GetAppName(),
		Action:  action,
		Form:    form,
	}

	var page bytes.Buffer
	if err := s.loginTmpl.Execute(&page, data); err != nil {
		log.Err(err).Msg("Failed to render login template")
		http.Error(w, "Failed to render login page", http.StatusInternalServerError)
		return
	}

	if form.NoCache {
		NoCacheHeaders(w)
	}
	w.Header().Set("Content-Type", contentTypeHTML)
	_, _ = page.WriteTo(w)
}
