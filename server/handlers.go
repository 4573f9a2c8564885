package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/rs/zerolog/log"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeJSON = "application/json"
)

// Headers the upstream receives describing the logged in user. Client sent
// values are always removed first.
const (
	HeaderAuthUser       = "X-Auth-User"
	HeaderAuthUserID     = "X-Auth-User-Id"
	HeaderAuthLoginID    = "X-Auth-Login-Id"
	HeaderAuthDomain     = "X-Auth-Domain"
	HeaderAuthMasquerade = "X-Auth-Masquerade"
)

// HealthHandler reports liveness and whether the gate is active
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentTypeJSON)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":       "ok",
			"auth_enabled": s.gate.Policy().Enabled(),
		})
	}
}

// IndexPageData is what the built-in content page shows
type IndexPageData struct {
	AppName    string
	Path       string
	LoggedIn   bool
	Username   string
	Masquerade bool
	LogoutURL  string
}

// IndexHandler is the content served when no upstream is configured
func (s *Server) IndexHandler() (http.HandlerFunc, error) {
	tmpl, err := ParseTemplate("index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse index template: %w", err)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		data := IndexPageData{
			AppName:   s.config.GetAppName(),
			Path:      r.URL.Path,
			LogoutURL: RouteLogout,
		}
		if rc := RequestContextFrom(r.Context()); rc != nil {
			if sess := rc.Sessions.Session(); sess != nil && sess.LoggedIn {
				data.LoggedIn = true
				data.Username = sess.Username
				data.Masquerade = sess.Masquerade
			}
		}

		w.Header().Set("Content-Type", contentTypeHTML)
		if err := tmpl.Execute(w, data); err != nil {
			log.Err(err).Msg("Failed to render index template")
		}
	}, nil
}

// NewUpstreamProxy forwards gated requests to target, adding the
// X-Auth-* headers for a logged in session.
func NewUpstreamProxy(target string) (http.Handler, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream url %q: %w", target, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid upstream url %q: scheme and host required", target)
	}

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(u)
			pr.SetXForwarded()
			pr.Out.Host = pr.In.Host

			for _, h := range []string{HeaderAuthUser, HeaderAuthUserID, HeaderAuthLoginID, HeaderAuthDomain, HeaderAuthMasquerade} {
				pr.Out.Header.Del(h)
			}
			rc := RequestContextFrom(pr.In.Context())
			if rc == nil {
				return
			}
			sess := rc.Sessions.Session()
			if sess == nil || !sess.LoggedIn {
				return
			}
			pr.Out.Header.Set(HeaderAuthUser, sess.Username)
			pr.Out.Header.Set(HeaderAuthUserID, sess.UserID)
			pr.Out.Header.Set(HeaderAuthLoginID, sess.LoginID)
			pr.Out.Header.Set(HeaderAuthDomain, sess.Domain)
			if sess.Masquerade {
				pr.Out.Header.Set(HeaderAuthMasquerade, "1")
			}
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.Error().Err(err).Str("path", r.URL.Path).Msg("Upstream request failed")
			http.Error(w, "Bad Gateway", http.StatusBadGateway)
		},
	}, nil
}
