package server

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-auth-gate/auth"
	"github.com/jrsteele09/go-auth-gate/sessions"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyRequest stores the request's *auth.RequestContext
const ContextKeyRequest ContextKey = "auth_request"

// maxFormBytes caps POST bodies on gated and login routes
const maxFormBytes = 64 << 10

// RequestContextFrom returns the auth state installed by SessionMiddleware
func RequestContextFrom(ctx context.Context) *auth.RequestContext {
	rc, _ := ctx.Value(ContextKeyRequest).(*auth.RequestContext)
	return rc
}

// SessionMiddleware builds the request's auth context around the session
// cookie. Headers collected by the auth core and any change of session token
// are written just before the response is.
func (s *Server) SessionMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
			if err := r.ParseForm(); err != nil {
				http.Error(w, "Invalid form data", http.StatusBadRequest)
				return
			}
		}

		token := ""
		if cookie, err := r.Cookie(SessionCookieName); err == nil {
			token = cookie.Value
		}
		rc := auth.NewRequestContext(r, sessions.NewHandle(s.sessions, token, s.nowTime))

		sw := &sessionWriter{
			ResponseWriter: w,
			before:         func() { s.writeSessionHeaders(w, rc) },
		}
		next(sw, r.WithContext(context.WithValue(r.Context(), ContextKeyRequest, rc)))
		sw.finish()
	}
}

// GateMiddleware lets a request through only when the gate allows it
func (s *Server) GateMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc := RequestContextFrom(r.Context())
		if rc == nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		res, err := s.gate.Authenticate(r.Context(), rc, false)
		if err != nil {
			log.Error().Err(err).Str("path", r.URL.Path).Msg("Authentication failed")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if res.Kind == auth.Redirect {
			http.Redirect(w, r, res.Location, res.Status)
			return
		}
		// the gate may have dropped the no-cookie marker from the query
		if rc.RawQuery != r.URL.RawQuery {
			r = r.Clone(r.Context())
			r.URL.RawQuery = rc.RawQuery
			r.RequestURI = r.URL.RequestURI()
		}
		next(w, r)
	}
}

func (s *Server) writeSessionHeaders(w http.ResponseWriter, rc *auth.RequestContext) {
	for k, v := range rc.ResponseHeader {
		w.Header()[k] = v
	}

	handle := rc.Sessions
	if !handle.TokenChanged() {
		return
	}
	if handle.Token() == "" {
		s.clearSessionCookie(w, rc)
		return
	}
	s.setSessionCookie(w, rc, handle.Token())
}

// sessionWriter runs before exactly once, ahead of the status line
type sessionWriter struct {
	http.ResponseWriter
	before      func()
	wroteHeader bool
}

func (w *sessionWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.before()
	w.ResponseWriter.WriteHeader(code)
}

func (w *sessionWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *sessionWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// finish covers handlers that wrote nothing at all
func (w *sessionWriter) finish() {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.before()
}
