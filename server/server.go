package server

import (
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-auth-gate/auth"
	"github.com/jrsteele09/go-auth-gate/credentials"
	"github.com/jrsteele09/go-auth-gate/internal/config"
	"github.com/jrsteele09/go-auth-gate/passwords"
	"github.com/jrsteele09/go-auth-gate/sessions"
	"github.com/rs/zerolog/log"
)

// Repos are the stores the server reads and writes
type Repos struct {
	Credentials credentials.Repo
	Sessions    sessions.Repo
}

type Server struct {
	env       string // Environment (e.g., "DEV", "PROD")
	mux       *http.ServeMux
	routes    []string
	config    config.Config
	gate      *auth.Gate
	login     *auth.LoginFlow
	sessions  sessions.Repo
	throttle  *loginThrottle
	content   http.Handler
	loginTmpl *template.Template
	nowTime   func() time.Time
}

func New(cfg config.Config, repos Repos, hasher passwords.Hasher, opts ...Option) (*Server, error) {
	if repos.Credentials == nil || repos.Sessions == nil {
		return nil, fmt.Errorf("[Server New] credentials and sessions repos are required")
	}
	o := applyOptions(opts)

	authOpts := []auth.Option{auth.WithNowTime(o.nowTime)}
	if o.directory != nil {
		authOpts = append(authOpts, auth.WithDirectory(o.directory))
	}
	gate, err := auth.NewGate(cfg, repos.Credentials, authOpts...)
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to create gate: %w", err)
	}
	loginFlow, err := auth.NewLoginFlow(cfg, repos.Credentials, hasher, authOpts...)
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to create login flow: %w", err)
	}

	loginTmpl, err := ParseTemplate("login.html")
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to parse login template: %w", err)
	}

	s := &Server{
		env:       cfg.GetEnv(),
		mux:       http.NewServeMux(),
		config:    cfg,
		gate:      gate,
		login:     loginFlow,
		sessions:  repos.Sessions,
		throttle:  newLoginThrottle(cfg.GetLoginThrottleRate(), cfg.GetLoginThrottleBurst()),
		loginTmpl: loginTmpl,
		nowTime:   o.nowTime,
	}

	s.content = o.content
	if s.content == nil {
		if upstream := cfg.GetUpstreamURL(); upstream != "" {
			proxy, err := NewUpstreamProxy(upstream)
			if err != nil {
				return nil, fmt.Errorf("[Server New] %w", err)
			}
			s.content = proxy
		} else {
			index, err := s.IndexHandler()
			if err != nil {
				return nil, fmt.Errorf("[Server New] %w", err)
			}
			s.content = index
		}
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	for _, route := range s.routes {
		method, path := "", route
		if parts := strings.SplitN(route, " ", 2); len(parts) > 1 {
			method, path = parts[0], parts[1]
		}
		log.Debug().Str("method", method).Str("path", path).Msg("Route registered")
	}
}
