package auth

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/jrsteele09/go-auth-gate/access"
	"github.com/jrsteele09/go-auth-gate/credentials"
	"github.com/jrsteele09/go-auth-gate/internal/config"
	"github.com/jrsteele09/go-auth-gate/internal/logger"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Gate decides for every request whether it needs an authenticated session
// and keeps that session alive.
type Gate struct {
	cfg     config.AuthConfig
	policy  *access.Policy
	creds   credentials.Repo
	nowTime func() time.Time
}

func NewGate(cfg config.AuthConfig, creds credentials.Repo, opts ...Option) (*Gate, error) {
	if cfg == nil {
		return nil, errors.New("[NewGate] config is required")
	}
	if creds == nil {
		return nil, errors.New("[NewGate] credentials repo is required")
	}
	o := applyOptions(opts)
	return &Gate{
		cfg:     cfg,
		policy:  access.NewPolicy(cfg.GetAuthURLs(), cfg.GetNoAuthURLs(), cfg.GetLoginURL()),
		creds:   creds,
		nowTime: o.nowTime,
	}, nil
}

// Policy is the path policy the gate applies
func (g *Gate) Policy() *access.Policy {
	return g.policy
}

// Authenticate runs once per request; later calls return the first result
// unless force is set. force also treats the path as protected.
func (g *Gate) Authenticate(ctx context.Context, rc *RequestContext, force bool) (Result, error) {
	if rc.decided && !force {
		return rc.decision, nil
	}
	res, err := g.authenticate(ctx, rc, force)
	if err != nil {
		return Result{}, err
	}
	rc.decided = true
	rc.decision = res
	return res, nil
}

func (g *Gate) authenticate(ctx context.Context, rc *RequestContext, force bool) (Result, error) {
	if !g.policy.Enabled() {
		return Result{Kind: NotRequired}, nil
	}
	rc.emitP3P()

	keepAlive := g.cfg.GetKeepAlive()

	if !force {
		decision := g.policy.Decide(rc.Path)
		if !decision.Required {
			g.touchPublic(ctx, rc, keepAlive)
			return Result{Kind: NotRequired}, nil
		}
	}

	now := g.nowTime()
	s, err := rc.Sessions.Start(ctx)
	if err != nil {
		return Result{}, errors.Wrap(err, "[Gate.Authenticate] start session")
	}

	if !s.LoggedIn || s.Expired(now, keepAlive) || (s.Domain != "" && !g.validDomain(s.Domain)) {
		log.Debug().
			Str("path", rc.Path).
			Bool("logged_in", s.LoggedIn).
			Str("domain", s.Domain).
			Msg("Session not valid for protected path")
		if err := rc.Sessions.Destroy(ctx); err != nil {
			logger.Notice().Err(err).Msg("Failed to destroy session")
		}
		return redirectTo(http.StatusTemporaryRedirect, g.loginLocation(rc)), nil
	}

	rc.StripNoCookie()
	s.LastClickAt = now
	if err := rc.Sessions.Save(ctx); err != nil {
		logger.Notice().Err(err).Str("login_id", s.LoginID).Msg("Failed to save refreshed session")
	}

	if s.LoginID != "" {
		if err := g.creds.RecordLastActivity(ctx, s.LoginID, now); err != nil {
			logger.Notice().Err(err).Str("login_id", s.LoginID).Msg("Failed to record last activity")
		}
	}
	if s.MaskID != "" {
		if err := g.creds.ExtendMasqueradeExpiry(ctx, s.MaskID, now.Add(keepAlive)); err != nil {
			logger.Notice().Err(err).Str("mask_id", s.MaskID).Msg("Failed to extend masquerade")
		}
	}
	return Result{Kind: Authenticated}, nil
}

// touchPublic handles an unprotected path. A logged in user keeps the
// session but the keep-alive window is not extended. A request with neither
// a loaded session nor a cookie gets no session at all: the cookie is only
// ever used to look up a stored session, never trusted on its own.
func (g *Gate) touchPublic(ctx context.Context, rc *RequestContext, keepAlive time.Duration) {
	if rc.Sessions.Started() || !rc.Sessions.Exists() {
		return
	}
	s, err := rc.Sessions.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			logger.Notice().Err(err).Msg("Failed to load session on public path")
		}
		return
	}
	if s.Expired(g.nowTime(), keepAlive) {
		if err := rc.Sessions.Destroy(ctx); err != nil {
			logger.Notice().Err(err).Msg("Failed to destroy expired session")
		}
	}
}

func (g *Gate) validDomain(domain string) bool {
	valid := g.cfg.GetValidDomains()
	if len(valid) == 0 {
		valid = []string{g.cfg.GetHostname()}
	}
	return slices.Contains(valid, domain)
}

// loginLocation is the login URL carrying the requested URL, e.g.
// https://host/login?request=url%3D%2Fadmin%2Fx&nocookie=no-cookie
func (g *Gate) loginLocation(rc *RequestContext) string {
	request := rc.Path
	q := rc.Query()
	noCookie := q.Has(NoCookieMarker)
	q.Del(NoCookieMarker)
	if len(q) > 0 {
		request += "?" + q.Encode()
	}

	var params []string
	if !g.cfg.GetLoginEntryURL().Contains(request) {
		params = append(params, "request="+url.QueryEscape("url="+request))
	}
	if noCookie {
		params = append(params, "nocookie="+NoCookieMarker)
	}

	scheme := g.cfg.GetScheme()
	if rc.LocalAccess {
		scheme = "http"
	}
	location := scheme + "://" + g.cfg.GetHostname() + g.cfg.GetLoginURL()
	if len(params) > 0 {
		location += "?" + strings.Join(params, "&")
	}
	return location
}
