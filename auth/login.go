package auth

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/go-auth-gate/credentials"
	"github.com/jrsteele09/go-auth-gate/internal/config"
	"github.com/jrsteele09/go-auth-gate/internal/logger"
	"github.com/jrsteele09/go-auth-gate/passwords"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const unknownLoginPassword = "no login carries this password"

// LoginFlow handles the login page, single sign on and logout
type LoginFlow struct {
	cfg       config.AuthConfig
	creds     credentials.Repo
	hasher    passwords.Hasher
	directory Directory
	fields    []FieldDescriptor
	nowTime   func() time.Time

	// unknownDigest is checked for usernames with no login so they take as
	// long to reject as a wrong password.
	unknownDigest string
}

func NewLoginFlow(cfg config.AuthConfig, creds credentials.Repo, hasher passwords.Hasher, opts ...Option) (*LoginFlow, error) {
	if cfg == nil {
		return nil, errors.New("[NewLoginFlow] config is required")
	}
	if creds == nil {
		return nil, errors.New("[NewLoginFlow] credentials repo is required")
	}
	if hasher == nil {
		return nil, errors.New("[NewLoginFlow] hasher is required")
	}
	o := applyOptions(opts)
	unknownDigest, err := hasher.Hash(unknownLoginPassword)
	if err != nil {
		return nil, errors.Wrap(err, "[NewLoginFlow] hash placeholder password")
	}
	return &LoginFlow{
		cfg:           cfg,
		creds:         creds,
		hasher:        hasher,
		directory:     o.directory,
		fields:        fieldsFromConfig(cfg),
		nowTime:       o.nowTime,
		unknownDigest: unknownDigest,
	}, nil
}

// Fields are the configured login fields in order
func (lf *LoginFlow) Fields() []FieldDescriptor {
	return lf.fields
}

// Login evaluates a visit to the login page. params are the optional
// single sign on parameters [SingleSignOnMarker, secret, username, context?].
// It returns a Redirect on success and ShowForm otherwise; malformed params
// yield ErrPolicyRejection.
func (lf *LoginFlow) Login(ctx context.Context, rc *RequestContext, params ...string) (Result, error) {
	ssoUser, ssoContext, err := ValidateSingleSignOn(params, lf.cfg.GetSingleSignOnSecret())
	if err != nil {
		log.Warn().Str("remote_addr", rc.RemoteAddr).Int("params", len(params)).Msg("Rejected login parameters")
		return Result{}, err
	}

	attempt := &LoginAttempt{}
	if len(params) > 0 && params[0] != "" {
		attempt.SingleSignOn = true
		attempt.Username = ssoUser
		attempt.Context = ssoContext
	}

	var addressUser string
	if rc.RemoteAddr != "" {
		addressUser, err = lf.creds.FindByRemoteAddress(ctx, rc.RemoteAddr)
		if err != nil {
			logger.Notice().Err(err).Str("remote_addr", rc.RemoteAddr).Msg("Failed to look up login by address")
		}
		if addressUser != "" {
			attempt.SingleSignOn = true
			attempt.Username = addressUser
		}
	}

	landing := lf.landingURL(rc)
	form := &LoginForm{}

	if rc.Method == http.MethodPost || attempt.SingleSignOn {
		res, ok, err := lf.tryLogin(ctx, rc, attempt, addressUser, landing, form)
		if err != nil || ok {
			return res, err
		}
	}

	return showForm(lf.buildForm(ctx, rc, form, landing)), nil
}

// tryLogin checks the attempt. ok is true when res is the final result.
func (lf *LoginFlow) tryLogin(ctx context.Context, rc *RequestContext, attempt *LoginAttempt, addressUser, landing string, form *LoginForm) (res Result, ok bool, err error) {
	rc.emitP3P()
	s, err := rc.Sessions.Start(ctx)
	if err != nil {
		return Result{}, false, errors.Wrap(err, "[LoginFlow.Login] start session")
	}

	if rc.Method == http.MethodPost {
		if rc.Form.Get(usernameField) == "" || rc.Form.Get(passwordField) == "" {
			form.Message = MsgEmptyCredentials
		}
		values := lf.gatherFields(rc, attempt)
		if posted := values[usernameField]; posted != "" {
			// an address login only covers its own username
			if addressUser != "" && posted != addressUser {
				attempt.SingleSignOn = false
			}
			attempt.Username = posted
		}
		attempt.Password = rc.takePassword()
	} else {
		attempt.Fields = append(attempt.Fields, attempt.Username)
		if attempt.Context != "" {
			attempt.Fields = append(attempt.Fields, attempt.Context)
		}
	}

	s.LoggedIn = false
	rec := lf.verify(ctx, attempt)

	if rec == nil {
		lf.auditFailure(rc, attempt)
		attempt.Clear()
		if form.Message == "" {
			form.Message = MsgIncorrectCredentials
		}
		if err := rc.Sessions.Save(ctx); err != nil {
			logger.Notice().Err(err).Msg("Failed to save session after failed login")
		}
		return Result{}, false, nil
	}
	attempt.Clear()

	if err := lf.Register(ctx, rc, "", rec); err != nil {
		return Result{}, false, err
	}
	log.Info().Str("login_id", rec.LoginID).Str("user_id", rec.UserID).Bool("single_sign_on", attempt.SingleSignOn).Msg("Login succeeded")

	s = rc.Sessions.Session()
	target := landing
	if s.ChangePassword && lf.cfg.GetChangePasswordURL().IsSet() {
		query := ""
		if landing != "" {
			query = "?url=" + url.QueryEscape(landing)
		}
		target = lf.cfg.GetChangePasswordURL().For(s.Domain) + query
	} else if target == "" {
		target = lf.cfg.GetLoginEntryURL().For(s.Domain)
	}
	return LoginRedirect(lf.cfg, rc, target), true, nil
}

// gatherFields reads the configured fields from the form. Missing values are
// recorded as EmptyFieldValue.
func (lf *LoginFlow) gatherFields(rc *RequestContext, attempt *LoginAttempt) map[string]string {
	values := make(map[string]string, len(lf.fields))
	for _, f := range lf.fields {
		v := rc.Form.Get(f.Name)
		if v != "" {
			v = f.Sanitize(v)
		}
		if v == "" {
			attempt.Fields = append(attempt.Fields, EmptyFieldValue)
			continue
		}
		values[f.Name] = v
		attempt.Fields = append(attempt.Fields, v)
	}
	return values
}

// verify returns the record to register, or nil when the attempt fails
func (lf *LoginFlow) verify(ctx context.Context, attempt *LoginAttempt) *credentials.Record {
	if attempt.Username != "" {
		rec, err := lf.creds.FindByUsername(ctx, attempt.Username)
		switch {
		case err == nil:
			if attempt.SingleSignOn || lf.hasher.Verify(ctx, attempt.Password, rec.PasswordHash, rec.LoginID) {
				return rec
			}
		case errors.Is(err, ErrLoginNotFound):
			if !attempt.SingleSignOn {
				lf.hasher.Verify(ctx, attempt.Password, lf.unknownDigest, "")
			}
		default:
			log.Error().Err(err).Msg("Failed to look up login")
		}
	}

	if lf.directory == nil || attempt.Username == "" {
		return nil
	}
	rec, err := lf.directory.Lookup(ctx, attempt)
	if err != nil {
		log.Debug().Err(err).Msg("Directory rejected login")
		return nil
	}
	return rec
}

func (lf *LoginFlow) auditFailure(rc *RequestContext, attempt *LoginAttempt) {
	rc.SuppressPostLog = true
	rc.LoginFailed = true

	user := strings.Join(attempt.Fields, ".")
	logger.Notice().
		Bool("log_post_data", false).
		Str("user", user).
		Str("remote_addr", rc.RemoteAddr).
		Msg(auditIncorrectCredentials + "\n\n" + user + "\n" + passwords.AuditDigest(lf.hasher, attempt.Password))
}

// landingURL is the page to go to after login: the url query parameter, or
// the url inside a request parameter set by the gate's redirect.
func (lf *LoginFlow) landingURL(rc *RequestContext) string {
	q := rc.Query()
	landing := q.Get("url")
	if landing == "" {
		if inner, err := url.ParseQuery(q.Get("request")); err == nil {
			landing = inner.Get("url")
		}
	}
	if landing == "" {
		return ""
	}
	if err := ValidateLandingURL(landing); err != nil {
		log.Warn().Err(err).Str("url", landing).Msg("Ignoring landing url")
		return ""
	}
	return landing
}

func (lf *LoginFlow) buildForm(ctx context.Context, rc *RequestContext, form *LoginForm, landing string) *LoginForm {
	if strings.HasPrefix(rc.RawQuery, "logout") {
		if err := rc.Sessions.Destroy(ctx); err != nil {
			logger.Notice().Err(err).Msg("Failed to destroy session on logout")
		}
		form.Logout = true
	}
	form.NoCookie = rc.HasNoCookieMarker()
	form.LogoutInactiveAfter = lf.cfg.GetLogoutInactiveAfter()

	if landing != "" {
		form.Params = append(form.Params, "url="+url.QueryEscape(landing))
		form.NoCache = true
	}
	if form.NoCookie {
		form.Params = append(form.Params, NoCookieMarker)
		form.NoCache = true
	}

	for _, f := range lf.fields {
		form.Fields = append(form.Fields, LoginField{
			Title: f.Title + ":",
			Name:  f.Name,
			Value: rc.Form.Get(f.Name),
		})
	}
	return form
}

// Logout destroys the session and sends the browser to the login page
func (lf *LoginFlow) Logout(ctx context.Context, rc *RequestContext) (Result, error) {
	if err := rc.Sessions.Destroy(ctx); err != nil {
		logger.Notice().Err(err).Msg("Failed to destroy session on logout")
	}
	location := lf.cfg.GetScheme() + "://" + lf.cfg.GetHostname() + lf.cfg.GetLoginURL() + "?logout"
	return redirectTo(http.StatusTemporaryRedirect, location), nil
}
