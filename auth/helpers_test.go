package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-gate/auth"
	"github.com/jrsteele09/go-auth-gate/credentials"
	"github.com/jrsteele09/go-auth-gate/credentials/repofake"
	"github.com/jrsteele09/go-auth-gate/internal/config"
	"github.com/jrsteele09/go-auth-gate/passwords"
	"github.com/jrsteele09/go-auth-gate/sessions"
	"github.com/jrsteele09/go-auth-gate/sessions/inmemory"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testHost      = "example.org"
	testSSOSecret = "sso-secret"
	testPassword  = "Password123"
	testUsername  = "alice"
	testUserID    = "user-1"
	cookieName    = "zugzwang_sid"
)

// testFixture holds all test dependencies
type testFixture struct {
	ctx      context.Context
	now      time.Time
	settings *config.Settings
	creds    *repofake.FakeCredentialsRepo
	sessions *inmemory.Repo
	hasher   passwords.Hasher
	gate     *auth.Gate
	flow     *auth.LoginFlow
}

// setupTestFixture protects /admin with /admin/public as exception
func setupTestFixture(t *testing.T, mutate ...func(*config.Settings)) *testFixture {
	t.Helper()

	s := config.NewSettings(testHost)
	s.AuthURLs = []string{"/admin"}
	s.NoAuthURLs = []string{"/admin/public"}
	s.SingleSignOnSecret = testSSOSecret
	s.LoginEntryURL = config.DomainURL{Default: "/admin/"}
	s.Hash.Cost = bcrypt.MinCost
	for _, m := range mutate {
		m(s)
	}
	require.NoError(t, s.Validate())

	f := &testFixture{
		ctx:      context.Background(),
		now:      time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		settings: s,
		creds:    repofake.NewFakeCredentialsRepo(),
		sessions: inmemory.New(),
	}

	hasher, err := passwords.New(s, f.creds)
	require.NoError(t, err)
	f.hasher = hasher
	f.rebuild(t)
	return f
}

// rebuild recreates gate and login flow, e.g. after adding options
func (f *testFixture) rebuild(t *testing.T, opts ...auth.Option) {
	t.Helper()
	opts = append([]auth.Option{auth.WithNowTime(f.clock)}, opts...)

	gate, err := auth.NewGate(f.settings, f.creds, opts...)
	require.NoError(t, err)
	flow, err := auth.NewLoginFlow(f.settings, f.creds, f.hasher, opts...)
	require.NoError(t, err)
	f.gate = gate
	f.flow = flow
}

func (f *testFixture) clock() time.Time {
	return f.now
}

func (f *testFixture) keepAlive() time.Duration {
	return f.settings.GetKeepAlive()
}

// createLogin stores a login for username with testPassword
func (f *testFixture) createLogin(t *testing.T, username, userID string) *credentials.Record {
	t.Helper()
	digest, err := f.hasher.Hash(testPassword)
	require.NoError(t, err)

	rec := &credentials.Record{
		UserID:       userID,
		Username:     username,
		PasswordHash: digest,
		Fields:       map[string]string{"realname": "Test " + username},
	}
	require.NoError(t, f.creds.Upsert(f.ctx, rec))
	return rec
}

// storeSession saves a session and returns its token
func (f *testFixture) storeSession(t *testing.T, s *sessions.Session) string {
	t.Helper()
	if s.ID == "" {
		s.ID = sessions.NewID()
	}
	require.NoError(t, f.sessions.Upsert(f.ctx, s))
	return s.ID
}

// loggedInSession stores a logged in session last used at lastClick
func (f *testFixture) loggedInSession(t *testing.T, loginID string, lastClick time.Time) string {
	t.Helper()
	return f.storeSession(t, &sessions.Session{
		LoggedIn:    true,
		LoginID:     loginID,
		UserID:      testUserID,
		Domain:      testHost,
		LastClickAt: lastClick,
		CreatedAt:   lastClick,
	})
}

func (f *testFixture) hasSession(token string) bool {
	_, err := f.sessions.Get(f.ctx, token)
	return err == nil
}

// request builds a RequestContext; form makes it a POST
func (f *testFixture) request(t *testing.T, method, target string, form url.Values, token string) *auth.RequestContext {
	t.Helper()

	var r *http.Request
	if form != nil {
		r = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		r.AddCookie(&http.Cookie{Name: cookieName, Value: token})
	}
	require.NoError(t, r.ParseForm())

	return auth.NewRequestContext(r, sessions.NewHandle(f.sessions, token, f.clock))
}

func (f *testFixture) get(t *testing.T, target, token string) *auth.RequestContext {
	t.Helper()
	return f.request(t, http.MethodGet, target, nil, token)
}

func (f *testFixture) post(t *testing.T, target string, form url.Values, token string) *auth.RequestContext {
	t.Helper()
	return f.request(t, http.MethodPost, target, form, token)
}

func loginForm(username, password string) url.Values {
	return url.Values{"username": {username}, "password": {password}}
}
