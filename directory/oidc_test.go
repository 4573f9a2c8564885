package directory_test

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-auth-gate/auth"
	"github.com/jrsteele09/go-auth-gate/credentials"
	"github.com/jrsteele09/go-auth-gate/credentials/repofake"
	"github.com/jrsteele09/go-auth-gate/directory"
	"github.com/jrsteele09/go-auth-gate/internal/config"
	autherrors "github.com/jrsteele09/go-auth-gate/internal/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const (
	testClientID = "auth-gate"
	testKeyID    = "test-key"
	testUser     = "alice"
	testPassword = "Password123"
)

// testProvider is a minimal OpenID provider supporting the password grant
type testProvider struct {
	server *httptest.Server
	key    *rsa.PrivateKey
	// claims overrides merged into every minted ID token
	claims     jwt.MapClaims
	omitToken  bool
	tokenCalls int
}

func newTestProvider(t *testing.T) *testProvider {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	p := &testProvider{key: key, claims: jwt.MapClaims{}}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /.well-known/openid-configuration", p.discovery)
	mux.HandleFunc("GET /keys", p.keys)
	mux.HandleFunc("POST /token", p.token)
	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)
	return p
}

func (p *testProvider) discovery(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"issuer":                                p.server.URL,
		"authorization_endpoint":                p.server.URL + "/authorize",
		"token_endpoint":                        p.server.URL + "/token",
		"jwks_uri":                              p.server.URL + "/keys",
		"id_token_signing_alg_values_supported": []string{"RS256"},
	})
}

func (p *testProvider) keys(w http.ResponseWriter, _ *http.Request) {
	pub := p.key.PublicKey
	writeJSON(w, http.StatusOK, map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"alg": "RS256",
			"use": "sig",
			"kid": testKeyID,
			"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}},
	})
}

func (p *testProvider) token(w http.ResponseWriter, r *http.Request) {
	p.tokenCalls++
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}
	if r.PostForm.Get("grant_type") != "password" ||
		r.PostForm.Get("username") != testUser ||
		r.PostForm.Get("password") != testPassword {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
		return
	}

	resp := map[string]any{
		"access_token": "opaque-access-token",
		"token_type":   "Bearer",
		"expires_in":   300,
	}
	if !p.omitToken {
		resp["id_token"] = p.mint(testUser)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (p *testProvider) mint(username string) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":                p.server.URL,
		"sub":                "dir-" + username,
		"aud":                testClientID,
		"iat":                now.Unix(),
		"exp":                now.Add(time.Hour).Unix(),
		"preferred_username": username,
		"email":              username + "@example.org",
		"name":               "Alice Example",
	}
	for k, v := range p.claims {
		claims[k] = v
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = testKeyID
	signed, err := tok.SignedString(p.key)
	if err != nil {
		panic(err)
	}
	return signed
}

func (p *testProvider) settings() config.DirectorySettings {
	return config.DirectorySettings{
		Enabled:  true,
		Issuer:   p.server.URL,
		ClientID: testClientID,
	}
}

// staticDirectory skips discovery and verifies against the provider key
func (p *testProvider) staticDirectory(creds credentials.Repo) *directory.OIDCDirectory {
	verifier := oidc.NewVerifier(p.server.URL, &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&p.key.PublicKey}}, &oidc.Config{ClientID: testClientID})
	endpoint := oauth2.Endpoint{TokenURL: p.server.URL + "/token", AuthStyle: oauth2.AuthStyleInParams}
	return directory.NewWithVerifier(p.settings(), endpoint, verifier, creds)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func attempt(username, password string) *auth.LoginAttempt {
	return &auth.LoginAttempt{Username: username, Password: password}
}

func TestDirectory_Discovery(t *testing.T) {
	p := newTestProvider(t)

	d, err := directory.New(context.Background(), p.settings(), nil)
	require.NoError(t, err)

	rec, err := d.Lookup(context.Background(), attempt(testUser, testPassword))
	require.NoError(t, err)
	require.Equal(t, "dir-alice", rec.UserID)
	require.Equal(t, testUser, rec.Username)
	require.Equal(t, "alice@example.org", rec.Fields["email"])
	require.Equal(t, "Alice Example", rec.Fields["name"])
	require.Empty(t, rec.PasswordHash)
}

func TestDirectory_DiscoveryFailure(t *testing.T) {
	_, err := directory.New(context.Background(), config.DirectorySettings{Issuer: "http://127.0.0.1:1", ClientID: testClientID}, nil)
	require.Error(t, err)
}

func TestDirectory_WrongPassword(t *testing.T) {
	p := newTestProvider(t)
	d := p.staticDirectory(nil)

	_, err := d.Lookup(context.Background(), attempt(testUser, "nope"))
	require.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
}

func TestDirectory_SkipsProviderWithoutPassword(t *testing.T) {
	p := newTestProvider(t)
	d := p.staticDirectory(nil)

	_, err := d.Lookup(context.Background(), &auth.LoginAttempt{Username: testUser, SingleSignOn: true})
	require.ErrorIs(t, err, autherrors.ErrUnsupported)

	_, err = d.Lookup(context.Background(), attempt(testUser, ""))
	require.ErrorIs(t, err, autherrors.ErrEmptyCredentials)
	require.Zero(t, p.tokenCalls)
}

func TestDirectory_RejectsBadTokens(t *testing.T) {
	t.Run("missing id_token", func(t *testing.T) {
		p := newTestProvider(t)
		p.omitToken = true
		_, err := p.staticDirectory(nil).Lookup(context.Background(), attempt(testUser, testPassword))
		require.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
	})

	t.Run("wrong audience", func(t *testing.T) {
		p := newTestProvider(t)
		p.claims["aud"] = "someone-else"
		_, err := p.staticDirectory(nil).Lookup(context.Background(), attempt(testUser, testPassword))
		require.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		p := newTestProvider(t)
		p.claims["exp"] = time.Now().Add(-time.Hour).Unix()
		_, err := p.staticDirectory(nil).Lookup(context.Background(), attempt(testUser, testPassword))
		require.Error(t, err)
	})

	t.Run("issued for another user", func(t *testing.T) {
		p := newTestProvider(t)
		p.claims["preferred_username"] = "mallory"
		_, err := p.staticDirectory(nil).Lookup(context.Background(), attempt(testUser, testPassword))
		require.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
	})
}

func TestDirectory_ProvisionsLocalLogin(t *testing.T) {
	p := newTestProvider(t)
	creds := repofake.NewFakeCredentialsRepo()
	d := p.staticDirectory(creds)

	rec, err := d.Lookup(context.Background(), attempt(testUser, testPassword))
	require.NoError(t, err)
	require.NotEmpty(t, rec.LoginID)

	stored, err := creds.FindByUsername(context.Background(), testUser)
	require.NoError(t, err)
	require.Equal(t, rec.LoginID, stored.LoginID)
	require.Equal(t, "dir-alice", stored.UserID)
	require.Empty(t, stored.PasswordHash)
}

func TestDirectory_LinksExistingLogin(t *testing.T) {
	p := newTestProvider(t)
	creds := repofake.NewFakeCredentialsRepo()
	local := &credentials.Record{UserID: "user-1", Username: testUser, PasswordHash: "local-hash", Domain: "example.org"}
	require.NoError(t, creds.Upsert(context.Background(), local))

	rec, err := p.staticDirectory(creds).Lookup(context.Background(), attempt(testUser, testPassword))
	require.NoError(t, err)
	require.Equal(t, local.LoginID, rec.LoginID)
	require.Equal(t, "user-1", rec.UserID)
	require.Equal(t, "example.org", rec.Domain)
	require.Empty(t, rec.PasswordHash)
	require.Equal(t, "alice@example.org", rec.Fields["email"])

	// the stored password is left alone
	stored, err := creds.FindByUsername(context.Background(), testUser)
	require.NoError(t, err)
	require.Equal(t, "local-hash", stored.PasswordHash)
}
