package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-gate/internal/config"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestParseSettings_Defaults(t *testing.T) {
	s, err := config.ParseSettings([]byte("hostname: example.org\n"))
	require.NoError(t, err)

	require.Equal(t, "/login", s.GetLoginURL())
	require.Equal(t, 30, s.GetLogoutInactiveAfter())
	require.Equal(t, 30*time.Minute, s.GetKeepAlive())
	require.Equal(t, []string{"Username"}, s.GetLoginFields())
	require.Equal(t, []string{"example.org"}, s.GetValidDomains())
	require.Equal(t, config.HashSchemeBcrypt, s.GetHashScheme())
	require.Equal(t, bcrypt.DefaultCost, s.GetHashCost())
	require.Equal(t, "https", s.GetScheme())
	require.Empty(t, s.GetAuthURLs())
}

func TestParseSettings_DomainURLs(t *testing.T) {
	content := `
hostname: example.org
no_https: true
auth_urls: ["/admin", "/intern"]
no_auth_urls: ["/admin/public"]
login_entryurl: /admin/
change_password_url:
  example.org: /admin/password
  example.com: /intern/password
logout_inactive_after: 10
`
	s, err := config.ParseSettings([]byte(content))
	require.NoError(t, err)

	require.Equal(t, "http", s.GetScheme())
	require.Equal(t, []string{"/admin", "/intern"}, s.GetAuthURLs())
	require.Equal(t, "/admin/", s.GetLoginEntryURL().For("anything"))
	require.True(t, s.GetLoginEntryURL().Contains("/admin/"))
	require.Equal(t, "/intern/password", s.GetChangePasswordURL().For("example.com"))
	require.Equal(t, "", s.GetChangePasswordURL().For("unknown.net"))
	require.True(t, s.GetChangePasswordURL().Contains("/admin/password"))
	require.Equal(t, 10*time.Minute, s.GetKeepAlive())
}

func TestParseSettings_Invalid(t *testing.T) {
	t.Run("missing hostname", func(t *testing.T) {
		_, err := config.ParseSettings([]byte("auth_urls: [/admin]\n"))
		require.Error(t, err)
	})

	t.Run("unknown hash scheme", func(t *testing.T) {
		_, err := config.ParseSettings([]byte("hostname: a.org\nhash:\n  scheme: rot13\n"))
		require.Error(t, err)
	})

	t.Run("login url must be a path", func(t *testing.T) {
		_, err := config.ParseSettings([]byte("hostname: a.org\nlogin_url: login\n"))
		require.Error(t, err)
	})

	t.Run("unknown field format", func(t *testing.T) {
		_, err := config.ParseSettings([]byte("hostname: a.org\nlogin_fields_format:\n  username: reverse\n"))
		require.Error(t, err)
	})

	t.Run("directory without client", func(t *testing.T) {
		_, err := config.ParseSettings([]byte("hostname: a.org\ndirectory:\n  enabled: true\n  issuer: https://id.a.org\n"))
		require.Error(t, err)
	})
}

func TestLoadSettings_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hostname: files.org\nsingle_sign_on_secret: s3cret\n"), 0o600))

	s, err := config.LoadSettings(path)
	require.NoError(t, err)
	require.Equal(t, "s3cret", s.GetSingleSignOnSecret())

	_, err = config.LoadSettings(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestSettings_ThrottleRate(t *testing.T) {
	s := config.NewSettings("example.org")
	require.InDelta(t, 10.0/60.0, s.GetLoginThrottleRate(), 1e-9)
	require.Equal(t, 5, s.GetLoginThrottleBurst())
}
