package cli_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jrsteele09/go-auth-gate/credentials/gormrepo"
	"github.com/jrsteele09/go-auth-gate/internal/cli"
	autherrors "github.com/jrsteele09/go-auth-gate/internal/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSettings = `
hostname: example.org
auth_urls: ["/admin"]
hash:
  scheme: bcrypt
  cost: 4
`

type testFixture struct {
	dbPath string
}

// setupTestFixture points authctl at a temporary settings file and database
func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	dir := t.TempDir()

	settingsPath := filepath.Join(dir, "auth.yaml")
	require.NoError(t, os.WriteFile(settingsPath, []byte(testSettings), 0o600))

	f := &testFixture{dbPath: filepath.Join(dir, "logins.sqlite")}
	t.Setenv("AUTH_CONFIG", settingsPath)
	t.Setenv("DATABASE_URL", f.dbPath)
	t.Setenv("AUTHCTL_PASSWORD", "")
	return f
}

func (f *testFixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := cli.NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// repo opens the database the commands wrote to
func (f *testFixture) repo(t *testing.T) *gormrepo.Repo {
	t.Helper()
	db, err := gormrepo.Open(f.dbPath)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gormrepo.New(db)
}

func TestHash(t *testing.T) {
	f := setupTestFixture(t)

	out, err := f.run(t, "hash", "--password", "Password123")
	require.NoError(t, err)
	digest := strings.TrimSpace(out)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(digest), []byte("Password123")))
}

func TestAddLoginAndVerify(t *testing.T) {
	f := setupTestFixture(t)

	out, err := f.run(t, "add-login", "--username", "bob", "--user-id", "user-9", "--password", "Password123", "--field", "realname=Bob")
	require.NoError(t, err)
	require.Contains(t, out, "Stored login bob")

	rec, err := f.repo(t).FindByUsername(context.Background(), "bob")
	require.NoError(t, err)
	require.Equal(t, "user-9", rec.UserID)
	require.Equal(t, "Bob", rec.Fields["realname"])
	require.NotEqual(t, "Password123", rec.PasswordHash)

	out, err = f.run(t, "verify", "--username", "bob", "--password", "Password123")
	require.NoError(t, err)
	require.Contains(t, out, "Password ok")

	_, err = f.run(t, "verify", "--username", "bob", "--password", "Password124")
	require.ErrorIs(t, err, autherrors.ErrInvalidCredentials)

	_, err = f.run(t, "verify", "--username", "nobody", "--password", "Password123")
	require.Error(t, err)
}

func TestAddLogin_PasswordFromEnv(t *testing.T) {
	f := setupTestFixture(t)
	t.Setenv("AUTHCTL_PASSWORD", "FromEnv123")

	_, err := f.run(t, "add-login", "--username", "carol", "--user-id", "user-3")
	require.NoError(t, err)

	_, err = f.run(t, "verify", "--username", "carol", "--password", "FromEnv123")
	require.NoError(t, err)
}

func TestAddLogin_Validation(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.run(t, "add-login", "--username", "bob", "--password", "Password123")
	require.Error(t, err)

	_, err = f.run(t, "add-login", "--username", "bob", "--user-id", "user-9", "--password", "weak")
	require.Error(t, err)

	_, err = f.run(t, "add-login", "--username", "bob", "--user-id", "user-9", "--password", "weak", "--allow-weak")
	require.NoError(t, err)
}

func TestBindAddressSettingAndMasquerade(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	_, err := f.run(t, "add-login", "--username", "operator", "--user-id", "user-1", "--password", "Password123")
	require.NoError(t, err)
	_, err = f.run(t, "add-login", "--username", "customer", "--user-id", "user-2", "--password", "Password123")
	require.NoError(t, err)

	_, err = f.run(t, "bind-address", "--address", "198.51.100.7", "--username", "customer")
	require.NoError(t, err)
	_, err = f.run(t, "setting", "--user-id", "user-2", "--key", "lang", "--value", "de")
	require.NoError(t, err)
	out, err := f.run(t, "masquerade", "--operator", "operator", "--user-id", "user-2", "--for", "10m")
	require.NoError(t, err)
	require.Contains(t, out, "operator acts as user-2")

	repo := f.repo(t)
	username, err := repo.FindByRemoteAddress(ctx, "198.51.100.7")
	require.NoError(t, err)
	require.Equal(t, "customer", username)

	settings, err := repo.LoadSettings(ctx, "user-2")
	require.NoError(t, err)
	require.Equal(t, map[string]string{"lang": "de"}, settings)

	masked, err := repo.FindForMasquerade(ctx, "user-2")
	require.NoError(t, err)
	require.NotEmpty(t, masked.MaskID)

	_, err = f.run(t, "masquerade", "--operator", "ghost", "--user-id", "user-2")
	require.Error(t, err)
}
