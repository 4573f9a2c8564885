package gormrepo_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-gate/credentials"
	"github.com/jrsteele09/go-auth-gate/credentials/gormrepo"
	autherrors "github.com/jrsteele09/go-auth-gate/internal/errors"
	"github.com/stretchr/testify/require"
)

type testFixture struct {
	ctx  context.Context
	repo *gormrepo.Repo
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	db, err := gormrepo.Open(filepath.Join(t.TempDir(), "logins.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return &testFixture{ctx: context.Background(), repo: gormrepo.New(db)}
}

func (f *testFixture) addLogin(t *testing.T, username, userID string) *credentials.Record {
	t.Helper()
	rec := &credentials.Record{
		UserID:       userID,
		Username:     username,
		PasswordHash: "digest-" + username,
		Fields:       map[string]string{"realname": "Test " + username},
	}
	require.NoError(t, f.repo.Upsert(f.ctx, rec))
	require.NotEmpty(t, rec.LoginID)
	return rec
}

func TestRepo_UpsertAndFind(t *testing.T) {
	f := setupTestFixture(t)
	rec := f.addLogin(t, "alice", "user-1")

	t.Run("found", func(t *testing.T) {
		got, err := f.repo.FindByUsername(f.ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, rec.LoginID, got.LoginID)
		require.Equal(t, "user-1", got.UserID)
		require.Equal(t, "digest-alice", got.PasswordHash)
		require.Equal(t, "Test alice", got.Fields["realname"])
	})

	t.Run("missing", func(t *testing.T) {
		_, err := f.repo.FindByUsername(f.ctx, "bob")
		require.ErrorIs(t, err, autherrors.ErrLoginNotFound)
	})

	t.Run("upsert keeps login id", func(t *testing.T) {
		again := &credentials.Record{Username: "alice", UserID: "user-1", PasswordHash: "new", ChangePassword: true}
		require.NoError(t, f.repo.Upsert(f.ctx, again))
		require.Equal(t, rec.LoginID, again.LoginID)

		got, err := f.repo.FindByUsername(f.ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, "new", got.PasswordHash)
		require.True(t, got.ChangePassword)
	})
}

func TestRepo_UpdateStoredHash(t *testing.T) {
	f := setupTestFixture(t)
	rec := f.addLogin(t, "alice", "user-1")

	require.NoError(t, f.repo.UpdateStoredHash(f.ctx, rec.LoginID, "$2a$upgraded"))
	got, err := f.repo.FindByUsername(f.ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "$2a$upgraded", got.PasswordHash)

	err = f.repo.UpdateStoredHash(f.ctx, "nope", "x")
	require.ErrorIs(t, err, autherrors.ErrLoginNotFound)
}

func TestRepo_RecordLastActivity(t *testing.T) {
	f := setupTestFixture(t)
	rec := f.addLogin(t, "alice", "user-1")

	require.NoError(t, f.repo.RecordLastActivity(f.ctx, rec.LoginID, time.Now()))
	require.ErrorIs(t, f.repo.RecordLastActivity(f.ctx, "nope", time.Now()), autherrors.ErrLoginNotFound)
}

func TestRepo_RemoteAddress(t *testing.T) {
	f := setupTestFixture(t)
	f.addLogin(t, "kiosk", "user-9")

	username, err := f.repo.FindByRemoteAddress(f.ctx, "10.0.0.7")
	require.NoError(t, err)
	require.Empty(t, username)

	require.NoError(t, f.repo.BindRemoteAddress(f.ctx, "10.0.0.7", "kiosk"))
	username, err = f.repo.FindByRemoteAddress(f.ctx, "10.0.0.7")
	require.NoError(t, err)
	require.Equal(t, "kiosk", username)
}

func TestRepo_Masquerade(t *testing.T) {
	f := setupTestFixture(t)
	operator := f.addLogin(t, "operator", "user-1")
	f.addLogin(t, "customer", "user-2")

	t.Run("without mask", func(t *testing.T) {
		got, err := f.repo.FindForMasquerade(f.ctx, "user-2")
		require.NoError(t, err)
		require.Equal(t, "customer", got.Username)
		require.Empty(t, got.MaskID)
	})

	t.Run("with mask", func(t *testing.T) {
		maskID, err := f.repo.StartMasquerade(f.ctx, operator.LoginID, "user-2", time.Now().Add(time.Hour))
		require.NoError(t, err)

		got, err := f.repo.FindForMasquerade(f.ctx, "user-2")
		require.NoError(t, err)
		require.Equal(t, maskID, got.MaskID)
		require.Equal(t, operator.LoginID, got.MaskLoginID)

		require.NoError(t, f.repo.ExtendMasqueradeExpiry(f.ctx, maskID, time.Now().Add(2*time.Hour)))
	})

	t.Run("expired mask ignored", func(t *testing.T) {
		f := setupTestFixture(t)
		op := f.addLogin(t, "operator", "user-1")
		f.addLogin(t, "customer", "user-2")
		_, err := f.repo.StartMasquerade(f.ctx, op.LoginID, "user-2", time.Now().Add(-time.Minute))
		require.NoError(t, err)

		got, err := f.repo.FindForMasquerade(f.ctx, "user-2")
		require.NoError(t, err)
		require.Empty(t, got.MaskID)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := f.repo.FindForMasquerade(f.ctx, "user-404")
		require.ErrorIs(t, err, autherrors.ErrUserNotFound)
	})

	t.Run("unknown mask", func(t *testing.T) {
		err := f.repo.ExtendMasqueradeExpiry(f.ctx, "missing", time.Now())
		require.ErrorIs(t, err, autherrors.ErrNotFound)
	})
}

func TestRepo_Settings(t *testing.T) {
	f := setupTestFixture(t)

	settings, err := f.repo.LoadSettings(f.ctx, "user-1")
	require.NoError(t, err)
	require.Empty(t, settings)

	require.NoError(t, f.repo.SetSetting(f.ctx, "user-1", "lang", "de"))
	require.NoError(t, f.repo.SetSetting(f.ctx, "user-1", "lang", "en"))
	require.NoError(t, f.repo.SetSetting(f.ctx, "user-1", "theme", "dark"))
	require.NoError(t, f.repo.SetSetting(f.ctx, "user-2", "lang", "fr"))

	settings, err = f.repo.LoadSettings(f.ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, map[string]string{"lang": "en", "theme": "dark"}, settings)
}
