package redisstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	autherrors "github.com/jrsteele09/go-auth-gate/internal/errors"
	"github.com/jrsteele09/go-auth-gate/sessions"
	"github.com/jrsteele09/go-auth-gate/sessions/redisstore"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type testFixture struct {
	ctx   context.Context
	redis *miniredis.Miniredis
	repo  *redisstore.Repo
}

func setupTestFixture(t *testing.T, keepAlive time.Duration) *testFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return &testFixture{
		ctx:   context.Background(),
		redis: mr,
		repo:  redisstore.New(client, keepAlive),
	}
}

func TestRepo_RoundTrip(t *testing.T) {
	f := setupTestFixture(t, 30*time.Minute)
	clicked := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	s := &sessions.Session{
		ID:          "tok-1",
		LoggedIn:    true,
		LoginID:     "login-1",
		UserID:      "user-1",
		LastClickAt: clicked,
		MaskID:      "mask-1",
		Settings:    map[string]string{"lang": "en"},
	}
	require.NoError(t, f.repo.Upsert(f.ctx, s))

	got, err := f.repo.Get(f.ctx, "tok-1")
	require.NoError(t, err)
	require.True(t, got.LoggedIn)
	require.Equal(t, "login-1", got.LoginID)
	require.Equal(t, "mask-1", got.MaskID)
	require.True(t, clicked.Equal(got.LastClickAt))
	require.Equal(t, "en", got.Settings["lang"])
}

func TestRepo_TTLIsTwiceKeepAlive(t *testing.T) {
	f := setupTestFixture(t, 30*time.Minute)
	require.NoError(t, f.repo.Upsert(f.ctx, &sessions.Session{ID: "tok-1"}))

	require.Equal(t, time.Hour, f.redis.TTL("zugzwang:session:tok-1"))

	f.redis.FastForward(time.Hour + time.Second)
	_, err := f.repo.Get(f.ctx, "tok-1")
	require.ErrorIs(t, err, autherrors.ErrSessionNotFound)
}

func TestRepo_Delete(t *testing.T) {
	f := setupTestFixture(t, time.Minute)
	require.NoError(t, f.repo.Upsert(f.ctx, &sessions.Session{ID: "tok-1"}))
	require.NoError(t, f.repo.Delete(f.ctx, "tok-1"))
	require.NoError(t, f.repo.Delete(f.ctx, "tok-1"))

	_, err := f.repo.Get(f.ctx, "tok-1")
	require.ErrorIs(t, err, autherrors.ErrSessionNotFound)
}

func TestRepo_MissingAndEmpty(t *testing.T) {
	f := setupTestFixture(t, time.Minute)

	_, err := f.repo.Get(f.ctx, "nope")
	require.ErrorIs(t, err, autherrors.ErrSessionNotFound)
	_, err = f.repo.Get(f.ctx, "")
	require.ErrorIs(t, err, autherrors.ErrSessionNotFound)

	require.Error(t, f.repo.Upsert(f.ctx, &sessions.Session{}))
}

func TestRepo_HandleLifecycle(t *testing.T) {
	f := setupTestFixture(t, time.Minute)

	h := sessions.NewHandle(f.repo, "", nil)
	_, err := h.Start(f.ctx)
	require.NoError(t, err)
	require.NoError(t, h.Save(f.ctx))
	old := h.Token()

	require.NoError(t, h.Regenerate(f.ctx))
	require.False(t, f.redis.Exists("zugzwang:session:"+old))
	require.True(t, f.redis.Exists("zugzwang:session:"+h.Token()))

	n, err := f.repo.DeleteExpired(f.ctx, time.Now())
	require.NoError(t, err)
	require.Zero(t, n)
}
