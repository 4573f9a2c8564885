// Package redisstore keeps sessions in Redis as JSON with a TTL of twice the
// keep-alive window, so idle sessions disappear without a sweep.
package redisstore

import (
	"context"
	"encoding/json"
	"time"

	autherrors "github.com/jrsteele09/go-auth-gate/internal/errors"
	"github.com/jrsteele09/go-auth-gate/sessions"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "zugzwang:session:"

var _ sessions.Repo = (*Repo)(nil)

type Repo struct {
	client *redis.Client
	ttl    time.Duration
}

// New stores sessions through client, expiring each 2*keepAlive after its
// last write.
func New(client *redis.Client, keepAlive time.Duration) *Repo {
	return &Repo{client: client, ttl: 2 * keepAlive}
}

func key(id string) string {
	return keyPrefix + id
}

func (r *Repo) Get(ctx context.Context, id string) (*sessions.Session, error) {
	if id == "" {
		return nil, autherrors.ErrSessionNotFound
	}
	raw, err := r.client.Get(ctx, key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, autherrors.ErrSessionNotFound
		}
		return nil, errors.Wrap(err, "[redisstore.Get]")
	}

	var s sessions.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, errors.Wrap(err, "[redisstore.Get] decode")
	}
	return &s, nil
}

func (r *Repo) Upsert(ctx context.Context, s *sessions.Session) error {
	if s == nil || s.ID == "" {
		return autherrors.Wrapf(autherrors.ErrInternal, "[redisstore.Upsert] session id is required")
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "[redisstore.Upsert] encode")
	}
	return errors.Wrap(r.client.Set(ctx, key(s.ID), raw, r.ttl).Err(), "[redisstore.Upsert]")
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	return errors.Wrap(r.client.Del(ctx, key(id)).Err(), "[redisstore.Delete]")
}

// DeleteExpired is a no-op; Redis expires keys on its own
func (r *Repo) DeleteExpired(context.Context, time.Time) (int, error) {
	return 0, nil
}
