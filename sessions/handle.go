package sessions

import (
	"context"
	"time"

	autherrors "github.com/jrsteele09/go-auth-gate/internal/errors"
	"github.com/pkg/errors"
)

// Handle is one request's view of its session. It is created by the HTTP
// layer with the token from the request cookie and is never shared.
type Handle struct {
	repo      Repo
	now       func() time.Time
	presented string // token the request came with
	token     string // token the response must carry, "" once destroyed
	session   *Session
}

// NewHandle wraps the token presented by the request, "" when the request
// had no session cookie.
func NewHandle(repo Repo, token string, now func() time.Time) *Handle {
	if now == nil {
		now = time.Now
	}
	return &Handle{repo: repo, now: now, presented: token, token: token}
}

// Exists reports whether the request presented a session token or one has
// since been started.
func (h *Handle) Exists() bool {
	return h.token != ""
}

// Started reports whether a session is loaded
func (h *Handle) Started() bool {
	return h.session != nil
}

// Session returns the loaded session or nil
func (h *Handle) Session() *Session {
	return h.session
}

func (h *Handle) Token() string {
	return h.token
}

// TokenChanged reports whether the response must set (or clear) the cookie
func (h *Handle) TokenChanged() bool {
	return h.token != h.presented
}

// Start loads the session for the presented token, or begins a new one when
// there is none or it is unknown to the store. New sessions are saved on the
// next Save.
func (h *Handle) Start(ctx context.Context) (*Session, error) {
	if h.session != nil {
		return h.session, nil
	}

	if h.token != "" {
		s, err := h.repo.Get(ctx, h.token)
		switch {
		case err == nil:
			h.session = s
			return s, nil
		case !errors.Is(err, autherrors.ErrSessionNotFound):
			return nil, errors.Wrap(err, "[Handle.Start]")
		}
	}

	// Unknown tokens are never adopted
	h.session = New(h.now())
	h.token = h.session.ID
	return h.session, nil
}

// Load loads the session for the presented token without ever creating one.
// An unknown token is forgotten and ErrSessionNotFound returned.
func (h *Handle) Load(ctx context.Context) (*Session, error) {
	if h.session != nil {
		return h.session, nil
	}
	if h.token == "" {
		return nil, autherrors.ErrSessionNotFound
	}
	s, err := h.repo.Get(ctx, h.token)
	if err != nil {
		if errors.Is(err, autherrors.ErrSessionNotFound) {
			h.token = ""
			return nil, autherrors.ErrSessionNotFound
		}
		return nil, errors.Wrap(err, "[Handle.Load]")
	}
	h.session = s
	return s, nil
}

// Save persists the loaded session
func (h *Handle) Save(ctx context.Context) error {
	if h.session == nil {
		return autherrors.ErrSessionNotStarted
	}
	return errors.Wrap(h.repo.Upsert(ctx, h.session), "[Handle.Save]")
}

// Destroy removes the session from the store and forgets the token
func (h *Handle) Destroy(ctx context.Context) error {
	id := h.token
	if h.session != nil {
		id = h.session.ID
	}
	h.session = nil
	h.token = ""
	if id == "" {
		return nil
	}
	return errors.Wrap(h.repo.Delete(ctx, id), "[Handle.Destroy]")
}

// Regenerate moves the session to a new token and deletes the old record
func (h *Handle) Regenerate(ctx context.Context) error {
	if h.session == nil {
		return autherrors.ErrSessionNotStarted
	}
	old := h.session.ID
	h.session.ID = NewID()
	h.token = h.session.ID

	if err := h.repo.Upsert(ctx, h.session); err != nil {
		return errors.Wrap(err, "[Handle.Regenerate] save")
	}
	if err := h.repo.Delete(ctx, old); err != nil {
		return errors.Wrap(err, "[Handle.Regenerate] delete old")
	}
	return nil
}
