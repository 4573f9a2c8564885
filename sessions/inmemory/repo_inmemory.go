package inmemory

import (
	"context"
	"sync"
	"time"

	autherrors "github.com/jrsteele09/go-auth-gate/internal/errors"
	"github.com/jrsteele09/go-auth-gate/sessions"
)

var _ sessions.Repo = (*Repo)(nil)

// Repo is an in-memory session store. Sessions are copied in and out so a
// caller never aliases stored state.
type Repo struct {
	mu       sync.RWMutex
	sessions map[string]*sessions.Session // sessionID -> Session
}

func New() *Repo {
	return &Repo{
		sessions: make(map[string]*sessions.Session),
	}
}

// Get retrieves a session by ID
func (r *Repo) Get(_ context.Context, id string) (*sessions.Session, error) {
	if id == "" {
		return nil, autherrors.ErrSessionNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, autherrors.ErrSessionNotFound
	}
	return s.Clone(), nil
}

// Upsert creates or updates a session
func (r *Repo) Upsert(_ context.Context, s *sessions.Session) error {
	if s == nil || s.ID == "" {
		return autherrors.Wrapf(autherrors.ErrInternal, "[inmemory.Upsert] session id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[s.ID] = s.Clone()
	return nil
}

// Delete removes a session
func (r *Repo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id) // Already doesn't exist, no error
	return nil
}

func (r *Repo) DeleteExpired(_ context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, s := range r.sessions {
		if s.IdleSince().Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}

// Len is the number of stored sessions
func (r *Repo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
