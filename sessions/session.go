// Package sessions holds the server-side login session and its per-request
// lifecycle. A session is keyed by an opaque token carried in a cookie.
package sessions

import (
	"context"
	"maps"
	"time"

	"github.com/google/uuid"
)

// Session is the server-side state of one browser. It is created on the
// first protected or login request and destroyed on logout, expiry or a
// domain mismatch.
type Session struct {
	ID             string            `json:"id"`                        // Opaque token, also the cookie value
	LoggedIn       bool              `json:"logged_in,omitempty"`       // Set by Register, cleared before each login attempt
	LoginID        string            `json:"login_id,omitempty"`        // Login that authenticated, kept across masquerade
	UserID         string            `json:"user_id,omitempty"`         // Acting user, replaced on masquerade
	Username       string            `json:"username,omitempty"`        // Username of the acting user
	Domain         string            `json:"domain,omitempty"`          // Domain the login belongs to
	LastClickAt    time.Time         `json:"last_click_at"`             // Last authenticated protected request
	Masquerade     bool              `json:"masquerade,omitempty"`      // An operator acts as UserID
	MaskID         string            `json:"mask_id,omitempty"`         // Masquerade window to extend, empty when unset
	Settings       map[string]string `json:"settings,omitempty"`        // Per-user settings loaded on Register
	ChangePassword bool              `json:"change_password,omitempty"` // The login must change its password
	Fields         map[string]string `json:"fields,omitempty"`          // Extra stored fields merged on login
	CreatedAt      time.Time         `json:"created_at"`
}

// Repo persists sessions by token. Implementations are safe for concurrent use.
type Repo interface {
	// Get returns ErrSessionNotFound when no session has id
	Get(ctx context.Context, id string) (*Session, error)

	// Upsert creates or replaces the session stored under s.ID
	Upsert(ctx context.Context, s *Session) error

	// Delete removes a session; deleting a missing session is not an error
	Delete(ctx context.Context, id string) error

	// DeleteExpired removes sessions idle since before cutoff and returns
	// how many were removed.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int, error)
}

// NewID returns a fresh session token
func NewID() string {
	return uuid.New().String()
}

// New returns an empty, unsaved session
func New(now time.Time) *Session {
	return &Session{ID: NewID(), CreatedAt: now}
}

// Reset drops all state but the token and creation time
func (s *Session) Reset() {
	*s = Session{ID: s.ID, CreatedAt: s.CreatedAt}
}

// Expired reports whether the session has been idle longer than keepAlive
// at now. A session that was never clicked counts as expired.
func (s *Session) Expired(now time.Time, keepAlive time.Duration) bool {
	if s.LastClickAt.IsZero() {
		return true
	}
	return s.LastClickAt.Add(keepAlive).Before(now)
}

// IdleSince is the time the session was last used, falling back to creation
func (s *Session) IdleSince() time.Time {
	if s.LastClickAt.IsZero() {
		return s.CreatedAt
	}
	return s.LastClickAt
}

// Clone returns a deep copy
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Settings = maps.Clone(s.Settings)
	c.Fields = maps.Clone(s.Fields)
	return &c
}
