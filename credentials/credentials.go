// Package credentials describes the stored login records the auth gate reads
// and the few writes it performs on them.
package credentials

import (
	"context"
	"maps"
	"time"
)

// Record is a stored login as seen by the auth core. It is never modified
// by the gate; Register copies it into the session.
type Record struct {
	LoginID        string            `json:"login_id"`
	UserID         string            `json:"user_id"`
	Username       string            `json:"username"`
	PasswordHash   string            `json:"-"` // never serialise
	Domain         string            `json:"domain,omitempty"`
	ChangePassword bool              `json:"change_password,omitempty"`
	MaskID         string            `json:"mask_id,omitempty"`
	MaskLoginID    string            `json:"mask_login_id,omitempty"` // operator who opened MaskID
	Fields         map[string]string `json:"fields,omitempty"`
}

// Repo is the credential store adapter.
type Repo interface {
	// FindByUsername returns ErrLoginNotFound when no login carries username
	FindByUsername(ctx context.Context, username string) (*Record, error)

	// FindByRemoteAddress returns the username bound to a remote address,
	// or "" when the address logs nobody in.
	FindByRemoteAddress(ctx context.Context, remoteAddr string) (string, error)

	// FindForMasquerade loads the record an operator takes over when
	// masquerading as userID, with the newest open mask on it if any.
	FindForMasquerade(ctx context.Context, userID string) (*Record, error)

	LoadSettings(ctx context.Context, userID string) (map[string]string, error)
	UpdateStoredHash(ctx context.Context, loginID, digest string) error
	ExtendMasqueradeExpiry(ctx context.Context, maskID string, until time.Time) error
	RecordLastActivity(ctx context.Context, loginID string, at time.Time) error

	// Upsert creates or replaces a login keyed by username. A missing
	// LoginID is generated and written back to rec.
	Upsert(ctx context.Context, rec *Record) error
}

// Clone returns a deep copy so callers can't alias stored field maps
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	c.Fields = maps.Clone(r.Fields)
	return &c
}
