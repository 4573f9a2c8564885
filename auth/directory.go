package auth

import (
	"context"

	"github.com/jrsteele09/go-auth-gate/credentials"
)

// Directory is a secondary credential source, e.g. a corporate identity
// provider. Lookup returns the record to register for a verified attempt.
type Directory interface {
	Lookup(ctx context.Context, attempt *LoginAttempt) (*credentials.Record, error)
}

// LoginAttempt is one credential check. It is never persisted and the
// password is wiped once verification finishes.
type LoginAttempt struct {
	Username     string
	Password     string
	Context      string
	SingleSignOn bool
	// Fields are the sanitised submitted login fields, EmptyFieldValue for
	// missing ones, in configured order.
	Fields []string
}

// Clear drops the password
func (a *LoginAttempt) Clear() {
	a.Password = ""
}
