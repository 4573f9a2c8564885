// Package passwords hashes and verifies login passwords. The scheme is picked
// once at startup; the bcrypt-md5 scheme upgrades legacy digests as a side
// effect of a successful verification.
package passwords

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-auth-gate/internal/config"
	autherrors "github.com/jrsteele09/go-auth-gate/internal/errors"
)

// MaxPasswordLength is the bcrypt input limit, enforced for every scheme.
const MaxPasswordLength = 72

// Hasher is a password hashing strategy
type Hasher interface {
	// Hash returns a digest for plaintext. Plaintext longer than
	// MaxPasswordLength bytes yields ErrPasswordTooLong.
	Hash(plaintext string) (string, error)
	// Verify reports whether plaintext matches digest. loginID identifies the
	// stored record for schemes that rewrite it.
	Verify(ctx context.Context, plaintext, digest, loginID string) bool
	Scheme() string
}

// Upgrader stores a replacement digest for a login
type Upgrader interface {
	UpdateStoredHash(ctx context.Context, loginID, digest string) error
}

// New selects the hasher named by the configured scheme. upgrader is only
// used by the bcrypt-md5 scheme and may be nil otherwise.
func New(cfg config.SecurityConfig, upgrader Upgrader) (Hasher, error) {
	switch cfg.GetHashScheme() {
	case config.HashSchemeBcrypt:
		return NewAdaptiveHasher(cfg.GetHashCost()), nil
	case config.HashSchemeBcryptMD5:
		if upgrader == nil {
			return nil, fmt.Errorf("[passwords New] scheme %s needs a credential upgrader", config.HashSchemeBcryptMD5)
		}
		return NewMigratingHasher(cfg.GetHashCost(), upgrader), nil
	case config.HashSchemeMD5, config.HashSchemeSHA1, config.HashSchemeSHA256:
		h, err := NewKeyedDigestHasher(cfg.GetHashScheme(), cfg.GetHashSalt())
		if err != nil {
			return nil, err
		}
		return h, nil
	default:
		return nil, autherrors.Wrapf(autherrors.ErrUnknownHashScheme, "[passwords New] %q", cfg.GetHashScheme())
	}
}

// AuditDigest hashes an attempted password for audit logs so the plaintext
// is never written anywhere.
func AuditDigest(h Hasher, plaintext string) string {
	digest, err := h.Hash(plaintext)
	if err != nil {
		return "[unhashable]"
	}
	return digest
}

func tooLong(plaintext string) bool {
	return len(plaintext) > MaxPasswordLength
}
