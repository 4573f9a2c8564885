package passwords

import (
	"context"
	"crypto/md5"
	"encoding/hex"

	"github.com/jrsteele09/go-auth-gate/internal/config"
	autherrors "github.com/jrsteele09/go-auth-gate/internal/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

var (
	_ Hasher = (*AdaptiveHasher)(nil)
	_ Hasher = (*MigratingHasher)(nil)
)

// AdaptiveHasher is plain bcrypt
type AdaptiveHasher struct {
	cost int
}

func NewAdaptiveHasher(cost int) *AdaptiveHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &AdaptiveHasher{cost: cost}
}

func (h *AdaptiveHasher) Scheme() string {
	return config.HashSchemeBcrypt
}

func (h *AdaptiveHasher) Hash(plaintext string) (string, error) {
	if tooLong(plaintext) {
		return "", autherrors.ErrPasswordTooLong
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", autherrors.Wrapf(err, "[AdaptiveHasher.Hash] bcrypt")
	}
	return string(bytes), nil
}

func (h *AdaptiveHasher) Verify(_ context.Context, plaintext, digest, _ string) bool {
	if tooLong(plaintext) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

// MigratingHasher is bcrypt that also accepts the legacy bcrypt(md5(password))
// digests and rewrites them to plain bcrypt when they match.
type MigratingHasher struct {
	AdaptiveHasher
	upgrader Upgrader
}

func NewMigratingHasher(cost int, upgrader Upgrader) *MigratingHasher {
	return &MigratingHasher{
		AdaptiveHasher: *NewAdaptiveHasher(cost),
		upgrader:       upgrader,
	}
}

func (h *MigratingHasher) Scheme() string {
	return config.HashSchemeBcryptMD5
}

func (h *MigratingHasher) Verify(ctx context.Context, plaintext, digest, loginID string) bool {
	if tooLong(plaintext) {
		return false
	}
	if h.AdaptiveHasher.Verify(ctx, plaintext, digest, loginID) {
		return true
	}
	if bcrypt.CompareHashAndPassword([]byte(digest), []byte(LegacyMD5(plaintext))) != nil {
		return false
	}

	upgraded, err := h.Hash(plaintext)
	if err != nil {
		log.Warn().Err(err).Str("login_id", loginID).Msg("Failed to hash password for upgrade")
		return true
	}
	if err := h.upgrader.UpdateStoredHash(ctx, loginID, upgraded); err != nil {
		log.Warn().Err(err).Str("login_id", loginID).Msg("Failed to upgrade legacy password hash")
	}
	return true
}

// LegacyMD5 is the inner hash of the legacy double hashed format
func LegacyMD5(plaintext string) string {
	sum := md5.Sum([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}
