package passwords

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"hash"

	"github.com/jrsteele09/go-auth-gate/internal/config"
	autherrors "github.com/jrsteele09/go-auth-gate/internal/errors"
)

var _ Hasher = (*KeyedDigestHasher)(nil)

// KeyedDigestHasher compares hex(digest(password + salt)). It exists for
// deployments whose stored logins predate bcrypt.
type KeyedDigestHasher struct {
	scheme  string
	salt    string
	newHash func() hash.Hash
}

func NewKeyedDigestHasher(scheme, salt string) (*KeyedDigestHasher, error) {
	var fn func() hash.Hash
	switch scheme {
	case config.HashSchemeMD5:
		fn = md5.New
	case config.HashSchemeSHA1:
		fn = sha1.New
	case config.HashSchemeSHA256:
		fn = sha256.New
	default:
		return nil, autherrors.Wrapf(autherrors.ErrUnknownHashScheme, "[NewKeyedDigestHasher] %q", scheme)
	}
	return &KeyedDigestHasher{scheme: scheme, salt: salt, newHash: fn}, nil
}

func (h *KeyedDigestHasher) Scheme() string {
	return h.scheme
}

func (h *KeyedDigestHasher) Hash(plaintext string) (string, error) {
	if tooLong(plaintext) {
		return "", autherrors.ErrPasswordTooLong
	}
	d := h.newHash()
	d.Write([]byte(plaintext + h.salt))
	return hex.EncodeToString(d.Sum(nil)), nil
}

func (h *KeyedDigestHasher) Verify(_ context.Context, plaintext, digest, _ string) bool {
	computed, err := h.Hash(plaintext)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(computed), []byte(digest)) == 1
}
