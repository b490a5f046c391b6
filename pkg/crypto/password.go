package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters. These follow the OWASP baseline recommendation for an
// interactive, server-side login check: one pass, 64 MiB, four lanes.
const (
	Argon2Time       = 1
	Argon2Memory     = 64 * 1024 // KiB
	Argon2Threads    = 4
	Argon2KeyLen     = 32
	PasswordSaltSize = 32
)

// ErrInvalidPasswordHash is returned when a stored hash/salt pair is malformed.
var ErrInvalidPasswordHash = errors.New("crypto: invalid password hash")

// PasswordHash is a salted Argon2id digest of a password, as stored in a
// user record.
type PasswordHash struct {
	Salt []byte
	Hash []byte
}

// HashPassword derives a fresh, randomly salted Argon2id hash for password.
func HashPassword(password []byte) (PasswordHash, error) {
	salt := make([]byte, PasswordSaltSize)
	if _, err := rand.Read(salt); err != nil {
		return PasswordHash{}, fmt.Errorf("crypto: generate salt: %w", err)
	}
	hash := argon2.IDKey(password, salt, Argon2Time, Argon2Memory, Argon2Threads, Argon2KeyLen)
	return PasswordHash{Salt: salt, Hash: hash}, nil
}

// Verify reports whether password matches the stored hash, in constant time.
func (h PasswordHash) Verify(password []byte) bool {
	if len(h.Salt) == 0 || len(h.Hash) == 0 {
		return false
	}
	candidate := argon2.IDKey(password, h.Salt, Argon2Time, Argon2Memory, Argon2Threads, uint32(len(h.Hash)))
	return subtle.ConstantTimeCompare(candidate, h.Hash) == 1
}
