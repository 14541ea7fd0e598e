// Package cryptox implements password credential hashing. Plaintext
// passwords are never stored: each user gets a fresh random salt and a
// keyed hash derived from (password, salt), and verification re-derives
// the hash and compares in constant time.
package cryptox

import (
	"crypto/subtle"

	"golang.org/x/crypto/argon2"

	"github.com/blogify-app/blogify/internal/common"
)

// SaltSize is the number of random bytes in a per-user salt.
const SaltSize = 16

// argon2id parameters. Changing them invalidates stored hashes, so they are
// fixed here rather than configurable.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	hashSize     = 32
)

// NewSalt returns a fresh random salt for a newly registered user.
func NewSalt() []byte {
	return common.GenerateRandByteArray(SaltSize)
}

// HashPassword derives the stored password hash for the given salt. The
// derivation is deterministic for the same (password, salt) pair, which is
// what verification relies on.
func HashPassword(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, hashSize)
}

// VerifyPassword reports whether the presented password re-hashes to the
// stored hash under the stored salt. The comparison is constant-time.
func VerifyPassword(password string, salt, hash []byte) bool {
	candidate := HashPassword(password, salt)
	return subtle.ConstantTimeCompare(candidate, hash) == 1
}
