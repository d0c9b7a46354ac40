// Package crypto provides password derivation and verification.
package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2-HMAC-SHA256 parameters. Changing these invalidates stored hashes,
// so they are fixed rather than configurable.
const (
	SaltLength = 16
	KeyLength  = 32
	Iterations = 100_000
)

// Derive turns a plain-text password into a (salt, hash) pair, both hex
// encoded so they can be stored in TEXT columns.
func Derive(password string) (salt, hash string, err error) {
	raw := make([]byte, SaltLength)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return "", "", fmt.Errorf("crypto: generate salt: %w", err)
	}

	key := pbkdf2.Key([]byte(password), raw, Iterations, KeyLength, sha256.New)
	return hex.EncodeToString(raw), hex.EncodeToString(key), nil
}

// Matches reports whether password corresponds to the stored hex (salt, hash)
// pair. Malformed stored values never match. Comparison is constant time.
func Matches(password, salt, hash string) bool {
	rawSalt, err := hex.DecodeString(salt)
	if err != nil {
		return false
	}
	stored, err := hex.DecodeString(hash)
	if err != nil || len(stored) == 0 {
		return false
	}

	key := pbkdf2.Key([]byte(password), rawSalt, Iterations, len(stored), sha256.New)
	return subtle.ConstantTimeCompare(stored, key) == 1
}
