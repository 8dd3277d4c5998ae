// Package cryptox holds the credential primitives: bcrypt password hashes
// and constant-time comparison of configured secrets.
package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

var bcryptCost = bcrypt.DefaultCost

// dummyHash is compared against when a login names no account, so the miss
// costs about as much as a wrong password.
var dummyHash = mustHash("pixkeeper-dummy-password")

func mustHash(p string) []byte {
	h, err := bcrypt.GenerateFromPassword([]byte(p), bcryptCost)
	if err != nil {
		panic(err)
	}
	return h
}

// Digest returns the SHA-256 of secret. Digests have a fixed length, so
// comparing them does not leak the length of the configured value.
func Digest(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	return sum[:]
}

// EqualSecrets compares two secrets in constant time.
func EqualSecrets(a, b string) bool {
	return subtle.ConstantTimeCompare(Digest(a), Digest(b)) == 1
}

func HashPassword(password string) ([]byte, error) {
	if len(password) > MaxPasswordBytes {
		return nil, fmt.Errorf("password longer than %d bytes", MaxPasswordBytes)
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("bcrypt: %w", err)
	}
	return h, nil
}

// CheckPassword reports whether password matches hash. An empty hash is
// checked against the dummy hash and always fails.
func CheckPassword(hash []byte, password string) bool {
	if len(hash) == 0 {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}
