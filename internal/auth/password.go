package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the work factor used when none is configured.
const DefaultBcryptCost = 10

// TokenBytes is the entropy of reset and invitation tokens (256 bits).
const TokenBytes = 32

// HashPassword hashes a plaintext password with a fresh random salt.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against its bcrypt hash.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}

// LegacyDigest is the unsalted SHA-256 hex digest some historical accounts
// still store as their password hash.
func LegacyDigest(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

// VerifyPassword accepts either stored encoding: the legacy digest first, then
// bcrypt. Removing the legacy branch requires migrating the stored digests.
func VerifyPassword(plain, stored string) bool {
	if stored == "" {
		return false
	}
	legacy := LegacyDigest(plain)
	if subtle.ConstantTimeCompare([]byte(legacy), []byte(stored)) == 1 {
		return true
	}
	err := ComparePassword(stored, plain)
	if err != nil && !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		// Not a bcrypt hash at all; treat as mismatch.
		return false
	}
	return err == nil
}

// GenerateToken returns a random 256-bit token, hex encoded.
func GenerateToken() (string, error) {
	buf := make([]byte, TokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
