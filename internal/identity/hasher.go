package identity

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher provides one-way password hashing and verification.
type Hasher interface {
	// Hash produces a salted one-way hash of the plaintext.
	Hash(plaintext string) (string, error)

	// Verify reports whether plaintext matches the stored hash.
	// Mismatches, malformed hashes, and empty plaintext all yield false;
	// verification never returns an error so that a failed login cannot
	// be conflated with a system fault.
	Verify(plaintext, hash string) bool
}

// BcryptHasher implements Hasher using bcrypt.
type BcryptHasher struct {
	cost int
}

// bcrypt reads at most 72 bytes of input, while passwords may be up to
// 100 characters. Both operations truncate to the same prefix so any
// accepted password hashes and verifies.
const maxPasswordBytes = 72

// NewBcryptHasher creates a BcryptHasher with the default cost.
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: bcrypt.DefaultCost}
}

// Hash produces a bcrypt hash of the plaintext.
func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword(truncatePassword(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches the bcrypt hash.
func (h *BcryptHasher) Verify(plaintext, hash string) bool {
	if plaintext == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), truncatePassword(plaintext)) == nil
}

func truncatePassword(plaintext string) []byte {
	b := []byte(plaintext)
	if len(b) > maxPasswordBytes {
		b = b[:maxPasswordBytes]
	}
	return b
}
