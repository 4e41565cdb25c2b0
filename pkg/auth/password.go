package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns a bcrypt hash of secret. Every call draws a fresh
// salt, so hashing the same secret twice gives different results.
// A cost of zero or less selects bcrypt.DefaultCost.
func HashPassword(secret string, cost int) ([]byte, error) {
	if secret == "" {
		return nil, ErrPasswordRequired
	}
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}

// VerifyPassword reports whether secret matches hash.
func VerifyPassword(secret string, hash []byte) bool {
	if len(hash) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(secret)) == nil
}
