package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const minTokenLength = 16

// ValidateToken checks minimal API token requirements.
func ValidateToken(token string) error {
	if len(token) < minTokenLength {
		return fmt.Errorf("token must be at least %d characters", minTokenLength)
	}
	return nil
}

// HashToken hashes one plaintext API token for storage in the config file.
func HashToken(token string) (string, error) {
	if err := ValidateToken(token); err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyToken reports whether a presented token matches the stored hash.
func VerifyToken(hash, token string) bool {
	if hash == "" || token == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) == nil
}
