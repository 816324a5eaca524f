package auth

import (
	"fmt"

	"github.com/alexedwards/argon2id"
)

// HashPassword returns an encoded Argon2id hash of password.
func HashPassword(password string) (string, error) {
	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return "", fmt.Errorf("error creating password hash: %w", err)
	}
	return hash, nil
}

// CheckPassword reports whether password matches the encoded hash.
func CheckPassword(password, hash string) (bool, error) {
	match, err := argon2id.ComparePasswordAndHash(password, hash)
	if err != nil {
		return false, fmt.Errorf("error comparing password hash: %w", err)
	}
	return match, nil
}
