package auth

import (
	"errors"
	"os"
	"strconv"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrPasswordMismatch = errors.New("password does not match")
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 8

// defaultHashCost trades login latency for resistance to offline
// cracking; the imported seed data uses the same cost.
const defaultHashCost = 12

// hashCost resolves the bcrypt cost, honoring BCRYPT_COST when it is a
// valid cost so test and dev environments can run cheaper hashes.
func hashCost() int {
	raw := os.Getenv("BCRYPT_COST")
	if raw == "" {
		return defaultHashCost
	}
	cost, err := strconv.Atoi(raw)
	if err != nil || cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return defaultHashCost
	}
	return cost
}

// HashPassword hashes a plaintext password with bcrypt. Too-short
// passwords are rejected here so no caller can hash one by accident.
func HashPassword(password string) (string, error) {
	if !IsPasswordValid(password) {
		return "", ErrPasswordTooShort
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), hashCost())
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword compares a plaintext password against a stored hash
func VerifyPassword(hashedPassword, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return err
}

// IsPasswordValid reports whether the password meets the length floor
func IsPasswordValid(password string) bool {
	return len(password) >= MinPasswordLength
}
