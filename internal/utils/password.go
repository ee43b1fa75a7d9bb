package utils

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHashCost defines the cost for bcrypt password hashing
const PasswordHashCost = 12

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 10

// HashPassword creates a bcrypt hash of the password
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), PasswordHashCost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with a hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

var commonPasswords = map[string]bool{
	"password123": true, "motdepasse": true, "azertyuiop": true, "1234567890": true,
	"chantier123": true, "bonjour123": true, "qwertyuiop": true, "soleil1234": true,
}

// ValidatePassword checks length, character classes and a short list of
// common passwords
func ValidatePassword(password, email string) error {
	if len([]rune(password)) < MinPasswordLength {
		return errors.New("password must be at least 10 characters long")
	}

	var hasUpper, hasLower, hasNumber bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		}
	}
	if !hasUpper || !hasLower || !hasNumber {
		return errors.New("password must contain upper and lower case letters and a number")
	}

	lower := strings.ToLower(password)
	if commonPasswords[lower] {
		return errors.New("password is too common and easily guessable")
	}
	if local, _, ok := strings.Cut(strings.ToLower(email), "@"); ok && len(local) >= 4 && strings.Contains(lower, local) {
		return errors.New("password should not contain your email address")
	}
	return nil
}
