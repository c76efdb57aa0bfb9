// Package auth wraps bcrypt password hashing for the HTTP API's login
// endpoint, replacing the original firmware's plain MD5 comparison.
package auth

import "golang.org/x/crypto/bcrypt"

// Hash returns a bcrypt hash of password suitable for storing in
// StringOptions[SOptPassword].
func Hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Verify reports whether password matches the stored bcrypt hash.
func Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
