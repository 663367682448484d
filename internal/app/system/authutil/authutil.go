// internal/app/system/authutil/authutil.go
// Package authutil provides credential hashing for machine callers.
// The CI pipeline's rebuild-complete callback authenticates with a bearer
// secret whose bcrypt hash is the only form the server ever stores.
package authutil

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor for hashing shared secrets. Callbacks are
// rare, so a high cost is affordable.
const BcryptCost = 12

// HashSecret hashes a shared secret with bcrypt. Use this offline (or in a
// provisioning script) to produce the hash stored in configuration.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckSecret compares a presented secret with a stored bcrypt hash.
// Returns false for empty inputs; a blank config hash never authenticates.
func CheckSecret(secret, hash string) bool {
	if secret == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

// BearerToken extracts the token from an Authorization header value.
// Returns "" when the header is missing or not a Bearer scheme.
func BearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
