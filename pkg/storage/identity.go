package storage

import (
	"crypto/sha256"
	"encoding/hex"
)

// AnonymousEmail is the sentinel identity used when a request carries no
// user email. Anonymous callers share a single storage namespace.
const AnonymousEmail = "anonymous@lectern.local"

// UserHash derives the storage namespace for an email: the first 12
// lowercase hex characters of the SHA-256 of the email string. An empty
// email maps to the anonymous sentinel.
func UserHash(email string) string {
	if email == "" {
		email = AnonymousEmail
	}
	sum := sha256.Sum256([]byte(email))
	return hex.EncodeToString(sum[:])[:12]
}
