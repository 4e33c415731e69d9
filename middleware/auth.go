package middleware

import (
	"crypto/subtle"
	"strings"
)

// Authorize compares the request credential against the configured shared
// secret. An empty configured secret means open mode: every caller is
// authorized, matching deployments that deliberately run without a secret.
// The comparison is constant-time to avoid leaking the secret through
// response timing.
func Authorize(configuredSecret, suppliedCredential string) bool {
	if configuredSecret == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(configuredSecret), []byte(suppliedCredential)) == 1
}

// CredentialFromHeader extracts the credential from an Authorization header
// value, tolerating an optional "Bearer " prefix.
func CredentialFromHeader(header string) string {
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return header[7:]
	}
	return header
}
