// ABOUTME: HTTP helpers for bearer token authentication
// ABOUTME: Extracts the token from the Authorization header

package auth

import (
	"strings"
)

// ExtractBearerToken extracts a bearer token from the Authorization header.
// Returns the token and an error message (empty if successful).
func ExtractBearerToken(authHeader string) (string, string) {
	if authHeader == "" {
		return "", "missing authorization header"
	}
	// The scheme is case-insensitive; "bearer x" and "BEARER x" are both valid
	scheme, rest, _ := strings.Cut(authHeader, " ")
	if !strings.EqualFold(scheme, "Bearer") {
		return "", "invalid authorization header format"
	}
	token := strings.TrimSpace(rest)
	if token == "" {
		return "", "empty token"
	}
	return token, ""
}
