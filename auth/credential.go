// Package auth extracts and matches the internal credential that grants
// payment-free access to gated tools.
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

const bearerPrefix = "bearer "

// ExtractCredential pulls the internal credential from a request header set.
// It reads the Authorization header first, falling back to X-Api-Key, and
// accepts either the raw secret or a Bearer-wrapped value. Absence and
// malformed values both normalize to the anonymous case; a broken credential
// degrades to "must pay", it never fails the request.
func ExtractCredential(h http.Header) (string, bool) {
	raw := strings.TrimSpace(h.Get("Authorization"))
	if raw == "" {
		raw = strings.TrimSpace(h.Get("X-Api-Key"))
	}
	if raw == "" {
		return "", false
	}

	if len(raw) >= len(bearerPrefix) && strings.EqualFold(raw[:len(bearerPrefix)], bearerPrefix) {
		raw = strings.TrimSpace(raw[len(bearerPrefix):])
	}
	if raw == "" {
		return "", false
	}

	return raw, true
}

// Match compares a candidate credential against the configured secret in
// constant time. An empty secret matches nothing: operators that provision
// no internal credential get payment-only access.
func Match(candidate, secret string) bool {
	if secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(secret)) == 1
}
