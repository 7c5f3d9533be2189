// Package csrf issues and checks the per-session anti-forgery token
// embedded in every mutating form.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"userweb/internal/session"
)

const tokenBytes = 32 // 256 bits

// Issue returns the session's token, generating and storing one when
// the session has none. Re-rendering a form keeps the outstanding token
// valid, so a failed submission can be retried.
func Issue(s *session.Session) (string, error) {
	if s.CSRFToken != "" {
		return s.CSRFToken, nil
	}
	return Rotate(s)
}

// Rotate replaces the session's token with a fresh one, invalidating
// whatever was issued before. Called after a successful login.
func Rotate(s *session.Session) (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("csrf: failed to generate token: %w", err)
	}

	s.CSRFToken = base64.RawURLEncoding.EncodeToString(b)
	return s.CSRFToken, nil
}

// Verify reports whether submitted matches the session's stored token.
// A session without a token accepts nothing.
func Verify(s *session.Session, submitted string) bool {
	if s.CSRFToken == "" || submitted == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s.CSRFToken), []byte(submitted)) == 1
}
