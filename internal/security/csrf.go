package security

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"campus-portal/internal/domain"
)

// TokenManager handles per-session CSRF token issuance and verification.
// Tokens are cryptographically random, stored server-side on the session,
// and compared in constant time. A session holds at most one valid token
// at any instant.
type TokenManager struct {
	sessions domain.SessionRepository
}

// NewTokenManager creates a new CSRF token manager.
func NewTokenManager(sessions domain.SessionRepository) *TokenManager {
	return &TokenManager{sessions: sessions}
}

// Ensure returns the session's CSRF token, generating and storing one if
// the session has none yet. Idempotent: repeated calls return the same
// value. Under concurrent issuance on one session the store accepts only
// the first writer; the loser re-reads and returns the winner's token.
func (tm *TokenManager) Ensure(ctx context.Context, session *domain.Session) (string, error) {
	if session.CSRFToken != "" {
		return session.CSRFToken, nil
	}

	token, err := generateToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate csrf token: %w", err)
	}

	claimed, err := tm.sessions.SetCSRFTokenIfEmpty(ctx, session.Token, token)
	if err != nil {
		return "", fmt.Errorf("failed to store csrf token: %w", err)
	}
	if claimed {
		session.CSRFToken = token
		return token, nil
	}

	// A concurrent request already issued a token for this session.
	fresh, err := tm.sessions.GetByToken(ctx, session.Token)
	if err != nil {
		return "", fmt.Errorf("failed to re-read csrf token: %w", err)
	}
	session.CSRFToken = fresh.CSRFToken
	return fresh.CSRFToken, nil
}

// Verify compares the submitted token against the session's token using a
// constant-time equality check. A missing session token, a missing
// submitted token, and a mismatch all produce the same ErrInvalidToken so
// response behavior leaks nothing about which check failed.
func (tm *TokenManager) Verify(session *domain.Session, submitted string) error {
	if session.CSRFToken == "" || submitted == "" {
		return domain.ErrInvalidToken
	}
	if !hmac.Equal([]byte(session.CSRFToken), []byte(submitted)) {
		return domain.ErrInvalidToken
	}
	return nil
}

// generateToken produces 256 bits of entropy from a cryptographically
// secure source, hex-encoded to a fixed 64-character string.
func generateToken() (string, error) {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(randomBytes), nil
}
