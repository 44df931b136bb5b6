package domain

import (
	"context"
	"time"
)

// Session is server-side state bound to a client via the session cookie.
// Owned exclusively by the security gate; destroyed on logout, expiry, or
// forced invalidation when the account is disabled.
type Session struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"` // 0 pre-login
	Role       Role      `json:"role"`
	Token      string    `json:"token"`
	CSRFToken  string    `json:"csrf_token"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// SessionRepository defines the interface for session data access.
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	GetByToken(ctx context.Context, token string) (*Session, error)

	// SetCSRFTokenIfEmpty stores the CSRF token only when the session does
	// not have one yet and reports whether this call claimed the slot.
	// Keeps the one-valid-token-per-session invariant under concurrent
	// issuance: the loser re-reads the winner's token.
	SetCSRFTokenIfEmpty(ctx context.Context, sessionToken, csrfToken string) (bool, error)

	Touch(ctx context.Context, token string, at time.Time) error
	Delete(ctx context.Context, token string) error
	DeleteByUserID(ctx context.Context, userID int64) (int64, error)
	DeleteExpired(ctx context.Context) (int64, error)
}
