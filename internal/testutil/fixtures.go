package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"campus-portal/internal/domain"
)

// Counter for generating unique IDs
var idCounter atomic.Int64

func nextID() int64 {
	return idCounter.Add(1)
}

// AccountOptions allows customizing account fixture creation
type AccountOptions struct {
	ID           int64
	Username     string
	Email        string
	DisplayName  string
	PasswordHash string
	Role         domain.Role
	IsActive     bool
	CreatedAt    time.Time
}

// NewTestAccount creates a test account with sensible defaults.
// Pass options to override specific fields.
func NewTestAccount(opts ...func(*AccountOptions)) *domain.Account {
	id := nextID()
	o := &AccountOptions{
		ID:           id,
		Username:     fmt.Sprintf("student%d", id),
		PasswordHash: "$2a$10$test.hash.for.testing.purposes.only", // bcrypt hash placeholder
		Role:         domain.RoleStudent,
		IsActive:     true,
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.Email == "" {
		o.Email = o.Username + "@campus.example.edu"
	}
	if o.DisplayName == "" {
		o.DisplayName = "Test " + o.Username
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}

	return &domain.Account{
		ID:           o.ID,
		Username:     o.Username,
		Email:        o.Email,
		DisplayName:  o.DisplayName,
		PasswordHash: o.PasswordHash,
		Role:         o.Role,
		IsActive:     o.IsActive,
		CreatedAt:    o.CreatedAt,
	}
}

// WithAccountID sets the account ID
func WithAccountID(id int64) func(*AccountOptions) {
	return func(o *AccountOptions) {
		o.ID = id
	}
}

// WithUsername sets the username
func WithUsername(username string) func(*AccountOptions) {
	return func(o *AccountOptions) {
		o.Username = username
	}
}

// WithRole sets the account role
func WithRole(role domain.Role) func(*AccountOptions) {
	return func(o *AccountOptions) {
		o.Role = role
	}
}

// WithPasswordHash sets the password hash
func WithPasswordHash(hash string) func(*AccountOptions) {
	return func(o *AccountOptions) {
		o.PasswordHash = hash
	}
}

// WithDisabled creates a disabled account
func WithDisabled() func(*AccountOptions) {
	return func(o *AccountOptions) {
		o.IsActive = false
	}
}

// SessionOptions allows customizing session fixture creation
type SessionOptions struct {
	ID        int64
	UserID    int64
	Role      domain.Role
	Token     string
	CSRFToken string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// NewTestSession creates a test session with sensible defaults
func NewTestSession(opts ...func(*SessionOptions)) *domain.Session {
	id := nextID()
	o := &SessionOptions{
		ID:        id,
		UserID:    id,
		Role:      domain.RoleStudent,
		Token:     fmt.Sprintf("token-%d", id),
		ExpiresAt: time.Now().Add(24 * time.Hour),
		CreatedAt: time.Now(),
	}

	for _, opt := range opts {
		opt(o)
	}

	return &domain.Session{
		ID:         o.ID,
		UserID:     o.UserID,
		Role:       o.Role,
		Token:      o.Token,
		CSRFToken:  o.CSRFToken,
		CreatedAt:  o.CreatedAt,
		LastSeenAt: o.CreatedAt,
		ExpiresAt:  o.ExpiresAt,
	}
}

// WithSessionUserID sets the user ID for the session
func WithSessionUserID(userID int64) func(*SessionOptions) {
	return func(o *SessionOptions) {
		o.UserID = userID
	}
}

// WithSessionRole sets the role snapshot on the session
func WithSessionRole(role domain.Role) func(*SessionOptions) {
	return func(o *SessionOptions) {
		o.Role = role
	}
}

// WithToken sets the session token
func WithToken(token string) func(*SessionOptions) {
	return func(o *SessionOptions) {
		o.Token = token
	}
}

// WithCSRFToken sets the CSRF token on the session
func WithCSRFToken(token string) func(*SessionOptions) {
	return func(o *SessionOptions) {
		o.CSRFToken = token
	}
}

// WithExpired creates an expired session
func WithExpired() func(*SessionOptions) {
	return func(o *SessionOptions) {
		o.ExpiresAt = time.Now().Add(-1 * time.Hour)
	}
}

// ResetIDCounter resets the ID counter (useful for deterministic tests)
func ResetIDCounter() {
	idCounter.Store(0)
}
