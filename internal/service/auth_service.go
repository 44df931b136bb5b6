package service

import (
	"context"
	"time"

	"campus-portal/internal/domain"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AuthService verifies credentials and manages session lifecycle.
// It never creates or deletes accounts; the account store is read-only
// from this subsystem's perspective.
type AuthService struct {
	accounts        domain.AccountRepository
	sessions        domain.SessionRepository
	sessionLifetime time.Duration
}

func NewAuthService(accounts domain.AccountRepository, sessions domain.SessionRepository, sessionLifetime time.Duration) *AuthService {
	return &AuthService{
		accounts:        accounts,
		sessions:        sessions,
		sessionLifetime: sessionLifetime,
	}
}

// Login verifies credentials and creates a session bound to the account's
// role. Unknown usernames and wrong passwords both yield
// ErrInvalidCredentials; a disabled account yields ErrAccountDisabled.
// Callers must keep the distinction internal and answer with a generic
// failure message either way.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.Session, *domain.Account, error) {
	account, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		return nil, nil, domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(
		[]byte(account.PasswordHash), []byte(password),
	); err != nil {
		return nil, nil, domain.ErrInvalidCredentials
	}

	if !account.IsActive {
		return nil, nil, domain.ErrAccountDisabled
	}

	now := time.Now()
	session := &domain.Session{
		UserID:     account.ID,
		Role:       account.Role,
		Token:      uuid.New().String(),
		LastSeenAt: now,
		ExpiresAt:  now.Add(s.sessionLifetime),
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, nil, err
	}

	return session, account, nil
}

// Logout destroys the session.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// ValidateSession resolves a session token to its server-side state.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (*domain.Session, error) {
	return s.sessions.GetByToken(ctx, token)
}

// GetAccount returns the account for a user ID.
func (s *AuthService) GetAccount(ctx context.Context, userID int64) (*domain.Account, error) {
	return s.accounts.GetByID(ctx, userID)
}
