// Package testutil provides shared test utilities, mocks, and fixtures
// for testing the campus-portal application.
package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"campus-portal/internal/domain"
)

// Common test errors
var (
	ErrMockNotImplemented = errors.New("mock function not implemented")
	ErrMockStore          = errors.New("mock: store unavailable")
)

// MockSessionRepository implements domain.SessionRepository for testing
type MockSessionRepository struct {
	mu sync.RWMutex

	// Function overrides - set these to customize behavior
	CreateFunc              func(ctx context.Context, session *domain.Session) error
	GetByTokenFunc          func(ctx context.Context, token string) (*domain.Session, error)
	SetCSRFTokenIfEmptyFunc func(ctx context.Context, sessionToken, csrfToken string) (bool, error)
	TouchFunc               func(ctx context.Context, token string, at time.Time) error
	DeleteFunc              func(ctx context.Context, token string) error
	DeleteByUserIDFunc      func(ctx context.Context, userID int64) (int64, error)
	DeleteExpiredFunc       func(ctx context.Context) (int64, error)

	// In-memory storage for simple tests
	Sessions map[string]*domain.Session
}

// NewMockSessionRepository creates a new MockSessionRepository with initialized maps
func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{
		Sessions: make(map[string]*domain.Session),
	}
}

func (m *MockSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, session)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if session.ID == 0 {
		session.ID = int64(len(m.Sessions) + 1)
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	m.Sessions[session.Token] = session
	return nil
}

func (m *MockSessionRepository) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	if m.GetByTokenFunc != nil {
		return m.GetByTokenFunc(ctx, token)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if session, ok := m.Sessions[token]; ok {
		if session.ExpiresAt.Before(time.Now()) {
			return nil, domain.ErrSessionNotFound
		}
		return session, nil
	}
	return nil, domain.ErrSessionNotFound
}

func (m *MockSessionRepository) SetCSRFTokenIfEmpty(ctx context.Context, sessionToken, csrfToken string) (bool, error) {
	if m.SetCSRFTokenIfEmptyFunc != nil {
		return m.SetCSRFTokenIfEmptyFunc(ctx, sessionToken, csrfToken)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.Sessions[sessionToken]
	if !ok {
		return false, domain.ErrSessionNotFound
	}
	if session.CSRFToken != "" {
		return false, nil
	}
	session.CSRFToken = csrfToken
	return true, nil
}

func (m *MockSessionRepository) Touch(ctx context.Context, token string, at time.Time) error {
	if m.TouchFunc != nil {
		return m.TouchFunc(ctx, token, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if session, ok := m.Sessions[token]; ok {
		session.LastSeenAt = at
	}
	return nil
}

func (m *MockSessionRepository) Delete(ctx context.Context, token string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, token)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.Sessions, token)
	return nil
}

func (m *MockSessionRepository) DeleteByUserID(ctx context.Context, userID int64) (int64, error) {
	if m.DeleteByUserIDFunc != nil {
		return m.DeleteByUserIDFunc(ctx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for token, session := range m.Sessions {
		if session.UserID == userID {
			delete(m.Sessions, token)
			count++
		}
	}
	return count, nil
}

func (m *MockSessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	if m.DeleteExpiredFunc != nil {
		return m.DeleteExpiredFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	now := time.Now()
	for token, session := range m.Sessions {
		if session.ExpiresAt.Before(now) {
			delete(m.Sessions, token)
			count++
		}
	}
	return count, nil
}

// MockAccountRepository implements domain.AccountRepository for testing
type MockAccountRepository struct {
	mu sync.RWMutex

	// Function overrides
	GetByIDFunc       func(ctx context.Context, id int64) (*domain.Account, error)
	GetByUsernameFunc func(ctx context.Context, username string) (*domain.Account, error)
	GetStatusFunc     func(ctx context.Context, id int64) (*domain.AccountStatus, error)
	UpdateProfileFunc func(ctx context.Context, id int64, email, displayName string) error

	// In-memory storage
	Accounts map[int64]*domain.Account
}

// NewMockAccountRepository creates a new MockAccountRepository with initialized maps
func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		Accounts: make(map[int64]*domain.Account),
	}
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if account, ok := m.Accounts[id]; ok {
		return account, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, account := range m.Accounts {
		if account.Username == username {
			return account, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetStatus(ctx context.Context, id int64) (*domain.AccountStatus, error) {
	if m.GetStatusFunc != nil {
		return m.GetStatusFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if account, ok := m.Accounts[id]; ok {
		return &domain.AccountStatus{
			UserID:   account.ID,
			Role:     account.Role,
			IsActive: account.IsActive,
		}, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) UpdateProfile(ctx context.Context, id int64, email, displayName string) error {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, id, email, displayName)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.Accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	account.Email = email
	account.DisplayName = displayName
	return nil
}

// MockActivityRepository implements domain.ActivityRepository for testing
type MockActivityRepository struct {
	mu sync.RWMutex

	// Function overrides
	InsertFunc     func(ctx context.Context, event *domain.ActivityEvent) error
	CountSinceFunc func(ctx context.Context, userID int64, since time.Time) (int, error)

	// In-memory storage
	Events []*domain.ActivityEvent
}

// NewMockActivityRepository creates a new MockActivityRepository
func NewMockActivityRepository() *MockActivityRepository {
	return &MockActivityRepository{
		Events: make([]*domain.ActivityEvent, 0),
	}
}

func (m *MockActivityRepository) Insert(ctx context.Context, event *domain.ActivityEvent) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if event.ID == 0 {
		event.ID = int64(len(m.Events) + 1)
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	m.Events = append(m.Events, event)
	return nil
}

func (m *MockActivityRepository) CountSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	if m.CountSinceFunc != nil {
		return m.CountSinceFunc(ctx, userID, since)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, event := range m.Events {
		if event.UserID == userID && !event.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

// EventsByAction returns recorded events with the given action
func (m *MockActivityRepository) EventsByAction(action string) []*domain.ActivityEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*domain.ActivityEvent, 0)
	for _, event := range m.Events {
		if event.Action == action {
			result = append(result, event)
		}
	}
	return result
}

// MockAttemptRepository implements domain.AttemptRepository for testing
type MockAttemptRepository struct {
	mu sync.RWMutex

	// Function overrides
	InsertFunc          func(ctx context.Context, ip string, at time.Time) error
	CountSinceFunc      func(ctx context.Context, ip string, since time.Time) (int, error)
	DeleteOlderThanFunc func(ctx context.Context, cutoff time.Time) (int64, error)

	// In-memory storage
	Attempts []domain.LoginAttempt
}

// NewMockAttemptRepository creates a new MockAttemptRepository
func NewMockAttemptRepository() *MockAttemptRepository {
	return &MockAttemptRepository{
		Attempts: make([]domain.LoginAttempt, 0),
	}
}

func (m *MockAttemptRepository) Insert(ctx context.Context, ip string, at time.Time) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, ip, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Attempts = append(m.Attempts, domain.LoginAttempt{
		ID:        int64(len(m.Attempts) + 1),
		IPAddress: ip,
		CreatedAt: at,
	})
	return nil
}

func (m *MockAttemptRepository) CountSince(ctx context.Context, ip string, since time.Time) (int, error) {
	if m.CountSinceFunc != nil {
		return m.CountSinceFunc(ctx, ip, since)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, attempt := range m.Attempts {
		if attempt.IPAddress == ip && !attempt.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (m *MockAttemptRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if m.DeleteOlderThanFunc != nil {
		return m.DeleteOlderThanFunc(ctx, cutoff)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.Attempts[:0]
	var removed int64
	for _, attempt := range m.Attempts {
		if attempt.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, attempt)
	}
	m.Attempts = kept
	return removed, nil
}
