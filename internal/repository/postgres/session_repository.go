package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"campus-portal/internal/domain"
)

type SessionRepository struct {
	db               *sql.DB
	createStmt       *sql.Stmt
	getByTokenStmt   *sql.Stmt
	setCSRFStmt      *sql.Stmt
	touchStmt        *sql.Stmt
	deleteStmt       *sql.Stmt
	deleteByUserStmt *sql.Stmt
	deleteExpired    *sql.Stmt
}

// NewSessionRepository creates a new SessionRepository with prepared statements.
// Returns an error if statement preparation fails.
func NewSessionRepository(db *sql.DB) (*SessionRepository, error) {
	repo := &SessionRepository{db: db}

	var err error
	// csrf_token starts empty regardless of column defaults: the claim
	// predicate in SetCSRFTokenIfEmpty matches on '' exactly.
	repo.createStmt, err = db.Prepare(`
		INSERT INTO sessions (user_id, role, token, csrf_token, expires_at, last_seen_at)
		VALUES ($1, $2, $3, '', $4, $5)
		RETURNING id, created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare create statement: %w", err)
	}

	repo.getByTokenStmt, err = db.Prepare(`
		SELECT id, user_id, role, token, csrf_token, created_at, last_seen_at, expires_at
		FROM sessions
		WHERE token = $1 AND expires_at > $2
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare getByToken statement: %w", err)
	}

	// Conditional write keeps at most one CSRF token valid per session:
	// only the first writer claims the empty slot.
	repo.setCSRFStmt, err = db.Prepare(`
		UPDATE sessions SET csrf_token = $1
		WHERE token = $2 AND csrf_token = ''
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare setCSRFToken statement: %w", err)
	}

	repo.touchStmt, err = db.Prepare(`UPDATE sessions SET last_seen_at = $1 WHERE token = $2`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare touch statement: %w", err)
	}

	repo.deleteStmt, err = db.Prepare(`DELETE FROM sessions WHERE token = $1`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare delete statement: %w", err)
	}

	repo.deleteByUserStmt, err = db.Prepare(`DELETE FROM sessions WHERE user_id = $1`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare deleteByUserID statement: %w", err)
	}

	repo.deleteExpired, err = db.Prepare(`DELETE FROM sessions WHERE expires_at <= $1`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare deleteExpired statement: %w", err)
	}

	return repo, nil
}

func (r *SessionRepository) Create(ctx context.Context, session *domain.Session) error {
	err := r.createStmt.QueryRowContext(ctx,
		session.UserID,
		string(session.Role),
		session.Token,
		session.ExpiresAt,
		session.LastSeenAt,
	).Scan(&session.ID, &session.CreatedAt)

	if IsUniqueViolation(err, "sessions_token_key") {
		return fmt.Errorf("session token collision: %w", err)
	}
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	session := &domain.Session{}
	var role string
	err := r.getByTokenStmt.QueryRowContext(ctx, token, time.Now()).Scan(
		&session.ID,
		&session.UserID,
		&role,
		&session.Token,
		&session.CSRFToken,
		&session.CreatedAt,
		&session.LastSeenAt,
		&session.ExpiresAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session by token: %w", err)
	}
	session.Role, _ = domain.ParseRole(role)
	return session, nil
}

// SetCSRFTokenIfEmpty stores the CSRF token if the session has none yet.
// Returns true when this call claimed the slot.
func (r *SessionRepository) SetCSRFTokenIfEmpty(ctx context.Context, sessionToken, csrfToken string) (bool, error) {
	result, err := r.setCSRFStmt.ExecContext(ctx, csrfToken, sessionToken)
	if err != nil {
		return false, fmt.Errorf("failed to set csrf token: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return count > 0, nil
}

func (r *SessionRepository) Touch(ctx context.Context, token string, at time.Time) error {
	_, err := r.touchStmt.ExecContext(ctx, at, token)
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, token string) error {
	_, err := r.deleteStmt.ExecContext(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteByUserID destroys every session belonging to the user. Used for
// full invalidation when an account is found disabled mid-session.
func (r *SessionRepository) DeleteByUserID(ctx context.Context, userID int64) (int64, error) {
	result, err := r.deleteByUserStmt.ExecContext(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete sessions by user: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return count, nil
}

func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.deleteExpired.ExecContext(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return count, nil
}
