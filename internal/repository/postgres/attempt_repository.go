package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"campus-portal/internal/domain"
)

type AttemptRepository struct {
	db         *sql.DB
	insertStmt *sql.Stmt
	countStmt  *sql.Stmt
	deleteStmt *sql.Stmt
}

// NewAttemptRepository creates a new AttemptRepository with prepared
// statements. Counting is always window-filtered at read time, so the
// throttle decision never depends on when pruning last ran.
func NewAttemptRepository(db *sql.DB) (*AttemptRepository, error) {
	repo := &AttemptRepository{db: db}

	var err error
	repo.insertStmt, err = db.Prepare(`
		INSERT INTO login_attempts (ip_address, created_at)
		VALUES ($1, $2)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert statement: %w", err)
	}

	repo.countStmt, err = db.Prepare(`
		SELECT COUNT(*) FROM login_attempts
		WHERE ip_address = $1 AND created_at >= $2
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare count statement: %w", err)
	}

	repo.deleteStmt, err = db.Prepare(`
		DELETE FROM login_attempts WHERE created_at < $1
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare delete statement: %w", err)
	}

	return repo, nil
}

func (r *AttemptRepository) Insert(ctx context.Context, ip string, at time.Time) error {
	if _, err := r.insertStmt.ExecContext(ctx, ip, at); err != nil {
		return fmt.Errorf("failed to insert login attempt: %w", err)
	}
	return nil
}

func (r *AttemptRepository) CountSince(ctx context.Context, ip string, since time.Time) (int, error) {
	var count int
	err := r.countStmt.QueryRowContext(ctx, ip, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count login attempts: %w", err)
	}
	return count, nil
}

func (r *AttemptRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.deleteStmt.ExecContext(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale login attempts: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return count, nil
}

var _ domain.AttemptRepository = (*AttemptRepository)(nil)
