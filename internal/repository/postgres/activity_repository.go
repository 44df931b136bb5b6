package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"campus-portal/internal/domain"
)

type ActivityRepository struct {
	db         *sql.DB
	insertStmt *sql.Stmt
	countStmt  *sql.Stmt
}

// NewActivityRepository creates a new ActivityRepository with prepared
// statements. The activity log is append-only; no update or delete
// statements exist on purpose.
func NewActivityRepository(db *sql.DB) (*ActivityRepository, error) {
	repo := &ActivityRepository{db: db}

	var err error
	repo.insertStmt, err = db.Prepare(`
		INSERT INTO activity_log (user_id, action, details, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert statement: %w", err)
	}

	repo.countStmt, err = db.Prepare(`
		SELECT COUNT(*) FROM activity_log
		WHERE user_id = $1 AND created_at >= $2
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare count statement: %w", err)
	}

	return repo, nil
}

func (r *ActivityRepository) Insert(ctx context.Context, event *domain.ActivityEvent) error {
	err := r.insertStmt.QueryRowContext(ctx,
		event.UserID,
		event.Action,
		event.Details,
		event.IPAddress,
		event.UserAgent,
		event.CreatedAt,
	).Scan(&event.ID)

	if err != nil {
		return fmt.Errorf("failed to insert activity event: %w", err)
	}
	return nil
}

func (r *ActivityRepository) CountSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	var count int
	err := r.countStmt.QueryRowContext(ctx, userID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count activity events: %w", err)
	}
	return count, nil
}
