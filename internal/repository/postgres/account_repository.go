package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"campus-portal/internal/domain"
)

type AccountRepository struct {
	db             *sql.DB
	getByIDStmt    *sql.Stmt
	getByNameStmt  *sql.Stmt
	getStatusStmt  *sql.Stmt
	updProfileStmt *sql.Stmt
}

// NewAccountRepository creates a new AccountRepository with prepared statements.
func NewAccountRepository(db *sql.DB) (*AccountRepository, error) {
	repo := &AccountRepository{db: db}

	var err error
	repo.getByIDStmt, err = db.Prepare(`
		SELECT id, username, email, display_name, password_hash, role, is_active, created_at
		FROM accounts
		WHERE id = $1
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare getByID statement: %w", err)
	}

	repo.getByNameStmt, err = db.Prepare(`
		SELECT id, username, email, display_name, password_hash, role, is_active, created_at
		FROM accounts
		WHERE username = $1
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare getByUsername statement: %w", err)
	}

	repo.getStatusStmt, err = db.Prepare(`
		SELECT id, role, is_active FROM accounts WHERE id = $1
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare getStatus statement: %w", err)
	}

	repo.updProfileStmt, err = db.Prepare(`
		UPDATE accounts SET email = $1, display_name = $2 WHERE id = $3
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare updateProfile statement: %w", err)
	}

	return repo, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	return r.scanAccount(r.getByIDStmt.QueryRowContext(ctx, id))
}

func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return r.scanAccount(r.getByNameStmt.QueryRowContext(ctx, username))
}

// GetStatus is the live point read the access controller issues on every
// protected request. No caching layer sits in front of it.
func (r *AccountRepository) GetStatus(ctx context.Context, id int64) (*domain.AccountStatus, error) {
	status := &domain.AccountStatus{}
	var role string
	err := r.getStatusStmt.QueryRowContext(ctx, id).Scan(&status.UserID, &role, &status.IsActive)
	if err == sql.ErrNoRows {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account status: %w", err)
	}
	status.Role, _ = domain.ParseRole(role)
	return status, nil
}

func (r *AccountRepository) UpdateProfile(ctx context.Context, id int64, email, displayName string) error {
	result, err := r.updProfileStmt.ExecContext(ctx, email, displayName, id)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if count == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) scanAccount(row *sql.Row) (*domain.Account, error) {
	account := &domain.Account{}
	var role string
	err := row.Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.DisplayName,
		&account.PasswordHash,
		&role,
		&account.IsActive,
		&account.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	account.Role, _ = domain.ParseRole(role)
	return account, nil
}
