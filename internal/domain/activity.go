package domain

import (
	"context"
	"time"
)

// Security-relevant activity actions recorded by the gate.
const (
	ActionLogin              = "login"
	ActionLoginFailed        = "login failed"
	ActionLoginThrottled     = "login throttled"
	ActionLogout             = "logout"
	ActionCSRFFailure        = "csrf validation failed"
	ActionUnauthorized       = "unauthorized access attempt"
	ActionAccountDisabled    = "disabled account rejected"
	ActionSuspiciousActivity = "suspicious activity"
	ActionRequestRejected    = "malformed request rejected"
)

// ActivityEvent is one row of the canonical audit trail.
// Append-only and immutable once written.
type ActivityEvent struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"` // 0 for unauthenticated/system
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
}

// ActivityRepository is the append-only audit store contract.
type ActivityRepository interface {
	Insert(ctx context.Context, event *ActivityEvent) error
	CountSince(ctx context.Context, userID int64, since time.Time) (int, error)
}
