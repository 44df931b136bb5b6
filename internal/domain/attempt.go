package domain

import (
	"context"
	"time"
)

// LoginAttempt records one failed authentication attempt from an IP.
// Rows older than the throttle window never count toward the decision;
// physical deletion may lag behind logical expiry.
type LoginAttempt struct {
	ID        int64     `json:"id"`
	IPAddress string    `json:"ip_address"`
	CreatedAt time.Time `json:"created_at"`
}

// AttemptRepository is the throttle store contract.
type AttemptRepository interface {
	Insert(ctx context.Context, ip string, at time.Time) error
	CountSince(ctx context.Context, ip string, since time.Time) (int, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
