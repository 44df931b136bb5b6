package service

import (
	"context"
	"fmt"
	"time"

	"campus-portal/internal/domain"
)

// LoginThrottle is a sliding-window brute-force guard keyed by source IP.
// Attempts are counted over [now - window, now] at read time, so the
// decision never depends on prune timing. This is a best-effort economic
// deterrent, not a hard security boundary.
type LoginThrottle struct {
	attempts domain.AttemptRepository
	window   time.Duration
	limit    int
}

// NewLoginThrottle creates a throttle with the given window and attempt limit.
func NewLoginThrottle(attempts domain.AttemptRepository, window time.Duration, limit int) *LoginThrottle {
	return &LoginThrottle{
		attempts: attempts,
		window:   window,
		limit:    limit,
	}
}

// RecordFailure appends a login attempt for the IP at the current time.
// Blocked rejections are never recorded here, so the count cannot grow
// unboundedly once the threshold is tripped.
func (t *LoginThrottle) RecordFailure(ctx context.Context, ip string) error {
	if err := t.attempts.Insert(ctx, ip, time.Now()); err != nil {
		return fmt.Errorf("failed to record login failure: %w", err)
	}
	return nil
}

// IsBlocked reports whether the IP has reached the attempt limit within
// the window. A throttle-store failure fails closed: the IP is treated as
// blocked and the error is returned alongside.
func (t *LoginThrottle) IsBlocked(ctx context.Context, ip string) (bool, error) {
	count, err := t.attempts.CountSince(ctx, ip, time.Now().Add(-t.window))
	if err != nil {
		return true, fmt.Errorf("throttle store unavailable: %w", err)
	}
	return count >= t.limit, nil
}

// Prune deletes attempts that fell out of the window. Purely a storage
// concern; IsBlocked stays correct regardless of when this runs.
func (t *LoginThrottle) Prune(ctx context.Context) (int64, error) {
	return t.attempts.DeleteOlderThan(ctx, time.Now().Add(-t.window))
}
