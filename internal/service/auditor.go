package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"campus-portal/internal/domain"
	"campus-portal/internal/observability"
)

// ActivityAuditor writes the durable audit trail and evaluates the
// frequency-based anomaly signal. Audit writes are best-effort: a store
// failure degrades to a logged warning and never blocks the request
// pipeline. The anomaly check is a detection signal only; escalation is
// the calling policy's decision.
type ActivityAuditor struct {
	events    domain.ActivityRepository
	window    time.Duration
	threshold int
}

// NewActivityAuditor creates an auditor with the given anomaly window and
// threshold.
func NewActivityAuditor(events domain.ActivityRepository, window time.Duration, threshold int) *ActivityAuditor {
	return &ActivityAuditor{
		events:    events,
		window:    window,
		threshold: threshold,
	}
}

// Record writes an immutable activity event, capturing source IP and
// user-agent from the request context. The returned error is reported to
// the caller for visibility but must not abort the request.
func (a *ActivityAuditor) Record(ctx context.Context, userID int64, action, details string) error {
	event := &domain.ActivityEvent{
		UserID:    userID,
		Action:    action,
		Details:   details,
		CreatedAt: time.Now(),
	}
	if info, ok := observability.ClientFromContext(ctx); ok {
		event.IPAddress = info.IP
		event.UserAgent = info.UserAgent
	}

	if err := a.events.Insert(ctx, event); err != nil {
		observability.AuditWriteFailuresTotal.Inc()
		observability.FromContext(ctx).Warn("audit write failed",
			slog.String("action", action),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to record activity: %w", err)
	}
	return nil
}

// CheckAnomalous reports whether the user's event count within the window
// exceeds the threshold. At exactly the threshold it is still false; one
// more event flips it.
func (a *ActivityAuditor) CheckAnomalous(ctx context.Context, userID int64) (bool, error) {
	count, err := a.events.CountSince(ctx, userID, time.Now().Add(-a.window))
	if err != nil {
		return false, fmt.Errorf("failed to count activity: %w", err)
	}
	return count > a.threshold, nil
}
