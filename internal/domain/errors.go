package domain

import (
	"errors"
	"fmt"
)

// Security failure taxonomy. Access-control outcomes redirect, CSRF and
// throttle failures reject hard, upload failures are reported to the
// caller without aborting the request.
var (
	ErrInvalidToken       = errors.New("invalid CSRF token")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrUnauthorized       = errors.New("role not permitted")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrAccountNotFound    = errors.New("account not found")
	ErrThrottleBlocked    = errors.New("too many login attempts")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("invalid input")
)

// UploadError reports why an uploaded file was rejected. The request that
// carried the file proceeds without it; only the file is discarded.
type UploadError struct {
	Reason string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload rejected: %s", e.Reason)
}
