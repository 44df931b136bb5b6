package middleware

import (
	"log/slog"
	"net/http"

	"campus-portal/internal/alert"
	"campus-portal/internal/domain"
	"campus-portal/internal/observability"
	"campus-portal/internal/service"
)

// throttleRejection is the fixed rejection body for a blocked IP. Generic
// on purpose: it reveals neither the threshold nor the window.
const throttleRejection = `{"error":"Too many login attempts. Please try again later."}`

// LoginGuard rejects authentication requests from IPs that tripped the
// brute-force throttle, before any credential verification runs. The
// rejection itself is not recorded as a new login attempt, but it is
// recorded as a security activity event and published as an alert.
func LoginGuard(throttle *service.LoginThrottle, auditor *service.ActivityAuditor, alerts *alert.Publisher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info, ok := observability.ClientFromContext(r.Context())
			ip := info.IP
			if !ok || ip == "" {
				// ClientContext was not mounted ahead of this guard; use
				// the request's own address rather than pooling every
				// client under one empty key.
				ip = clientIP(r)
			}

			blocked, err := throttle.IsBlocked(r.Context(), ip)
			if err != nil {
				// Fail closed: an unreachable throttle store must not let
				// a possible brute-force burst through.
				observability.FromContext(r.Context()).Error("throttle check failed",
					slog.String("error", err.Error()))
			}
			if blocked {
				observability.ThrottleBlocksTotal.Inc()
				auditor.Record(r.Context(), 0, domain.ActionLoginThrottled, "ip "+ip)
				alerts.Publish(r.Context(), alert.Alert{
					Kind:      alert.KindThrottleBlock,
					IPAddress: ip,
				})
				http.Error(w, throttleRejection, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
