package middleware

import (
	"net/http"
	"strconv"

	"campus-portal/internal/alert"
	"campus-portal/internal/domain"
	"campus-portal/internal/observability"
	"campus-portal/internal/service"

	"github.com/go-chi/chi/v5"
)

// Audit records every request that reached a handler and evaluates the
// frequency anomaly signal afterwards. A tripped threshold records an
// extra "suspicious activity" event and publishes an alert but never
// blocks the user: this is detection, escalation belongs to whoever
// consumes the alerts.
func Audit(auditor *service.ActivityAuditor, alerts *alert.Publisher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)

			ctx := r.Context()
			var userID int64
			if session, ok := GetSession(ctx); ok {
				userID = session.UserID
			}

			// Best effort; failures are logged inside Record.
			auditor.Record(ctx, userID, r.Method+" "+routePattern(r), "")

			if userID == 0 {
				return
			}
			anomalous, err := auditor.CheckAnomalous(ctx, userID)
			if err != nil || !anomalous {
				return
			}

			observability.AnomaliesDetectedTotal.Inc()
			auditor.Record(ctx, userID, domain.ActionSuspiciousActivity,
				"request frequency over threshold")
			alerts.Publish(ctx, alert.Alert{
				Kind:    alert.KindSuspiciousActivity,
				UserID:  userID,
				Details: "request frequency over threshold for user " + strconv.FormatInt(userID, 10),
			})
		})
	}
}

// routePattern prefers the chi route pattern over the raw path so audit
// actions stay stable across path parameters.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}
