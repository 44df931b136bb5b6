package middleware

import (
	"log/slog"
	"net/http"

	"campus-portal/internal/domain"
	"campus-portal/internal/observability"
	"campus-portal/internal/security"
	"campus-portal/internal/service"
)

// CSRF enforces the Synchronizer Token Pattern on protected routes.
//
// Safe methods (GET, HEAD, OPTIONS) ensure a token exists for the session
// and expose it via the X-CSRF-Token response header so rendered pages
// and API clients can echo it back. State-changing methods must submit
// the token; absence and mismatch are indistinguishable to the client and
// both abort the request before the handler runs.
//
// Token sources (checked in order):
//   - Form field: csrf_token
//   - Header: X-CSRF-Token
//   - Header: X-XSRF-Token (alternate)
//
// Mount inside the access-controlled group: a session must already be on
// the context.
func CSRF(tokens *security.TokenManager, auditor *service.ActivityAuditor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := GetSession(r.Context())
			if !ok {
				// The access controller should have rejected this already.
				http.Error(w, `{"error":"Not authenticated"}`, http.StatusUnauthorized)
				return
			}

			if isSafeMethod(r.Method) {
				token, err := tokens.Ensure(r.Context(), session)
				if err != nil {
					observability.FromContext(r.Context()).Error("csrf token issuance failed",
						slog.String("error", err.Error()))
					http.Error(w, `{"error":"Internal server error"}`, http.StatusInternalServerError)
					return
				}
				w.Header().Set("X-CSRF-Token", token)
				next.ServeHTTP(w, r)
				return
			}

			submitted := extractCSRFToken(r)
			if err := tokens.Verify(session, submitted); err != nil {
				reason := "invalid token"
				if submitted == "" {
					reason = "missing token"
				}
				// Record before the request terminates; the generic
				// response leaks nothing about which check failed.
				auditor.Record(r.Context(), session.UserID, domain.ActionCSRFFailure, reason)
				observability.CSRFFailuresTotal.Inc()
				logCSRFFailure(r, session.UserID, reason)
				http.Error(w, `{"error":"Forbidden"}`, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// isSafeMethod returns true for idempotent methods that carry no state
// change and therefore need no CSRF proof.
func isSafeMethod(method string) bool {
	return method == http.MethodGet ||
		method == http.MethodHead ||
		method == http.MethodOptions
}

// extractCSRFToken extracts the CSRF token from the request.
// Checks form data first (HTML form posts), then the AJAX headers.
func extractCSRFToken(r *http.Request) string {
	token := r.FormValue("csrf_token")
	if token != "" {
		return token
	}

	token = r.Header.Get("X-CSRF-Token")
	if token != "" {
		return token
	}

	return r.Header.Get("X-XSRF-Token")
}

func logCSRFFailure(r *http.Request, userID int64, reason string) {
	slog.Warn("CSRF validation failed",
		slog.Int64("user_id", userID),
		slog.String("reason", reason),
		slog.String("method", r.Method),
		slog.String("path", r.RequestURI),
		slog.String("remote_addr", r.RemoteAddr),
	)
}
