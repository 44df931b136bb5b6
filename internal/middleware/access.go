package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"campus-portal/internal/domain"
	"campus-portal/internal/observability"
	"campus-portal/internal/service"
)

// Redirect indicators carried to the login surface. Opaque codes only;
// internal error detail never reaches the response.
const (
	ReasonSessionExpired  = "session_expired"
	ReasonUnauthorized    = "unauthorized"
	ReasonAccountDisabled = "account_disabled"
)

// AccessController enforces session validity, role membership, and live
// account status on protected endpoints.
//
// Checks run in a fixed order: session first, then role membership, then
// a fresh account-status point read. Role membership comes before the
// status lookup so forbidden-role requests never pay the store round
// trip, while authorized-looking sessions always get a fresh disabled
// check instead of trusting a flag cached at login time.
type AccessController struct {
	sessions  domain.SessionRepository
	accounts  domain.AccountRepository
	auditor   *service.ActivityAuditor
	loginPath string
}

func NewAccessController(sessions domain.SessionRepository, accounts domain.AccountRepository, auditor *service.ActivityAuditor, loginPath string) *AccessController {
	return &AccessController{
		sessions:  sessions,
		accounts:  accounts,
		auditor:   auditor,
		loginPath: loginPath,
	}
}

// RequireRoles returns middleware admitting only sessions whose role is a
// member of the allowed set.
func (ac *AccessController) RequireRoles(allowed domain.RoleSet) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie("session_id")
			if err != nil {
				ac.deny(w, r, ReasonSessionExpired)
				return
			}

			session, err := ac.sessions.GetByToken(r.Context(), cookie.Value)
			if err != nil {
				if err != domain.ErrSessionNotFound && err != domain.ErrSessionExpired {
					// Session store unreachable: fail closed.
					observability.FromContext(r.Context()).Error("session lookup failed",
						slog.String("error", err.Error()))
				}
				ac.deny(w, r, ReasonSessionExpired)
				return
			}

			if session.UserID == 0 || session.Role == "" {
				ac.deny(w, r, ReasonSessionExpired)
				return
			}

			if !allowed.Contains(session.Role) {
				ac.auditor.Record(r.Context(), session.UserID, domain.ActionUnauthorized,
					r.Method+" "+r.URL.Path)
				ac.deny(w, r, ReasonUnauthorized)
				return
			}

			// Fresh status read on every request: an account disabled
			// mid-session must be rejected on its very next request.
			status, err := ac.accounts.GetStatus(r.Context(), session.UserID)
			switch {
			case err == domain.ErrAccountNotFound:
				ac.destroySession(w, r, session)
				ac.deny(w, r, ReasonAccountDisabled)
				return
			case err != nil:
				// Account store unreachable: fail closed.
				observability.FromContext(r.Context()).Error("account status lookup failed",
					slog.String("error", err.Error()))
				ac.deny(w, r, ReasonSessionExpired)
				return
			case !status.IsActive:
				ac.destroySession(w, r, session)
				ac.auditor.Record(r.Context(), session.UserID, domain.ActionAccountDisabled,
					r.Method+" "+r.URL.Path)
				ac.deny(w, r, ReasonAccountDisabled)
				return
			}

			ctx := WithSession(r.Context(), session)
			ctx = observability.WithUserID(ctx, session.UserID)

			// Best-effort activity timestamp; never blocks the request.
			if err := ac.sessions.Touch(ctx, session.Token, time.Now()); err != nil {
				observability.FromContext(ctx).Warn("session touch failed",
					slog.String("error", err.Error()))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// destroySession invalidates every session for the user and clears the
// cookie. Full invalidation, not a flag: the token no longer resolves.
func (ac *AccessController) destroySession(w http.ResponseWriter, r *http.Request, session *domain.Session) {
	if _, err := ac.sessions.DeleteByUserID(r.Context(), session.UserID); err != nil {
		observability.FromContext(r.Context()).Error("session invalidation failed",
			slog.String("error", err.Error()))
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "session_id",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
}

func (ac *AccessController) deny(w http.ResponseWriter, r *http.Request, reason string) {
	observability.AccessDeniedTotal.WithLabelValues(reason).Inc()
	http.Redirect(w, r, ac.loginPath+"?reason="+url.QueryEscape(reason), http.StatusSeeOther)
}
