package middleware

import (
	"net/http"

	"campus-portal/internal/alert"
	"campus-portal/internal/domain"
	"campus-portal/internal/security"
	"campus-portal/internal/service"
)

// SecurityGate is the composed entry point every request passes through.
// Protected endpoints get access control, CSRF enforcement, and activity
// auditing in that order; authentication endpoints get the brute-force
// guard in front of credential handling.
type SecurityGate struct {
	access   *AccessController
	tokens   *security.TokenManager
	throttle *service.LoginThrottle
	auditor  *service.ActivityAuditor
	alerts   *alert.Publisher
}

func NewSecurityGate(
	sessions domain.SessionRepository,
	accounts domain.AccountRepository,
	tokens *security.TokenManager,
	throttle *service.LoginThrottle,
	auditor *service.ActivityAuditor,
	alerts *alert.Publisher,
	loginPath string,
) *SecurityGate {
	return &SecurityGate{
		access:   NewAccessController(sessions, accounts, auditor, loginPath),
		tokens:   tokens,
		throttle: throttle,
		auditor:  auditor,
		alerts:   alerts,
	}
}

// Protect wraps a protected endpoint group: access control for the
// allowed roles, then CSRF ensure/verify, then audit recording with
// anomaly evaluation. Denied requests record their own security events
// on the denial path.
func (g *SecurityGate) Protect(roles ...domain.Role) func(http.Handler) http.Handler {
	access := g.access.RequireRoles(domain.NewRoleSet(roles...))
	csrf := CSRF(g.tokens, g.auditor)
	audit := Audit(g.auditor, g.alerts)

	return func(next http.Handler) http.Handler {
		return access(csrf(audit(next)))
	}
}

// LoginGuard wraps authentication endpoints with the IP throttle. Checked
// before any credential verification so a blocked IP costs no bcrypt work.
func (g *SecurityGate) LoginGuard() func(http.Handler) http.Handler {
	return LoginGuard(g.throttle, g.auditor, g.alerts)
}
