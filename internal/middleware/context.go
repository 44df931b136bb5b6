package middleware

import (
	"context"
	"net"
	"net/http"

	"campus-portal/internal/domain"
	"campus-portal/internal/observability"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

type contextKey string

const (
	// SessionKey carries the resolved session through the request context.
	SessionKey contextKey = "session"
)

// WithSession stores the session on the context.
func WithSession(ctx context.Context, session *domain.Session) context.Context {
	return context.WithValue(ctx, SessionKey, session)
}

// GetSession returns the session stored by the access controller.
func GetSession(ctx context.Context) (*domain.Session, bool) {
	session, ok := ctx.Value(SessionKey).(*domain.Session)
	return session, ok
}

// ClientContext captures the request's source IP and user-agent into the
// context so downstream components (auditing in particular) never reach
// for ambient request state. Mount after chi's RealIP and RequestID.
func ClientContext() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := observability.WithClientInfo(r.Context(), observability.ClientInfo{
				IP:        clientIP(r),
				UserAgent: r.UserAgent(),
			})
			if reqID := chimiddleware.GetReqID(ctx); reqID != "" {
				ctx = observability.WithRequestID(ctx, reqID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// clientIP strips the port from RemoteAddr. chi's RealIP middleware has
// already substituted the forwarded address when one is present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
