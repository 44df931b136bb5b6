package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"campus-portal/internal/domain"
	"campus-portal/internal/middleware"
	"campus-portal/internal/observability"
	"campus-portal/internal/security"
	"campus-portal/internal/service"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService   *service.AuthService
	throttle      *service.LoginThrottle
	tokens        *security.TokenManager
	auditor       *service.ActivityAuditor
	secureCookies bool
	maxAge        int
}

// NewAuthHandler creates a new authentication handler. maxAge is the
// session cookie lifetime in seconds.
func NewAuthHandler(
	authService *service.AuthService,
	throttle *service.LoginThrottle,
	tokens *security.TokenManager,
	auditor *service.ActivityAuditor,
	secureCookies bool,
	maxAge int,
) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		throttle:      throttle,
		tokens:        tokens,
		auditor:       auditor,
		secureCookies: secureCookies,
		maxAge:        maxAge,
	}
}

// LoginRequest represents login request
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AccountResponse is the public view of an account
type AccountResponse struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// LoginResponse represents login response
type LoginResponse struct {
	Success   bool            `json:"success"`
	User      AccountResponse `json:"user"`
	CSRFToken string          `json:"csrf_token"`
}

// Login verifies credentials and establishes a session. Failed attempts
// feed the IP throttle; the throttle gate itself runs in middleware
// before this handler. All credential failures get the same generic
// response regardless of cause.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	session, account, err := h.authService.Login(ctx, req.Username, req.Password)
	if err != nil {
		if err := h.throttle.RecordFailure(ctx, clientIP(ctx)); err != nil {
			observability.FromContext(ctx).Error("failed to record login attempt")
		}
		_ = h.auditor.Record(ctx, 0, domain.ActionLoginFailed, "user "+req.Username)

		if errors.Is(err, domain.ErrAccountDisabled) {
			_ = h.auditor.Record(ctx, 0, domain.ActionAccountDisabled, "user "+req.Username)
		}
		http.Error(w, `{"error":"Invalid username or password"}`, http.StatusUnauthorized)
		return
	}

	csrfToken, err := h.tokens.Ensure(ctx, session)
	if err != nil {
		http.Error(w, `{"error":"Internal server error"}`, http.StatusInternalServerError)
		return
	}

	_ = h.auditor.Record(ctx, account.ID, domain.ActionLogin, "")

	// Set session cookie
	http.SetCookie(w, &http.Cookie{
		Name:     "session_id",
		Value:    session.Token,
		Path:     "/",
		MaxAge:   h.maxAge,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})

	resp := LoginResponse{
		Success:   true,
		User:      accountResponse(account),
		CSRFToken: csrfToken,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Logout destroys the session and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		http.Error(w, `{"error":"Session not found"}`, http.StatusUnauthorized)
		return
	}

	if err := h.authService.Logout(r.Context(), session.Token); err != nil {
		http.Error(w, `{"error":"Failed to logout"}`, http.StatusInternalServerError)
		return
	}

	_ = h.auditor.Record(r.Context(), session.UserID, domain.ActionLogout, "")

	// Clear cookie
	http.SetCookie(w, &http.Cookie{
		Name:     "session_id",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

// Me returns the authenticated account.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		http.Error(w, `{"error":"Session not found"}`, http.StatusUnauthorized)
		return
	}

	account, err := h.authService.GetAccount(r.Context(), session.UserID)
	if err != nil {
		http.Error(w, `{"error":"Account not found"}`, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(accountResponse(account))
}

func accountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		ID:          a.ID,
		Username:    a.Username,
		Email:       a.Email,
		DisplayName: a.DisplayName,
		Role:        string(a.Role),
	}
}

func clientIP(ctx context.Context) string {
	if info, ok := observability.ClientFromContext(ctx); ok {
		return info.IP
	}
	return ""
}
