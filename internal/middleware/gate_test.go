package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"campus-portal/internal/domain"
	"campus-portal/internal/security"
	"campus-portal/internal/service"
	"campus-portal/internal/testutil"
)

func newGateFixture() (*SecurityGate, *testutil.MockSessionRepository, *testutil.MockAccountRepository, *testutil.MockActivityRepository) {
	sessions := testutil.NewMockSessionRepository()
	accounts := testutil.NewMockAccountRepository()
	events := testutil.NewMockActivityRepository()
	attempts := testutil.NewMockAttemptRepository()

	tokens := security.NewTokenManager(sessions)
	throttle := service.NewLoginThrottle(attempts, 15*time.Minute, 5)
	auditor := service.NewActivityAuditor(events, 5*time.Minute, 50)

	gate := NewSecurityGate(sessions, accounts, tokens, throttle, auditor, nil, "/login")
	return gate, sessions, accounts, events
}

func TestSecurityGate_ProtectAdmitsAndIssuesToken(t *testing.T) {
	gate, sessions, accounts, events := newGateFixture()
	session := seedSession(sessions, accounts, domain.RoleStudent)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := gate.Protect(domain.RoleStudent)(next)

	req := testutil.NewRequestWithCookie(t, http.MethodGet, "/api/v1/profile", "session_id", session.Token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	testutil.AssertStatusCode(t, w, http.StatusOK)
	if got := w.Header().Get("X-CSRF-Token"); len(got) != 64 {
		t.Errorf("issued token length = %d, want 64", len(got))
	}

	// The request was audited under the session's user.
	if len(events.Events) == 0 {
		t.Fatal("expected an audit event for the admitted request")
	}
	testutil.AssertEqual(t, events.Events[0].UserID, session.UserID)
}

func TestSecurityGate_StudentCannotReachAdminSurface(t *testing.T) {
	gate, sessions, accounts, events := newGateFixture()
	session := seedSession(sessions, accounts, domain.RoleStudent)

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { nextCalled = true })
	handler := gate.Protect(domain.RoleAdmin)(next)

	req := testutil.NewRequestWithCookie(t, http.MethodGet, "/api/v1/admin/accounts", "session_id", session.Token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	testutil.AssertFalse(t, nextCalled, "student must not reach the admin surface")
	testutil.AssertRedirect(t, w, "/login?reason=unauthorized")

	recorded := events.EventsByAction(domain.ActionUnauthorized)
	if len(recorded) != 1 {
		t.Fatalf("expected 1 unauthorized event, got %d", len(recorded))
	}
}

func TestSecurityGate_MutationNeedsToken(t *testing.T) {
	gate, sessions, accounts, _ := newGateFixture()
	session := seedSession(sessions, accounts, domain.RoleStudent)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := gate.Protect(domain.RoleStudent)(next)

	// First a safe request to pick up the token.
	getReq := testutil.NewRequestWithCookie(t, http.MethodGet, "/api/v1/profile", "session_id", session.Token)
	getW := httptest.NewRecorder()
	handler.ServeHTTP(getW, getReq)
	token := getW.Header().Get("X-CSRF-Token")
	if token == "" {
		t.Fatal("no token issued on safe request")
	}

	// A mutation without the token is rejected.
	postReq := testutil.NewRequestWithCookie(t, http.MethodPost, "/api/v1/profile", "session_id", session.Token)
	postW := httptest.NewRecorder()
	handler.ServeHTTP(postW, postReq)
	testutil.AssertStatusCode(t, postW, http.StatusForbidden)

	// The same mutation with the issued token passes.
	okReq := testutil.NewRequestWithCookie(t, http.MethodPost, "/api/v1/profile", "session_id", session.Token)
	okReq.Header.Set("X-CSRF-Token", token)
	okW := httptest.NewRecorder()
	handler.ServeHTTP(okW, okReq)
	testutil.AssertStatusCode(t, okW, http.StatusOK)
}

func TestSecurityGate_DisabledAccountCutOffEverywhere(t *testing.T) {
	gate, sessions, accounts, _ := newGateFixture()
	session := seedSession(sessions, accounts, domain.RoleInstructor)
	accounts.Accounts[session.UserID].IsActive = false

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	handler := gate.Protect(domain.RoleInstructor)(next)

	req := testutil.NewRequestWithCookie(t, http.MethodGet, "/api/v1/profile", "session_id", session.Token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	testutil.AssertRedirect(t, w, "/login?reason=account_disabled")

	// The session is gone; a retry with the same cookie fails as expired.
	retry := testutil.NewRequestWithCookie(t, http.MethodGet, "/api/v1/profile", "session_id", session.Token)
	retryW := httptest.NewRecorder()
	handler.ServeHTTP(retryW, retry)
	testutil.AssertRedirect(t, retryW, "/login?reason=session_expired")
}
