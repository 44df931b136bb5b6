package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"campus-portal/internal/domain"
	"campus-portal/internal/security"
	"campus-portal/internal/service"
	"campus-portal/internal/testutil"
)

func newCSRFFixture() (func(http.Handler) http.Handler, *testutil.MockSessionRepository, *testutil.MockActivityRepository) {
	sessions := testutil.NewMockSessionRepository()
	events := testutil.NewMockActivityRepository()
	tokens := security.NewTokenManager(sessions)
	auditor := service.NewActivityAuditor(events, 5*time.Minute, 50)
	return CSRF(tokens, auditor), sessions, events
}

func requestWithSession(method, target string, session *domain.Session) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return req.WithContext(WithSession(req.Context(), session))
}

func TestCSRF_SafeMethodIssuesToken(t *testing.T) {
	mw, sessions, _ := newCSRFFixture()
	session := testutil.NewTestSession()
	sessions.Sessions[session.Token] = session

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	w := httptest.NewRecorder()
	mw(next).ServeHTTP(w, requestWithSession(http.MethodGet, "/api/v1/profile", session))

	testutil.AssertStatusCode(t, w, http.StatusOK)
	issued := w.Header().Get("X-CSRF-Token")
	if len(issued) != 64 {
		t.Errorf("issued token length = %d, want 64", len(issued))
	}
}

func TestCSRF_SafeMethodReturnsSameTokenTwice(t *testing.T) {
	mw, sessions, _ := newCSRFFixture()
	session := testutil.NewTestSession()
	sessions.Sessions[session.Token] = session

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	w1 := httptest.NewRecorder()
	mw(next).ServeHTTP(w1, requestWithSession(http.MethodGet, "/api/v1/profile", session))
	w2 := httptest.NewRecorder()
	mw(next).ServeHTTP(w2, requestWithSession(http.MethodGet, "/api/v1/profile", session))

	first := w1.Header().Get("X-CSRF-Token")
	second := w2.Header().Get("X-CSRF-Token")
	testutil.AssertEqual(t, second, first)
}

func TestCSRF_MutatingWithValidHeader(t *testing.T) {
	mw, sessions, _ := newCSRFFixture()
	session := testutil.NewTestSession(testutil.WithCSRFToken("stored-token"))
	sessions.Sessions[session.Token] = session

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		w.WriteHeader(http.StatusOK)
	})

	req := requestWithSession(http.MethodPost, "/api/v1/profile", session)
	req.Header.Set("X-CSRF-Token", "stored-token")
	w := httptest.NewRecorder()
	mw(next).ServeHTTP(w, req)

	testutil.AssertStatusCode(t, w, http.StatusOK)
	testutil.AssertTrue(t, nextCalled, "valid token should admit the request")
}

func TestCSRF_MutatingWithFormField(t *testing.T) {
	mw, sessions, _ := newCSRFFixture()
	session := testutil.NewTestSession(testutil.WithCSRFToken("stored-token"))
	sessions.Sessions[session.Token] = session

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/profile",
		strings.NewReader("csrf_token=stored-token"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = req.WithContext(WithSession(req.Context(), session))
	w := httptest.NewRecorder()
	mw(next).ServeHTTP(w, req)

	testutil.AssertStatusCode(t, w, http.StatusOK)
}

func TestCSRF_MutatingMissingToken(t *testing.T) {
	mw, sessions, events := newCSRFFixture()
	session := testutil.NewTestSession(testutil.WithCSRFToken("stored-token"))
	sessions.Sessions[session.Token] = session

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { nextCalled = true })

	w := httptest.NewRecorder()
	mw(next).ServeHTTP(w, requestWithSession(http.MethodPost, "/api/v1/profile", session))

	testutil.AssertFalse(t, nextCalled, "missing token must not reach the handler")
	testutil.AssertJSONError(t, w, http.StatusForbidden, "Forbidden")

	recorded := events.EventsByAction(domain.ActionCSRFFailure)
	if len(recorded) != 1 {
		t.Fatalf("expected 1 csrf failure event, got %d", len(recorded))
	}
	testutil.AssertEqual(t, recorded[0].Details, "missing token")
}

func TestCSRF_MutatingWrongToken(t *testing.T) {
	mw, sessions, events := newCSRFFixture()
	session := testutil.NewTestSession(testutil.WithCSRFToken("stored-token"))
	sessions.Sessions[session.Token] = session

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	req := requestWithSession(http.MethodPost, "/api/v1/profile", session)
	req.Header.Set("X-CSRF-Token", "forged-token")
	w := httptest.NewRecorder()
	mw(next).ServeHTTP(w, req)

	// Same generic response as a missing token.
	testutil.AssertJSONError(t, w, http.StatusForbidden, "Forbidden")

	recorded := events.EventsByAction(domain.ActionCSRFFailure)
	if len(recorded) != 1 {
		t.Fatalf("expected 1 csrf failure event, got %d", len(recorded))
	}
	testutil.AssertEqual(t, recorded[0].Details, "invalid token")
}

func TestCSRF_AlternateHeaderAccepted(t *testing.T) {
	mw, sessions, _ := newCSRFFixture()
	session := testutil.NewTestSession(testutil.WithCSRFToken("stored-token"))
	sessions.Sessions[session.Token] = session

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := requestWithSession(http.MethodPost, "/api/v1/profile", session)
	req.Header.Set("X-XSRF-Token", "stored-token")
	w := httptest.NewRecorder()
	mw(next).ServeHTTP(w, req)

	testutil.AssertStatusCode(t, w, http.StatusOK)
}

func TestCSRF_NoSession(t *testing.T) {
	mw, _, _ := newCSRFFixture()

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { nextCalled = true })

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	w := httptest.NewRecorder()
	mw(next).ServeHTTP(w, req)

	testutil.AssertFalse(t, nextCalled, "next handler should not be called")
	testutil.AssertStatusCode(t, w, http.StatusUnauthorized)
}
