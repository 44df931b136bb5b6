package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"campus-portal/internal/observability"
	"campus-portal/internal/testutil"
)

func TestRateLimiter_AllowsBurst(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := NewRateLimiter(ctx, 1, 3)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := rl.Middleware()(next)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		testutil.AssertStatusCode(t, w, http.StatusOK)
	}
}

func TestRateLimiter_BlocksBeyondBurst(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := NewRateLimiter(ctx, 0.001, 2)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := rl.Middleware()(next)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		testutil.AssertStatusCode(t, w, http.StatusOK)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	testutil.AssertStatusCode(t, w, http.StatusTooManyRequests)
}

func TestRateLimiter_KeysByClientInfoWhenPresent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := NewRateLimiter(ctx, 0.001, 1)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := rl.Middleware()(next)

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(observability.WithClientInfo(req.Context(), observability.ClientInfo{IP: ip}))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	testutil.AssertStatusCode(t, send("10.0.0.1"), http.StatusOK)
	testutil.AssertStatusCode(t, send("10.0.0.1"), http.StatusTooManyRequests)
	// A different client IP has its own bucket.
	testutil.AssertStatusCode(t, send("10.0.0.2"), http.StatusOK)
}
