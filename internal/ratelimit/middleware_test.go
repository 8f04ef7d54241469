package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/af-corp/debug-relay/internal/auth"
)

func constRPM(n int) func() int { return func() int { return n } }

func serve(t *testing.T, mw func(http.Handler) http.Handler, principal *auth.Principal) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	called := false
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/functions/v1/debug-analyze", nil)
	if principal != nil {
		req = req.WithContext(auth.ContextWithPrincipal(req.Context(), principal))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, called
}

func TestMiddleware_AllowsRequest(t *testing.T) {
	mw := Middleware(NewLimiter(nil), constRPM(100), nil)

	rec, called := serve(t, mw, &auth.Principal{UserID: "user-1"})
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected request to pass, got %d", rec.Code)
	}

	if h := rec.Header().Get(headerRateLimitRequests); h != "100" {
		t.Errorf("expected X-RateLimit-Limit-Requests=100, got %s", h)
	}
	if h := rec.Header().Get(headerRateLimitRemainingRequests); h != "99" {
		t.Errorf("expected X-RateLimit-Remaining-Requests=99, got %s", h)
	}
	if h := rec.Header().Get(headerRateLimitReset); h == "" {
		t.Error("expected X-RateLimit-Reset-Requests header")
	}
}

func TestMiddleware_DisabledWhenZero(t *testing.T) {
	mw := Middleware(NewLimiter(nil), constRPM(0), nil)

	rec, called := serve(t, mw, &auth.Principal{UserID: "user-1"})
	if !called {
		t.Fatal("expected request to pass")
	}
	if h := rec.Header().Get(headerRateLimitRequests); h != "" {
		t.Errorf("expected no rate limit headers when disabled, got %s", h)
	}
}

func TestMiddleware_NoPrincipal(t *testing.T) {
	mw := Middleware(NewLimiter(nil), constRPM(10), nil)

	rec, called := serve(t, mw, nil)
	if !called || rec.Code != http.StatusOK {
		t.Errorf("expected pass-through without principal, got %d", rec.Code)
	}
}
