package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/af-corp/debug-relay/internal/httputil"
	"github.com/af-corp/debug-relay/internal/types"
)

// fakeValidator implements Validator for testing.
type fakeValidator struct {
	tokens map[string]*Principal
	err    error
	calls  int
}

func (f *fakeValidator) Validate(_ context.Context, token string) (*Principal, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.tokens[token]
	if !ok {
		return nil, ErrInvalidToken
	}
	return p, nil
}

func runMiddleware(t *testing.T, v Validator, header string) (*httptest.ResponseRecorder, *Principal) {
	t.Helper()
	var got *Principal
	handler := Middleware(v, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		if !ok {
			t.Error("expected principal in context")
		}
		got = p
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/functions/v1/debug-analyze", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w, got
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp types.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return resp.Error
}

func TestMiddleware_MissingOrMalformedHeader(t *testing.T) {
	headers := []string{"", "Basic dXNlcjpwYXNz", "bearer abc", "Bearer", "Token abc"}

	for _, h := range headers {
		v := &fakeValidator{}
		w, _ := runMiddleware(t, v, h)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("header %q: expected 401, got %d", h, w.Code)
		}
		if msg := errorMessage(t, w); msg != httputil.MsgAuthRequired {
			t.Errorf("header %q: expected %q, got %q", h, httputil.MsgAuthRequired, msg)
		}
		if v.calls != 0 {
			t.Errorf("header %q: validator should not be called", h)
		}
	}
}

func TestMiddleware_EmptyToken(t *testing.T) {
	v := &fakeValidator{}
	w, _ := runMiddleware(t, v, "Bearer ")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if msg := errorMessage(t, w); msg != httputil.MsgInvalidToken {
		t.Errorf("expected %q, got %q", httputil.MsgInvalidToken, msg)
	}
}

func TestMiddleware_InvalidToken(t *testing.T) {
	v := &fakeValidator{tokens: map[string]*Principal{}}
	w, _ := runMiddleware(t, v, "Bearer not-a-real-token")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if msg := errorMessage(t, w); msg != httputil.MsgInvalidToken {
		t.Errorf("expected %q, got %q", httputil.MsgInvalidToken, msg)
	}
}

func TestMiddleware_MissingSubject(t *testing.T) {
	v := &fakeValidator{tokens: map[string]*Principal{"tok": {UserID: ""}}}
	w, _ := runMiddleware(t, v, "Bearer tok")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if msg := errorMessage(t, w); msg != httputil.MsgInvalidToken {
		t.Errorf("expected %q, got %q", httputil.MsgInvalidToken, msg)
	}
}

func TestMiddleware_ProviderError_FailsClosed(t *testing.T) {
	v := &fakeValidator{err: errors.New("connection refused")}
	w, _ := runMiddleware(t, v, "Bearer tok")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestMiddleware_ValidToken(t *testing.T) {
	v := &fakeValidator{tokens: map[string]*Principal{
		"good-token": {UserID: "user-1", Email: "dev@example.com"},
	}}

	w, got := runMiddleware(t, v, "Bearer good-token")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if got == nil {
		t.Fatal("principal should be set")
	}
	if got.UserID != "user-1" {
		t.Errorf("expected user-1, got %s", got.UserID)
	}
}
