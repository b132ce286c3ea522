package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukedaW/shortlinks/internal/processing/auth"
)

type mockVerifier struct {
	verifyFn func(token string) (*auth.Identity, error)
}

func (m *mockVerifier) Verify(token string) (*auth.Identity, error) {
	if m.verifyFn == nil {
		return nil, auth.ErrInvalidToken
	}
	return m.verifyFn(token)
}

func identityEchoHandler(t *testing.T, want *auth.Identity) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := IdentityFrom(r.Context())
		if want == nil {
			if ok {
				t.Errorf("expected no identity in context, got %+v", got)
			}
		} else {
			if !ok || got.ID != want.ID {
				t.Errorf("got identity %+v, want %+v", got, want)
			}
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth_ValidToken(t *testing.T) {
	want := &auth.Identity{ID: 42, Email: "alice@example.com"}
	verifier := &mockVerifier{
		verifyFn: func(token string) (*auth.Identity, error) {
			if token != "good-token" {
				t.Errorf("got token %q, want %q", token, "good-token")
			}
			return want, nil
		},
	}

	handler := RequireAuth(verifier)(identityEchoHandler(t, want))

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set(AuthorizationHeader, "Bearer good-token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("got status %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRequireAuth_Rejections(t *testing.T) {
	verifier := &mockVerifier{
		verifyFn: func(_ string) (*auth.Identity, error) {
			return nil, errors.New("signature mismatch")
		},
	}

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"empty bearer token", "Bearer   "},
		{"invalid token", "Bearer bad-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequireAuth(verifier)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				t.Error("handler should not be reached")
			}))

			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			if tt.header != "" {
				req.Header.Set(AuthorizationHeader, tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("got status %d, want %d", rec.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestOptionalAuth_AnonymousPassesThrough(t *testing.T) {
	handler := OptionalAuth(&mockVerifier{})(identityEchoHandler(t, nil))

	req := httptest.NewRequest(http.MethodPost, "/links/shorten", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("got status %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestOptionalAuth_ValidTokenAttachesIdentity(t *testing.T) {
	want := &auth.Identity{ID: 7, Email: "bob@example.com"}
	verifier := &mockVerifier{
		verifyFn: func(_ string) (*auth.Identity, error) { return want, nil },
	}

	handler := OptionalAuth(verifier)(identityEchoHandler(t, want))

	req := httptest.NewRequest(http.MethodPost, "/links/shorten", nil)
	req.Header.Set(AuthorizationHeader, "Bearer good-token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("got status %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestOptionalAuth_PresentButInvalidTokenRejected(t *testing.T) {
	handler := OptionalAuth(&mockVerifier{})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodPost, "/links/shorten", nil)
	req.Header.Set(AuthorizationHeader, "Bearer expired-token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("got status %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
