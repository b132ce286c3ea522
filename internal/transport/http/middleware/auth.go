package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/dukedaW/shortlinks/internal/constants"
	"github.com/dukedaW/shortlinks/internal/processing/auth"
	"github.com/dukedaW/shortlinks/pkg/httputils"
)

const AuthorizationHeader = "Authorization"

type identityContextKey struct{}

// TokenVerifier checks a bearer token and returns the identity it encodes.
type TokenVerifier interface {
	Verify(token string) (*auth.Identity, error)
}

// IdentityFrom returns the authenticated identity attached to the request,
// if any.
func IdentityFrom(ctx context.Context) (*auth.Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(*auth.Identity)
	return id, ok
}

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := verifyRequest(verifier, r)
			if !ok {
				httputils.WriteAPIError(w, r, constants.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identity)))
		})
	}
}

// OptionalAuth attaches an identity when a valid token is present and lets
// anonymous requests pass through. A token that is present but invalid is
// still rejected, so a client never silently loses ownership of a link it
// meant to claim.
func OptionalAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.TrimSpace(r.Header.Get(AuthorizationHeader)) == "" {
				next.ServeHTTP(w, r)
				return
			}
			identity, ok := verifyRequest(verifier, r)
			if !ok {
				httputils.WriteAPIError(w, r, constants.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identity)))
		})
	}
}

func withIdentity(ctx context.Context, identity *auth.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

func verifyRequest(verifier TokenVerifier, r *http.Request) (*auth.Identity, bool) {
	header := strings.TrimSpace(r.Header.Get(AuthorizationHeader))
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return nil, false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, false
	}

	identity, err := verifier.Verify(token)
	if err != nil {
		return nil, false
	}
	return identity, true
}
