package http

import (
	"context"
	"net/http"
	"strings"
)

// IdentityResolver maps a bearer token to a stable user identifier. Token
// verification (JWT signatures, expiry, user existence) belongs to the
// identity provider behind this interface; the engine only consumes the
// resolved identity.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (string, error)
}

// StaticTokenResolver resolves tokens from a fixed token -> user id map.
// Suitable for dev and test environments.
type StaticTokenResolver struct {
	tokens map[string]string
}

// NewStaticTokenResolver creates a resolver over a token -> user id map
func NewStaticTokenResolver(tokens map[string]string) *StaticTokenResolver {
	return &StaticTokenResolver{tokens: tokens}
}

// Resolve returns the user id for a known token
func (r *StaticTokenResolver) Resolve(ctx context.Context, token string) (string, error) {
	userID, ok := r.tokens[token]
	if !ok {
		return "", errInvalidToken
	}
	return userID, nil
}

var errInvalidToken = &authError{"invalid token"}

type authError struct{ msg string }

func (e *authError) Error() string { return e.msg }

type contextKey int

const identityKey contextKey = iota

// IdentityFromContext returns the resolved caller identity, if any
func IdentityFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(identityKey).(string)
	return userID, ok
}

// Authenticate returns middleware that extracts the bearer token from the
// Authorization header, resolves it to a user identity, and stores the
// identity in the request context. Requests without a resolvable identity
// are rejected before any handler runs.
func Authenticate(resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "not authorized, no token provided"})
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "not authorized, no token provided"})
				return
			}

			userID, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "not authorized, token failed"})
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
