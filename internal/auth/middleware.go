package auth

import (
	"context"
	"net/http"
)

// contextKey is an unexported type for context keys in this package.
// Using a package-private type means only this package can read or write
// the identity value — no other package can collide with or shadow it.
type contextKey string

const identityKey contextKey = "identity"

// CookieName is the HttpOnly cookie that carries the JWT. HttpOnly keeps
// it out of reach of page JavaScript, which blunts XSS token theft.
const CookieName = "token"

// RequireAuth enforces authentication on protected routes.
//
// It reads the JWT from the token cookie, validates it, and stores the
// identity in the request context. Missing or invalid token → 401 and the
// chain stops.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := extractIdentity(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized","message":"not authorized, please login"}`))
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext retrieves the authenticated identity from the request
// context. Returns (zero, false) if the request is anonymous — which on a
// RequireAuth route means a programming error, since the middleware would
// have rejected it.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// ContextWithIdentity attaches an identity to a context. Exported for tests
// that drive handlers directly without going through RequireAuth.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func extractIdentity(r *http.Request, tokens *TokenService) (Identity, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return Identity{}, err
	}
	return tokens.Validate(cookie.Value)
}
