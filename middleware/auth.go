package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"task-api-v1/api"
	"task-api-v1/auth"
)

// contextKey is a private type so nothing outside this package can collide
// with our context entries.
type contextKey string

const userKey contextKey = "currentUser"

// UserLookup resolves a token subject (email) to a user record. It returns
// (nil, nil) when no such user exists.
type UserLookup func(ctx context.Context, email string) (*api.User, error)

// Authenticator turns bearer tokens into users. The lookup runs fresh on
// every request, so a deleted user or changed role takes effect immediately.
type Authenticator struct {
	Tokens     *auth.TokenService
	LookupUser UserLookup
}

// Authenticate wraps a handler so it only runs for requests carrying a valid
// bearer token that resolves to an existing user. The user is stored in the
// request context for CurrentUser.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
			return
		}

		subject, err := a.Tokens.Verify(parts[1])
		if err != nil {
			http.Error(w, "Could not validate credentials", http.StatusUnauthorized)
			return
		}

		user, err := a.LookupUser(r.Context(), subject)
		if err != nil {
			log.Printf("ERROR: user lookup failed for token subject: %v", err)
			http.Error(w, "Could not validate credentials", http.StatusUnauthorized)
			return
		}
		if user == nil {
			// Token is cryptographically valid but its subject is gone.
			// Same generic 401 as any other credential failure.
			http.Error(w, "Could not validate credentials", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole gates a handler on the authenticated user's role. It must be
// applied inside Authenticate.
func RequireRole(role api.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := CurrentUser(r)
			if user == nil {
				http.Error(w, "Could not validate credentials", http.StatusUnauthorized)
				return
			}
			if user.Role != role {
				http.Error(w, "Not enough permissions", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CurrentUser returns the authenticated user placed in the context by
// Authenticate, or nil outside an authenticated request.
func CurrentUser(r *http.Request) *api.User {
	user, _ := r.Context().Value(userKey).(*api.User)
	return user
}

// WithUser returns a copy of ctx carrying the given user. Tests use it to
// call handlers without going through the middleware.
func WithUser(ctx context.Context, user *api.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}
