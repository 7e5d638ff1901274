package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"task-api-v1/api"
	"task-api-v1/auth"
)

func newTestGate(t *testing.T, lookup UserLookup) (*Authenticator, *auth.TokenService) {
	t.Helper()
	tokens, err := auth.NewTokenService([]byte("test-secret"), "HS256")
	if err != nil {
		t.Fatalf("NewTokenService failed: %v", err)
	}
	return &Authenticator{Tokens: tokens, LookupUser: lookup}, tokens
}

func okHandler(captured **api.User) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = CurrentUser(r)
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticateSuccess(t *testing.T) {
	alice := &api.User{ID: 1, Email: "a@x.com", Username: "alice", Role: api.RoleUser}
	gate, tokens := newTestGate(t, func(ctx context.Context, email string) (*api.User, error) {
		if email == alice.Email {
			return alice, nil
		}
		return nil, nil
	})

	token, err := tokens.Issue(alice.Email, time.Minute)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	var got *api.User
	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	gate.Authenticate(okHandler(&got)).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d; got %d", http.StatusOK, rr.Code)
	}
	if got == nil || got.ID != alice.ID {
		t.Errorf("expected the authenticated user in context; got %+v", got)
	}
}

func TestAuthenticateRejections(t *testing.T) {
	gate, tokens := newTestGate(t, func(ctx context.Context, email string) (*api.User, error) {
		return nil, nil // every subject resolves to "no such user"
	})

	validToken, err := tokens.Issue("ghost@x.com", time.Minute)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	expiredToken, err := tokens.Issue("ghost@x.com", 0)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	testCases := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "wrong scheme", header: "Basic abc123"},
		{name: "no token", header: "Bearer"},
		{name: "garbage token", header: "Bearer not-a-jwt"},
		{name: "expired token", header: "Bearer " + expiredToken},
		{name: "deleted user", header: "Bearer " + validToken},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()

			var got *api.User
			gate.Authenticate(okHandler(&got)).ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Errorf("expected status %d; got %d", http.StatusUnauthorized, rr.Code)
			}
			if got != nil {
				t.Error("expected the wrapped handler not to run")
			}
		})
	}
}

func TestAuthenticateLookupError(t *testing.T) {
	gate, tokens := newTestGate(t, func(ctx context.Context, email string) (*api.User, error) {
		return nil, errors.New("connection refused")
	})

	token, err := tokens.Issue("a@x.com", time.Minute)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	var got *api.User
	gate.Authenticate(okHandler(&got)).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d; got %d", http.StatusUnauthorized, rr.Code)
	}
}

func TestRequireRole(t *testing.T) {
	testCases := []struct {
		name         string
		user         *api.User
		required     api.Role
		expectedCode int
	}{
		{
			name:         "admin passes admin gate",
			user:         &api.User{ID: 1, Role: api.RoleAdmin},
			required:     api.RoleAdmin,
			expectedCode: http.StatusOK,
		},
		{
			name:         "user blocked by admin gate",
			user:         &api.User{ID: 2, Role: api.RoleUser},
			required:     api.RoleAdmin,
			expectedCode: http.StatusForbidden,
		},
		{
			name:         "no user in context",
			user:         nil,
			required:     api.RoleAdmin,
			expectedCode: http.StatusUnauthorized,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/users", nil)
			if tc.user != nil {
				req = req.WithContext(WithUser(req.Context(), tc.user))
			}
			rr := httptest.NewRecorder()

			var got *api.User
			RequireRole(tc.required)(okHandler(&got)).ServeHTTP(rr, req)

			if rr.Code != tc.expectedCode {
				t.Errorf("expected status %d; got %d", tc.expectedCode, rr.Code)
			}
		})
	}
}
