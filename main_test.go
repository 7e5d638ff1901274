package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"task-api-v1/api"
	"task-api-v1/auth"
	"task-api-v1/handlers"
	"task-api-v1/middleware"
)

func TestRootAndHealthEndpoints(t *testing.T) {
	tokens, err := auth.NewTokenService([]byte("test-secret"), "HS256")
	if err != nil {
		t.Fatalf("NewTokenService failed: %v", err)
	}
	gate := &middleware.Authenticator{
		Tokens: tokens,
		LookupUser: func(ctx context.Context, email string) (*api.User, error) {
			return nil, nil
		},
	}
	router := newRouter(handlers.NewHandlers(tokens, nil, 30*time.Minute), gate)

	testCases := []struct {
		name         string
		path         string
		expectedBody string
	}{
		{
			name:         "root metadata",
			path:         "/",
			expectedBody: `"message":"Task Management API"`,
		},
		{
			name:         "health check",
			path:         "/health",
			expectedBody: `"status":"healthy"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != http.StatusOK {
				t.Errorf("expected status %d; got %d", http.StatusOK, rr.Code)
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected Content-Type application/json; got %q", ct)
			}
			if !strings.Contains(rr.Body.String(), tc.expectedBody) {
				t.Errorf("expected body to contain %q; got %q", tc.expectedBody, rr.Body.String())
			}
		})
	}
}
