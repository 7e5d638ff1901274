package auth

import (
	"errors"
	"testing"
	"time"
)

func newTestService(t *testing.T, secret, algorithm string) *TokenService {
	t.Helper()
	svc, err := NewTokenService([]byte(secret), algorithm)
	if err != nil {
		t.Fatalf("NewTokenService failed: %v", err)
	}
	return svc
}

func TestIssueAndVerify(t *testing.T) {
	svc := newTestService(t, "test-secret", "HS256")

	token, err := svc.Issue("a@x.com", time.Minute)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	subject, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if subject != "a@x.com" {
		t.Errorf("expected subject 'a@x.com'; got %q", subject)
	}
}

func TestIssueDefault(t *testing.T) {
	svc := newTestService(t, "test-secret", "HS256")

	token, err := svc.IssueDefault("a@x.com")
	if err != nil {
		t.Fatalf("IssueDefault failed: %v", err)
	}
	if _, err := svc.Verify(token); err != nil {
		t.Errorf("expected a default-ttl token to verify; got %v", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	svc := newTestService(t, "test-secret", "HS256")

	testCases := []struct {
		name string
		ttl  time.Duration
	}{
		{name: "zero ttl", ttl: 0},
		{name: "negative ttl", ttl: -time.Minute},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			token, err := svc.Issue("a@x.com", tc.ttl)
			if err != nil {
				t.Fatalf("Issue failed: %v", err)
			}
			if _, err := svc.Verify(token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken for an expired token; got %v", err)
			}
		})
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer := newTestService(t, "the-real-secret", "HS256")
	verifier := newTestService(t, "a-different-secret", "HS256")

	token, err := issuer.Issue("a@x.com", time.Minute)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := verifier.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for a mismatched secret; got %v", err)
	}
}

func TestVerifyWrongAlgorithm(t *testing.T) {
	issuer := newTestService(t, "shared-secret", "HS512")
	verifier := newTestService(t, "shared-secret", "HS256")

	token, err := issuer.Issue("a@x.com", time.Minute)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := verifier.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for a mismatched algorithm; got %v", err)
	}
}

func TestVerifyMissingSubject(t *testing.T) {
	svc := newTestService(t, "test-secret", "HS256")

	token, err := svc.Issue("", time.Minute)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := svc.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for a token without a subject; got %v", err)
	}
}

func TestVerifyGarbage(t *testing.T) {
	svc := newTestService(t, "test-secret", "HS256")

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := svc.Verify(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken for %q; got %v", token, err)
		}
	}
}

func TestNewTokenServiceRejectsBadAlgorithms(t *testing.T) {
	if _, err := NewTokenService([]byte("secret"), "HS9000"); err == nil {
		t.Error("expected an error for an unknown algorithm")
	}
	if _, err := NewTokenService([]byte("secret"), "RS256"); err == nil {
		t.Error("expected an error for a non-HMAC algorithm")
	}
}
