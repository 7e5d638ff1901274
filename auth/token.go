package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"task-api-v1/api"
)

// ErrInvalidToken covers every verification failure: bad signature, wrong
// signing method, malformed payload, missing subject, or expired token.
// Callers get no further detail.
var ErrInvalidToken = errors.New("invalid token")

// fallbackTTL applies when a caller issues a token without choosing a
// lifetime. The application-level login default is configured separately and
// passed explicitly.
const fallbackTTL = 15 * time.Minute

// TokenService issues and verifies signed bearer tokens. Its configuration
// is fixed at construction; a wrong or missing secret simply makes every
// token invalid.
type TokenService struct {
	secret []byte
	method jwt.SigningMethod
}

// NewTokenService builds a service signing with the named HMAC algorithm
// (e.g. "HS256"). An unknown algorithm is an error rather than a silent
// fallback.
func NewTokenService(secret []byte, algorithm string) (*TokenService, error) {
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("unknown signing algorithm %q", algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	return &TokenService{secret: secret, method: method}, nil
}

// Issue creates a token for the given subject with exactly the given
// lifetime. A zero or negative ttl produces an already-expired token.
func (s *TokenService) Issue(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &api.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(s.method, claims)
	return token.SignedString(s.secret)
}

// IssueDefault issues with the built-in 15 minute lifetime.
func (s *TokenService) IssueDefault(subject string) (string, error) {
	return s.Issue(subject, fallbackTTL)
}

// Verify checks signature and expiry and returns the token's subject.
// Every failure mode collapses into ErrInvalidToken.
func (s *TokenService) Verify(tokenString string) (string, error) {
	claims := &api.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != s.method {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	// The parser allows exp == now; require strictly future expiry so a
	// zero-ttl token can never pass.
	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(time.Now()) {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
