package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"task-api-v1/auth"
)

// Per-request deadline on database work.
const dbTimeout = 3 * time.Second

// Handlers holds the request-scoped collaborators: the token service, the
// optional redis cache, and the login token lifetime.
type Handlers struct {
	Tokens   *auth.TokenService
	RDB      *redis.Client
	TokenTTL time.Duration
}

// NewHandlers is the constructor used by main and by tests.
func NewHandlers(tokens *auth.TokenService, rdb *redis.Client, tokenTTL time.Duration) *Handlers {
	return &Handlers{Tokens: tokens, RDB: rdb, TokenTTL: tokenTTL}
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation, as raised when two registrations race past the duplicate
// pre-check.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// respondWithDBError maps a storage failure to a response without leaking
// internals. Deadline overruns get their own status, like any other timeout.
func respondWithDBError(w http.ResponseWriter, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		http.Error(w, "Request timed out", http.StatusGatewayTimeout)
		return
	}
	log.Printf("ERROR: Database query failed: %v", err)
	http.Error(w, "Database error", http.StatusInternalServerError)
}
