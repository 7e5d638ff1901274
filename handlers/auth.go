package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"task-api-v1/api"
	"task-api-v1/auth"
	"task-api-v1/middleware"
	"task-api-v1/store"
)

// Register handles POST /auth/register. Duplicates and validation failures
// both answer 400 with a short field message.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
	defer cancel()

	var req api.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		http.Error(w, "A valid 'email' is required", http.StatusBadRequest)
		return
	}
	if req.Username == "" {
		http.Error(w, "The 'username' field is required", http.StatusBadRequest)
		return
	}
	if req.Password == "" {
		http.Error(w, "The 'password' field is required", http.StatusBadRequest)
		return
	}

	taken, err := store.UserExists(ctx, req.Email, req.Username)
	if err != nil {
		respondWithDBError(w, err)
		return
	}
	if taken {
		http.Error(w, "Email or username already registered", http.StatusBadRequest)
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("ERROR: Password hashing failed: %v", err)
		http.Error(w, "Failed to register user", http.StatusInternalServerError)
		return
	}

	user, err := store.CreateUser(ctx, req.Email, req.Username, hashed, api.RoleUser)
	if err != nil {
		// A concurrent registration can slip past the pre-check; the
		// constraint violation is the same duplicate to the caller.
		if isUniqueViolation(err) {
			http.Error(w, "Email or username already registered", http.StatusBadRequest)
			return
		}
		respondWithDBError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, user)
}

// Login handles POST /auth/login. Wrong email and wrong password are the
// same 401 to the caller.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
	defer cancel()

	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	user, err := store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		respondWithDBError(w, err)
		return
	}
	if user == nil || !auth.VerifyPassword(req.Password, user.PasswordHash) {
		http.Error(w, "Incorrect email or password", http.StatusUnauthorized)
		return
	}

	tokenString, err := h.Tokens.Issue(user.Email, h.TokenTTL)
	if err != nil {
		log.Printf("ERROR: Token signing failed: %v", err)
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	respondWithJSON(w, http.StatusOK, api.TokenResponse{
		AccessToken: tokenString,
		TokenType:   "bearer",
	})
}

// Me handles GET /auth/me and echoes the authenticated user.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, middleware.CurrentUser(r))
}
