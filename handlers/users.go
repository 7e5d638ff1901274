package handlers

import (
	"context"
	"net/http"

	"task-api-v1/api"
	"task-api-v1/store"
)

// ListUsers handles GET /users. The route is gated on the admin role by
// middleware; by the time this runs the caller is known to be an admin.
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
	defer cancel()

	users, err := store.ListUsers(ctx)
	if err != nil {
		respondWithDBError(w, err)
		return
	}
	if users == nil {
		users = []api.User{}
	}
	respondWithJSON(w, http.StatusOK, users)
}
