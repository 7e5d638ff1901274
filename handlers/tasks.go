package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gorilla/mux"

	"task-api-v1/api"
	"task-api-v1/middleware"
	"task-api-v1/store"
)

const taskCacheTTL = 5 * time.Minute

func taskCacheKey(userID, taskID int) string {
	return fmt.Sprintf("task:%d:user:%d", taskID, userID)
}

// ListTasks handles GET /tasks with optional status/priority filters and
// skip/limit pagination. Filter values outside the enums are ignored rather
// than rejected, so ?status=bogus lists everything.
func (h *Handlers) ListTasks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
	defer cancel()

	user := middleware.CurrentUser(r)
	q := r.URL.Query()

	filter := store.TaskFilter{Limit: 100}
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		if status, ok := api.ParseTaskStatus(raw); ok {
			filter.Status = &status
		}
	}
	if raw := strings.TrimSpace(q.Get("priority")); raw != "" {
		if priority, ok := api.ParseTaskPriority(raw); ok {
			filter.Priority = &priority
		}
	}
	if raw := q.Get("skip"); raw != "" {
		skip, err := strconv.Atoi(raw)
		if err != nil || skip < 0 {
			http.Error(w, "Invalid 'skip' parameter", http.StatusBadRequest)
			return
		}
		filter.Skip = skip
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 100 {
			http.Error(w, "Invalid 'limit' parameter", http.StatusBadRequest)
			return
		}
		filter.Limit = limit
	}

	tasks, err := store.ListTasks(ctx, user.ID, filter)
	if err != nil {
		respondWithDBError(w, err)
		return
	}
	if tasks == nil {
		tasks = []api.Task{}
	}
	respondWithJSON(w, http.StatusOK, tasks)
}

// CreateTask handles POST /tasks. Status and priority default when omitted;
// invalid enum values in the body are a validation error, unlike the lenient
// list filters.
func (h *Handlers) CreateTask(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
	defer cancel()

	user := middleware.CurrentUser(r)

	var req api.TaskCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if n := utf8.RuneCountInString(req.Title); n < 1 || n > 200 {
		http.Error(w, "The 'title' field is required and must be 1-200 characters", http.StatusBadRequest)
		return
	}
	if utf8.RuneCountInString(req.Description) > 1000 {
		http.Error(w, "The 'description' field must be at most 1000 characters", http.StatusBadRequest)
		return
	}

	status := api.StatusTodo
	if req.Status != "" {
		parsed, ok := api.ParseTaskStatus(req.Status)
		if !ok {
			http.Error(w, "Invalid 'status' value", http.StatusBadRequest)
			return
		}
		status = parsed
	}
	priority := api.PriorityMedium
	if req.Priority != "" {
		parsed, ok := api.ParseTaskPriority(req.Priority)
		if !ok {
			http.Error(w, "Invalid 'priority' value", http.StatusBadRequest)
			return
		}
		priority = parsed
	}

	task, err := store.CreateTask(ctx, user.ID, req.Title, req.Description, status, priority, req.DueDate)
	if err != nil {
		respondWithDBError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, task)
}

// GetTask handles GET /tasks/{id}, serving from the cache when it can.
// Absent and foreign-owned tasks are the same 404.
func (h *Handlers) GetTask(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
	defer cancel()

	user := middleware.CurrentUser(r)
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid task ID", http.StatusBadRequest)
		return
	}

	cacheKey := taskCacheKey(user.ID, id)
	if h.RDB != nil {
		if val, err := h.RDB.Get(ctx, cacheKey).Result(); err == nil {
			var t api.Task
			if err := json.Unmarshal([]byte(val), &t); err == nil {
				log.Println("CACHE HIT for key:", cacheKey)
				respondWithJSON(w, http.StatusOK, t)
				return
			}
		}
	}

	task, err := store.GetTask(ctx, user.ID, id)
	if err != nil {
		respondWithDBError(w, err)
		return
	}
	if task == nil {
		http.Error(w, "Task not found", http.StatusNotFound)
		return
	}

	if h.RDB != nil {
		if cacheData, err := json.Marshal(task); err == nil {
			if err := h.RDB.Set(ctx, cacheKey, cacheData, taskCacheTTL).Err(); err != nil {
				log.Printf("WARN: Failed to set the cache key %s: %v", cacheKey, err)
			}
		}
	}

	respondWithJSON(w, http.StatusOK, task)
}

// UpdateTask handles PUT /tasks/{id} with partial-update semantics: only
// fields present in the body are applied, the rest keep their stored values.
func (h *Handlers) UpdateTask(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
	defer cancel()

	user := middleware.CurrentUser(r)
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid task ID", http.StatusBadRequest)
		return
	}

	var req api.TaskUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	task, err := store.GetTask(ctx, user.ID, id)
	if err != nil {
		respondWithDBError(w, err)
		return
	}
	if task == nil {
		http.Error(w, "Task not found", http.StatusNotFound)
		return
	}

	if req.Title != nil {
		if n := utf8.RuneCountInString(*req.Title); n < 1 || n > 200 {
			http.Error(w, "The 'title' field must be 1-200 characters", http.StatusBadRequest)
			return
		}
		task.Title = *req.Title
	}
	if req.Description != nil {
		if utf8.RuneCountInString(*req.Description) > 1000 {
			http.Error(w, "The 'description' field must be at most 1000 characters", http.StatusBadRequest)
			return
		}
		task.Description = *req.Description
	}
	if req.Status != nil {
		status, ok := api.ParseTaskStatus(*req.Status)
		if !ok {
			http.Error(w, "Invalid 'status' value", http.StatusBadRequest)
			return
		}
		task.Status = status
	}
	if req.Priority != nil {
		priority, ok := api.ParseTaskPriority(*req.Priority)
		if !ok {
			http.Error(w, "Invalid 'priority' value", http.StatusBadRequest)
			return
		}
		task.Priority = priority
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}

	updated, err := store.UpdateTask(ctx, task)
	if err != nil {
		respondWithDBError(w, err)
		return
	}
	if updated == nil {
		http.Error(w, "Task not found", http.StatusNotFound)
		return
	}

	h.invalidateTaskCache(ctx, user.ID, id)
	respondWithJSON(w, http.StatusOK, updated)
}

// DeleteTask handles DELETE /tasks/{id}. Deletion is permanent.
func (h *Handlers) DeleteTask(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
	defer cancel()

	user := middleware.CurrentUser(r)
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid task ID", http.StatusBadRequest)
		return
	}

	deleted, err := store.DeleteTask(ctx, user.ID, id)
	if err != nil {
		respondWithDBError(w, err)
		return
	}
	if !deleted {
		http.Error(w, "Task not found", http.StatusNotFound)
		return
	}

	h.invalidateTaskCache(ctx, user.ID, id)
	w.WriteHeader(http.StatusNoContent)
}

// TaskStats handles GET /tasks/stats/summary.
func (h *Handlers) TaskStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
	defer cancel()

	user := middleware.CurrentUser(r)
	stats, err := store.TaskStats(ctx, user.ID)
	if err != nil {
		respondWithDBError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

func (h *Handlers) invalidateTaskCache(ctx context.Context, userID, taskID int) {
	if h.RDB == nil {
		return
	}
	cacheKey := taskCacheKey(userID, taskID)
	if err := h.RDB.Del(ctx, cacheKey).Err(); err != nil {
		log.Printf("WARN: Failed to delete the cache key %s: %v", cacheKey, err)
	}
}
