package api

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the closed set of user roles. Using a named type keeps role checks
// as comparisons against these constants instead of raw strings.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusDone       TaskStatus = "done"
)

// AllStatuses lists every status, in display order.
var AllStatuses = []TaskStatus{StatusTodo, StatusInProgress, StatusDone}

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// ParseTaskStatus converts a raw string to a TaskStatus. The boolean is false
// for anything outside the closed set.
func ParseTaskStatus(s string) (TaskStatus, bool) {
	st := TaskStatus(s)
	return st, st.Valid()
}

// TaskPriority is the urgency level of a task.
type TaskPriority string

const (
	PriorityLow      TaskPriority = "low"
	PriorityMedium   TaskPriority = "medium"
	PriorityHigh     TaskPriority = "high"
	PriorityCritical TaskPriority = "critical"
)

// AllPriorities lists every priority, in display order.
var AllPriorities = []TaskPriority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

func ParseTaskPriority(s string) (TaskPriority, bool) {
	pr := TaskPriority(s)
	return pr, pr.Valid()
}

// User is an identity record. The password hash never leaves the server.
type User struct {
	ID           int        `json:"id"`
	Email        string     `json:"email"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
}

// Task belongs to exactly one user; there is no sharing or reassignment.
type Task struct {
	ID          int          `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	DueDate     *time.Time   `json:"due_date"`
	UserID      int          `json:"user_id"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   *time.Time   `json:"updated_at"`
}

// Claims is the JWT payload: subject carries the user's email.
type Claims struct {
	jwt.RegisteredClaims
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is the body of a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// TaskCreate is the body of POST /tasks. Status and priority default when
// omitted; due date is optional.
type TaskCreate struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

// TaskUpdate is the body of PUT /tasks/{id}. Pointer fields distinguish
// "absent" from "set to zero value" so only supplied fields are applied.
type TaskUpdate struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	Priority    *string    `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

// TaskStats is the body of GET /tasks/stats/summary. Every enum value is
// present as a key even when its count is zero.
type TaskStats struct {
	StatusStats   map[TaskStatus]int   `json:"status_stats"`
	PriorityStats map[TaskPriority]int `json:"priority_stats"`
	TotalTasks    int                  `json:"total_tasks"`
}
