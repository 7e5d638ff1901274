package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"task-api-v1/api"
)

// TaskFilter narrows a listing. Nil status/priority means no filter on that
// column.
type TaskFilter struct {
	Status   *api.TaskStatus
	Priority *api.TaskPriority
	Skip     int
	Limit    int
}

const taskColumns = "id, title, COALESCE(description, ''), status, priority, due_date, user_id, created_at, updated_at"

func scanTask(row interface{ Scan(...any) error }) (*api.Task, error) {
	var t api.Task
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority,
		&t.DueDate, &t.UserID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTasks returns the user's tasks, newest first, ids breaking ties.
// Pagination applies after filtering.
func ListTasks(ctx context.Context, userID int, f TaskFilter) ([]api.Task, error) {
	query := "SELECT " + taskColumns + " FROM tasks WHERE user_id = $1"
	args := []any{userID}

	if f.Status != nil {
		args = append(args, string(*f.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.Priority != nil {
		args = append(args, string(*f.Priority))
		query += fmt.Sprintf(" AND priority = $%d", len(args))
	}

	args = append(args, f.Limit, f.Skip)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []api.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// CreateTask inserts a task owned by userID and returns the stored row.
func CreateTask(ctx context.Context, userID int, title, description string, status api.TaskStatus, priority api.TaskPriority, dueDate *time.Time) (*api.Task, error) {
	var desc any
	if description != "" {
		desc = description
	}
	row := DB.QueryRowContext(ctx,
		`INSERT INTO tasks (title, description, status, priority, due_date, user_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+taskColumns,
		title, desc, string(status), string(priority), dueDate, userID)
	return scanTask(row)
}

// GetTask returns (nil, nil) when the task does not exist or belongs to a
// different user; the two cases are indistinguishable on purpose.
func GetTask(ctx context.Context, userID, id int) (*api.Task, error) {
	row := DB.QueryRowContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE id = $1 AND user_id = $2",
		id, userID)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

// UpdateTask writes back a task row previously read through GetTask and
// refreshes updated_at. The ownership predicate is repeated in the WHERE
// clause, so a vanished or foreign row comes back (nil, nil).
func UpdateTask(ctx context.Context, t *api.Task) (*api.Task, error) {
	var desc any
	if t.Description != "" {
		desc = t.Description
	}
	row := DB.QueryRowContext(ctx,
		`UPDATE tasks
		 SET title = $1, description = $2, status = $3, priority = $4, due_date = $5, updated_at = now()
		 WHERE id = $6 AND user_id = $7
		 RETURNING `+taskColumns,
		t.Title, desc, string(t.Status), string(t.Priority), t.DueDate, t.ID, t.UserID)
	updated, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return updated, err
}

// DeleteTask reports false when nothing was deleted, which covers both an
// absent id and another user's task.
func DeleteTask(ctx context.Context, userID, id int) (bool, error) {
	res, err := DB.ExecContext(ctx,
		"DELETE FROM tasks WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// TaskStats counts the user's tasks per status and per priority. Every enum
// value appears in the maps even at zero.
func TaskStats(ctx context.Context, userID int) (*api.TaskStats, error) {
	stats := &api.TaskStats{
		StatusStats:   make(map[api.TaskStatus]int, len(api.AllStatuses)),
		PriorityStats: make(map[api.TaskPriority]int, len(api.AllPriorities)),
	}
	for _, s := range api.AllStatuses {
		stats.StatusStats[s] = 0
	}
	for _, p := range api.AllPriorities {
		stats.PriorityStats[p] = 0
	}

	rows, err := DB.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM tasks WHERE user_id = $1 GROUP BY status", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.StatusStats[api.TaskStatus(status)] = count
		stats.TotalTasks += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = DB.QueryContext(ctx,
		"SELECT priority, COUNT(*) FROM tasks WHERE user_id = $1 GROUP BY priority", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var priority string
		var count int
		if err := rows.Scan(&priority, &count); err != nil {
			return nil, err
		}
		stats.PriorityStats[api.TaskPriority(priority)] = count
	}
	return stats, rows.Err()
}
