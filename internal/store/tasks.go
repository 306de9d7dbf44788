package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const taskColumns = "id, content, completed, date, priority, created_at"

func scanTask(scanner interface{ Scan(dest ...any) error }) (*Task, error) {
	var (
		id         string
		content    string
		completed  int
		date       string
		priority   string
		createdRaw string
	)
	if err := scanner.Scan(&id, &content, &completed, &date, &priority, &createdRaw); err != nil {
		return nil, err
	}
	return &Task{
		ID:        id,
		Content:   content,
		Completed: completed != 0,
		Date:      date,
		Priority:  Priority(priority),
		CreatedAt: parseTimestamp(createdRaw),
	}, nil
}

// InsertTask creates a task for the given day. An empty date means
// today.
func (s *Store) InsertTask(ctx context.Context, content, date string, priority Priority) (*Task, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.New("task content cannot be empty")
	}
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("task date must be YYYY-MM-DD: %w", err)
	}
	if priority == "" {
		priority = PriorityMedium
	}
	if !ValidPriority(priority) {
		return nil, fmt.Errorf("invalid priority %q", priority)
	}

	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO tasks (id, content, completed, date, priority, created_at) VALUES (?, ?, 0, ?, ?, ?)",
		id, content, date, string(priority), nowTimestamp(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return s.GetTask(ctx, id)
}

// GetTask fetches a task by ID.
func (s *Store) GetTask(ctx context.Context, id string) (*Task, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// ListTasks returns tasks newest first, optionally restricted to a
// single day.
func (s *Store) ListTasks(ctx context.Context, date string) ([]*Task, error) {
	query := "SELECT " + taskColumns + " FROM tasks"
	var args []any
	if date != "" {
		query += " WHERE date = ?"
		args = append(args, date)
	}
	query += " ORDER BY date DESC, created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// SetTaskCompleted toggles a task's completion flag.
func (s *Store) SetTaskCompleted(ctx context.Context, id string, completed bool) error {
	value := 0
	if completed {
		value = 1
	}
	res, err := s.db.ExecContext(ctx, "UPDATE tasks SET completed = ? WHERE id = ?", value, id)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update task rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteTask removes a task.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}
