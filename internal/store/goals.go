package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const goalColumns = "id, title, description, status, ditch_reason, completed_at, created_at"

func scanGoal(scanner interface{ Scan(dest ...any) error }) (*Goal, error) {
	var (
		id          string
		title       string
		description sql.NullString
		status      string
		ditchReason sql.NullString
		completedAt sql.NullString
		createdRaw  string
	)
	if err := scanner.Scan(&id, &title, &description, &status, &ditchReason, &completedAt, &createdRaw); err != nil {
		return nil, err
	}
	return &Goal{
		ID:          id,
		Title:       title,
		Description: nullString(description),
		Status:      GoalStatus(status),
		DitchReason: nullString(ditchReason),
		CompletedAt: nullTime(completedAt),
		CreatedAt:   parseTimestamp(createdRaw),
	}, nil
}

// InsertGoal creates an active goal.
func (s *Store) InsertGoal(ctx context.Context, title string, description *string) (*Goal, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("goal title cannot be empty")
	}

	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO goals (id, title, description, status, created_at) VALUES (?, ?, ?, ?, ?)",
		id, title, description, string(GoalActive), nowTimestamp(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert goal: %w", err)
	}
	return s.GetGoal(ctx, id)
}

// GetGoal fetches a goal by ID.
func (s *Store) GetGoal(ctx context.Context, id string) (*Goal, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+goalColumns+" FROM goals WHERE id = ?", id)
	goal, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("goal %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get goal: %w", err)
	}
	return goal, nil
}

// ListGoals returns goals newest first, optionally filtered by status.
func (s *Store) ListGoals(ctx context.Context, statuses ...GoalStatus) ([]*Goal, error) {
	query := "SELECT " + goalColumns + " FROM goals"
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, status := range statuses {
			placeholders[i] = "?"
			args = append(args, string(status))
		}
		query += " WHERE status IN (" + strings.Join(placeholders, ", ") + ")"
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []*Goal
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, goal)
	}
	return goals, rows.Err()
}

// CompleteGoal marks a goal as completed now.
func (s *Store) CompleteGoal(ctx context.Context, id string) error {
	return s.transitionGoal(ctx, id, GoalCompleted, nil)
}

// DitchGoal marks a goal as ditched with a reason.
func (s *Store) DitchGoal(ctx context.Context, id, reason string) error {
	return s.transitionGoal(ctx, id, GoalDitched, &reason)
}

func (s *Store) transitionGoal(ctx context.Context, id string, status GoalStatus, ditchReason *string) error {
	var completedAt any
	if status == GoalCompleted {
		completedAt = nowTimestamp()
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE goals SET status = ?, ditch_reason = ?, completed_at = ? WHERE id = ?",
		string(status), ditchReason, completedAt, id,
	)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update goal rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("goal %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteGoal removes a goal.
func (s *Store) DeleteGoal(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM goals WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return nil
}
