package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const reminderColumns = "id, subject, reason, priority, done, created_at"

func scanReminder(scanner interface{ Scan(dest ...any) error }) (*Reminder, error) {
	var (
		id         string
		subject    string
		reason     string
		priority   string
		done       int
		createdRaw string
	)
	if err := scanner.Scan(&id, &subject, &reason, &priority, &done, &createdRaw); err != nil {
		return nil, err
	}
	return &Reminder{
		ID:        id,
		Subject:   subject,
		Reason:    reason,
		Priority:  Priority(priority),
		Done:      done != 0,
		CreatedAt: parseTimestamp(createdRaw),
	}, nil
}

// InsertReminder records an email that still needs to be sent.
func (s *Store) InsertReminder(ctx context.Context, subject, reason string, priority Priority) (*Reminder, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, errors.New("reminder subject cannot be empty")
	}
	if priority == "" {
		priority = PriorityMedium
	}
	if !ValidPriority(priority) {
		return nil, fmt.Errorf("invalid priority %q", priority)
	}

	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO reminders (id, subject, reason, priority, done, created_at) VALUES (?, ?, ?, ?, 0, ?)",
		id, subject, reason, string(priority), nowTimestamp(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert reminder: %w", err)
	}
	return s.GetReminder(ctx, id)
}

// GetReminder fetches a reminder by ID.
func (s *Store) GetReminder(ctx context.Context, id string) (*Reminder, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+reminderColumns+" FROM reminders WHERE id = ?", id)
	reminder, err := scanReminder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("reminder %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get reminder: %w", err)
	}
	return reminder, nil
}

// ListReminders returns reminders newest first. When pendingOnly is
// set, completed reminders are excluded.
func (s *Store) ListReminders(ctx context.Context, pendingOnly bool) ([]*Reminder, error) {
	query := "SELECT " + reminderColumns + " FROM reminders"
	if pendingOnly {
		query += " WHERE done = 0"
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()

	var reminders []*Reminder
	for rows.Next() {
		reminder, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		reminders = append(reminders, reminder)
	}
	return reminders, rows.Err()
}

// SetReminderDone toggles a reminder's done flag.
func (s *Store) SetReminderDone(ctx context.Context, id string, done bool) error {
	value := 0
	if done {
		value = 1
	}
	res, err := s.db.ExecContext(ctx, "UPDATE reminders SET done = ? WHERE id = ?", value, id)
	if err != nil {
		return fmt.Errorf("update reminder: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update reminder rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("reminder %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteReminder removes a reminder.
func (s *Store) DeleteReminder(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM reminders WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	return nil
}
