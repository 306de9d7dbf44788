package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const clipColumns = "id, content, label, created_at"

func scanClip(scanner interface{ Scan(dest ...any) error }) (*Clip, error) {
	var (
		id         string
		content    string
		label      sql.NullString
		createdRaw string
	)
	if err := scanner.Scan(&id, &content, &label, &createdRaw); err != nil {
		return nil, err
	}
	return &Clip{
		ID:        id,
		Content:   content,
		Label:     nullString(label),
		CreatedAt: parseTimestamp(createdRaw),
	}, nil
}

// InsertClip stores a clipboard snippet with an optional label.
func (s *Store) InsertClip(ctx context.Context, content string, label *string) (*Clip, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errors.New("clip content cannot be empty")
	}

	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO clips (id, content, label, created_at) VALUES (?, ?, ?, ?)",
		id, content, label, nowTimestamp(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert clip: %w", err)
	}
	return s.GetClip(ctx, id)
}

// GetClip fetches a clip by ID.
func (s *Store) GetClip(ctx context.Context, id string) (*Clip, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+clipColumns+" FROM clips WHERE id = ?", id)
	clip, err := scanClip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("clip %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get clip: %w", err)
	}
	return clip, nil
}

// ListClips returns clips newest first.
func (s *Store) ListClips(ctx context.Context) ([]*Clip, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+clipColumns+" FROM clips ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list clips: %w", err)
	}
	defer rows.Close()

	var clips []*Clip
	for rows.Next() {
		clip, err := scanClip(rows)
		if err != nil {
			return nil, fmt.Errorf("scan clip: %w", err)
		}
		clips = append(clips, clip)
	}
	return clips, rows.Err()
}

// DeleteClip removes a clip.
func (s *Store) DeleteClip(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM clips WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete clip: %w", err)
	}
	return nil
}
