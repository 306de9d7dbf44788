package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const paperColumns = "id, url, title, authors, abstract, status, outcome, current_page, page_count, created_at"

func scanPaper(scanner interface{ Scan(dest ...any) error }) (*Paper, error) {
	var (
		id          string
		url         string
		title       sql.NullString
		authors     sql.NullString
		abstract    sql.NullString
		status      string
		outcome     sql.NullString
		currentPage sql.NullInt64
		pageCount   sql.NullInt64
		createdRaw  string
	)

	if err := scanner.Scan(&id, &url, &title, &authors, &abstract, &status, &outcome, &currentPage, &pageCount, &createdRaw); err != nil {
		return nil, err
	}

	return &Paper{
		ID:          id,
		URL:         url,
		Title:       nullString(title),
		Authors:     nullString(authors),
		Abstract:    nullString(abstract),
		Status:      PaperStatus(status),
		Outcome:     nullString(outcome),
		CurrentPage: nullInt(currentPage),
		PageCount:   nullInt(pageCount),
		CreatedAt:   parseTimestamp(createdRaw),
	}, nil
}

// InsertPaper creates a new paper record with status to_read and no
// reading position.
func (s *Store) InsertPaper(ctx context.Context, url string, title, authors, abstract *string) (*Paper, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("paper url cannot be empty")
	}

	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO papers (id, url, title, authors, abstract, status, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, url, title, authors, abstract, StatusToRead, nowTimestamp(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert paper: %w", err)
	}

	return s.GetPaper(ctx, id)
}

// GetPaper fetches a paper by ID.
func (s *Store) GetPaper(ctx context.Context, id string) (*Paper, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+paperColumns+" FROM papers WHERE id = ?", id)
	paper, err := scanPaper(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("paper %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get paper: %w", err)
	}
	return paper, nil
}

// ListPapers returns papers newest first, optionally filtered by
// status.
func (s *Store) ListPapers(ctx context.Context, statuses ...PaperStatus) ([]*Paper, error) {
	query := "SELECT " + paperColumns + " FROM papers"
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
		return nil, fmt.Errorf("list papers: %w", err)
	}
	defer rows.Close()

	var papers []*Paper
	for rows.Next() {
		paper, err := scanPaper(rows)
		if err != nil {
			return nil, fmt.Errorf("scan paper: %w", err)
		}
		papers = append(papers, paper)
	}
	return papers, rows.Err()
}

// UpdatePaper applies a partial update; only non-nil fields of update
// are written.
func (s *Store) UpdatePaper(ctx context.Context, id string, update PaperUpdate) error {
	var sets []string
	var args []any

	if update.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *update.Title)
	}
	if update.Authors != nil {
		sets = append(sets, "authors = ?")
		args = append(args, *update.Authors)
	}
	if update.Abstract != nil {
		sets = append(sets, "abstract = ?")
		args = append(args, *update.Abstract)
	}
	if update.Status != nil {
		if !ValidPaperStatus(*update.Status) {
			return fmt.Errorf("invalid paper status %q", *update.Status)
		}
		sets = append(sets, "status = ?")
		args = append(args, string(*update.Status))
	}
	if update.Outcome != nil {
		sets = append(sets, "outcome = ?")
		args = append(args, *update.Outcome)
	}
	if update.CurrentPage != nil {
		page := *update.CurrentPage
		if page < 1 {
			page = 1
		}
		sets = append(sets, "current_page = ?")
		args = append(args, page)
	}
	if update.PageCount != nil {
		sets = append(sets, "page_count = ?")
		args = append(args, *update.PageCount)
	}

	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	res, err := s.db.ExecContext(ctx, "UPDATE papers SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("update paper: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update paper rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("paper %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeletePaper removes a paper record. Deleting an unknown ID is not an
// error.
func (s *Store) DeletePaper(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM papers WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete paper: %w", err)
	}
	return nil
}
