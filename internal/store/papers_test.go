package store_test

import (
	"context"
	"errors"
	"testing"

	"margin/internal/store"
)

func TestInsertPaperDefaults(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	paper, err := s.InsertPaper(ctx, "https://arxiv.org/abs/1706.03762", nil, nil, nil)
	if err != nil {
		t.Fatalf("InsertPaper returned error: %v", err)
	}
	if paper.Status != store.StatusToRead {
		t.Errorf("new paper status = %s, want to_read", paper.Status)
	}
	if paper.CurrentPage != nil {
		t.Errorf("new paper should have no current page, got %v", *paper.CurrentPage)
	}
	if paper.Title != nil || paper.Outcome != nil {
		t.Errorf("unknown fields should be nil: %+v", paper)
	}
	if paper.CreatedAt.IsZero() {
		t.Error("created_at not set")
	}
}

func TestInsertPaperRejectsEmptyURL(t *testing.T) {
	s := openStore(t)
	if _, err := s.InsertPaper(context.Background(), "   ", nil, nil, nil); err == nil {
		t.Fatal("expected error for empty url")
	}
}

func TestUpdatePaperPartial(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	paper, err := s.InsertPaper(ctx, "https://example.com/p", strPtr("Old Title"), nil, nil)
	if err != nil {
		t.Fatalf("InsertPaper returned error: %v", err)
	}

	status := store.StatusReading
	if err := s.UpdatePaper(ctx, paper.ID, store.PaperUpdate{
		Status:      &status,
		CurrentPage: intPtr(12),
	}); err != nil {
		t.Fatalf("UpdatePaper returned error: %v", err)
	}

	got, err := s.GetPaper(ctx, paper.ID)
	if err != nil {
		t.Fatalf("GetPaper returned error: %v", err)
	}
	if got.Status != store.StatusReading {
		t.Errorf("status = %s, want reading", got.Status)
	}
	if got.CurrentPage == nil || *got.CurrentPage != 12 {
		t.Errorf("current_page = %v, want 12", got.CurrentPage)
	}
	// Fields not named in the update stay untouched.
	if got.Title == nil || *got.Title != "Old Title" {
		t.Errorf("title changed unexpectedly: %v", got.Title)
	}
}

func TestUpdatePaperClampsPageFloor(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	paper, err := s.InsertPaper(ctx, "https://example.com/p", nil, nil, nil)
	if err != nil {
		t.Fatalf("InsertPaper returned error: %v", err)
	}
	if err := s.UpdatePaper(ctx, paper.ID, store.PaperUpdate{CurrentPage: intPtr(0)}); err != nil {
		t.Fatalf("UpdatePaper returned error: %v", err)
	}
	got, err := s.GetPaper(ctx, paper.ID)
	if err != nil {
		t.Fatalf("GetPaper returned error: %v", err)
	}
	if got.CurrentPage == nil || *got.CurrentPage != 1 {
		t.Errorf("current_page = %v, want floor 1", got.CurrentPage)
	}
}

func TestUpdatePaperUnknownID(t *testing.T) {
	s := openStore(t)
	err := s.UpdatePaper(context.Background(), "missing", store.PaperUpdate{CurrentPage: intPtr(2)})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdatePaperRejectsBadStatus(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	paper, err := s.InsertPaper(ctx, "https://example.com/p", nil, nil, nil)
	if err != nil {
		t.Fatalf("InsertPaper returned error: %v", err)
	}
	bad := store.PaperStatus("archived")
	if err := s.UpdatePaper(ctx, paper.ID, store.PaperUpdate{Status: &bad}); err == nil {
		t.Fatal("expected error for invalid status")
	}
}

func TestListPapersFilterAndOrder(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	first, err := s.InsertPaper(ctx, "https://example.com/1", nil, nil, nil)
	if err != nil {
		t.Fatalf("InsertPaper returned error: %v", err)
	}
	second, err := s.InsertPaper(ctx, "https://example.com/2", nil, nil, nil)
	if err != nil {
		t.Fatalf("InsertPaper returned error: %v", err)
	}

	status := store.StatusRead
	if err := s.UpdatePaper(ctx, first.ID, store.PaperUpdate{Status: &status}); err != nil {
		t.Fatalf("UpdatePaper returned error: %v", err)
	}

	all, err := s.ListPapers(ctx)
	if err != nil {
		t.Fatalf("ListPapers returned error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 papers, got %d", len(all))
	}
	if all[0].ID != second.ID {
		t.Errorf("papers not ordered newest first: %s first", all[0].URL)
	}

	read, err := s.ListPapers(ctx, store.StatusRead)
	if err != nil {
		t.Fatalf("ListPapers returned error: %v", err)
	}
	if len(read) != 1 || read[0].ID != first.ID {
		t.Fatalf("unexpected filtered result: %+v", read)
	}
}

func TestDeletePaperIdempotent(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	paper, err := s.InsertPaper(ctx, "https://example.com/p", nil, nil, nil)
	if err != nil {
		t.Fatalf("InsertPaper returned error: %v", err)
	}
	if err := s.DeletePaper(ctx, paper.ID); err != nil {
		t.Fatalf("DeletePaper returned error: %v", err)
	}
	if err := s.DeletePaper(ctx, paper.ID); err != nil {
		t.Fatalf("second DeletePaper returned error: %v", err)
	}
	if _, err := s.GetPaper(ctx, paper.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
