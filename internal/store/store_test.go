package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"margin/internal/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "margin.db"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func TestOpenCreatesSchemaAndReopens(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "margin.db")

	s, err := store.Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if _, err := s.InsertPaper(context.Background(), "https://example.com/p", nil, nil, nil); err != nil {
		t.Fatalf("InsertPaper returned error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	reopened, err := store.Open(path)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	defer reopened.Close()

	papers, err := reopened.ListPapers(context.Background())
	if err != nil {
		t.Fatalf("ListPapers returned error: %v", err)
	}
	if len(papers) != 1 {
		t.Fatalf("expected 1 paper after reopen, got %d", len(papers))
	}
}

func TestCounts(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if _, err := s.InsertTask(ctx, "write tests", "", store.PriorityHigh); err != nil {
		t.Fatalf("InsertTask: %v", err)
	}
	if _, err := s.InsertClip(ctx, "snippet", nil); err != nil {
		t.Fatalf("InsertClip: %v", err)
	}

	counts, err := s.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts returned error: %v", err)
	}
	if counts["tasks"] != 1 || counts["clips"] != 1 || counts["papers"] != 0 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}

func TestTaskLifecycle(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	task, err := s.InsertTask(ctx, "send invoice", "2026-08-30", store.PriorityLow)
	if err != nil {
		t.Fatalf("InsertTask returned error: %v", err)
	}
	if task.Completed {
		t.Error("new task should not be completed")
	}

	if err := s.SetTaskCompleted(ctx, task.ID, true); err != nil {
		t.Fatalf("SetTaskCompleted returned error: %v", err)
	}

	byDay, err := s.ListTasks(ctx, "2026-08-30")
	if err != nil {
		t.Fatalf("ListTasks returned error: %v", err)
	}
	if len(byDay) != 1 || !byDay[0].Completed {
		t.Fatalf("unexpected task list: %+v", byDay)
	}

	if err := s.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("DeleteTask returned error: %v", err)
	}
	if _, err := s.GetTask(ctx, task.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestTaskValidation(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if _, err := s.InsertTask(ctx, "  ", "", store.PriorityLow); err == nil {
		t.Error("expected error for empty content")
	}
	if _, err := s.InsertTask(ctx, "x", "30-08-2026", store.PriorityLow); err == nil {
		t.Error("expected error for malformed date")
	}
	if _, err := s.InsertTask(ctx, "x", "", store.Priority("urgent")); err == nil {
		t.Error("expected error for unknown priority")
	}
}

func TestReminderPendingFilter(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	first, err := s.InsertReminder(ctx, "reply to reviewer", "deadline friday", store.PriorityHigh)
	if err != nil {
		t.Fatalf("InsertReminder returned error: %v", err)
	}
	if _, err := s.InsertReminder(ctx, "cancel subscription", "", store.PriorityLow); err != nil {
		t.Fatalf("InsertReminder returned error: %v", err)
	}
	if err := s.SetReminderDone(ctx, first.ID, true); err != nil {
		t.Fatalf("SetReminderDone returned error: %v", err)
	}

	pending, err := s.ListReminders(ctx, true)
	if err != nil {
		t.Fatalf("ListReminders returned error: %v", err)
	}
	if len(pending) != 1 || pending[0].Subject != "cancel subscription" {
		t.Fatalf("unexpected pending reminders: %+v", pending)
	}

	all, err := s.ListReminders(ctx, false)
	if err != nil {
		t.Fatalf("ListReminders returned error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 reminders, got %d", len(all))
	}
}

func TestGoalTransitions(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	goal, err := s.InsertGoal(ctx, "run a marathon", strPtr("before turning 40"))
	if err != nil {
		t.Fatalf("InsertGoal returned error: %v", err)
	}
	if goal.Status != store.GoalActive {
		t.Fatalf("new goal should be active, got %s", goal.Status)
	}

	if err := s.CompleteGoal(ctx, goal.ID); err != nil {
		t.Fatalf("CompleteGoal returned error: %v", err)
	}
	completed, err := s.GetGoal(ctx, goal.ID)
	if err != nil {
		t.Fatalf("GetGoal returned error: %v", err)
	}
	if completed.Status != store.GoalCompleted || completed.CompletedAt == nil {
		t.Fatalf("unexpected completed goal: %+v", completed)
	}

	ditchable, err := s.InsertGoal(ctx, "learn the oboe", nil)
	if err != nil {
		t.Fatalf("InsertGoal returned error: %v", err)
	}
	if err := s.DitchGoal(ctx, ditchable.ID, "no time"); err != nil {
		t.Fatalf("DitchGoal returned error: %v", err)
	}
	ditched, err := s.GetGoal(ctx, ditchable.ID)
	if err != nil {
		t.Fatalf("GetGoal returned error: %v", err)
	}
	if ditched.Status != store.GoalDitched || ditched.DitchReason == nil || *ditched.DitchReason != "no time" {
		t.Fatalf("unexpected ditched goal: %+v", ditched)
	}

	active, err := s.ListGoals(ctx, store.GoalActive)
	if err != nil {
		t.Fatalf("ListGoals returned error: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected no active goals, got %d", len(active))
	}
}

func TestClipRoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	clip, err := s.InsertClip(ctx, "ssh me@host", strPtr("work box"))
	if err != nil {
		t.Fatalf("InsertClip returned error: %v", err)
	}
	got, err := s.GetClip(ctx, clip.ID)
	if err != nil {
		t.Fatalf("GetClip returned error: %v", err)
	}
	if got.Label == nil || *got.Label != "work box" {
		t.Fatalf("unexpected label: %+v", got.Label)
	}
}
