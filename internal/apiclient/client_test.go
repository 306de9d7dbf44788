package apiclient_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"margin/internal/api"
	"margin/internal/apiclient"
	"margin/internal/config"
	"margin/internal/daemon"
	"margin/internal/logging"
	"margin/internal/store"
)

func startDaemon(t *testing.T) (string, *store.Store) {
	t.Helper()
	cfg := config.Default()
	base := t.TempDir()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.CacheDir = filepath.Join(base, "cache")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Auth.Password = "sesame"
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	st, err := store.Open(cfg.DatabasePath())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	papers := api.NewPaperService(st, nil)
	d, err := daemon.New(&cfg, st, logging.NewNop(), nil, papers)
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start daemon: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return "http://" + d.APIAddr(), st
}

func newClient(t *testing.T, base string) *apiclient.Client {
	t.Helper()
	client := apiclient.New(apiclient.Options{
		BaseURL:   base,
		TokenPath: filepath.Join(t.TempDir(), "token"),
		Logger:    logging.NewNop(),
	})
	if err := client.Login(context.Background(), "sesame"); err != nil {
		t.Fatalf("login: %v", err)
	}
	return client
}

func TestLoginPersistsTokenAcrossClients(t *testing.T) {
	base, _ := startDaemon(t)
	tokenPath := filepath.Join(t.TempDir(), "token")
	ctx := context.Background()

	first := apiclient.New(apiclient.Options{BaseURL: base, TokenPath: tokenPath, Logger: logging.NewNop()})
	if first.Authenticated() {
		t.Fatal("fresh client should not be authenticated")
	}
	if err := first.Login(ctx, "sesame"); err != nil {
		t.Fatalf("login: %v", err)
	}

	second := apiclient.New(apiclient.Options{BaseURL: base, TokenPath: tokenPath, Logger: logging.NewNop()})
	if !second.Authenticated() {
		t.Fatal("second client should pick up persisted token")
	}
	if _, err := second.Status(ctx); err != nil {
		t.Fatalf("status with persisted token: %v", err)
	}

	if err := second.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	third := apiclient.New(apiclient.Options{BaseURL: base, TokenPath: tokenPath, Logger: logging.NewNop()})
	if third.Authenticated() {
		t.Fatal("logout should clear the persisted token")
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	base, _ := startDaemon(t)
	client := apiclient.New(apiclient.Options{BaseURL: base, Logger: logging.NewNop()})
	if err := client.Login(context.Background(), "wrong"); err == nil {
		t.Fatal("expected login error for wrong password")
	}
	if client.Authenticated() {
		t.Fatal("failed login must not leave a token")
	}
}

func TestPaperLifecycle(t *testing.T) {
	base, _ := startDaemon(t)
	client := newClient(t, base)
	ctx := context.Background()

	paper, err := client.AddPaper(ctx, "https://example.org/paper.pdf")
	if err != nil {
		t.Fatalf("add paper: %v", err)
	}
	if paper.Status != "to_read" {
		t.Fatalf("new paper status = %q, want to_read", paper.Status)
	}

	title := "Consensus Revisited"
	page := 12
	updated, err := client.UpdatePaper(ctx, paper.ID, api.UpdatePaperRequest{Title: &title, CurrentPage: &page})
	if err != nil {
		t.Fatalf("update paper: %v", err)
	}
	if updated.Title == nil || *updated.Title != title {
		t.Fatalf("updated title = %v, want %q", updated.Title, title)
	}
	if updated.CurrentPage == nil || *updated.CurrentPage != page {
		t.Fatalf("updated page = %v, want %d", updated.CurrentPage, page)
	}

	papers, err := client.ListPapers(ctx, "to_read")
	if err != nil {
		t.Fatalf("list papers: %v", err)
	}
	if len(papers) != 1 {
		t.Fatalf("list returned %d papers, want 1", len(papers))
	}

	if err := client.DeletePaper(ctx, paper.ID); err != nil {
		t.Fatalf("delete paper: %v", err)
	}
	if _, err := client.GetPaper(ctx, paper.ID); err == nil {
		t.Fatal("expected error fetching deleted paper")
	}
}

func TestSavePageAndNotesWriteThrough(t *testing.T) {
	base, st := startDaemon(t)
	client := newClient(t, base)
	ctx := context.Background()

	paper, err := client.AddPaper(ctx, "https://example.org/tracked.pdf")
	if err != nil {
		t.Fatalf("add paper: %v", err)
	}
	if err := client.SavePage(ctx, paper.ID, 7); err != nil {
		t.Fatalf("save page: %v", err)
	}
	if err := client.SaveNotes(ctx, paper.ID, "skim of section 3 done"); err != nil {
		t.Fatalf("save notes: %v", err)
	}

	record, err := st.GetPaper(ctx, paper.ID)
	if err != nil {
		t.Fatalf("get paper: %v", err)
	}
	if record.CurrentPage == nil || *record.CurrentPage != 7 {
		t.Fatalf("stored page = %v, want 7", record.CurrentPage)
	}
	if record.Outcome == nil || *record.Outcome != "skim of section 3 done" {
		t.Fatalf("stored outcome = %v", record.Outcome)
	}
}

func TestDispatchNotesHitsBeaconEndpoint(t *testing.T) {
	base, st := startDaemon(t)
	client := newClient(t, base)
	ctx := context.Background()

	paper, err := client.AddPaper(ctx, "https://example.org/beacon.pdf")
	if err != nil {
		t.Fatalf("add paper: %v", err)
	}

	client.DispatchNotes(paper.ID, "closing thoughts")
	client.FlushBeacon()

	deadline := time.Now().Add(2 * time.Second)
	for {
		record, err := st.GetPaper(ctx, paper.ID)
		if err != nil {
			t.Fatalf("get paper: %v", err)
		}
		if record.Outcome != nil && *record.Outcome == "closing thoughts" {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("outcome never landed, got %v", record.Outcome)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestDashboardEndpoints(t *testing.T) {
	base, _ := startDaemon(t)
	client := newClient(t, base)
	ctx := context.Background()

	task, err := client.AddTask(ctx, "review figure 2", "", "high")
	if err != nil {
		t.Fatalf("add task: %v", err)
	}
	if err := client.SetTaskCompleted(ctx, task.ID, true); err != nil {
		t.Fatalf("complete task: %v", err)
	}
	tasks, err := client.ListTasks(ctx, "")
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 1 || !tasks[0].Completed {
		t.Fatalf("tasks = %+v, want one completed", tasks)
	}

	label := "quote"
	clip, err := client.AddClip(ctx, "the lower bound is tight", &label)
	if err != nil {
		t.Fatalf("add clip: %v", err)
	}
	clips, err := client.ListClips(ctx)
	if err != nil {
		t.Fatalf("list clips: %v", err)
	}
	if len(clips) != 1 || clips[0].ID != clip.ID {
		t.Fatalf("clips = %+v", clips)
	}

	reminder, err := client.AddReminder(ctx, "reply to reviewer", "rebuttal deadline", "medium")
	if err != nil {
		t.Fatalf("add reminder: %v", err)
	}
	if err := client.SetReminderDone(ctx, reminder.ID, true); err != nil {
		t.Fatalf("mark reminder done: %v", err)
	}
	pending, err := client.ListReminders(ctx, true)
	if err != nil {
		t.Fatalf("list reminders: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending reminders = %+v, want none", pending)
	}

	goal, err := client.AddGoal(ctx, "finish survey draft", nil)
	if err != nil {
		t.Fatalf("add goal: %v", err)
	}
	if err := client.CompleteGoal(ctx, goal.ID); err != nil {
		t.Fatalf("complete goal: %v", err)
	}
	goals, err := client.ListGoals(ctx, "completed")
	if err != nil {
		t.Fatalf("list goals: %v", err)
	}
	if len(goals) != 1 || goals[0].Status != "completed" {
		t.Fatalf("goals = %+v, want one completed", goals)
	}
}
