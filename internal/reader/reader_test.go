package reader_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"margin/internal/reader"
)

type fakeStore struct {
	mu       sync.Mutex
	pages    []int
	notes    []string
	notesErr error
}

func (f *fakeStore) SavePage(_ context.Context, _ string, page int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages = append(f.pages, page)
	return nil
}

func (f *fakeStore) SaveNotes(_ context.Context, _ string, notes string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.notesErr != nil {
		return f.notesErr
	}
	f.notes = append(f.notes, notes)
	return nil
}

func (f *fakeStore) savedPages() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.pages...)
}

func (f *fakeStore) savedNotes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.notes...)
}

type fakeCache struct {
	mu    sync.Mutex
	pages map[string]int
}

func newFakeCache() *fakeCache {
	return &fakeCache{pages: map[string]int{}}
}

func (f *fakeCache) Lookup(paperID string) (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	page, ok := f.pages[paperID]
	return page, ok
}

func (f *fakeCache) Store(paperID string, page int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[paperID] = page
	return nil
}

type fakeDispatcher struct {
	mu    sync.Mutex
	sent  []string
	calls int
}

func (f *fakeDispatcher) DispatchNotes(_ string, notes string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.sent = append(f.sent, notes)
}

const testDebounce = 40 * time.Millisecond

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never met")
}

func TestTrackerCoalescesRapidTurns(t *testing.T) {
	store := &fakeStore{}
	cache := newFakeCache()
	tracker := reader.NewTracker("p1", store, cache, testDebounce, nil)

	for page := 2; page <= 9; page++ {
		tracker.PageChanged(page)
	}

	waitFor(t, func() bool { return len(store.savedPages()) > 0 })
	if got := store.savedPages(); len(got) != 1 || got[0] != 9 {
		t.Fatalf("durable writes = %v, want a single write of 9", got)
	}
	// Every turn hit the fast tier even though only one write went durable.
	if page, ok := cache.Lookup("p1"); !ok || page != 9 {
		t.Fatalf("cache = %d,%v", page, ok)
	}
}

func TestTrackerSeparatedTurnsEachPersist(t *testing.T) {
	store := &fakeStore{}
	tracker := reader.NewTracker("p1", store, newFakeCache(), testDebounce, nil)

	tracker.PageChanged(3)
	waitFor(t, func() bool { return len(store.savedPages()) == 1 })
	tracker.PageChanged(4)
	waitFor(t, func() bool { return len(store.savedPages()) == 2 })

	if got := store.savedPages(); got[0] != 3 || got[1] != 4 {
		t.Fatalf("durable writes = %v", got)
	}
}

func TestTrackerFlushWritesImmediately(t *testing.T) {
	store := &fakeStore{}
	tracker := reader.NewTracker("p1", store, newFakeCache(), time.Hour, nil)

	tracker.PageChanged(7)
	tracker.Flush()

	if got := store.savedPages(); len(got) != 1 || got[0] != 7 {
		t.Fatalf("durable writes = %v, want [7]", got)
	}
	// Nothing pending anymore; a second flush is a no-op.
	tracker.Flush()
	if got := store.savedPages(); len(got) != 1 {
		t.Fatalf("flush repeated the write: %v", got)
	}
}

func TestTrackerClampsPageFloor(t *testing.T) {
	store := &fakeStore{}
	cache := newFakeCache()
	tracker := reader.NewTracker("p1", store, cache, time.Hour, nil)

	tracker.PageChanged(0)
	tracker.Flush()

	if got := store.savedPages(); len(got) != 1 || got[0] != 1 {
		t.Fatalf("durable writes = %v, want [1]", got)
	}
	if page, _ := cache.Lookup("p1"); page != 1 {
		t.Fatalf("cache page = %d, want 1", page)
	}
}

func TestStartingPagePrecedence(t *testing.T) {
	cache := newFakeCache()
	cache.Store("cached", 12)
	durable := 5

	if got := reader.StartingPage(cache, "cached", &durable); got != 12 {
		t.Fatalf("cache should win, got %d", got)
	}
	if got := reader.StartingPage(cache, "uncached", &durable); got != 5 {
		t.Fatalf("durable should win without cache, got %d", got)
	}
	if got := reader.StartingPage(cache, "uncached", nil); got != 1 {
		t.Fatalf("default should be 1, got %d", got)
	}
	if got := reader.StartingPage(nil, "anything", nil); got != 1 {
		t.Fatalf("nil cache default should be 1, got %d", got)
	}
}

func TestNotesHiddenWritesOnceWhenDirty(t *testing.T) {
	store := &fakeStore{}
	guard := reader.NewNotesGuard("p1", store, nil, "draft B", nil)
	guard.SetText("draft A")

	if err := guard.Hidden(context.Background()); err != nil {
		t.Fatalf("hidden: %v", err)
	}
	if got := store.savedNotes(); len(got) != 1 || got[0] != "draft A" {
		t.Fatalf("notes writes = %v, want [draft A]", got)
	}
	// Now clean; a second visibility loss must not write again.
	if err := guard.Hidden(context.Background()); err != nil {
		t.Fatalf("hidden: %v", err)
	}
	if got := store.savedNotes(); len(got) != 1 {
		t.Fatalf("redundant write issued: %v", got)
	}
}

func TestNotesCleanExitPathsWriteNothing(t *testing.T) {
	store := &fakeStore{}
	dispatcher := &fakeDispatcher{}
	guard := reader.NewNotesGuard("p1", store, dispatcher, "same", nil)
	guard.SetText("same")

	if err := guard.Hidden(context.Background()); err != nil {
		t.Fatalf("hidden: %v", err)
	}
	if err := guard.Teardown(context.Background()); err != nil {
		t.Fatalf("teardown: %v", err)
	}
	if len(store.savedNotes()) != 0 || dispatcher.calls != 0 {
		t.Fatalf("clean guard wrote: store=%v dispatcher=%d", store.savedNotes(), dispatcher.calls)
	}
}

func TestNotesTeardownUsesDispatcher(t *testing.T) {
	store := &fakeStore{}
	dispatcher := &fakeDispatcher{}
	guard := reader.NewNotesGuard("p1", store, dispatcher, "", nil)
	guard.SetText("closing thoughts")

	if err := guard.Teardown(context.Background()); err != nil {
		t.Fatalf("teardown: %v", err)
	}
	if len(store.savedNotes()) != 0 {
		t.Fatalf("teardown used the round-trip store: %v", store.savedNotes())
	}
	if dispatcher.calls != 1 || dispatcher.sent[0] != "closing thoughts" {
		t.Fatalf("dispatcher calls=%d sent=%v", dispatcher.calls, dispatcher.sent)
	}
}

func TestNotesFailedWriteStaysDirty(t *testing.T) {
	store := &fakeStore{notesErr: context.DeadlineExceeded}
	guard := reader.NewNotesGuard("p1", store, nil, "old", nil)
	guard.SetText("new")

	if err := guard.Save(context.Background()); err == nil {
		t.Fatal("expected save error")
	}
	if !guard.Dirty() {
		t.Fatal("failed write must leave the guard dirty")
	}

	store.mu.Lock()
	store.notesErr = nil
	store.mu.Unlock()
	if err := guard.Hidden(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if guard.Dirty() {
		t.Fatal("successful retry should clear dirtiness")
	}
}

func TestNotesSaveRecordsTimestamp(t *testing.T) {
	store := &fakeStore{notesErr: context.DeadlineExceeded}
	guard := reader.NewNotesGuard("p1", store, nil, "", nil)
	guard.SetText("findings")

	if !guard.SavedAt().IsZero() {
		t.Fatal("no save has happened yet")
	}
	if err := guard.Save(context.Background()); err == nil {
		t.Fatal("expected save error")
	}
	if !guard.SavedAt().IsZero() {
		t.Fatal("failed write must not record a save time")
	}

	store.mu.Lock()
	store.notesErr = nil
	store.mu.Unlock()
	before := time.Now()
	if err := guard.Save(context.Background()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved := guard.SavedAt(); saved.Before(before) {
		t.Fatalf("save time %v predates the write", saved)
	}
}

func TestNotesRevertedTextStillCountsDirty(t *testing.T) {
	store := &fakeStore{}
	guard := reader.NewNotesGuard("p1", store, nil, "baseline", nil)
	guard.SetText("edited")
	if err := guard.Save(context.Background()); err != nil {
		t.Fatalf("save: %v", err)
	}
	// Restoring the original text differs from the new durable baseline, so
	// it must persist again.
	guard.SetText("baseline")
	if !guard.Dirty() {
		t.Fatal("reverted text should be dirty against the new baseline")
	}
}

func TestSessionLifecycle(t *testing.T) {
	store := &fakeStore{}
	cache := newFakeCache()
	dispatcher := &fakeDispatcher{}
	durable := 4

	session := reader.NewSession(reader.SessionConfig{
		PaperID:    "p1",
		StartPage:  &durable,
		Notes:      "draft",
		Store:      store,
		Cache:      cache,
		Dispatcher: dispatcher,
		Debounce:   time.Hour,
	})

	if session.Page() != 4 {
		t.Fatalf("starting page = %d, want 4", session.Page())
	}
	session.TurnTo(6)
	session.SetNotes("draft plus")
	if err := session.SaveNotes(context.Background()); err != nil {
		t.Fatalf("save notes: %v", err)
	}
	if session.NotesSavedAt().IsZero() {
		t.Fatal("explicit save should record a save time")
	}
	session.SetNotes("draft plus more")
	if err := session.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}

	if got := store.savedPages(); len(got) != 1 || got[0] != 6 {
		t.Fatalf("close did not flush position: %v", got)
	}
	if got := store.savedNotes(); len(got) != 1 || got[0] != "draft plus" {
		t.Fatalf("explicit save did not persist: %v", got)
	}
	if dispatcher.calls != 1 || dispatcher.sent[0] != "draft plus more" {
		t.Fatalf("close did not dispatch notes: %v", dispatcher.sent)
	}
}
