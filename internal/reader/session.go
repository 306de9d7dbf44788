package reader

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Store is the durable tier a session writes through.
type Store interface {
	PageStore
	NotesStore
}

// SessionConfig describes one paper being opened for reading.
type SessionConfig struct {
	PaperID string
	// StartPage is the durable record's position, nil when the paper has
	// never been opened.
	StartPage *int
	// Notes is the durable outcome text at open time.
	Notes      string
	Store      Store
	Cache      PageCache
	Dispatcher NotesDispatcher
	Debounce   time.Duration
	Logger     *slog.Logger
}

// Session ties a tracker and a notes guard to one open paper.
type Session struct {
	paperID string
	tracker *Tracker
	notes   *NotesGuard

	mu   sync.Mutex
	page int
}

// NewSession opens a session, resolving the starting page from the local
// cache first, the durable record second, page one last.
func NewSession(cfg SessionConfig) *Session {
	return &Session{
		paperID: cfg.PaperID,
		tracker: NewTracker(cfg.PaperID, cfg.Store, cfg.Cache, cfg.Debounce, cfg.Logger),
		notes:   NewNotesGuard(cfg.PaperID, cfg.Store, cfg.Dispatcher, cfg.Notes, cfg.Logger),
		page:    StartingPage(cfg.Cache, cfg.PaperID, cfg.StartPage),
	}
}

// Page returns the current page.
func (s *Session) Page() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// TurnTo moves to page and feeds the tracker. Pages below one clamp to one.
func (s *Session) TurnTo(page int) int {
	if page < 1 {
		page = 1
	}
	s.mu.Lock()
	s.page = page
	s.mu.Unlock()
	s.tracker.PageChanged(page)
	return page
}

// SetNotes replaces the notes buffer.
func (s *Session) SetNotes(text string) {
	s.notes.SetText(text)
}

// Notes returns the notes buffer.
func (s *Session) Notes() string {
	return s.notes.Text()
}

// NotesDirty reports whether the buffer has unsaved edits.
func (s *Session) NotesDirty() bool {
	return s.notes.Dirty()
}

// SaveNotes is the explicit-save exit path.
func (s *Session) SaveNotes(ctx context.Context) error {
	return s.notes.Save(ctx)
}

// NotesSavedAt returns when the last confirmed notes write landed, zero
// when none has this session.
func (s *Session) NotesSavedAt() time.Time {
	return s.notes.SavedAt()
}

// Hidden is called when the session loses visibility: dirty notes are
// written through the normal durable path.
func (s *Session) Hidden(ctx context.Context) error {
	return s.notes.Hidden(ctx)
}

// Close tears the session down: any pending position write is flushed and
// dirty notes go out on the fire-and-forget path.
func (s *Session) Close(ctx context.Context) error {
	s.tracker.Flush()
	return s.notes.Teardown(ctx)
}
