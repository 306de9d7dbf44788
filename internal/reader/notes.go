package reader

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"margin/internal/logging"
)

// NotesStore is the durable tier for notes.
type NotesStore interface {
	SaveNotes(ctx context.Context, paperID string, notes string) error
}

// NotesDispatcher is the fire-and-forget path used at teardown, when the
// session cannot wait on a full round trip. Initiation is guaranteed,
// completion is not.
type NotesDispatcher interface {
	DispatchNotes(paperID string, notes string)
}

// NotesGuard keeps an editing buffer and the last text known to have been
// durably written, and persists the buffer whenever a session path would
// otherwise lose it. Dirtiness is plain string inequality, so a save that
// restores earlier text still counts as a change to persist.
type NotesGuard struct {
	paperID    string
	store      NotesStore
	dispatcher NotesDispatcher
	logger     *slog.Logger

	mu      sync.Mutex
	current string
	durable string
	savedAt time.Time
}

// NewNotesGuard builds a guard seeded with the durably stored text. The
// dispatcher is optional; without one, teardown falls back to a normal
// store write.
func NewNotesGuard(paperID string, store NotesStore, dispatcher NotesDispatcher, durable string, logger *slog.Logger) *NotesGuard {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &NotesGuard{
		paperID:    paperID,
		store:      store,
		dispatcher: dispatcher,
		logger:     logging.NewComponentLogger(logger, "reader"),
		current:    durable,
		durable:    durable,
	}
}

// SetText replaces the editing buffer.
func (g *NotesGuard) SetText(text string) {
	g.mu.Lock()
	g.current = text
	g.mu.Unlock()
}

// Text returns the editing buffer.
func (g *NotesGuard) Text() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// Dirty reports whether the buffer differs from the last durable write.
func (g *NotesGuard) Dirty() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current != g.durable
}

// Save persists the buffer unconditionally. On success the saved text
// becomes the durable baseline; on failure the baseline is untouched, so
// the guard stays dirty and a later exit path retries.
func (g *NotesGuard) Save(ctx context.Context) error {
	g.mu.Lock()
	snapshot := g.current
	g.mu.Unlock()
	if err := g.store.SaveNotes(ctx, g.paperID, snapshot); err != nil {
		g.logger.Warn("notes write failed",
			logging.String(logging.FieldPaperID, g.paperID),
			logging.Error(err))
		return err
	}
	g.mu.Lock()
	g.durable = snapshot
	g.savedAt = time.Now()
	g.mu.Unlock()
	return nil
}

// SavedAt returns when the last confirmed durable write landed, zero when
// no save has succeeded this session. Teardown dispatches never advance
// it: their completion is unobserved.
func (g *NotesGuard) SavedAt() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.savedAt
}

// Hidden is the exit path for a session losing focus: it saves only when
// the buffer is dirty.
func (g *NotesGuard) Hidden(ctx context.Context) error {
	return g.saveIfDirty(ctx)
}

// Teardown is the exit path for a session closing. When the buffer is
// dirty it hands the text to the fire-and-forget dispatcher, which starts
// delivery without waiting on it. The durable baseline is not advanced: the
// write's completion cannot be observed.
func (g *NotesGuard) Teardown(ctx context.Context) error {
	if !g.Dirty() {
		return nil
	}
	if g.dispatcher == nil {
		return g.Save(ctx)
	}
	g.mu.Lock()
	snapshot := g.current
	g.mu.Unlock()
	g.dispatcher.DispatchNotes(g.paperID, snapshot)
	return nil
}

func (g *NotesGuard) saveIfDirty(ctx context.Context) error {
	if !g.Dirty() {
		return nil
	}
	return g.Save(ctx)
}
