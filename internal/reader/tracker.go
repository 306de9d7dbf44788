package reader

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"margin/internal/logging"
)

// DefaultDebounce is how long a page must stay current before it is written
// to the durable tier.
const DefaultDebounce = 1000 * time.Millisecond

// PageStore is the durable tier for reading positions.
type PageStore interface {
	SavePage(ctx context.Context, paperID string, page int) error
}

// PageCache is the fast local tier, written synchronously on every turn.
type PageCache interface {
	Lookup(paperID string) (int, bool)
	Store(paperID string, page int) error
}

// StartingPage resolves where a session opens: the local cache wins, then
// the durable record's position, then page one.
func StartingPage(cache PageCache, paperID string, durable *int) int {
	if cache != nil {
		if page, ok := cache.Lookup(paperID); ok {
			return page
		}
	}
	if durable != nil && *durable >= 1 {
		return *durable
	}
	return 1
}

// Tracker debounces durable position writes for one paper. Each page turn
// replaces any pending write, so rapid turning produces a single durable
// write carrying the final page, and a stale page can never overwrite a
// newer one.
type Tracker struct {
	paperID  string
	store    PageStore
	cache    PageCache
	debounce time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	page    int
	timer   *time.Timer
	pending bool

	// saveMu serializes durable writes so a write carrying an older page can
	// never land after one carrying a newer page.
	saveMu sync.Mutex
}

// NewTracker builds a Tracker. debounce <= 0 selects DefaultDebounce.
func NewTracker(paperID string, store PageStore, cache PageCache, debounce time.Duration, logger *slog.Logger) *Tracker {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Tracker{
		paperID:  paperID,
		store:    store,
		cache:    cache,
		debounce: debounce,
		logger:   logging.NewComponentLogger(logger, "reader"),
	}
}

// PageChanged records a turn to page. The fast tier is written immediately;
// the durable write is scheduled for after the debounce window, replacing
// any write still pending from an earlier turn. Pages below one clamp to
// one.
func (t *Tracker) PageChanged(page int) {
	if page < 1 {
		page = 1
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.page = page
	if t.cache != nil {
		if err := t.cache.Store(t.paperID, page); err != nil {
			t.logger.Warn("local position write failed",
				logging.String(logging.FieldPaperID, t.paperID),
				logging.Error(err))
		}
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	t.pending = true
	t.timer = time.AfterFunc(t.debounce, t.fire)
}

// fire performs the deferred durable write with whatever page is current at
// the moment it runs.
func (t *Tracker) fire() {
	t.saveMu.Lock()
	defer t.saveMu.Unlock()
	t.mu.Lock()
	if !t.pending {
		t.mu.Unlock()
		return
	}
	t.pending = false
	page := t.page
	t.mu.Unlock()
	t.save(page)
}

// Flush writes any pending position immediately and cancels the scheduled
// write. Sessions call it on teardown so the last page turn is not lost to
// the debounce window.
func (t *Tracker) Flush() {
	t.saveMu.Lock()
	defer t.saveMu.Unlock()
	t.mu.Lock()
	if !t.pending {
		t.mu.Unlock()
		return
	}
	t.pending = false
	if t.timer != nil {
		t.timer.Stop()
	}
	page := t.page
	t.mu.Unlock()
	t.save(page)
}

func (t *Tracker) save(page int) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := t.store.SavePage(ctx, t.paperID, page); err != nil {
		t.logger.Warn("durable position write failed",
			logging.String(logging.FieldPaperID, t.paperID),
			logging.Int("page", page),
			logging.Error(err))
	}
}
