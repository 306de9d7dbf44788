package pagecache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"margin/internal/logging"
)

// Entry records the last observed reading position for one paper.
type Entry struct {
	PaperID   string    `json:"paper_id"`
	Page      int       `json:"page"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Cache provides thread-safe access to the position cache. If path is
// empty the cache is non-functional and all operations become no-ops.
type Cache struct {
	path    string
	logger  *slog.Logger
	mu      sync.RWMutex
	entries map[string]Entry
}

// New creates a cache instance, loading existing entries when present.
// The cache file is created lazily on first Store call.
func New(path string, logger *slog.Logger) *Cache {
	logger = logging.NewComponentLogger(logger, "pagecache")

	c := &Cache{
		path:    path,
		logger:  logger,
		entries: make(map[string]Entry),
	}

	if path == "" {
		return c
	}

	if err := c.load(); err != nil {
		logger.Warn("failed to load position cache",
			logging.Error(err),
			logging.String("path", path))
	}

	return c
}

// Lookup returns the cached page for the given paper if present.
func (c *Cache) Lookup(paperID string) (int, bool) {
	paperID = strings.TrimSpace(paperID)
	if paperID == "" || c.path == "" {
		return 0, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, found := c.entries[paperID]
	return entry.Page, found
}

// Store records the page for a paper and persists to disk.
func (c *Cache) Store(paperID string, page int) error {
	paperID = strings.TrimSpace(paperID)
	if paperID == "" {
		return errors.New("paper ID cannot be empty")
	}
	if page < 1 {
		page = 1
	}
	if c.path == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[paperID] = Entry{PaperID: paperID, Page: page, UpdatedAt: time.Now().UTC()}

	if err := c.save(); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}

	c.logger.Debug("cached reading position",
		logging.String(logging.FieldPaperID, paperID),
		logging.Int("page", page))

	return nil
}

// Remove drops the entry for a paper. Removing an absent entry is not
// an error (a deleted paper may never have been opened).
func (c *Cache) Remove(paperID string) error {
	paperID = strings.TrimSpace(paperID)
	if paperID == "" || c.path == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[paperID]; !exists {
		return nil
	}
	delete(c.entries, paperID)

	if err := c.save(); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}
	return nil
}

// Count returns the number of cached positions.
func (c *Cache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil // fresh start
		}
		return fmt.Errorf("read cache file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse cache file: %w", err)
	}

	c.entries = make(map[string]Entry, len(entries))
	for _, entry := range entries {
		if strings.TrimSpace(entry.PaperID) != "" && entry.Page >= 1 {
			c.entries[entry.PaperID] = entry
		}
	}
	return nil
}

func (c *Cache) save() error {
	entries := make([]Entry, 0, len(c.entries))
	for _, entry := range c.entries {
		entries = append(entries, entry)
	}

	// Sort for deterministic output
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].PaperID < entries[j].PaperID
	})

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	// Write atomically via temp file
	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
