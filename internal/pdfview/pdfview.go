// Package pdfview resolves and opens the document for a reading session:
// it rewrites arXiv abstract URLs to their PDF counterparts, downloads a
// local copy through the daemon proxy, hands the file to the system
// viewer, and derives the page count from the document itself.
package pdfview

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/ledongthuc/pdf"

	"margin/internal/logging"
	"margin/internal/metadata"
)

// Fetcher downloads a document. The daemon proxy implements it.
type Fetcher interface {
	FetchPDF(ctx context.Context, url string) ([]byte, error)
}

// PDFURL rewrites a paper URL to the address of its PDF. arXiv abstract
// pages map onto the export PDF endpoint; everything else is assumed to
// already point at the document.
func PDFURL(paperURL string) string {
	if id := metadata.ExtractArxivID(paperURL); id != "" {
		return "https://arxiv.org/pdf/" + id
	}
	return paperURL
}

// Viewer fetches documents into a cache directory and opens them.
type Viewer struct {
	cacheDir string
	fetcher  Fetcher
	logger   *slog.Logger

	// openCommand is swappable for tests.
	openCommand func(path string) *exec.Cmd
}

// NewViewer builds a Viewer writing downloads under cacheDir.
func NewViewer(cacheDir string, fetcher Fetcher, logger *slog.Logger) *Viewer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Viewer{
		cacheDir:    cacheDir,
		fetcher:     fetcher,
		logger:      logging.NewComponentLogger(logger, "pdfview"),
		openCommand: systemOpenCommand,
	}
}

// Fetch downloads the paper's PDF to the cache and returns the local
// path. An existing cached copy is reused.
func (v *Viewer) Fetch(ctx context.Context, paperID, paperURL string) (string, error) {
	if v.fetcher == nil {
		return "", fmt.Errorf("no document fetcher configured")
	}
	if err := os.MkdirAll(v.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create document cache: %w", err)
	}
	path := filepath.Join(v.cacheDir, paperID+".pdf")
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		return path, nil
	}

	target := PDFURL(paperURL)
	v.logger.Debug("downloading document", logging.String(logging.FieldPaperID, paperID), logging.String("url", target))
	data, err := v.fetcher.FetchPDF(ctx, target)
	if err != nil {
		return "", fmt.Errorf("download document: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write document: %w", err)
	}
	return path, nil
}

// Open hands a local document to the system viewer without waiting for
// the viewer to exit.
func (v *Viewer) Open(path string) error {
	cmd := v.openCommand(path)
	if cmd == nil {
		return fmt.Errorf("no system viewer available")
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open document: %w", err)
	}
	return cmd.Process.Release()
}

// PageCount reads the page count from a local PDF file.
func PageCount(path string) (int, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open pdf: %w", err)
	}
	defer file.Close()
	pages := reader.NumPage()
	if pages <= 0 {
		return 0, fmt.Errorf("document reports no pages")
	}
	return pages, nil
}

func systemOpenCommand(path string) *exec.Cmd {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", path)
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", path)
	default:
		if _, err := exec.LookPath("xdg-open"); err != nil {
			return nil
		}
		return exec.Command("xdg-open", path)
	}
}
