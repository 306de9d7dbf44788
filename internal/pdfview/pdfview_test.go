package pdfview

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"margin/internal/logging"
)

func TestPDFURLRewritesArxivAbstracts(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://arxiv.org/abs/2103.14030", "https://arxiv.org/pdf/2103.14030"},
		{"https://arxiv.org/abs/2103.14030v2", "https://arxiv.org/pdf/2103.14030"},
		{"https://arxiv.org/abs/cs-lg/0112017", "https://arxiv.org/pdf/cs-lg/0112017"},
		{"https://example.org/paper.pdf", "https://example.org/paper.pdf"},
		{"https://notarxiv.example/abs/2103.14030", "https://notarxiv.example/abs/2103.14030"},
	}
	for _, tc := range cases {
		if got := PDFURL(tc.in); got != tc.want {
			t.Errorf("PDFURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

type fakeFetcher struct {
	calls int
	data  []byte
	err   error
}

func (f *fakeFetcher) FetchPDF(_ context.Context, _ string) ([]byte, error) {
	f.calls++
	return f.data, f.err
}

func TestFetchCachesDownloads(t *testing.T) {
	fetcher := &fakeFetcher{data: []byte("%PDF-1.4 stub")}
	viewer := NewViewer(t.TempDir(), fetcher, logging.NewNop())
	ctx := context.Background()

	first, err := viewer.Fetch(ctx, "paper-1", "https://example.org/doc.pdf")
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	data, err := os.ReadFile(first)
	if err != nil {
		t.Fatalf("read cached file: %v", err)
	}
	if string(data) != "%PDF-1.4 stub" {
		t.Fatalf("cached contents = %q", data)
	}

	second, err := viewer.Fetch(ctx, "paper-1", "https://example.org/doc.pdf")
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if second != first {
		t.Fatalf("second fetch path = %q, want %q", second, first)
	}
	if fetcher.calls != 1 {
		t.Fatalf("fetcher called %d times, want 1", fetcher.calls)
	}
}

func TestFetchPropagatesDownloadError(t *testing.T) {
	fetcher := &fakeFetcher{err: fmt.Errorf("upstream said no")}
	viewer := NewViewer(t.TempDir(), fetcher, logging.NewNop())
	if _, err := viewer.Fetch(context.Background(), "paper-2", "https://example.org/doc.pdf"); err == nil {
		t.Fatal("expected fetch error")
	}
	if entries, err := os.ReadDir(viewer.cacheDir); err != nil || len(entries) != 0 {
		t.Fatalf("failed download must not leave cache entries, got %v (%v)", entries, err)
	}
}

func TestOpenUsesConfiguredCommand(t *testing.T) {
	viewer := NewViewer(t.TempDir(), nil, logging.NewNop())
	opened := ""
	viewer.openCommand = func(path string) *exec.Cmd {
		opened = path
		return exec.Command("true")
	}
	target := filepath.Join(t.TempDir(), "doc.pdf")
	if err := viewer.Open(target); err != nil {
		t.Fatalf("open: %v", err)
	}
	if opened != target {
		t.Fatalf("opened %q, want %q", opened, target)
	}
}
