package metadata

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"margin/internal/logging"
)

const (
	defaultArxivBaseURL           = "https://export.arxiv.org/api/query"
	defaultSemanticScholarBaseURL = "https://api.semanticscholar.org/graph/v1"
	defaultUserAgent              = "margin/1.0"
	defaultTimeout                = 10 * time.Second
	defaultRequestsPerSecond      = 2.0

	maxBodyBytes = 4 << 20
)

// Options configures a Resolver. Zero values fall back to production
// defaults; base URLs are overridable so tests can point at local servers.
type Options struct {
	ArxivBaseURL           string
	SemanticScholarBaseURL string
	UserAgent              string
	Timeout                time.Duration
	RequestsPerSecond      float64
	HTTPClient             *http.Client
	Logger                 *slog.Logger
}

// Resolver fills in paper metadata for a URL by consulting sources in
// order: the arXiv export API for recognized arXiv URLs, then Semantic
// Scholar, then the page's own OpenGraph tags.
type Resolver struct {
	strategies []strategy
	logger     *slog.Logger
}

// strategy is one source in the resolution chain.
type strategy interface {
	name() string
	applies(url string) bool
	fetch(ctx context.Context, url string) (Metadata, error)
}

// New builds a Resolver from opts.
func New(opts Options) *Resolver {
	if opts.ArxivBaseURL == "" {
		opts.ArxivBaseURL = defaultArxivBaseURL
	}
	if opts.SemanticScholarBaseURL == "" {
		opts.SemanticScholarBaseURL = defaultSemanticScholarBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = defaultRequestsPerSecond
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	fetcher := &fetcher{
		httpClient: httpClient,
		userAgent:  opts.UserAgent,
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
	}
	return &Resolver{
		strategies: []strategy{
			&arxivStrategy{fetcher: fetcher, baseURL: opts.ArxivBaseURL},
			&semanticScholarStrategy{fetcher: fetcher, baseURL: opts.SemanticScholarBaseURL},
			&opengraphStrategy{fetcher: fetcher},
		},
		logger: logging.NewComponentLogger(opts.Logger, "metadata"),
	}
}

// Resolve consults sources in order until a title is known, merging fields
// as it goes. It never returns an error: source failures are logged and the
// chain moves on, and a URL nothing recognizes yields an empty Metadata.
func (r *Resolver) Resolve(ctx context.Context, url string) Metadata {
	var result Metadata
	for _, s := range r.strategies {
		if result.Title != nil {
			break
		}
		if !s.applies(url) {
			continue
		}
		found, err := s.fetch(ctx, url)
		if err != nil {
			r.logger.Warn("metadata source failed",
				logging.String("source", s.name()),
				logging.String("url", url),
				logging.Error(err))
			continue
		}
		result.merge(found)
	}
	return result
}

// fetcher is the shared HTTP plumbing behind every strategy: one client,
// one user agent, one request-rate budget.
type fetcher struct {
	httpClient *http.Client
	userAgent  string
	limiter    *rate.Limiter
}

// get performs a rate-limited GET and returns the body for 2xx responses.
func (f *fetcher) get(ctx context.Context, url string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
