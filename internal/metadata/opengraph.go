package metadata

import (
	"context"
	"html"
	"regexp"
)

// The tag regexes tolerate both attribute orders: property before content
// and content before property. Real pages emit both.
var (
	ogTitlePatterns = []*regexp.Regexp{
		regexp.MustCompile(`<meta[^>]*property="og:title"[^>]*content="([^"]*)"`),
		regexp.MustCompile(`<meta[^>]*content="([^"]*)"[^>]*property="og:title"`),
		regexp.MustCompile(`<title[^>]*>([^<]*)</title>`),
	}
	ogDescriptionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`<meta[^>]*property="og:description"[^>]*content="([^"]*)"`),
		regexp.MustCompile(`<meta[^>]*content="([^"]*)"[^>]*property="og:description"`),
		regexp.MustCompile(`<meta[^>]*name="description"[^>]*content="([^"]*)"`),
		regexp.MustCompile(`<meta[^>]*content="([^"]*)"[^>]*name="description"`),
	}
)

type opengraphStrategy struct {
	fetcher *fetcher
}

func (s *opengraphStrategy) name() string { return "opengraph" }

func (s *opengraphStrategy) applies(string) bool { return true }

// fetch downloads the page itself and scrapes OpenGraph tags, falling back
// to the plain <title> and description meta tags. No authors here.
func (s *opengraphStrategy) fetch(ctx context.Context, rawURL string) (Metadata, error) {
	body, err := s.fetcher.get(ctx, rawURL)
	if err != nil {
		return Metadata{}, err
	}
	page := string(body)
	return Metadata{
		Title:    firstMatch(ogTitlePatterns, page),
		Abstract: firstMatch(ogDescriptionPatterns, page),
	}, nil
}

func firstMatch(patterns []*regexp.Regexp, page string) *string {
	for _, pattern := range patterns {
		if m := pattern.FindStringSubmatch(page); m != nil {
			if value := cleanPtr(html.UnescapeString(m[1])); value != nil {
				return value
			}
		}
	}
	return nil
}
