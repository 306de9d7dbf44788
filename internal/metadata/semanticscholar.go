package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

type semanticScholarStrategy struct {
	fetcher *fetcher
	baseURL string
}

func (s *semanticScholarStrategy) name() string { return "semanticscholar" }

// Semantic Scholar's URL lookup covers any paper it has indexed, so the
// strategy applies to every URL and lets the response decide.
func (s *semanticScholarStrategy) applies(string) bool { return true }

type semanticScholarPaper struct {
	Title   string `json:"title"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
	Abstract string `json:"abstract"`
}

func (s *semanticScholarStrategy) fetch(ctx context.Context, rawURL string) (Metadata, error) {
	lookup := fmt.Sprintf("%s/paper/URL:%s?fields=title,authors,abstract",
		s.baseURL, url.QueryEscape(rawURL))
	body, err := s.fetcher.get(ctx, lookup)
	if err != nil {
		return Metadata{}, err
	}
	var paper semanticScholarPaper
	if err := json.Unmarshal(body, &paper); err != nil {
		return Metadata{}, fmt.Errorf("decode response: %w", err)
	}
	names := make([]string, 0, len(paper.Authors))
	for _, a := range paper.Authors {
		if name := cleanField(a.Name); name != "" {
			names = append(names, name)
		}
	}
	var authors *string
	if len(names) > 0 {
		authors = stringPtr(strings.Join(names, ", "))
	}
	return Metadata{
		Title:    cleanPtr(paper.Title),
		Authors:  authors,
		Abstract: cleanPtr(paper.Abstract),
	}, nil
}
