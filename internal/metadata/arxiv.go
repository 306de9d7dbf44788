package metadata

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// arXiv URLs come in two shapes: the modern numeric scheme
// (arxiv.org/abs/2301.01234, optionally with a version suffix) and the old
// archive-prefixed scheme (arxiv.org/abs/cond-mat/9901234).
var (
	arxivNewID = regexp.MustCompile(`(\d{4}\.\d{4,5})(?:v\d+)?`)
	arxivOldID = regexp.MustCompile(`abs/([a-z-]+/\d+)`)
)

// ExtractArxivID pulls the arXiv identifier out of a URL, or returns ""
// when the URL is not an arXiv one. Version suffixes are dropped.
func ExtractArxivID(rawURL string) string {
	if !strings.Contains(rawURL, "arxiv.org") {
		return ""
	}
	if m := arxivNewID.FindStringSubmatch(rawURL); m != nil {
		return m[1]
	}
	if m := arxivOldID.FindStringSubmatch(rawURL); m != nil {
		return m[1]
	}
	return ""
}

type arxivStrategy struct {
	fetcher *fetcher
	baseURL string
}

func (s *arxivStrategy) name() string { return "arxiv" }

func (s *arxivStrategy) applies(rawURL string) bool {
	return ExtractArxivID(rawURL) != ""
}

// arxivFeed mirrors the Atom feed the export API returns. Only the fields
// we read are declared.
type arxivFeed struct {
	Entries []struct {
		Title   string `xml:"title"`
		Summary string `xml:"summary"`
		Authors []struct {
			Name string `xml:"name"`
		} `xml:"author"`
	} `xml:"entry"`
}

func (s *arxivStrategy) fetch(ctx context.Context, rawURL string) (Metadata, error) {
	id := ExtractArxivID(rawURL)
	query := fmt.Sprintf("%s?id_list=%s", s.baseURL, url.QueryEscape(id))
	body, err := s.fetcher.get(ctx, query)
	if err != nil {
		return Metadata{}, err
	}
	var feed arxivFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return Metadata{}, fmt.Errorf("decode feed: %w", err)
	}
	if len(feed.Entries) == 0 {
		return Metadata{}, nil
	}
	entry := feed.Entries[0]
	names := make([]string, 0, len(entry.Authors))
	for _, a := range entry.Authors {
		if name := cleanField(a.Name); name != "" {
			names = append(names, name)
		}
	}
	var authors *string
	if len(names) > 0 {
		authors = stringPtr(strings.Join(names, ", "))
	}
	return Metadata{
		Title:    cleanPtr(entry.Title),
		Authors:  authors,
		Abstract: cleanPtr(entry.Summary),
	}, nil
}
