package main

import (
	"strings"
	"testing"
)

func TestHumanizeLabel(t *testing.T) {
	cases := map[string]string{
		"to_read":  "To Read",
		"reading":  "Reading",
		"ditched":  "Ditched",
		"papers":   "Papers",
		"  high  ": "High",
		"":         "",
	}
	for in, want := range cases {
		if got := humanizeLabel(in); got != want {
			t.Errorf("humanizeLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate(short, 10) = %q", got)
	}
	got := truncate("a very long paper title indeed", 10)
	if len([]rune(got)) != 10 {
		t.Errorf("truncated length = %d, want 10", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("truncated value %q lacks ellipsis", got)
	}
}

func TestShortID(t *testing.T) {
	full := "0b2d74f1-9c3e-4a8f-8f5e-1d2c3b4a5f60"
	if got := shortID(full); got != "0b2d74f1" {
		t.Errorf("shortID = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Errorf("shortID(abc) = %q", got)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable(
		[]string{"ID", "Title", "Status"},
		[][]string{{"1", "only two"}},
		nil,
	)
	if !strings.Contains(out, "only two") {
		t.Fatalf("table output missing row content:\n%s", out)
	}
	if !strings.Contains(out, "Status") {
		t.Fatalf("table output missing header:\n%s", out)
	}
}

func TestResolveIDPrefixMatching(t *testing.T) {
	ids := []string{"abc123", "abd456", "zzz789"}
	list := func() ([]string, error) { return ids, nil }

	if got, err := resolveID("zzz", "paper", list); err != nil || got != "zzz789" {
		t.Errorf("resolveID(zzz) = %q, %v", got, err)
	}
	if got, err := resolveID("abc123", "paper", list); err != nil || got != "abc123" {
		t.Errorf("resolveID(exact) = %q, %v", got, err)
	}
	if _, err := resolveID("ab", "paper", list); err == nil {
		t.Error("ambiguous prefix should error")
	}
	if _, err := resolveID("nope", "paper", list); err == nil {
		t.Error("unknown prefix should error")
	}
}
