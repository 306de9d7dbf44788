package metadata

import "strings"

// CleanFunc transforms a raw text field from an upstream source.
type CleanFunc func(string) string

// CleaningPipe composes clean functions left to right.
func CleaningPipe(fns ...CleanFunc) CleanFunc {
	return func(s string) string {
		for _, fn := range fns {
			s = fn(s)
		}
		return s
	}
}

// OneLine collapses all whitespace runs, including newlines, into single
// spaces and trims the result. Upstream feeds wrap titles and abstracts
// across lines.
func OneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// cleanField is the pipe applied to every text field before it is returned.
var cleanField = CleaningPipe(OneLine)

// cleanPtr applies cleanField and returns nil when nothing remains.
func cleanPtr(s string) *string {
	s = cleanField(s)
	if s == "" {
		return nil
	}
	return stringPtr(s)
}
