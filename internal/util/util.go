package util

import (
	"path/filepath"
	"strings"
	"unicode"
)

// CollapseSpace replaces every run of whitespace with a single space and
// trims the result.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate shortens s to at most limit runes, cutting on the last word
// boundary and appending an ellipsis when anything was removed.
// A limit of zero or less returns s unchanged.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	cut := runes[:limit]
	if i := lastSpace(cut); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRightFunc(string(cut), func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	}) + "…"
}

// ReadingMinutes estimates reading time for words at wpm words per minute.
// Any non-empty text takes at least one minute.
func ReadingMinutes(words, wpm int) int {
	if words <= 0 {
		return 0
	}
	if wpm <= 0 {
		wpm = 200
	}
	minutes := (words + wpm - 1) / wpm
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// RelSlash returns target relative to base using forward slashes, or target
// itself when no relative path exists.
func RelSlash(base, target string) string {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return filepath.ToSlash(target)
	}
	return filepath.ToSlash(rel)
}

func lastSpace(r []rune) int {
	for i := len(r) - 1; i >= 0; i-- {
		if unicode.IsSpace(r[i]) {
			return i
		}
	}
	return -1
}
