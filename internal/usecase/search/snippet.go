package search

import (
	"strings"
	"unicode/utf8"
)

// Snippet truncates text to at most maxChars bytes of content, cutting
// on a word boundary so no token is split, and appends an ellipsis when
// anything was removed.
func Snippet(text string, maxChars int) string {
	if maxChars <= 0 || len(text) <= maxChars {
		return text
	}

	cut := text[:maxChars]
	// Back off to a rune boundary first, then to the last word break.
	for len(cut) > 0 && !utf8.RuneStart(text[len(cut)]) {
		cut = cut[:len(cut)-1]
	}
	if i := strings.LastIndexAny(cut, " \t\n"); i > 0 {
		cut = cut[:i]
	} else if j := strings.IndexAny(text, " \t\n"); j > 0 {
		// The first word alone overflows the budget; keep it whole
		// rather than splitting it mid-token.
		cut = text[:j]
	} else {
		return text
	}
	return strings.TrimRight(cut, " \t\n") + "..."
}
