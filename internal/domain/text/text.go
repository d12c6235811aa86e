// Package text normalizes free text and matches normalized query text
// against item text.
package text

import (
	"strings"

	unidecode "github.com/mozillazg/go-unidecode"
	"golang.org/x/text/unicode/norm"
)

// Clean lower-cases s, trims it, transliterates it to ASCII, removes every
// character outside [a-z ] ([a-z0-9 ] with includeDigits) and collapses space runs.
// Tabs and newlines are removed like any other character.
// Item text and query text go through the same cleaning.
func Clean(s string, includeDigits bool) string {
	folded := transliterate(strings.ToLower(strings.TrimSpace(s)))

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r == ' ':
			b.WriteRune(r)
		case includeDigits && r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// transliterate maps s to ASCII: "é" becomes "e", "ł" becomes "l" and "ß" becomes "ss".
// Decomposed input is composed first so base letter and mark map together.
func transliterate(s string) string {
	return unidecode.Unidecode(norm.NFC.String(s))
}

// MatchesFully reports whether query occurs as a contiguous substring of itemText.
func MatchesFully(itemText, query string) bool {
	return strings.Contains(itemText, query)
}

// MatchesAllTokens reports whether every space-separated token of query occurs
// somewhere in itemText. Tokens match inside larger words; there is no word-boundary check.
func MatchesAllTokens(itemText, query string) bool {
	for _, tok := range strings.Split(query, " ") {
		if !strings.Contains(itemText, tok) {
			return false
		}
	}
	return true
}
