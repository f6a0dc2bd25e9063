// Package textutil provides byte-safe truncation and normalisation helpers
// shared by chunking, embedding and ranking.
package textutil

import (
	"path/filepath"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TruncateBytes returns the longest prefix of s that is at most maxBytes
// long and never splits a multi-byte character. A non-positive maxBytes
// yields "".
func TruncateBytes(s string, maxBytes int) string {
	if maxBytes <= 0 {
		return ""
	}
	if len(s) <= maxBytes {
		return s
	}

	// boundaries[k] is the byte length of the first k characters.
	boundaries := make([]int, 0, maxBytes+1)
	for i := range s {
		if i > maxBytes {
			break
		}
		boundaries = append(boundaries, i)
	}
	boundaries = append(boundaries, len(s))

	// Largest k whose encoded prefix fits the budget.
	k := sort.Search(len(boundaries), func(k int) bool {
		return boundaries[k] > maxBytes
	}) - 1
	return s[:boundaries[k]]
}

// TruncateRunes caps s at maxRunes runes, appending suffix when cut.
func TruncateRunes(s string, maxRunes int, suffix string) string {
	if maxRunes <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	n := 0
	for i := range s {
		if n == maxRunes {
			return s[:i] + suffix
		}
		n++
	}
	return s
}

// NormalizeTitle lowercases a title, strips punctuation and collapses
// whitespace. "Miranda v. Arizona" and "miranda v arizona" normalise to
// the same key.
func NormalizeTitle(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	space := false
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		case unicode.IsSpace(r):
			space = true
		}
	}
	return b.String()
}

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "in": {}, "is": {}, "it": {}, "of": {},
	"on": {}, "or": {}, "the": {}, "to": {}, "was": {}, "what": {}, "when": {},
	"with": {}, "does": {}, "do": {}, "how": {}, "can": {},
}

// QueryTerms splits a query into unique lowercase terms, dropping
// stopwords and single characters. Order of first appearance is kept.
func QueryTerms(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]struct{}, len(fields))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) < 2 {
			continue
		}
		if _, stop := stopwords[f]; stop {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
	}
	return terms
}

// ContainsFold reports whether substr is within s, ignoring case.
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// TitleFromPath derives a display title from a file name: the extension is
// dropped and underscores and dashes become spaces.
func TitleFromPath(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	return strings.Join(strings.Fields(name), " ")
}

// CleanText normalises line endings, drops a leading byte order mark and
// replaces invalid UTF-8 sequences.
func CleanText(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.ToValidUTF8(s, "\uFFFD")
}
