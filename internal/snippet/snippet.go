// Package snippet produces bounded, query-centered excerpts from chunk text.
// Extraction is pure and deterministic: identical inputs always yield
// identical output.
package snippet

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxLength is the excerpt budget in bytes, ellipsis excluded.
const DefaultMaxLength = 300

// Ellipsis marks a window that does not reach the text's start or end.
const Ellipsis = "..."

// NoHint disables the position hint.
const NoHint = -1

// Extract returns an excerpt of at most maxLength bytes centered on the
// first occurrence of any query term. Without a term match the window
// centers on hintPos when given, otherwise on the start of the text.
func Extract(text, query string, maxLength, hintPos int) string {
	if text == "" {
		return ""
	}
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	if len(text) <= maxLength {
		return text
	}

	center := 0
	if at, length := firstTermMatch(text, query); at >= 0 {
		center = at + length/2
	} else if hintPos >= 0 && hintPos < len(text) {
		center = hintPos
	} else {
		// Head of text, trailing ellipsis only.
		end := snapLeft(text, maxLength)
		return strings.TrimRight(text[:end], " ") + Ellipsis
	}

	start := center - maxLength/2
	if start < 0 {
		start = 0
	}
	end := start + maxLength
	if end > len(text) {
		end = len(text)
		start = end - maxLength
	}

	// Shrink to word boundaries so the window never splits a word, unless
	// the window contains no boundary at all. When snapping would collapse
	// the window, keep the rune-safe hard cut.
	s, e := start, end
	if s > 0 {
		s = snapRight(text, s)
	}
	if e < len(text) {
		e = snapLeft(text, e)
	}
	if s < e {
		start, end = s, e
	} else {
		start, end = runeStart(text, start), runeStart(text, end)
	}

	out := strings.TrimSpace(text[start:end])
	if start > 0 {
		out = Ellipsis + out
	}
	if end < len(text) {
		out += Ellipsis
	}
	return out
}

// firstTermMatch scans text case-insensitively for the earliest occurrence
// of any query term, returning its byte offset and length (-1, 0 if none).
// Offsets are measured in text itself, never in a lowercased copy: runes
// whose case mapping changes byte length would shift the window otherwise.
func firstTermMatch(text, query string) (int, int) {
	best, bestLen := -1, 0
	for _, term := range Terms(query) {
		at, length := indexFold(text, term)
		if at >= 0 && (best < 0 || at < best) {
			best, bestLen = at, length
		}
	}
	return best, bestLen
}

// indexFold finds the first case-insensitive occurrence of term (already
// lowercase) in s, returning its byte offset and matched byte length in s,
// or -1, 0.
func indexFold(s, term string) (int, int) {
	for i := range s {
		if length, ok := prefixFold(s[i:], term); ok {
			return i, length
		}
	}
	return -1, 0
}

// prefixFold reports whether s starts with term under rune lowercasing and
// returns the matched byte length in s.
func prefixFold(s, term string) (int, bool) {
	n := 0
	for _, tr := range term {
		r, size := utf8.DecodeRuneInString(s[n:])
		if size == 0 || unicode.ToLower(r) != tr {
			return 0, false
		}
		n += size
	}
	return n, true
}

// Terms tokenizes a query into lowercase terms, splitting on anything that
// is not a letter or digit.
func Terms(query string) []string {
	return strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// snapRight moves a window start forward past a partially included word.
// When the window holds no boundary the original offset is kept, adjusted
// to a rune boundary so the cut never splits a character.
func snapRight(text string, start int) int {
	if start <= 0 || text[start-1] == ' ' || text[start-1] == '\n' {
		return start
	}
	if sp := strings.IndexAny(text[start:], " \n"); sp >= 0 {
		return start + sp + 1
	}
	return runeStart(text, start)
}

// snapLeft moves a window end backward before a partially included word.
func snapLeft(text string, end int) int {
	if end >= len(text) || text[end] == ' ' || text[end] == '\n' {
		return end
	}
	if sp := strings.LastIndexAny(text[:end], " \n"); sp > 0 {
		return sp
	}
	return runeStart(text, end)
}

// runeStart backs an offset up to the nearest UTF-8 rune boundary.
func runeStart(text string, i int) int {
	for i > 0 && !utf8.RuneStart(text[i]) {
		i--
	}
	return i
}
