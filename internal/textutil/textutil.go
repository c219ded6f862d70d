// Package textutil holds the canonical text normalization used by every
// ranker: Unicode fold, tokenization and input escaping. All scorers compare
// normalized forms only, so the rules here are load-bearing for ranking.
package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransform decomposes to NFD and drops combining marks, so "Torreón"
// and "Torreon" normalize to the same form.
var foldTransform = runes.Remove(runes.In(unicode.Mn))

// Fold strips diacritics from s. The input is expected to be NFC or NFD;
// output is plain NFD without combining marks.
func Fold(s string) string {
	out, _, err := transform.String(foldTransform, norm.NFD.String(s))
	if err != nil {
		return s
	}
	return out
}

// Normalize produces the canonical search form of s: lowercase, diacritics
// stripped, anything outside [a-z0-9 and whitespace] mapped to space, runs of
// whitespace collapsed, trimmed.
func Normalize(s string) string {
	s = Fold(strings.ToLower(s))
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := true
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			prevSpace = false
		default:
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// Tokens returns the unique non-empty tokens of Normalize(s) in
// first-occurrence order. Order matters for the in-order scorer.
func Tokens(s string) []string {
	fields := strings.Fields(Normalize(s))
	seen := make(map[string]bool, len(fields))
	out := fields[:0]
	for _, f := range fields {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

// TokenSet returns the unique tokens of s as a set.
func TokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range Tokens(s) {
		set[t] = true
	}
	return set
}

// EscapeRegex escapes regex metacharacters in user input so it can be
// embedded in a pattern literally.
func EscapeRegex(s string) string {
	return regexp.QuoteMeta(s)
}

// EscapeLike escapes SQL LIKE wildcards using backslash as the escape
// character; pair with `ESCAPE '\'` in the query.
func EscapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return strings.ReplaceAll(s, `_`, `\_`)
}

var spaceRe = regexp.MustCompile(`\s+`)

// NormalizeSearchTerm collapses and lowercases a raw q parameter. Returns
// "" (and false) for empty or whitespace-only input.
func NormalizeSearchTerm(q string) (string, bool) {
	q = strings.TrimSpace(strings.ToLower(q))
	if q == "" {
		return "", false
	}
	return spaceRe.ReplaceAllString(q, " "), true
}
