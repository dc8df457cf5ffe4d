// Package search extracts highlighted context fragments around
// substring matches. It is a pure text transform with no storage
// dependency; the repository feeds it candidate rows found via LIKE.
package search

import (
	"regexp"
	"strings"
)

// MinQueryLength is the shortest query worth running. Anything shorter
// short-circuits to an empty result set so a single keystroke does not
// flood the results view.
const MinQueryLength = 2

const (
	// Synthetic sentinels bound the context window so matches at the
	// text edges never slice out of range.
	startSentinel = "START"
	endSentinel   = "END"

	ellipsis = "…"
)

var (
	leadingSpace  = regexp.MustCompile(`^\s+`)
	trailingSpace = regexp.MustCompile(`\s+$`)
)

// windowPattern matches a query occurrence with up to 50 characters of
// surrounding text on each side, snapped to word boundaries. Windows
// never cross a line break. The query is always escaped: user input is
// never pattern syntax.
func windowPattern(query string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b.{0,50}` + regexp.QuoteMeta(query) + `.{0,50}\b`)
}

func markPattern(query string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(` + regexp.QuoteMeta(query) + `)`)
}

// Fragments returns one highlighted context window per (non-overlapping)
// match of query in text, case-insensitively. Windows clipped by the
// text boundary keep their edge bare; windows cut mid-text get an
// ellipsis on the trimmed side.
func Fragments(query, text string) []string {
	matches := windowPattern(query).FindAllString(startSentinel+text+endSentinel, -1)
	if len(matches) == 0 {
		return nil
	}

	mark := markPattern(query)
	fragments := make([]string, 0, len(matches))
	for _, m := range matches {
		m = " " + m + " "
		m = strings.TrimPrefix(m, " "+startSentinel)
		m = strings.TrimSuffix(m, endSentinel+" ")
		m = leadingSpace.ReplaceAllString(m, ellipsis)
		m = trailingSpace.ReplaceAllString(m, ellipsis)
		fragments = append(fragments, mark.ReplaceAllString(m, "<mark>${1}</mark>"))
	}
	return fragments
}

// Highlight wraps every case-insensitive occurrence of query in s with
// a <mark> span, preserving the original casing.
func Highlight(query, s string) string {
	return markPattern(query).ReplaceAllString(s, "<mark>${1}</mark>")
}
