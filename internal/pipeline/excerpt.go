package pipeline

import (
	"regexp"
	"strings"
	"unicode/utf16"
)

// Excerpt length defaults, in UTF-16 code units.
const (
	ListExcerptLength   = 180
	DetailExcerptLength = 220
)

// Ellipsis is appended to truncated excerpts.
const Ellipsis = "…"

// Markup stripping patterns, applied in order.
var (
	excerptFence  = regexp.MustCompile("(?s)```.*?```")
	excerptCode   = regexp.MustCompile("`([^`]+)`")
	excerptLink   = regexp.MustCompile(`\[(.*?)\]\([^)]*\)`)
	excerptMarks  = regexp.MustCompile(`[*_>#-]`)
	excerptSpaces = regexp.MustCompile(`[\s\v\p{Z}\x{FEFF}]+`)
)

// Excerpt returns the summary for a document. A non-blank explicit summary
// is returned trimmed and otherwise untouched. Otherwise the body is reduced to plain text and cut
// to max UTF-16 code units, with Ellipsis appended when anything was cut.
// The result is empty only when nothing remains after stripping.
// max <= 0 disables truncation.
func Excerpt(body, explicit string, max int) string {
	if e := strings.TrimSpace(explicit); e != "" {
		return e
	}

	plain := StripMarkup(body)
	if plain == "" {
		return ""
	}
	if max <= 0 {
		return plain
	}
	if cut, truncated := truncateUTF16(plain, max); truncated {
		return cut + Ellipsis
	}
	return plain
}

// StripMarkup reduces Markdown to a single line of plain text:
// fenced blocks are removed, inline code and link text are kept,
// emphasis and structural markers become spaces, whitespace collapses.
func StripMarkup(body string) string {
	s := excerptFence.ReplaceAllString(body, "")
	s = excerptCode.ReplaceAllString(s, "$1")
	s = excerptLink.ReplaceAllString(s, "$1")
	s = excerptMarks.ReplaceAllString(s, " ")
	s = excerptSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// truncateUTF16 cuts s so that it spans at most max UTF-16 code units
// without splitting a surrogate pair.
func truncateUTF16(s string, max int) (string, bool) {
	units := 0
	for i, r := range s {
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		if units+n > max {
			return s[:i], true
		}
		units += n
	}
	return s, false
}

// UTF16Len reports the length of s in UTF-16 code units.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}
