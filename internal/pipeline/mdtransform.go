package pipeline

import (
	"regexp"
	"strings"
)

// Precompiled regex patterns for performance.
var crlfOrCR = regexp.MustCompile(`\r\n?`)

// NormalizeBody converts \r\n and \r to \n and trims surrounding whitespace.
// All later stages assume a normalised body.
func NormalizeBody(content string) string {
	return strings.TrimSpace(normalizeLineEndings(content))
}

// normalizeLineEndings converts \r\n and \r to \n.
func normalizeLineEndings(content string) string {
	return crlfOrCR.ReplaceAllString(content, "\n")
}
