package pipeline

import (
	"regexp"
	"strings"
)

// Heading is one entry of a document outline.
type Heading struct {
	Level int    `json:"level" yaml:"level"`
	Text  string `json:"text" yaml:"text"`
	ID    string `json:"id" yaml:"id"`
}

var (
	headingLine = regexp.MustCompile(`^(#{2,3})[ \t]+(.+)$`)
	nonAlnum    = regexp.MustCompile(`[^a-z0-9]+`)
)

// Anchor derives the deep-link identifier of a heading: lowercase, each
// run of characters outside [a-z0-9] replaced by one hyphen, then leading
// and trailing hyphens removed. Non-ASCII letters do not survive.
func Anchor(text string) string {
	s := nonAlnum.ReplaceAllString(strings.ToLower(text), "-")
	return strings.Trim(s, "-")
}

// ExtractHeadings returns the level 2 and 3 headings of a body in document
// order. Lines inside fenced code blocks are skipped. Repeated headings
// keep identical anchors; no suffix is added.
func ExtractHeadings(body string) []Heading {
	headings := []Heading{}
	var fence codeFence
	inFence := false

	for _, line := range strings.Split(body, "\n") {
		if inFence {
			if fence.closedBy(line) {
				inFence = false
			}
			continue
		}
		if f, ok := openFence(line); ok {
			fence, inFence = f, true
			continue
		}

		m := headingLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		text := strings.TrimSpace(m[2])
		if text == "" {
			continue
		}
		headings = append(headings, Heading{
			Level: len(m[1]),
			Text:  text,
			ID:    Anchor(text),
		})
	}

	return headings
}
