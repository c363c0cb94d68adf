package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Highlighter defaults.
const (
	DefaultLightTheme = "github"
	DefaultDarkTheme  = "github-dark"
	defaultLanguage   = "text"
)

// DefaultLanguages is the language allow-list used when none is configured.
var DefaultLanguages = []string{"javascript", "typescript", "tsx", "bash", "json", "markdown", "text"}

var (
	// ErrHighlightFailure marks a code block that was left unhighlighted.
	ErrHighlightFailure = errors.New("code block not highlighted")

	// ErrUnknownTheme is returned when a configured theme does not exist.
	ErrUnknownTheme = errors.New("unknown highlight theme")
)

// Highlighter renders fenced code blocks as static dual-theme HTML.
// It is immutable after construction and safe for concurrent use.
type Highlighter struct {
	light     *chroma.Style
	dark      *chroma.Style
	languages map[string]bool
	formatter *chromahtml.Formatter
}

type highlightConfig struct {
	light     string
	dark      string
	languages []string
}

// HighlightOption configures a Highlighter.
type HighlightOption func(*highlightConfig)

// WithThemes sets the light and dark chroma style names.
// Empty names keep the defaults.
func WithThemes(light, dark string) HighlightOption {
	return func(c *highlightConfig) {
		if light != "" {
			c.light = light
		}
		if dark != "" {
			c.dark = dark
		}
	}
}

// WithLanguages replaces the language allow-list. An empty list keeps the default.
func WithLanguages(langs ...string) HighlightOption {
	return func(c *highlightConfig) {
		if len(langs) > 0 {
			c.languages = langs
		}
	}
}

// NewHighlighter builds a Highlighter. Unknown themes fail with ErrUnknownTheme.
func NewHighlighter(opts ...HighlightOption) (*Highlighter, error) {
	cfg := highlightConfig{
		light:     DefaultLightTheme,
		dark:      DefaultDarkTheme,
		languages: DefaultLanguages,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	light, ok := styles.Registry[cfg.light]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTheme, cfg.light)
	}
	dark, ok := styles.Registry[cfg.dark]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTheme, cfg.dark)
	}

	langs := make(map[string]bool, len(cfg.languages))
	for _, l := range cfg.languages {
		langs[strings.ToLower(strings.TrimSpace(l))] = true
		if lexer := lexers.Get(l); lexer != nil {
			langs[strings.ToLower(lexer.Config().Name)] = true
		}
	}

	return &Highlighter{
		light:     light,
		dark:      dark,
		languages: langs,
		formatter: chromahtml.New(chromahtml.TabWidth(2)),
	}, nil
}

var (
	defaultHighlighterOnce sync.Once
	defaultHighlighter     *Highlighter
)

// DefaultHighlighter returns the process-wide highlighter with default themes
// and languages. It is built on first use and shared afterwards.
func DefaultHighlighter() *Highlighter {
	defaultHighlighterOnce.Do(func() {
		h, err := NewHighlighter()
		if err != nil {
			panic(fmt.Sprintf("pipeline: default highlighter: %v", err))
		}
		defaultHighlighter = h
	})
	return defaultHighlighter
}

// Themes lists the available highlight theme names, sorted.
func Themes() []string {
	return styles.Names()
}

// Supports reports whether lang is on the allow-list. A fence tag is
// resolved to its lexer first, so aliases such as "js", "sh" or "md" are
// accepted whenever their language is listed.
func (h *Highlighter) Supports(lang string) bool {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if h.languages[lang] {
		return true
	}
	if lang == "" {
		return false
	}
	lexer := lexers.Get(lang)
	if lexer == nil {
		return false
	}
	cfg := lexer.Config()
	if h.languages[strings.ToLower(cfg.Name)] {
		return true
	}
	for _, alias := range cfg.Aliases {
		if h.languages[strings.ToLower(alias)] {
			return true
		}
	}
	return false
}

// Highlight replaces every recognised fenced block in body with a dual-theme
// HTML block. Blocks with an unsupported language, a formatter failure, or
// no closing fence are left byte-for-byte unchanged and reported in
// failures, each wrapping ErrHighlightFailure. The replacement keeps the
// block's line count so later positions still point at the authored body.
func (h *Highlighter) Highlight(body string) (string, []error) {
	lines := strings.SplitAfter(body, "\n")
	var out strings.Builder
	out.Grow(len(body))
	var failures []error

	for i := 0; i < len(lines); i++ {
		fence, ok := openFence(lines[i])
		if !ok {
			out.WriteString(lines[i])
			continue
		}

		end := -1
		for j := i + 1; j < len(lines); j++ {
			if fence.closedBy(lines[j]) {
				end = j
				break
			}
		}
		if end < 0 {
			failures = append(failures, fmt.Errorf("%w: line %d: unterminated fence", ErrHighlightFailure, i+1))
			for _, l := range lines[i:] {
				out.WriteString(l)
			}
			break
		}

		block := strings.Join(lines[i:end+1], "")
		lang := fence.language()
		if lang == "" {
			lang = defaultLanguage
		}
		var content strings.Builder
		for _, l := range lines[i+1 : end] {
			content.WriteString(fence.dedent(l))
		}
		code := strings.TrimSpace(content.String())

		rendered, err := h.render(code, lang)
		if err != nil {
			failures = append(failures, fmt.Errorf("%w: line %d: %v", ErrHighlightFailure, i+1, err))
			out.WriteString(block)
		} else {
			out.WriteString(rendered)
			out.WriteString(padLines(strings.Count(block, "\n")))
		}
		i = end
	}

	return out.String(), failures
}

// padLines returns the newlines that follow a one-line replacement so the
// block keeps n line breaks, with at least one blank line after it.
func padLines(n int) string {
	if n < 2 {
		n = 2
	}
	return strings.Repeat("\n", n)
}

// render produces the dual-theme wrapper on a single line.
func (h *Highlighter) render(code, lang string) (string, error) {
	if !h.Supports(lang) {
		return "", fmt.Errorf("unsupported language %q", lang)
	}
	lexer := lexers.Get(lang)
	if lexer == nil {
		return "", fmt.Errorf("no lexer for %q", lang)
	}
	lexer = chroma.Coalesce(lexer)

	dark, err := h.format(lexer, h.dark, code)
	if err != nil {
		return "", err
	}
	light, err := h.format(lexer, h.light, code)
	if err != nil {
		return "", err
	}

	return `<div class="code-block not-prose"><div class="hidden dark:block">` + dark +
		`</div><div class="dark:hidden">` + light + `</div></div>`, nil
}

func (h *Highlighter) format(lexer chroma.Lexer, style *chroma.Style, code string) (string, error) {
	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", fmt.Errorf("tokenising: %w", err)
	}
	var buf strings.Builder
	if err := h.formatter.Format(&buf, style, it); err != nil {
		return "", fmt.Errorf("formatting: %w", err)
	}
	// Keep the block on one line so Markdown sees a single HTML block.
	html := strings.TrimRight(buf.String(), "\n")
	return strings.ReplaceAll(html, "\n", "&#10;"), nil
}
