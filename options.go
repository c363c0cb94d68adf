package nostress

import (
	"time"

	"go.uber.org/zap"

	"github.com/PietroNarcisi/NostressAI/internal/pipeline"
)

// Excerpt length defaults, in UTF-16 code units.
const (
	DefaultListExcerptLength   = pipeline.ListExcerptLength
	DefaultDetailExcerptLength = pipeline.DetailExcerptLength
)

// Option configures a Resolver.
type Option func(*resolverConfig)

// resolverConfig holds construction-time settings for Resolver.
type resolverConfig struct {
	listExcerpt   int
	detailExcerpt int
	logger        *zap.Logger
	now           func() time.Time
	highlighter   Highlighter
	compiler      BodyCompiler
	lightTheme    string
	darkTheme     string
	languages     []string
	assetBaseURL  string
	workers       int
	listCache     bool
}

// WithListExcerptLength sets the excerpt length used by ListDocuments.
// Panics if n <= 0 (programmer error, similar to time.NewTicker).
func WithListExcerptLength(n int) Option {
	if n <= 0 {
		panic("nostress: WithListExcerptLength must be positive")
	}
	return func(c *resolverConfig) {
		c.listExcerpt = n
	}
}

// WithDetailExcerptLength sets the excerpt length used by ResolveDocument.
// Panics if n <= 0.
func WithDetailExcerptLength(n int) Option {
	if n <= 0 {
		panic("nostress: WithDetailExcerptLength must be positive")
	}
	return func(c *resolverConfig) {
		c.detailExcerpt = n
	}
}

// WithLogger sets the structured logger. Nil keeps the no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *resolverConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock sets the time source used for missing document dates.
func WithClock(now func() time.Time) Option {
	return func(c *resolverConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// WithHighlighter replaces the code-block highlighter.
func WithHighlighter(h Highlighter) Option {
	return func(c *resolverConfig) {
		c.highlighter = h
	}
}

// WithCompiler replaces the body compiler.
func WithCompiler(bc BodyCompiler) Option {
	return func(c *resolverConfig) {
		c.compiler = bc
	}
}

// WithThemes sets the light and dark highlight themes (chroma style names).
// Ignored when WithHighlighter is also given.
func WithThemes(light, dark string) Option {
	return func(c *resolverConfig) {
		c.lightTheme = light
		c.darkTheme = dark
	}
}

// WithLanguages sets the highlight language allow-list.
// Ignored when WithHighlighter is also given.
func WithLanguages(langs ...string) Option {
	return func(c *resolverConfig) {
		c.languages = langs
	}
}

// WithAssetBaseURL resolves relative image and link targets in compiled
// bodies against base. Ignored when WithCompiler is also given.
func WithAssetBaseURL(base string) Option {
	return func(c *resolverConfig) {
		c.assetBaseURL = base
	}
}

// WithWorkers bounds how many documents ListDocuments resolves in
// parallel. Zero or less selects an automatic value (see ResolveWorkers).
func WithWorkers(n int) Option {
	return func(c *resolverConfig) {
		c.workers = n
	}
}

// WithListCache caches ListDocuments results per kind until Invalidate.
func WithListCache() Option {
	return func(c *resolverConfig) {
		c.listCache = true
	}
}
