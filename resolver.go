package nostress

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/PietroNarcisi/NostressAI/internal/frontmatter"
	"github.com/PietroNarcisi/NostressAI/internal/pipeline"
	"github.com/PietroNarcisi/NostressAI/internal/store"
	"github.com/PietroNarcisi/NostressAI/internal/taxonomy"
)

// Resolver turns raw documents from a Store into list summaries and
// compiled posts. It is safe for concurrent use.
type Resolver struct {
	store         Store
	logger        *zap.Logger
	now           func() time.Time
	highlighter   Highlighter
	compiler      BodyCompiler
	listExcerpt   int
	detailExcerpt int
	workers       int

	cache *listCache // nil when caching is disabled
}

// NewResolver creates a Resolver over s.
// Returns an error if a configured highlight theme does not exist.
func NewResolver(s Store, opts ...Option) (*Resolver, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil store", ErrStoreUnavailable)
	}

	cfg := resolverConfig{
		listExcerpt:   DefaultListExcerptLength,
		detailExcerpt: DefaultDetailExcerptLength,
		logger:        zap.NewNop(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	r := &Resolver{
		store:         s,
		logger:        cfg.logger,
		now:           cfg.now,
		highlighter:   cfg.highlighter,
		compiler:      cfg.compiler,
		listExcerpt:   cfg.listExcerpt,
		detailExcerpt: cfg.detailExcerpt,
		workers:       ResolveWorkers(cfg.workers),
	}

	if r.highlighter == nil {
		h, err := newHighlighter(cfg)
		if err != nil {
			return nil, err
		}
		r.highlighter = h
	}
	if r.compiler == nil {
		r.compiler = pipeline.NewCompiler(pipeline.WithAssetBaseURL(cfg.assetBaseURL))
	}
	if cfg.listCache {
		r.cache = &listCache{entries: make(map[Kind][]Summary)}
	}

	return r, nil
}

// newHighlighter shares the process-wide highlighter unless themes or
// languages differ from the defaults.
func newHighlighter(cfg resolverConfig) (Highlighter, error) {
	if cfg.lightTheme == "" && cfg.darkTheme == "" && len(cfg.languages) == 0 {
		return pipeline.DefaultHighlighter(), nil
	}
	h, err := pipeline.NewHighlighter(
		pipeline.WithThemes(cfg.lightTheme, cfg.darkTheme),
		pipeline.WithLanguages(cfg.languages...),
	)
	if err != nil {
		return nil, fmt.Errorf("configuring highlighter: %w", err)
	}
	return h, nil
}

// Pillars returns the canonical taxonomy catalogue.
func (r *Resolver) Pillars() []Pillar {
	return taxonomy.Catalogue()
}

// resolved is one document after front-matter resolution.
type resolved struct {
	meta Meta
	body string
}

// ListDocuments returns the published documents of kind, newest first.
// Documents with equal dates keep store order. Unpublished documents are
// never returned. A document that fails to resolve is logged and left out;
// it never fails the list.
func (r *Resolver) ListDocuments(ctx context.Context, kind Kind) ([]Summary, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	if r.cache == nil {
		return r.listDocuments(ctx, kind)
	}
	return r.cache.get(ctx, kind, r.listDocuments)
}

func (r *Resolver) listDocuments(ctx context.Context, kind Kind) ([]Summary, error) {
	records, err := r.store.List(ctx, kind)
	if err != nil {
		return nil, r.storeError(ctx, err)
	}

	// One timestamp per call so undated documents share a date.
	now := r.now()
	docs := make([]*resolved, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, rec := range records {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			docs[i] = r.resolveRecord(rec, now)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summaries := make([]Summary, 0, len(docs))
	for _, d := range docs {
		if d == nil || !d.meta.Status.Published() {
			continue
		}
		summaries = append(summaries, r.summarize(kind, d))
	}

	slices.SortStableFunc(summaries, func(a, b Summary) int {
		return b.Date.Compare(a.Date)
	})
	return summaries, nil
}

// resolveRecord runs the front-matter adapter matching the record's
// origin. Panics are recovered and logged; the document is then skipped.
func (r *Resolver) resolveRecord(rec store.Record, now time.Time) (doc *resolved) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("document resolution panicked",
				zap.String("kind", rec.Kind.String()),
				zap.String("slug", rec.Slug),
				zap.Any("panic", p))
			doc = nil
		}
	}()

	switch {
	case rec.File != nil:
		meta, body, warning := frontmatter.FromFile(*rec.File, now)
		if warning != nil {
			r.logger.Warn("malformed header, using defaults",
				zap.String("kind", rec.Kind.String()),
				zap.String("slug", rec.Slug),
				zap.Error(warning))
		}
		r.logUnknownPillars(rec, meta)
		return &resolved{meta: meta, body: body}
	case rec.Row != nil:
		meta, body := frontmatter.FromColumns(*rec.Row, now)
		r.logUnknownPillars(rec, meta)
		return &resolved{meta: meta, body: body}
	default:
		r.logger.Warn("record without content", zap.String("slug", rec.Slug))
		return nil
	}
}

func (r *Resolver) logUnknownPillars(rec store.Record, meta Meta) {
	if unknown := taxonomy.Unknown(meta.PillarIDs); len(unknown) > 0 {
		r.logger.Debug("unknown pillars dropped",
			zap.String("slug", rec.Slug),
			zap.Strings("pillars", unknown))
	}
}

func (r *Resolver) summarize(kind Kind, d *resolved) Summary {
	m := d.meta
	return Summary{
		Kind:         kind,
		Slug:         m.Slug,
		Title:        m.Title,
		Date:         m.Date,
		Excerpt:      pipeline.Excerpt(d.body, explicitExcerpt(m), r.listExcerpt),
		Category:     m.Category,
		Tags:         m.Tags,
		Pillars:      m.Pillars,
		ResourceType: m.ResourceType,
		HeroImage:    m.HeroImage,
		Course:       m.Course,
	}
}

// explicitExcerpt prefers the declared excerpt, then a course's short
// description.
func explicitExcerpt(m Meta) string {
	if m.Excerpt != "" {
		return m.Excerpt
	}
	if m.Course != nil {
		return m.Course.Short
	}
	return ""
}

// ResolveDocument runs the full pipeline for one document: front matter,
// then excerpt and outline alongside highlighting followed by compilation.
//
// Returns ErrNotFound for absent or unpublished documents and invalid
// slugs, a *CompileError for malformed bodies, and ErrStoreUnavailable for
// backend failures. A cancelled context never yields a partial post.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (r *Resolver) ResolveDocument(ctx context.Context, kind Kind, slug string) (post *CompiledPost, err error) {
	defer func() {
		if p := recover(); p != nil {
			post = nil
			err = fmt.Errorf("internal error: %v", p)
			r.logger.Error("resolve panicked",
				zap.String("kind", kind.String()),
				zap.String("slug", slug),
				zap.Any("panic", p))
		}
	}()

	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}

	rec, err := r.store.Get(ctx, kind, slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidSlug) {
			return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, kind, slug)
		}
		return nil, r.storeError(ctx, err)
	}

	doc := r.resolveRecord(rec, r.now())
	if doc == nil || !doc.meta.Status.Published() {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, kind, slug)
	}

	body := pipeline.NormalizeBody(doc.body)
	post = &CompiledPost{Kind: kind, Meta: doc.meta}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		post.Excerpt = pipeline.Excerpt(body, explicitExcerpt(doc.meta), r.detailExcerpt)
		post.Headings = pipeline.ExtractHeadings(body)
		return nil
	})
	g.Go(func() (err error) {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("internal error: %v", p)
			}
		}()

		// Highlighting must finish before compilation.
		highlighted, failures := r.highlighter.Highlight(body)
		for _, f := range failures {
			r.logger.Debug("code block left unhighlighted", zap.String("slug", slug), zap.Error(f))
		}
		compiled, err := r.compiler.Compile(gctx, highlighted)
		if err != nil {
			return err
		}
		post.Body = compiled
		return nil
	})

	if err := g.Wait(); err != nil {
		var ce *CompileError
		if errors.As(err, &ce) {
			r.logger.Error("document failed to compile",
				zap.String("kind", kind.String()),
				zap.String("slug", slug),
				zap.Int("line", ce.Line),
				zap.Int("column", ce.Column),
				zap.String("reason", ce.Msg))
			return nil, fmt.Errorf("%s/%s: %w", kind, slug, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("compiling %s/%s: %w", kind, slug, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return post, nil
}

// Invalidate drops cached lists. It is a no-op without WithListCache.
func (r *Resolver) Invalidate() {
	if r.cache != nil {
		r.cache.clear()
	}
}

// storeError classifies a backend failure. Cancellation passes through.
func (r *Resolver) storeError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return ctxErr
	}
	if errors.Is(err, store.ErrInvalidKind) {
		return err
	}
	r.logger.Warn("document store failure", zap.Error(err))
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

// listCache memoises ListDocuments per kind. Concurrent misses for the
// same kind share one computation.
type listCache struct {
	mu      sync.RWMutex
	entries map[Kind][]Summary
	gen     uint64
	group   singleflight.Group
}

func (c *listCache) get(ctx context.Context, kind Kind, load func(context.Context, Kind) ([]Summary, error)) ([]Summary, error) {
	c.mu.RLock()
	cached, ok := c.entries[kind]
	gen := c.gen
	c.mu.RUnlock()
	if ok {
		return cloneSummaries(cached), nil
	}

	v, err, _ := c.group.Do(string(kind), func() (any, error) {
		list, err := load(ctx, kind)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		// Skip the store if an Invalidate raced with the load.
		if c.gen == gen {
			c.entries[kind] = list
		}
		c.mu.Unlock()
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneSummaries(v.([]Summary)), nil
}

// cloneSummaries copies a cached list deeply enough that callers may
// mutate every slice and pointer they receive.
func cloneSummaries(list []Summary) []Summary {
	out := slices.Clone(list)
	for i := range out {
		out[i].Tags = slices.Clone(out[i].Tags)
		out[i].Pillars = slices.Clone(out[i].Pillars)
		if c := out[i].Course; c != nil {
			course := *c
			course.Outline = slices.Clone(c.Outline)
			out[i].Course = &course
		}
	}
	return out
}

func (c *listCache) clear() {
	c.mu.Lock()
	c.entries = make(map[Kind][]Summary)
	c.gen++
	c.mu.Unlock()
}
