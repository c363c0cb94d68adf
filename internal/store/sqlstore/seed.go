package sqlstore

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/PietroNarcisi/NostressAI/internal/frontmatter"
	"github.com/PietroNarcisi/NostressAI/internal/pipeline"
	"github.com/PietroNarcisi/NostressAI/internal/store"
)

// SeedReport summarises one Seed run.
type SeedReport struct {
	Documents      map[store.Kind]int
	MalformedFiles []string
	SkippedPillars map[string][]string // document slug -> unknown pillar ids
	Pruned         []string            // "kind/slug" rows removed because no source remains
}

type seedConfig struct {
	prune bool
}

// SeedOption configures a Seed run.
type SeedOption func(*seedConfig)

// PruneMissing deletes rows whose document no longer exists in the source,
// so the database mirrors the content tree.
func PruneMissing() SeedOption {
	return func(c *seedConfig) { c.prune = true }
}

// Total returns the number of documents written.
func (r SeedReport) Total() int {
	n := 0
	for _, c := range r.Documents {
		n += c
	}
	return n
}

// Seed imports every document of src into the database. Pillars are upserted
// first; documents are upserted by (kind, slug) and their pivot rows rebuilt.
// Unknown pillar ids are logged and skipped. Documents with a malformed
// header are imported with default metadata, as they would resolve.
// Rows without a source document are kept unless PruneMissing is given.
func (s *Store) Seed(ctx context.Context, src store.Store, now time.Time, opts ...SeedOption) (SeedReport, error) {
	var cfg seedConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	report := SeedReport{
		Documents:      make(map[store.Kind]int),
		SkippedPillars: make(map[string][]string),
	}

	if err := s.UpsertPillars(ctx); err != nil {
		return report, err
	}

	for _, kind := range store.Kinds() {
		records, err := src.List(ctx, kind)
		if err != nil {
			return report, fmt.Errorf("listing %s: %w", kind, err)
		}

		seen := make(map[string]bool, len(records))
		for _, rec := range records {
			if err := ctx.Err(); err != nil {
				return report, err
			}

			seen[rec.Slug] = true
			cols, ok := s.columnsFor(rec, now, &report)
			if !ok {
				continue
			}
			seen[cols.Slug] = true

			skipped, err := s.Upsert(ctx, kind, cols)
			if err != nil {
				return report, fmt.Errorf("seeding %s/%s: %w", kind, rec.Slug, err)
			}
			for _, id := range skipped {
				s.logger.Warn("unknown pillar skipped",
					zap.String("kind", kind.String()),
					zap.String("slug", rec.Slug),
					zap.String("pillar", id))
			}
			if len(skipped) > 0 {
				report.SkippedPillars[rec.Slug] = skipped
			}
			report.Documents[kind]++
		}

		if cfg.prune {
			if err := s.prune(ctx, kind, seen, &report); err != nil {
				return report, err
			}
		}
	}

	return report, nil
}

// prune deletes the rows of kind whose slug is not in seen.
func (s *Store) prune(ctx context.Context, kind store.Kind, seen map[string]bool, report *SeedReport) error {
	existing, err := s.List(ctx, kind)
	if err != nil {
		return fmt.Errorf("listing seeded %s: %w", kind, err)
	}
	for _, rec := range existing {
		if seen[rec.Slug] {
			continue
		}
		if err := s.Delete(ctx, kind, rec.Slug); err != nil {
			return fmt.Errorf("pruning %s/%s: %w", kind, rec.Slug, err)
		}
		s.logger.Info("pruned document without source",
			zap.String("kind", kind.String()),
			zap.String("slug", rec.Slug))
		report.Pruned = append(report.Pruned, kind.String()+"/"+rec.Slug)
	}
	return nil
}

func (s *Store) columnsFor(rec store.Record, now time.Time, report *SeedReport) (frontmatter.Columns, bool) {
	switch {
	case rec.File != nil:
		meta, body, warning := frontmatter.FromFile(*rec.File, now)
		if warning != nil {
			s.logger.Warn("malformed header", zap.String("slug", rec.Slug), zap.Error(warning))
			report.MalformedFiles = append(report.MalformedFiles, rec.Slug)
		}
		return frontmatter.ToColumns(meta, pipeline.NormalizeBody(body)), true
	case rec.Row != nil:
		return *rec.Row, true
	default:
		s.logger.Warn("empty record skipped", zap.String("slug", rec.Slug))
		return frontmatter.Columns{}, false
	}
}
