package main

import (
	"context"
	"fmt"
	"io"
	"slices"

	"go.uber.org/zap"

	nostress "github.com/PietroNarcisi/NostressAI"
	"github.com/PietroNarcisi/NostressAI/internal/config"
	"github.com/PietroNarcisi/NostressAI/internal/fileutil"
	"github.com/PietroNarcisi/NostressAI/internal/logging"
	"github.com/PietroNarcisi/NostressAI/internal/store/sqlstore"
)

// runSeed imports the flat-file content tree into the SQLite database.
// The source is always the content directory, whatever store.driver says.
func runSeed(ctx context.Context, args []string, env *Environment) error {
	var (
		f     commonFlags
		prune bool
	)
	fs := newFlagSet("seed")
	addCommonFlags(fs, &f)
	fs.BoolVar(&prune, "prune", false, "delete rows whose source file no longer exists")
	if err := parseFlags(fs, args, printSeedUsage, env); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: unexpected argument %q", ErrUsage, fs.Arg(0))
	}

	cfg, err := loadConfig(fs, &f, env)
	if err != nil {
		return err
	}
	if cfg.Store.DSN == "" {
		return fmt.Errorf("%w: seed needs --dsn or store.dsn", ErrUsage)
	}

	logger, err := logging.NewWriter(env.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	src, err := nostress.NewFileStore(cfg.Content.Dir)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	if err := fileutil.EnsureParentDir(cfg.Store.DSN); err != nil {
		return &driverError{driver: config.DriverSQLite, err: fmt.Errorf("%w: %w", nostress.ErrStoreUnavailable, err)}
	}
	dst, err := sqlstore.Open(cfg.Store.DSN, sqlstore.WithLogger(logger))
	if err != nil {
		return &driverError{driver: config.DriverSQLite, err: err}
	}
	defer func() {
		if err := dst.Close(); err != nil {
			logger.Warn("closing database", zap.Error(err))
		}
	}()

	var opts []sqlstore.SeedOption
	if prune {
		opts = append(opts, sqlstore.PruneMissing())
	}
	report, err := dst.Seed(ctx, src, env.Now(), opts...)
	if err != nil {
		return fmt.Errorf("seeding %s: %w", cfg.Store.DSN, err)
	}
	if report.Total() == 0 {
		return fmt.Errorf("%w in %s", nostress.ErrEmptyStore, cfg.Content.Dir)
	}

	if !f.quiet {
		printSeedReport(env.Stdout, cfg, report)
	}
	return nil
}

// printSeedReport summarises a seed run, then lists what was imported
// with defaults or skipped.
func printSeedReport(w io.Writer, cfg *config.Config, report sqlstore.SeedReport) {
	fmt.Fprintf(w, "seeded %d document(s) into %s\n", report.Total(), cfg.Store.DSN)
	for _, kind := range nostress.Kinds() {
		fmt.Fprintf(w, "  %-9s %d\n", kind, report.Documents[kind])
	}

	for _, doc := range report.Pruned {
		fmt.Fprintf(w, "pruned %s: source file removed\n", doc)
	}

	for _, slug := range report.MalformedFiles {
		fmt.Fprintf(w, "warning: %s: malformed header, imported with defaults\n", slug)
	}

	slugs := make([]string, 0, len(report.SkippedPillars))
	for slug := range report.SkippedPillars {
		slugs = append(slugs, slug)
	}
	slices.Sort(slugs)
	for _, slug := range slugs {
		fmt.Fprintf(w, "warning: %s: unknown pillars skipped: %v\n", slug, report.SkippedPillars[slug])
	}
}
