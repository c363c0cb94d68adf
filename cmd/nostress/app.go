package main

import (
	"errors"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	nostress "github.com/PietroNarcisi/NostressAI"
	"github.com/PietroNarcisi/NostressAI/internal/config"
	"github.com/PietroNarcisi/NostressAI/internal/fileutil"
	"github.com/PietroNarcisi/NostressAI/internal/hints"
	"github.com/PietroNarcisi/NostressAI/internal/logging"
	"github.com/PietroNarcisi/NostressAI/internal/pipeline"
	"github.com/PietroNarcisi/NostressAI/internal/store"
	"github.com/PietroNarcisi/NostressAI/internal/store/filestore"
	"github.com/PietroNarcisi/NostressAI/internal/store/sqlstore"
)

// app bundles what every store-backed command needs.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  nostress.Store
}

// loadConfig resolves settings with precedence flags > env > file > defaults.
// Overlays apply command-specific flags after the common ones.
func loadConfig(fs *flag.FlagSet, f *commonFlags, env *Environment, overlays ...func(*config.Config)) (*config.Config, error) {
	environ := env.environ()
	warnUnknownEnvVars(env.Stderr, environ)
	ev := loadEnvConfig(environ)

	name := f.config
	if name == "" {
		name = ev.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		loaded, err := config.LoadConfig(name)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	applyEnvConfig(ev, cfg)
	applyCommonFlags(fs, f, cfg)
	for _, overlay := range overlays {
		overlay(cfg)
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newApp loads settings, builds the logger and opens the configured store.
func newApp(fs *flag.FlagSet, f *commonFlags, env *Environment, overlays ...func(*config.Config)) (*app, error) {
	cfg, err := loadConfig(fs, f, env, overlays...)
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewWriter(env.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	st, err := openStore(cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, &driverError{driver: cfg.Store.Driver, err: err}
	}

	return &app{cfg: cfg, logger: logger, store: st}, nil
}

// openStore opens the document store selected by store.driver.
// A missing SQLite file is an error rather than an empty database.
func openStore(cfg *config.Config, logger *zap.Logger) (nostress.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		if !fileutil.FileExists(cfg.Store.DSN) {
			return nil, fmt.Errorf("%w: database %s does not exist", nostress.ErrStoreUnavailable, cfg.Store.DSN)
		}
		st, err := sqlstore.Open(cfg.Store.DSN, sqlstore.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", nostress.ErrStoreUnavailable, err)
		}
		return st, nil
	default:
		return nostress.NewFileStore(cfg.Content.Dir)
	}
}

// driverError tags a failure with the store driver that produced it.
type driverError struct {
	driver string
	err    error
}

func (e *driverError) Error() string { return e.err.Error() }
func (e *driverError) Unwrap() error { return e.err }

// tag wraps a non-nil err with the active store driver.
func (a *app) tag(err error) error {
	if err == nil {
		return nil
	}
	return &driverError{driver: a.cfg.Store.Driver, err: err}
}

// resolver builds a Resolver from the loaded settings.
func (a *app) resolver(env *Environment, extra ...nostress.Option) (*nostress.Resolver, error) {
	opts := []nostress.Option{
		nostress.WithLogger(a.logger),
		nostress.WithClock(env.Now),
		nostress.WithWorkers(a.cfg.Workers),
		nostress.WithThemes(a.cfg.Highlight.Light, a.cfg.Highlight.Dark),
		nostress.WithLanguages(a.cfg.Highlight.Languages...),
		nostress.WithAssetBaseURL(a.cfg.Content.AssetBaseURL),
	}
	if a.cfg.Excerpt.ListLength > 0 {
		opts = append(opts, nostress.WithListExcerptLength(a.cfg.Excerpt.ListLength))
	}
	if a.cfg.Excerpt.DetailLength > 0 {
		opts = append(opts, nostress.WithDetailExcerptLength(a.cfg.Excerpt.DetailLength))
	}
	return nostress.NewResolver(a.store, append(opts, extra...)...)
}

// close releases the store and flushes the logger.
func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing store", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// parseKindArg reads the kind positional argument.
func parseKindArg(args []string) (nostress.Kind, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("%w: missing kind argument", ErrUsage)
	}
	return nostress.ParseKind(args[0])
}

// hintFor returns an actionable suffix for err, or "".
func hintFor(err error, cmd string) string {
	var ce *nostress.CompileError
	var le *listenError
	driver := config.DriverFile
	var de *driverError
	if errors.As(err, &de) {
		driver = de.driver
	}
	switch {
	case errors.As(err, &ce):
		return hints.ForCompileError()
	case errors.Is(err, nostress.ErrNotFound):
		return hints.ForNotFound(notFoundKind(err))
	case errors.Is(err, nostress.ErrInvalidKind):
		return hints.ForInvalidKind()
	case errors.Is(err, pipeline.ErrUnknownTheme):
		return hints.ForUnknownTheme(pipeline.Themes())
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(triedPaths(err))
	case errors.Is(err, nostress.ErrEmptyStore):
		return hints.ForEmptyStore()
	case errors.Is(err, filestore.ErrInvalidRoot):
		return hints.ForContentDir()
	case errors.Is(err, nostress.ErrStoreUnavailable), errors.Is(err, store.ErrUnavailable):
		return hints.ForStoreUnavailable(driver)
	case cmd == "serve" && errors.As(err, &le):
		return hints.ForListen(le.addr)
	}
	return ""
}

// notFoundKind reads the kind from a "<kind>/<slug>" not-found error.
func notFoundKind(err error) string {
	_, ref, ok := strings.Cut(err.Error(), nostress.ErrNotFound.Error()+": ")
	if kind, _, found := strings.Cut(ref, "/"); ok && found && kind != "" {
		return kind
	}
	return "<kind>"
}

// triedPaths extracts the searched locations from a config lookup error.
func triedPaths(err error) []string {
	_, list, ok := strings.Cut(err.Error(), "tried ")
	if !ok {
		return nil
	}
	return strings.Split(list, ", ")
}

