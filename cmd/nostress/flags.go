package main

import (
	"errors"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"

	"github.com/PietroNarcisi/NostressAI/internal/config"
)

// ErrUsage reports invalid flags or arguments.
var ErrUsage = errors.New("invalid usage")

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config    string
	content   string
	driver    string
	dsn       string
	logLevel  string
	logFormat string
	workers   int
	quiet     bool
	verbose   bool
}

// listFlags holds flags for the list command.
type listFlags struct {
	common     commonFlags
	json       bool
	dateFormat string
}

// showFlags holds flags for the show command.
type showFlags struct {
	common commonFlags
	format string
}

// serveFlags holds flags for the serve command.
type serveFlags struct {
	common  commonFlags
	addr    string
	baseURL string
	watch   bool
}

// Show output formats.
const (
	showHTML    = "html"
	showJSON    = "json"
	showOutline = "outline"
)

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.StringVar(&f.content, "content", "", "content directory")
	fs.StringVar(&f.driver, "driver", "", "store driver: file, sqlite")
	fs.StringVar(&f.dsn, "dsn", "", "SQLite database path")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&f.logFormat, "log-format", "", "log format: console, json")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log debug events")
}

// addListFlags adds list flags to a FlagSet.
func addListFlags(fs *flag.FlagSet, f *listFlags) {
	addCommonFlags(fs, &f.common)
	fs.BoolVar(&f.json, "json", false, "print summaries as JSON")
	fs.StringVar(&f.dateFormat, "date-format", "", "date format or preset: iso, european, us, long")
}

// addShowFlags adds show flags to a FlagSet.
func addShowFlags(fs *flag.FlagSet, f *showFlags) {
	addCommonFlags(fs, &f.common)
	fs.StringVarP(&f.format, "format", "f", showHTML, "output: html, json, outline")
}

// addServeFlags adds serve flags to a FlagSet.
func addServeFlags(fs *flag.FlagSet, f *serveFlags) {
	addCommonFlags(fs, &f.common)
	fs.StringVar(&f.addr, "addr", "", "listen address")
	fs.StringVar(&f.baseURL, "base-url", "", "public site URL used in the sitemap")
	fs.BoolVar(&f.watch, "watch", false, "reload content when files change (file driver)")
}

// newFlagSet returns a silent FlagSet; parseFlags reports errors instead.
func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	fs.SortFlags = false
	return fs
}

// parseFlags parses args and prints usage on -h/--help.
// The returned error wraps flag.ErrHelp or ErrUsage.
func parseFlags(fs *flag.FlagSet, args []string, usage func(io.Writer), env *Environment) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			usage(env.Stdout)
			return err
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return nil
}

// isHelpRequest reports whether err came from -h/--help.
func isHelpRequest(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}

// applyCommonFlags overlays explicitly set flags onto cfg.
func applyCommonFlags(fs *flag.FlagSet, f *commonFlags, cfg *config.Config) {
	if fs.Changed("content") {
		cfg.Content.Dir = f.content
	}
	if fs.Changed("driver") {
		cfg.Store.Driver = f.driver
	}
	if fs.Changed("dsn") {
		cfg.Store.DSN = f.dsn
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if fs.Changed("log-format") {
		cfg.Log.Format = f.logFormat
	}
	if fs.Changed("workers") {
		cfg.Workers = f.workers
	}
	if f.verbose {
		cfg.Log.Level = "debug"
	}
	if f.quiet {
		cfg.Log.Level = "error"
	}
}
