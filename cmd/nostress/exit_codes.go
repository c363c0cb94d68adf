package main

import (
	"errors"
	"os"

	nostress "github.com/PietroNarcisi/NostressAI"
	"github.com/PietroNarcisi/NostressAI/internal/config"
	"github.com/PietroNarcisi/NostressAI/internal/dateutil"
	"github.com/PietroNarcisi/NostressAI/internal/logging"
	"github.com/PietroNarcisi/NostressAI/internal/pipeline"
	"github.com/PietroNarcisi/NostressAI/internal/store"
	"github.com/PietroNarcisi/NostressAI/internal/store/filestore"
)

// Exit codes for the nostress CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess  = 0 // Command completed
	ExitGeneral  = 1 // General/unexpected error
	ExitUsage    = 2 // Invalid flags, config, kind or theme
	ExitIO       = 3 // Store unavailable, file not found, permission denied
	ExitNotFound = 4 // Document absent or unpublished
	ExitCompile  = 5 // Document body failed to compile
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, nostress.ErrCompile) {
		return ExitCompile
	}

	if errors.Is(err, nostress.ErrNotFound) {
		return ExitNotFound
	}

	// Usage before I/O: a missing config file is a usage problem even
	// though it wraps no os error.
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, logging.ErrInvalidLevel) ||
		errors.Is(err, logging.ErrInvalidFormat) ||
		errors.Is(err, dateutil.ErrInvalidDateFormat) ||
		errors.Is(err, nostress.ErrInvalidKind) ||
		errors.Is(err, pipeline.ErrUnknownTheme) {
		return ExitUsage
	}

	if errors.Is(err, nostress.ErrStoreUnavailable) ||
		errors.Is(err, nostress.ErrEmptyStore) ||
		errors.Is(err, store.ErrUnavailable) ||
		errors.Is(err, filestore.ErrInvalidRoot) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) {
		return ExitIO
	}

	return ExitGeneral
}
