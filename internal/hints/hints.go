// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"path/filepath"
	"strings"

	"github.com/PietroNarcisi/NostressAI/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config and, when one was searched, the user config location.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(filepath.ToSlash(p), "/nostress/") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForContentDir returns hints for a missing or unreadable content directory.
func ForContentDir() string {
	return format("use --content or content.dir; expected blog/, tips/, studies/ and courses/ folders")
}

// ForStoreUnavailable returns hints for document store failures.
func ForStoreUnavailable(driver string) string {
	if driver == "sqlite" {
		return format("check --dsn points to a readable database; run 'nostress seed' to create it")
	}
	return ForContentDir()
}

// ForEmptyStore returns hints when seeding found nothing to import.
func ForEmptyStore() string {
	return format("no .mdx or .md documents were found under the content directory")
}

// ForInvalidKind lists the accepted kind names.
func ForInvalidKind() string {
	return format("kinds: article (blog), resource (tips, studies), course (formations)")
}

// ForNotFound returns hints for unknown or unpublished documents.
func ForNotFound(kind string) string {
	return format("drafts are hidden; run 'nostress list " + kind + "' for published slugs")
}

// ForCompileError returns hints for documents whose body failed to compile.
func ForCompileError() string {
	return format("check that raw HTML tags in the document body are balanced")
}

// ForUnknownTheme returns hints for a highlight theme that does not exist.
func ForUnknownTheme(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", "))
}

// ForListen returns hints for listen failures on addr.
func ForListen(addr string) string {
	var hints []string
	if IsInContainer() && (strings.HasPrefix(addr, "127.0.0.1") || strings.HasPrefix(addr, "localhost")) {
		hints = append(hints, "bind 0.0.0.0 inside containers")
	}
	hints = append(hints, "use --addr to pick another address")
	return formatHints(hints)
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
