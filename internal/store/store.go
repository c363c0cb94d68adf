// Package store defines the Document Store contract shared by the flat-file
// and relational backends.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PietroNarcisi/NostressAI/internal/frontmatter"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound indicates the requested document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrUnavailable indicates the backend could not be read.
	ErrUnavailable = errors.New("document store unavailable")

	// ErrInvalidSlug indicates a slug that cannot name a document, such as
	// one containing path separators or traversal sequences.
	ErrInvalidSlug = errors.New("invalid slug")

	// ErrInvalidKind indicates an unknown content kind.
	ErrInvalidKind = errors.New("invalid content kind")
)

// Kind is a content kind. Slugs are unique within a kind.
type Kind string

const (
	KindArticle  Kind = "article"
	KindResource Kind = "resource"
	KindCourse   Kind = "course"
)

// Kinds lists every content kind in display order.
func Kinds() []Kind {
	return []Kind{KindArticle, KindResource, KindCourse}
}

var kindAliases = map[string]Kind{
	"article":    KindArticle,
	"articles":   KindArticle,
	"blog":       KindArticle,
	"resource":   KindResource,
	"resources":  KindResource,
	"tips":       KindResource,
	"studies":    KindResource,
	"course":     KindCourse,
	"courses":    KindCourse,
	"formations": KindCourse,
}

// ParseKind accepts the canonical kind names and their plural or route
// aliases, case-insensitively.
func ParseKind(s string) (Kind, error) {
	if k, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

func (k Kind) String() string { return string(k) }

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindArticle, KindResource, KindCourse:
		return true
	}
	return false
}

// Record is one raw document as held by a backend. Exactly one of File or
// Row is set, depending on where the document came from.
type Record struct {
	Kind Kind
	Slug string
	File *frontmatter.FileSource
	Row  *frontmatter.Columns
}

// Store reads raw documents. Implementations must be safe for concurrent
// use and honour context cancellation.
type Store interface {
	// List returns every document of a kind regardless of status.
	List(ctx context.Context, kind Kind) ([]Record, error)

	// Get returns one document. Missing documents wrap ErrNotFound.
	Get(ctx context.Context, kind Kind, slug string) (Record, error)

	// Close releases backend resources.
	Close() error
}

// ValidateSlug checks that a slug is safe to use as a file name or key.
// A slug is non-empty and made of ASCII letters, digits, hyphens and
// underscores only, so it can never carry a separator, a dot or a
// traversal sequence.
func ValidateSlug(slug string) error {
	if slug == "" {
		return fmt.Errorf("%w: empty slug", ErrInvalidSlug)
	}
	if len(slug) > MaxSlugLength {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidSlug, MaxSlugLength)
	}
	for _, r := range slug {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidSlug, slug)
		}
	}
	return nil
}

// MaxSlugLength bounds slug length.
const MaxSlugLength = 200
