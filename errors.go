package nostress

import (
	"errors"

	"github.com/PietroNarcisi/NostressAI/internal/pipeline"
	"github.com/PietroNarcisi/NostressAI/internal/store"
)

// Sentinel errors for library operations.
var (
	// ErrNotFound reports a document that is absent, unpublished, or
	// addressed by a slug that cannot name a document.
	ErrNotFound = errors.New("document not found")

	// ErrStoreUnavailable reports a Document Store failure. The wrapped
	// error carries the backend cause.
	ErrStoreUnavailable = errors.New("document store unavailable")

	// ErrInvalidKind reports an unknown content kind.
	ErrInvalidKind = store.ErrInvalidKind

	// ErrEmptyStore reports a content source that holds no documents.
	ErrEmptyStore = errors.New("no documents found")

	// ErrCompile matches every *CompileError.
	ErrCompile = pipeline.ErrCompile
)

// CompileError reports malformed markup in a document body, with a 1-based
// line and column relative to the body.
type CompileError = pipeline.CompileError
