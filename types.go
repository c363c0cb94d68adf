package nostress

import (
	"context"
	"fmt"
	"io/fs"
	"time"

	"github.com/PietroNarcisi/NostressAI/internal/frontmatter"
	"github.com/PietroNarcisi/NostressAI/internal/pipeline"
	"github.com/PietroNarcisi/NostressAI/internal/store"
	"github.com/PietroNarcisi/NostressAI/internal/store/filestore"
	"github.com/PietroNarcisi/NostressAI/internal/taxonomy"
)

// Kind is a content kind: article, resource or course.
type Kind = store.Kind

// Content kinds.
const (
	KindArticle  = store.KindArticle
	KindResource = store.KindResource
	KindCourse   = store.KindCourse
)

// ParseKind accepts canonical kind names and their aliases
// (blog, tips, studies, formations, plurals).
func ParseKind(s string) (Kind, error) {
	return store.ParseKind(s)
}

// Kinds lists every content kind.
func Kinds() []Kind {
	return store.Kinds()
}

// Store is the Document Store a Resolver reads from.
type Store = store.Store

// NewFileStore opens a content directory laid out as blog/, tips/,
// studies/ and courses/ folders of .mdx or .md files.
// Failures wrap ErrStoreUnavailable.
func NewFileStore(dir string) (Store, error) {
	st, err := filestore.New(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return st, nil
}

// NewFSStore serves a content tree from fsys, e.g. an embed.FS.
func NewFSStore(fsys fs.FS) Store {
	return filestore.NewFS(fsys)
}

// Meta is the normalised metadata of a document.
type Meta = frontmatter.Meta

// CourseInfo holds course-only metadata.
type CourseInfo = frontmatter.CourseInfo

// Pillar is a canonical taxonomy entry.
type Pillar = taxonomy.Pillar

// Heading is one entry of a document outline.
type Heading = pipeline.Heading

// Body is a compiled document body.
type Body = pipeline.Body

// Highlighter replaces fenced code blocks with pre-rendered markup.
// Failed blocks are left unchanged and reported.
type Highlighter interface {
	Highlight(body string) (string, []error)
}

// BodyCompiler compiles a highlighted body into a Body.
type BodyCompiler interface {
	Compile(ctx context.Context, source string) (*Body, error)
}

// Summary is the list-level view of a published document.
type Summary struct {
	Kind         Kind        `json:"kind"`
	Slug         string      `json:"slug"`
	Title        string      `json:"title"`
	Date         time.Time   `json:"date"`
	Excerpt      string      `json:"excerpt,omitempty"`
	Category     string      `json:"category,omitempty"`
	Tags         []string    `json:"tags"`
	Pillars      []Pillar    `json:"pillars"`
	ResourceType string      `json:"resourceType,omitempty"`
	HeroImage    string      `json:"heroImage,omitempty"`
	Course       *CourseInfo `json:"course,omitempty"`
}

// CompiledPost is the fully resolved detail view of one document. It is
// built per request and never cached by the Resolver.
type CompiledPost struct {
	Kind     Kind      `json:"kind"`
	Meta     Meta      `json:"meta"`
	Body     *Body     `json:"body"`
	Headings []Heading `json:"headings"`
	Excerpt  string    `json:"excerpt"`
}

// Compile-time interface checks.
var (
	_ Highlighter  = (*pipeline.Highlighter)(nil)
	_ BodyCompiler = (*pipeline.Compiler)(nil)
	_ Store        = (*filestore.Store)(nil)
)
