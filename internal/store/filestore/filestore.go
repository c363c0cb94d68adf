// Package filestore reads documents from a content directory laid out as
//
//	blog/<slug>.mdx       articles
//	tips/<slug>.mdx       resources, exposed as tip-<slug>
//	studies/<slug>.mdx    resources, exposed as study-<slug>
//	courses/<slug>.mdx    courses
//
// Both .mdx and .md files are recognised; .mdx wins when both exist.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/PietroNarcisi/NostressAI/internal/frontmatter"
	"github.com/PietroNarcisi/NostressAI/internal/store"
)

// ErrInvalidRoot indicates the content directory is missing or unreadable.
var ErrInvalidRoot = errors.New("invalid content directory")

// ErrPathTraversal indicates a resolved document path outside the root.
var ErrPathTraversal = errors.New("path traversal detected")

// Extensions lists recognised document extensions in priority order.
var Extensions = []string{".mdx", ".md"}

// readConcurrency bounds parallel file reads during List.
const readConcurrency = 8

type section struct {
	dir          string
	prefix       string
	resourceType string
}

var sections = map[store.Kind][]section{
	store.KindArticle: {{dir: "blog"}},
	store.KindResource: {
		{dir: "tips", prefix: "tip-", resourceType: frontmatter.ResourceTip},
		{dir: "studies", prefix: "study-", resourceType: frontmatter.ResourceStudy},
	},
	store.KindCourse: {{dir: "courses"}},
}

// Store is a read-only flat-file Document Store.
type Store struct {
	fsys fs.FS
	root string // absolute, symlink-free; empty when built from an fs.FS
}

// New opens the content directory at dir.
// Returns ErrInvalidRoot if dir is not a readable directory.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidRoot)
	}

	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}
	// Resolve symlinks so containment checks compare like with like.
	if realPath, err := filepath.EvalSymlinks(absPath); err == nil {
		absPath = realPath
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: directory does not exist: %s", ErrInvalidRoot, absPath)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: not a directory: %s", ErrInvalidRoot, absPath)
	}
	if _, err := os.ReadDir(absPath); err != nil {
		return nil, fmt.Errorf("%w: cannot read directory: %v", ErrInvalidRoot, err)
	}

	return &Store{fsys: os.DirFS(absPath), root: absPath}, nil
}

// NewFS serves documents from fsys. Used with embedded or in-memory trees.
func NewFS(fsys fs.FS) *Store {
	return &Store{fsys: fsys}
}

// Root returns the content directory, or "" for stores built with NewFS.
func (s *Store) Root() string {
	return s.root
}

// List returns every document of kind, in section then file name order.
// Missing section directories are treated as empty. Files whose name is
// not a valid slug are skipped.
func (s *Store) List(ctx context.Context, kind store.Kind) ([]store.Record, error) {
	secs, ok := sections[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", store.ErrInvalidKind, kind)
	}

	type entry struct {
		sec  section
		stem string
		name string
	}
	var entries []entry
	for _, sec := range secs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		names, err := s.documentFiles(sec.dir)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			entries = append(entries, entry{sec: sec, stem: stem(name), name: name})
		}
	}

	records := make([]store.Record, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(readConcurrency)
	for i, e := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec, err := s.read(kind, e.sec, e.stem, path.Join(e.sec.dir, e.name))
			if err != nil {
				return err
			}
			records[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

// Get returns the document of kind with the given slug.
func (s *Store) Get(ctx context.Context, kind store.Kind, slug string) (store.Record, error) {
	if err := ctx.Err(); err != nil {
		return store.Record{}, err
	}
	secs, ok := sections[kind]
	if !ok {
		return store.Record{}, fmt.Errorf("%w: %q", store.ErrInvalidKind, kind)
	}
	if err := store.ValidateSlug(slug); err != nil {
		return store.Record{}, err
	}

	for _, sec := range secs {
		if !strings.HasPrefix(slug, sec.prefix) {
			continue
		}
		name := strings.TrimPrefix(slug, sec.prefix)
		if name == "" {
			continue
		}
		for _, ext := range Extensions {
			p := path.Join(sec.dir, name+ext)
			rec, err := s.read(kind, sec, name, p)
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return rec, err
		}
	}
	return store.Record{}, fmt.Errorf("%w: %s/%s", store.ErrNotFound, kind, slug)
}

// Close is a no-op; the store holds no open handles.
func (s *Store) Close() error {
	return nil
}

// documentFiles lists document file names in dir, keeping one file per
// stem by extension priority.
func (s *Store) documentFiles(dir string) ([]string, error) {
	dirEntries, err := fs.ReadDir(s.fsys, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: reading %s: %v", store.ErrUnavailable, dir, err)
	}

	chosen := make(map[string]string)
	var order []string
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		name := de.Name()
		rank := extensionRank(name)
		if rank < 0 {
			continue
		}
		st := stem(name)
		if store.ValidateSlug(st) != nil {
			continue
		}
		prev, seen := chosen[st]
		if !seen {
			order = append(order, st)
			chosen[st] = name
			continue
		}
		if rank < extensionRank(prev) {
			chosen[st] = name
		}
	}

	names := make([]string, 0, len(order))
	for _, st := range order {
		names = append(names, chosen[st])
	}
	return names, nil
}

func (s *Store) read(kind store.Kind, sec section, name, p string) (store.Record, error) {
	if err := s.verifyPathContainment(p); err != nil {
		return store.Record{}, err
	}

	raw, err := fs.ReadFile(s.fsys, p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return store.Record{}, fmt.Errorf("%w: %s", store.ErrNotFound, p)
		}
		return store.Record{}, fmt.Errorf("%w: reading %s: %v", store.ErrUnavailable, p, err)
	}

	slug := sec.prefix + name
	return store.Record{
		Kind: kind,
		Slug: slug,
		File: &frontmatter.FileSource{
			Slug:    slug,
			Section: sec.resourceType,
			Raw:     raw,
		},
	}, nil
}

// verifyPathContainment ensures a document path resolves inside the root,
// following symlinks. Stores without an on-disk root rely on fs.ValidPath.
func (s *Store) verifyPathContainment(p string) error {
	if !fs.ValidPath(p) {
		return fmt.Errorf("%w: %s", ErrPathTraversal, p)
	}
	if s.root == "" {
		return nil
	}

	full := filepath.Join(s.root, filepath.FromSlash(p))
	realPath, err := filepath.EvalSymlinks(full)
	if err != nil {
		// Missing files fail on read; the lexical path is already contained.
		return nil
	}
	if !strings.HasPrefix(realPath, s.root+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s escapes content directory", ErrPathTraversal, p)
	}
	return nil
}

func extensionRank(name string) int {
	ext := path.Ext(name)
	for i, e := range Extensions {
		if ext == e {
			return i
		}
	}
	return -1
}

func stem(name string) string {
	return strings.TrimSuffix(name, path.Ext(name))
}

// Compile-time interface check.
var _ store.Store = (*Store)(nil)
