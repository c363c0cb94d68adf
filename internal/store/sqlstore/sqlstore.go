// Package sqlstore is the relational Document Store on SQLite. Documents of
// every kind share one table; pillar associations live in a pivot table
// joined against the canonical pillars table.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/PietroNarcisi/NostressAI/internal/frontmatter"
	"github.com/PietroNarcisi/NostressAI/internal/store"
	"github.com/PietroNarcisi/NostressAI/internal/taxonomy"
)

const schema = `
CREATE TABLE IF NOT EXISTS pillars (
    id TEXT PRIMARY KEY,
    slug TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    tagline TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS documents (
    id TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    slug TEXT NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    excerpt TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL DEFAULT '',
    tags TEXT NOT NULL DEFAULT '[]',
    body TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT '',
    published_at TEXT,
    interactive TEXT NOT NULL DEFAULT '',
    hero_image TEXT NOT NULL DEFAULT '',
    resource_type TEXT NOT NULL DEFAULT '',
    short TEXT NOT NULL DEFAULT '',
    availability TEXT NOT NULL DEFAULT '',
    level TEXT NOT NULL DEFAULT '',
    outline TEXT NOT NULL DEFAULT '',
    UNIQUE (kind, slug)
);

CREATE TABLE IF NOT EXISTS document_pillars (
    document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    pillar_id TEXT NOT NULL REFERENCES pillars(id) ON DELETE CASCADE,
    position INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (document_id, pillar_id)
);
`

const documentColumns = `d.id, d.slug, d.title, d.excerpt, d.category, d.tags, d.body, d.status,
    d.published_at, d.interactive, d.hero_image, d.resource_type,
    d.short, d.availability, d.level, d.outline`

// Store wraps the SQLite connection.
type Store struct {
	conn   *sql.DB
	logger *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for seeding diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Open opens or creates the database at path.
func Open(path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: empty database path", store.ErrUnavailable)
	}
	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: open db: %v", store.ErrUnavailable, err)
	}
	return initStore(conn, opts)
}

// OpenMemory opens a private in-memory database.
func OpenMemory(opts ...Option) (*Store, error) {
	conn, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("%w: open db: %v", store.ErrUnavailable, err)
	}
	// Every connection to :memory: is a separate database.
	conn.SetMaxOpenConns(1)
	return initStore(conn, opts)
}

func initStore(conn *sql.DB, opts []Option) (*Store, error) {
	if _, err := conn.Exec(schema); err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			return nil, fmt.Errorf("%w: init schema: %v (close: %v)", store.ErrUnavailable, err, closeErr)
		}
		return nil, fmt.Errorf("%w: init schema: %v", store.ErrUnavailable, err)
	}

	s := &Store{conn: conn, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// List returns every document of kind ordered by slug, with pillar ids
// merged from the pivot in declaration order.
func (s *Store) List(ctx context.Context, kind store.Kind) ([]store.Record, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", store.ErrInvalidKind, kind)
	}

	rows, err := s.conn.QueryContext(ctx,
		"SELECT "+documentColumns+" FROM documents d WHERE d.kind = ? ORDER BY d.slug", string(kind))
	if err != nil {
		return nil, unavailable("list documents", err)
	}
	defer func() { _ = rows.Close() }()

	var (
		records []store.Record
		ids     []string
	)
	for rows.Next() {
		id, cols, err := scanDocument(rows)
		if err != nil {
			return nil, unavailable("scan document", err)
		}
		ids = append(ids, id)
		records = append(records, store.Record{Kind: kind, Slug: cols.Slug, Row: cols})
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list documents", err)
	}
	if err := rows.Close(); err != nil {
		return nil, unavailable("list documents", err)
	}

	pillars, err := s.pillarsByKind(ctx, kind)
	if err != nil {
		return nil, err
	}
	for i, id := range ids {
		records[i].Row.PillarIDs = pillars[id]
	}
	return records, nil
}

// Get returns one document with its pillar ids.
func (s *Store) Get(ctx context.Context, kind store.Kind, slug string) (store.Record, error) {
	if !kind.Valid() {
		return store.Record{}, fmt.Errorf("%w: %q", store.ErrInvalidKind, kind)
	}
	if err := store.ValidateSlug(slug); err != nil {
		return store.Record{}, err
	}

	row := s.conn.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents d WHERE d.kind = ? AND d.slug = ?", string(kind), slug)
	id, cols, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Record{}, fmt.Errorf("%w: %s/%s", store.ErrNotFound, kind, slug)
	}
	if err != nil {
		return store.Record{}, unavailable("get document", err)
	}

	cols.PillarIDs, err = s.documentPillars(ctx, id)
	if err != nil {
		return store.Record{}, err
	}
	return store.Record{Kind: kind, Slug: slug, Row: cols}, nil
}

// pillarsByKind returns pillar slugs keyed by document id for one kind.
func (s *Store) pillarsByKind(ctx context.Context, kind store.Kind) (map[string][]string, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT dp.document_id, p.slug
		FROM document_pillars dp
		JOIN documents d ON d.id = dp.document_id
		JOIN pillars p ON p.id = dp.pillar_id
		WHERE d.kind = ?
		ORDER BY dp.document_id, dp.position`, string(kind))
	if err != nil {
		return nil, unavailable("list pillars", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string][]string)
	for rows.Next() {
		var docID, slug string
		if err := rows.Scan(&docID, &slug); err != nil {
			return nil, unavailable("scan pillar", err)
		}
		out[docID] = append(out[docID], slug)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list pillars", err)
	}
	return out, nil
}

func (s *Store) documentPillars(ctx context.Context, docID string) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT p.slug
		FROM document_pillars dp
		JOIN pillars p ON p.id = dp.pillar_id
		WHERE dp.document_id = ?
		ORDER BY dp.position`, docID)
	if err != nil {
		return nil, unavailable("get pillars", err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, unavailable("scan pillar", err)
		}
		out = append(out, slug)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("get pillars", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(sc scanner) (string, *frontmatter.Columns, error) {
	var (
		id          string
		c           frontmatter.Columns
		publishedAt sql.NullString
	)
	err := sc.Scan(&id, &c.Slug, &c.Title, &c.Excerpt, &c.Category, &c.TagsJSON, &c.Body, &c.Status,
		&publishedAt, &c.Interactive, &c.HeroImage, &c.ResourceType,
		&c.Short, &c.Availability, &c.Level, &c.OutlineJSON)
	if err != nil {
		return "", nil, err
	}
	if publishedAt.Valid && publishedAt.String != "" {
		// An unparseable timestamp is left nil and defaults like a missing date.
		if t, err := time.Parse(time.RFC3339Nano, publishedAt.String); err == nil {
			c.PublishedAt = &t
		}
	}
	return id, &c, nil
}

// UpsertPillars writes the canonical catalogue, keyed by pillar slug.
func (s *Store) UpsertPillars(ctx context.Context) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, p := range taxonomy.Catalogue() {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO pillars (id, slug, name, tagline, description)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(slug) DO UPDATE SET
				name = excluded.name,
				tagline = excluded.tagline,
				description = excluded.description
		`, uuid.NewString(), p.ID, p.Name, p.Tagline, p.Description)
		if err != nil {
			return unavailable("upsert pillar "+p.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return unavailable("commit", err)
	}
	return nil
}

// Upsert inserts or updates a document keyed by (kind, slug) and rebuilds
// its pillar associations. Pillar ids missing from the pillars table are
// skipped and returned.
func (s *Store) Upsert(ctx context.Context, kind store.Kind, c frontmatter.Columns) (skipped []string, err error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", store.ErrInvalidKind, kind)
	}
	if err := store.ValidateSlug(c.Slug); err != nil {
		return nil, err
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, unavailable("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	var publishedAt any
	if c.PublishedAt != nil {
		publishedAt = c.PublishedAt.UTC().Format(time.RFC3339Nano)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, kind, slug, title, excerpt, category, tags, body, status,
			published_at, interactive, hero_image, resource_type, short, availability, level, outline)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(kind, slug) DO UPDATE SET
			title = excluded.title,
			excerpt = excluded.excerpt,
			category = excluded.category,
			tags = excluded.tags,
			body = excluded.body,
			status = excluded.status,
			published_at = excluded.published_at,
			interactive = excluded.interactive,
			hero_image = excluded.hero_image,
			resource_type = excluded.resource_type,
			short = excluded.short,
			availability = excluded.availability,
			level = excluded.level,
			outline = excluded.outline
	`, uuid.NewString(), string(kind), c.Slug, c.Title, c.Excerpt, c.Category, c.TagsJSON, c.Body, c.Status,
		publishedAt, c.Interactive, c.HeroImage, c.ResourceType, c.Short, c.Availability, c.Level, c.OutlineJSON)
	if err != nil {
		return nil, unavailable("upsert document "+c.Slug, err)
	}

	var docID string
	if err := tx.QueryRowContext(ctx,
		"SELECT id FROM documents WHERE kind = ? AND slug = ?", string(kind), c.Slug).Scan(&docID); err != nil {
		return nil, unavailable("read document id", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM document_pillars WHERE document_id = ?", docID); err != nil {
		return nil, unavailable("clear pillars", err)
	}

	position := 0
	for _, slug := range c.PillarIDs {
		var pillarID string
		err := tx.QueryRowContext(ctx, "SELECT id FROM pillars WHERE slug = ?", slug).Scan(&pillarID)
		if errors.Is(err, sql.ErrNoRows) {
			skipped = append(skipped, slug)
			continue
		}
		if err != nil {
			return nil, unavailable("read pillar id", err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO document_pillars (document_id, pillar_id, position) VALUES (?, ?, ?)",
			docID, pillarID, position); err != nil {
			return nil, unavailable("link pillar", err)
		}
		position++
	}

	if err := tx.Commit(); err != nil {
		return nil, unavailable("commit", err)
	}
	return skipped, nil
}

// Delete removes a document and its pillar associations.
func (s *Store) Delete(ctx context.Context, kind store.Kind, slug string) error {
	res, err := s.conn.ExecContext(ctx, "DELETE FROM documents WHERE kind = ? AND slug = ?", string(kind), slug)
	if err != nil {
		return unavailable("delete document", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s/%s", store.ErrNotFound, kind, slug)
	}
	return nil
}

// unavailable wraps a driver error. Context errors stay matchable.
func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", store.ErrUnavailable, op, err)
}

// Compile-time interface check.
var _ store.Store = (*Store)(nil)
