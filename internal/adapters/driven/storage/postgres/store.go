// Package postgres provides a ChunkStore on PostgreSQL with the pgvector
// extension, for deployments that share one corpus across instances.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/core/ports/driven"
	"github.com/custodia-labs/lexground/internal/logger"
	"github.com/custodia-labs/lexground/internal/metrics"
	"github.com/custodia-labs/lexground/internal/textutil"
)

// Ensure Store implements the interface.
var _ driven.ChunkStore = (*Store)(nil)

//go:embed schema.sql
var schema string

// Store is a pgvector-backed ChunkStore.
type Store struct {
	db      *sqlx.DB
	metrics *metrics.Metrics
}

// Option configures a Store.
type Option func(*Store)

// WithMetrics records lexical fallbacks.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// Open connects to dsn and applies the schema.
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to postgres: %w", domain.ErrStoreUnavailable, err)
	}
	s := New(db, opts...)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing connection. The schema is not touched.
func New(db *sqlx.DB, opts ...Option) *Store {
	s := &Store{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate creates the extension, tables and full-text index if missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// documentRow mirrors the documents table.
type documentRow struct {
	ID           string       `db:"id"`
	Title        string       `db:"title"`
	Content      string       `db:"content"`
	Source       string       `db:"source"`
	SourceURL    string       `db:"source_url"`
	Jurisdiction string       `db:"jurisdiction"`
	PracticeArea string       `db:"practice_area"`
	DocumentType string       `db:"document_type"`
	PublishedAt  sql.NullTime `db:"published_at"`
	Metadata     []byte       `db:"metadata"`
	CreatedAt    time.Time    `db:"created_at"`
}

func (r documentRow) document() (*domain.Document, error) {
	doc := &domain.Document{
		ID:           r.ID,
		Title:        r.Title,
		Content:      r.Content,
		Source:       r.Source,
		SourceURL:    r.SourceURL,
		Jurisdiction: r.Jurisdiction,
		PracticeArea: r.PracticeArea,
		DocumentType: r.DocumentType,
		CreatedAt:    r.CreatedAt,
	}
	if r.PublishedAt.Valid {
		t := r.PublishedAt.Time
		doc.PublishedAt = &t
	}
	if len(r.Metadata) > 0 {
		if err := json.Unmarshal(r.Metadata, &doc.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshalling metadata: %w", err)
		}
	}
	return doc, nil
}

// SaveDocument creates or replaces a document row.
func (s *Store) SaveDocument(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	metadata, err := jsonObject(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}
	var published sql.NullTime
	if doc.PublishedAt != nil {
		published = sql.NullTime{Time: *doc.PublishedAt, Valid: true}
	}

	query := `
		INSERT INTO documents (
			id, title, content, source, source_url, jurisdiction,
			practice_area, document_type, published_at, metadata, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			source = EXCLUDED.source,
			source_url = EXCLUDED.source_url,
			jurisdiction = EXCLUDED.jurisdiction,
			practice_area = EXCLUDED.practice_area,
			document_type = EXCLUDED.document_type,
			published_at = EXCLUDED.published_at,
			metadata = EXCLUDED.metadata`

	_, err = s.db.ExecContext(ctx, query,
		doc.ID, doc.Title, doc.Content, doc.Source, doc.SourceURL, doc.Jurisdiction,
		doc.PracticeArea, doc.DocumentType, published, metadata, doc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// ReplaceChunks swaps a document's chunk set in one transaction.
func (s *Store) ReplaceChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}

	query := `
		INSERT INTO chunks (
			id, document_id, position, content, section, citations,
			embedding, embedding_degraded, metadata
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7::vector, $8, $9
		)`

	for i := range chunks {
		c := &chunks[i]
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		metadata, err := jsonObject(c.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling chunk metadata: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query,
			c.ID, documentID, c.Index, c.Content, c.Section, pq.StringArray(nonNil(c.Citations)),
			vectorLiteral(c.Embedding), c.EmbeddingDegraded, metadata,
		); err != nil {
			return fmt.Errorf("saving chunk %d: %w", c.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing chunks: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	var row documentRow
	query := `
		SELECT id, title, content, source, source_url, jurisdiction,
		       practice_area, document_type, published_at, metadata, created_at
		FROM documents
		WHERE id = $1`

	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("getting document: %w", err)
	}
	return row.document()
}

// DeleteDocument removes a document. Its chunks cascade.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// CountChunks returns the number of persisted chunks.
func (s *Store) CountChunks(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM chunks`); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// resultRow is a chunk joined with the document fields a result needs.
type resultRow struct {
	DocumentID  string         `db:"document_id"`
	Title       string         `db:"title"`
	Source      string         `db:"source"`
	SourceURL   string         `db:"source_url"`
	PublishedAt sql.NullTime   `db:"published_at"`
	Metadata    []byte         `db:"metadata"`
	ChunkID     string         `db:"chunk_id"`
	Position    int            `db:"position"`
	Content     string         `db:"content"`
	Citations   pq.StringArray `db:"citations"`
}

const resultColumns = `
		d.id AS document_id, d.title, d.source, d.source_url, d.published_at, d.metadata,
		c.id AS chunk_id, c.position, c.content, c.citations`

// filterPredicate uses fixed parameters $2..$4; an empty value disables
// its predicate.
const filterPredicate = `
		AND ($2 = '' OR lower(d.jurisdiction) = lower($2))
		AND ($3 = '' OR lower(d.practice_area) = lower($3))
		AND ($4 = '' OR lower(d.document_type) = lower($4))`

// SimilaritySearch orders chunks by pgvector cosine distance. Any failure
// on the vector path falls back to LexicalSearch on q.Text.
func (s *Store) SimilaritySearch(
	ctx context.Context, q domain.SimilarityQuery, limit int, filters domain.Filters,
) ([]domain.SearchResult, error) {
	if limit <= 0 {
		return nil, nil
	}

	results, err := s.vectorSearch(ctx, q.Vector, limit, filters)
	if err == nil {
		return results, nil
	}

	logger.Warn("postgres: %v, falling back to lexical search", err)
	s.metrics.RecordVectorFallback()
	return s.LexicalSearch(ctx, q.Text, limit, filters)
}

func (s *Store) vectorSearch(
	ctx context.Context, vector []float32, limit int, filters domain.Filters,
) ([]domain.SearchResult, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", domain.ErrVectorQueryFailed)
	}

	query := `
		SELECT` + resultColumns + `
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE c.embedding IS NOT NULL` + filterPredicate + `
		ORDER BY c.embedding <=> $1::vector, c.document_id, c.position
		LIMIT $5`

	var rows []resultRow
	err := s.db.SelectContext(ctx, &rows, query, vectorLiteral(vector),
		filters.Jurisdiction, filters.PracticeArea, filters.DocumentType, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrVectorQueryFailed, err)
	}
	return toResults(rows)
}

// LexicalSearch ranks chunks with ts_rank over the English configuration.
// Query terms are OR-ed so a partial match still ranks.
func (s *Store) LexicalSearch(
	ctx context.Context, query string, limit int, filters domain.Filters,
) ([]domain.SearchResult, error) {
	tsquery := tsQuery(query)
	if tsquery == "" || limit <= 0 {
		return nil, nil
	}

	sqlQuery := `
		SELECT` + resultColumns + `
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE to_tsvector('english', c.content) @@ to_tsquery('english', $1)` + filterPredicate + `
		ORDER BY ts_rank(to_tsvector('english', c.content), to_tsquery('english', $1)) DESC,
		         c.document_id, c.position
		LIMIT $5`

	var rows []resultRow
	err := s.db.SelectContext(ctx, &rows, sqlQuery, tsquery,
		filters.Jurisdiction, filters.PracticeArea, filters.DocumentType, limit)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: lexical search: %w", domain.ErrStoreUnavailable, err)
	}
	return toResults(rows)
}

func toResults(rows []resultRow) ([]domain.SearchResult, error) {
	results := make([]domain.SearchResult, 0, len(rows))
	for _, r := range rows {
		doc, err := documentRow{
			ID:          r.DocumentID,
			Title:       r.Title,
			Source:      r.Source,
			SourceURL:   r.SourceURL,
			PublishedAt: r.PublishedAt,
			Metadata:    r.Metadata,
		}.document()
		if err != nil {
			return nil, err
		}
		results = append(results, domain.InternalResult(doc, domain.Chunk{
			ID:         r.ChunkID,
			DocumentID: r.DocumentID,
			Index:      r.Position,
			Content:    r.Content,
			Citations:  r.Citations,
		}))
	}
	return results, nil
}

// vectorLiteral formats v in pgvector's text form. An empty vector is NULL.
func vectorLiteral(v []float32) any {
	if len(v) == 0 {
		return nil
	}
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = strconv.FormatFloat(float64(f), 'g', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// tsQuery ORs the query terms. Terms are letters and digits only, so no
// tsquery operator can leak in.
func tsQuery(query string) string {
	return strings.Join(textutil.QueryTerms(query), " | ")
}

func jsonObject(m map[string]any) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
