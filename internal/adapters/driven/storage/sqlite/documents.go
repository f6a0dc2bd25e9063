package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/lexground/internal/core/domain"
)

const documentColumns = `d.id, d.title, d.content, d.source, d.source_url, d.jurisdiction,
	d.practice_area, d.document_type, d.published_at, d.metadata, d.created_at`

// SaveDocument creates or replaces a document row. Existing chunks are kept.
func (s *Store) SaveDocument(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	metadata, err := marshalJSON(doc.Metadata, "{}")
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	var published sql.NullTime
	if doc.PublishedAt != nil {
		published = sql.NullTime{Time: doc.PublishedAt.UTC(), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (id, title, content, source, source_url, jurisdiction,
			practice_area, document_type, published_at, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			source = excluded.source,
			source_url = excluded.source_url,
			jurisdiction = excluded.jurisdiction,
			practice_area = excluded.practice_area,
			document_type = excluded.document_type,
			published_at = excluded.published_at,
			metadata = excluded.metadata
	`, doc.ID, doc.Title, doc.Content, doc.Source, doc.SourceURL, doc.Jurisdiction,
		doc.PracticeArea, doc.DocumentType, published, metadata, doc.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// ReplaceChunks swaps a document's chunk set in one transaction, so readers
// see either the old set or the new one.
func (s *Store) ReplaceChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, position, content, section, citations,
			embedding, embedding_degraded, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing chunk insert: %w", err)
	}
	defer stmt.Close()

	for i := range chunks {
		c := &chunks[i]
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		citations, err := marshalJSON(c.Citations, "[]")
		if err != nil {
			return fmt.Errorf("marshalling citations: %w", err)
		}
		metadata, err := marshalJSON(c.Metadata, "{}")
		if err != nil {
			return fmt.Errorf("marshalling chunk metadata: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, c.ID, documentID, c.Index, c.Content, c.Section,
			citations, float32SliceToBytes(c.Embedding), c.EmbeddingDegraded, metadata); err != nil {
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
	row := s.db.QueryRowContext(ctx, "SELECT "+documentColumns+" FROM documents d WHERE d.id = ?", id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return doc, err
}

// DeleteDocument removes a document. Its chunks cascade.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// CountChunks returns the number of persisted chunks.
func (s *Store) CountChunks(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanDocument reads documentColumns followed by any extra destinations.
func scanDocument(row scanner, extra ...any) (*domain.Document, error) {
	var (
		doc       domain.Document
		published sql.NullTime
		metadata  string
	)
	dest := append([]any{&doc.ID, &doc.Title, &doc.Content, &doc.Source, &doc.SourceURL,
		&doc.Jurisdiction, &doc.PracticeArea, &doc.DocumentType, &published, &metadata,
		&doc.CreatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	if published.Valid {
		t := published.Time
		doc.PublishedAt = &t
	}
	if err := unmarshalJSON(metadata, &doc.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshalling metadata: %w", err)
	}
	return &doc, nil
}
