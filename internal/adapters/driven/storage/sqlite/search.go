package sqlite

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/logger"
	"github.com/custodia-labs/lexground/internal/textutil"
)

// SimilaritySearch ranks chunks by cosine distance to q.Vector. Candidates
// are narrowed by filters in SQL and scored in Go. Any failure on the
// vector path falls back to LexicalSearch on q.Text.
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

	logger.Warn("sqlite: %v, falling back to lexical search", err)
	s.metrics.RecordVectorFallback()
	return s.LexicalSearch(ctx, q.Text, limit, filters)
}

type candidate struct {
	result   domain.SearchResult
	distance float64
	docID    string
	position int
}

func (s *Store) vectorSearch(
	ctx context.Context, vector []float32, limit int, filters domain.Filters,
) ([]domain.SearchResult, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", domain.ErrVectorQueryFailed)
	}

	where, args := filterClause(filters)
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+documentColumns+`, c.id, c.position, c.content, c.citations, c.embedding
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE c.embedding IS NOT NULL`+where, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrVectorQueryFailed, err)
	}
	defer rows.Close()

	var candidates []candidate
	for rows.Next() {
		var (
			chunk     domain.Chunk
			citations string
			blob      []byte
		)
		doc, err := scanDocument(rows, &chunk.ID, &chunk.Index, &chunk.Content, &citations, &blob)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrVectorQueryFailed, err)
		}
		if err := unmarshalJSON(citations, &chunk.Citations); err != nil {
			return nil, fmt.Errorf("%w: chunk %s citations: %w", domain.ErrVectorQueryFailed, chunk.ID, err)
		}

		distance, err := domain.CosineDistance(vector, bytesToFloat32Slice(blob))
		if err != nil {
			return nil, fmt.Errorf("%w: chunk %s: %w", domain.ErrVectorQueryFailed, chunk.ID, err)
		}
		candidates = append(candidates, candidate{
			result:   domain.InternalResult(doc, chunk),
			distance: distance,
			docID:    doc.ID,
			position: chunk.Index,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrVectorQueryFailed, err)
	}

	return nearest(candidates, limit), nil
}

// nearest orders by ascending distance, breaking ties by document and
// position so equal scores come back in a stable order.
func nearest(candidates []candidate, limit int) []domain.SearchResult {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.distance != b.distance {
			return a.distance < b.distance
		}
		if a.docID != b.docID {
			return a.docID < b.docID
		}
		return a.position < b.position
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	results := make([]domain.SearchResult, len(candidates))
	for i, c := range candidates {
		results[i] = c.result
	}
	return results
}

// LexicalSearch ranks chunks with FTS5 bm25. Query terms are OR-ed so a
// partial match still ranks.
func (s *Store) LexicalSearch(
	ctx context.Context, query string, limit int, filters domain.Filters,
) ([]domain.SearchResult, error) {
	match := matchExpression(query)
	if match == "" || limit <= 0 {
		return nil, nil
	}

	where, args := filterClause(filters)
	args = append([]any{match}, args...)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+documentColumns+`, c.id, c.position, c.content, c.citations
		FROM chunks_fts
		JOIN chunks c ON c.rowid = chunks_fts.rowid
		JOIN documents d ON d.id = c.document_id
		WHERE chunks_fts MATCH ?`+where+`
		ORDER BY bm25(chunks_fts), c.document_id, c.position
		LIMIT ?`, args...)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: lexical search: %w", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var results []domain.SearchResult
	for rows.Next() {
		var (
			chunk     domain.Chunk
			citations string
		)
		doc, err := scanDocument(rows, &chunk.ID, &chunk.Index, &chunk.Content, &citations)
		if err != nil {
			return nil, err
		}
		if err := unmarshalJSON(citations, &chunk.Citations); err != nil {
			return nil, fmt.Errorf("unmarshalling citations: %w", err)
		}
		results = append(results, domain.InternalResult(doc, chunk))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating lexical results: %w", err)
	}
	return results, nil
}

// matchExpression turns free text into an FTS5 query of quoted terms.
// QueryTerms yields only letters and digits, so quoting is sufficient.
func matchExpression(query string) string {
	terms := textutil.QueryTerms(query)
	if len(terms) == 0 {
		return ""
	}
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + t + `"`
	}
	return strings.Join(quoted, " OR ")
}
