package sqlite

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/logger"
	"github.com/custodia-labs/lexground/internal/metrics"
)

// setupTestStore creates a SQLite store in a temporary directory.
func setupTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

func saveDoc(t *testing.T, store *Store, doc *domain.Document, chunks ...domain.Chunk) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.SaveDocument(ctx, doc))
	require.NoError(t, store.ReplaceChunks(ctx, doc.ID, chunks))
}

func seed(t *testing.T, store *Store) {
	t.Helper()
	decided := time.Date(1966, 6, 13, 0, 0, 0, 0, time.UTC)

	saveDoc(t, store, &domain.Document{
		ID: "miranda", Title: "Miranda v. Arizona", Content: "…", Source: "Firm Library",
		Jurisdiction: "federal", PracticeArea: "criminal", DocumentType: "case",
		PublishedAt: &decided, Metadata: map[string]any{"court": "scotus"},
	},
		domain.Chunk{ID: "m0", Index: 0, Content: "Custodial interrogation requires warnings.",
			Citations: []string{"384 U.S. 436"}, Embedding: []float32{1, 0, 0}},
		domain.Chunk{ID: "m1", Index: 1, Content: "The privilege against self-incrimination applies.",
			Embedding: []float32{0.7, 0.7, 0}},
	)
	saveDoc(t, store, &domain.Document{
		ID: "title-vii", Title: "42 U.S.C. § 2000e-2", Content: "…", Source: "Firm Library",
		Jurisdiction: "federal", PracticeArea: "employment", DocumentType: "statute",
	},
		domain.Chunk{ID: "t0", Index: 0, Content: "Unlawful employment practices include discrimination.",
			Embedding: []float32{0, 0, 1}},
	)
}

func TestNewStore_MigratesOnce(t *testing.T) {
	dir := t.TempDir()

	first, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	var versions int
	require.NoError(t, second.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&versions))
	assert.Equal(t, 1, versions)
	assert.Contains(t, second.Path(), dbFile)
}

func TestSaveAndGetDocument(t *testing.T) {
	store := setupTestStore(t)
	seed(t, store)

	doc, err := store.GetDocument(context.Background(), "miranda")
	require.NoError(t, err)
	assert.Equal(t, "Miranda v. Arizona", doc.Title)
	assert.Equal(t, "criminal", doc.PracticeArea)
	require.NotNil(t, doc.PublishedAt)
	assert.Equal(t, 1966, doc.PublishedAt.Year())
	assert.Equal(t, "scotus", doc.Metadata["court"])
	assert.False(t, doc.CreatedAt.IsZero())

	_, err = store.GetDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, store.SaveDocument(context.Background(), &domain.Document{}), domain.ErrInvalidInput)
}

func TestReplaceChunks_ReplacesWholeSet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	seed(t, store)

	n, err := store.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, store.ReplaceChunks(ctx, "miranda", []domain.Chunk{
		{Index: 0, Content: "Rewritten holding."},
	}))
	n, err = store.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// The FTS mirror follows the replacement.
	old, err := store.LexicalSearch(ctx, "custodial interrogation", 10, domain.Filters{})
	require.NoError(t, err)
	assert.Empty(t, old)

	fresh, err := store.LexicalSearch(ctx, "rewritten holding", 10, domain.Filters{})
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.NotEmpty(t, fresh[0].ID)
}

func TestDeleteDocument_CascadesChunks(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	seed(t, store)

	require.NoError(t, store.DeleteDocument(ctx, "miranda"))

	n, err := store.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	results, err := store.LexicalSearch(ctx, "self-incrimination", 10, domain.Filters{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSimilaritySearch_OrdersByDistance(t *testing.T) {
	store := setupTestStore(t)
	seed(t, store)

	results, err := store.SimilaritySearch(context.Background(),
		domain.SimilarityQuery{Vector: []float32{1, 0.1, 0}, Text: "warnings"}, 10, domain.Filters{})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, []string{"m0", "m1", "t0"}, []string{results[0].ID, results[1].ID, results[2].ID})

	first := results[0]
	assert.Equal(t, domain.SourceTypeInternal, first.SourceType)
	assert.Equal(t, domain.ProviderInternal, first.Provider)
	assert.Equal(t, "Firm Library", first.Source)
	assert.Equal(t, "384 U.S. 436", first.Citation)
	assert.Equal(t, "scotus", first.Court)
	assert.Equal(t, "Miranda v. Arizona", first.Title)
}

func TestSimilaritySearch_FiltersAndLimit(t *testing.T) {
	store := setupTestStore(t)
	seed(t, store)
	ctx := context.Background()
	q := domain.SimilarityQuery{Vector: []float32{0, 0, 1}}

	results, err := store.SimilaritySearch(ctx, q, 10, domain.Filters{PracticeArea: "CRIMINAL"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, "Miranda v. Arizona", r.Title)
	}

	results, err = store.SimilaritySearch(ctx, q, 1, domain.Filters{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "t0", results[0].ID)

	results, err = store.SimilaritySearch(ctx, q, 10, domain.Filters{Jurisdiction: "CA"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSimilaritySearch_FallsBackToLexical(t *testing.T) {
	var logs bytes.Buffer
	logger.SetOutput(&logs)
	logger.SetVerbose(true)
	t.Cleanup(func() { logger.SetVerbose(false) })

	m := metrics.New()
	store := setupTestStore(t, WithMetrics(m))
	seed(t, store)

	tests := []struct {
		name   string
		vector []float32
	}{
		{"empty vector", nil},
		{"dimension mismatch", []float32{1, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := store.SimilaritySearch(context.Background(),
				domain.SimilarityQuery{Vector: tt.vector, Text: "employment discrimination"},
				10, domain.Filters{DocumentType: "statute"})
			require.NoError(t, err)
			require.Len(t, results, 1)
			assert.Equal(t, "t0", results[0].ID)
		})
	}
	assert.Contains(t, logs.String(), "vector query failed")
}

func TestLexicalSearch(t *testing.T) {
	store := setupTestStore(t)
	seed(t, store)
	ctx := context.Background()

	results, err := store.LexicalSearch(ctx, "what about interrogation warnings?", 10, domain.Filters{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "m0", results[0].ID)

	results, err = store.LexicalSearch(ctx, "interrogation", 10, domain.Filters{DocumentType: "statute"})
	require.NoError(t, err)
	assert.Empty(t, results)

	// Only stopwords and punctuation: no query, no error.
	results, err = store.LexicalSearch(ctx, `the "a" * OR`, 10, domain.Filters{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFloat32RoundTrip(t *testing.T) {
	in := []float32{0, -1.5, 3.25, 1e-7}
	assert.Equal(t, in, bytesToFloat32Slice(float32SliceToBytes(in)))
	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, bytesToFloat32Slice(nil))
}

func TestMatchExpression(t *testing.T) {
	assert.Equal(t, `"miranda" OR "warnings"`, matchExpression("Miranda warnings"))
	assert.Empty(t, matchExpression("the a"))
}
