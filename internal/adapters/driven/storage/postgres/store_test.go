package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexground/internal/core/domain"
)

var resultCols = []string{
	"document_id", "title", "source", "source_url", "published_at", "metadata",
	"chunk_id", "position", "content", "citations",
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		if closeErr := db.Close(); closeErr != nil {
			t.Logf("Failed to close mock db: %v", closeErr)
		}
	})
	return New(sqlx.NewDb(db, "sqlmock")), mock
}

func TestSaveDocument(t *testing.T) {
	store, mock := newMockStore(t)
	decided := time.Date(1963, 3, 18, 0, 0, 0, 0, time.UTC)
	doc := &domain.Document{
		ID: "gideon", Title: "Gideon v. Wainwright", Content: "…", Source: "CourtListener",
		Jurisdiction: "federal", PracticeArea: "criminal", DocumentType: "case",
		PublishedAt: &decided, Metadata: map[string]any{"court": "scotus"},
	}

	mock.ExpectExec("INSERT INTO documents").
		WithArgs("gideon", "Gideon v. Wainwright", "…", "CourtListener", "", "federal",
			"criminal", "case", sqlmock.AnyArg(), []byte(`{"court":"scotus"}`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.SaveDocument(context.Background(), doc))
	assert.False(t, doc.CreatedAt.IsZero())

	assert.ErrorIs(t, store.SaveDocument(context.Background(), &domain.Document{}), domain.ErrInvalidInput)
}

func TestReplaceChunks(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM chunks WHERE document_id").
		WithArgs("gideon").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO chunks").
		WithArgs("c0", "gideon", 0, "Counsel is required.", "", sqlmock.AnyArg(), "[1,0.5]", false, []byte("{}")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO chunks").
		WithArgs(sqlmock.AnyArg(), "gideon", 1, "No embedding yet.", "", sqlmock.AnyArg(), nil, true, []byte("{}")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	chunks := []domain.Chunk{
		{ID: "c0", Index: 0, Content: "Counsel is required.", Embedding: []float32{1, 0.5}},
		{Index: 1, Content: "No embedding yet.", EmbeddingDegraded: true},
	}
	require.NoError(t, store.ReplaceChunks(context.Background(), "gideon", chunks))
	assert.NotEmpty(t, chunks[1].ID)
}

func TestReplaceChunks_RollsBackOnError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM chunks").WithArgs("gideon").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO chunks").WillReturnError(errors.New("unique violation"))
	mock.ExpectRollback()

	err := store.ReplaceChunks(context.Background(), "gideon", []domain.Chunk{{ID: "c0", Content: "x"}})
	assert.ErrorContains(t, err, "unique violation")
}

func TestGetDocument(t *testing.T) {
	store, mock := newMockStore(t)
	cols := []string{"id", "title", "content", "source", "source_url", "jurisdiction",
		"practice_area", "document_type", "published_at", "metadata", "created_at"}
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = \\$1").
		WithArgs("flsa").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("flsa", "29 U.S.C. § 207", "text", "GovInfo", "",
			"federal", "employment", "statute", nil, []byte(`{"package":"USCODE-2023"}`), now))
	mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = \\$1").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(cols))

	doc, err := store.GetDocument(context.Background(), "flsa")
	require.NoError(t, err)
	assert.Equal(t, "statute", doc.DocumentType)
	assert.Nil(t, doc.PublishedAt)
	assert.Equal(t, "USCODE-2023", doc.Metadata["package"])

	_, err = store.GetDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSimilaritySearch(t *testing.T) {
	store, mock := newMockStore(t)
	decided := time.Date(1966, 6, 13, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`ORDER BY c.embedding <=> \$1::vector`).
		WithArgs("[1,0]", "", "criminal", "", 5).
		WillReturnRows(sqlmock.NewRows(resultCols).
			AddRow("miranda", "Miranda v. Arizona", "Firm Library", "https://example.test/miranda",
				decided, []byte(`{"court":"scotus"}`), "m0", 0, "Warnings are required.", `{"384 U.S. 436"}`))

	results, err := store.SimilaritySearch(context.Background(),
		domain.SimilarityQuery{Vector: []float32{1, 0}, Text: "warnings"}, 5,
		domain.Filters{PracticeArea: "criminal"})
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, "m0", r.ID)
	assert.Equal(t, "384 U.S. 436", r.Citation)
	assert.Equal(t, "scotus", r.Court)
	assert.Equal(t, domain.SourceTypeInternal, r.SourceType)
	require.NotNil(t, r.Date)
	assert.Equal(t, 1966, r.Date.Year())
}

func TestSimilaritySearch_FallsBackToLexical(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`ORDER BY c.embedding <=>`).
		WillReturnError(errors.New("pq: different vector dimensions 768 and 1536"))
	mock.ExpectQuery(`to_tsquery\('english', \$1\)`).
		WithArgs("miranda | warnings", "", "", "", 3).
		WillReturnRows(sqlmock.NewRows(resultCols).
			AddRow("miranda", "Miranda v. Arizona", "Firm Library", "", nil, []byte(`{}`),
				"m0", 0, "Miranda warnings.", `{}`))

	results, err := store.SimilaritySearch(context.Background(),
		domain.SimilarityQuery{Vector: []float32{1, 0}, Text: "what are Miranda warnings"}, 3, domain.Filters{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "m0", results[0].ID)
	assert.Empty(t, results[0].Citation)
}

func TestLexicalSearch_Errors(t *testing.T) {
	store, mock := newMockStore(t)

	results, err := store.LexicalSearch(context.Background(), "the", 5, domain.Filters{})
	require.NoError(t, err)
	assert.Empty(t, results)

	mock.ExpectQuery("to_tsquery").WillReturnError(errors.New("connection refused"))
	_, err = store.LexicalSearch(context.Background(), "overtime", 5, domain.Filters{})
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestVectorLiteral(t *testing.T) {
	assert.Nil(t, vectorLiteral(nil))
	assert.Equal(t, "[0.25,-1,3]", vectorLiteral([]float32{0.25, -1, 3}))
}
