package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/core/ports/driven"
	"github.com/custodia-labs/lexground/internal/core/ports/driving"
	"github.com/custodia-labs/lexground/internal/logger"
	"github.com/custodia-labs/lexground/internal/metrics"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// DefaultMaxFileBytes bounds files read by IngestFile.
const DefaultMaxFileBytes = 32 << 20

// LocalFilesSource labels documents ingested from disk.
const LocalFilesSource = "Local files"

// IngestService chunks documents, embeds the chunks and replaces them in
// the store.
type IngestService struct {
	store        driven.ChunkStore
	pipeline     driven.PostProcessorPipeline
	embedder     driving.EmbeddingService
	normalisers  driven.NormaliserRegistry
	providers    []driven.RetrievalProvider
	maxFileBytes int64
	now          func() time.Time
	metrics      *metrics.Metrics
}

// IngestOption configures an IngestService.
type IngestOption func(*IngestService)

// WithNormalisers enables IngestFile.
func WithNormalisers(r driven.NormaliserRegistry) IngestOption {
	return func(s *IngestService) {
		s.normalisers = r
	}
}

// WithImportProviders sets the providers Import can fetch from.
func WithImportProviders(providers []driven.RetrievalProvider) IngestOption {
	return func(s *IngestService) {
		s.providers = providers
	}
}

// WithMaxFileBytes bounds the size of ingested files.
func WithMaxFileBytes(n int64) IngestOption {
	return func(s *IngestService) {
		if n > 0 {
			s.maxFileBytes = n
		}
	}
}

// WithIngestClock sets the clock used for CreatedAt.
func WithIngestClock(now func() time.Time) IngestOption {
	return func(s *IngestService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIngestMetrics records ingestion metrics.
func WithIngestMetrics(m *metrics.Metrics) IngestOption {
	return func(s *IngestService) {
		s.metrics = m
	}
}

// NewIngestService creates an ingest service.
func NewIngestService(
	store driven.ChunkStore,
	pipeline driven.PostProcessorPipeline,
	embedder driving.EmbeddingService,
	opts ...IngestOption,
) *IngestService {
	s := &IngestService{
		store:        store,
		pipeline:     pipeline,
		embedder:     embedder,
		maxFileBytes: DefaultMaxFileBytes,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest replaces doc and its whole chunk set. A document without an ID
// gets a random one; empty content yields zero chunks.
func (s *IngestService) Ingest(ctx context.Context, doc *domain.Document) (*driving.IngestResult, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", domain.ErrInvalidInput)
	}
	start := time.Now()

	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = s.now()
	}

	chunks, err := s.pipeline.Process(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("chunk document %s: %w", doc.ID, err)
	}

	degraded := 0
	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i := range chunks {
			texts[i] = chunks[i].Content
		}
		embeddings, err := s.embedder.EmbedBatch(ctx, texts, "")
		if err != nil {
			return nil, fmt.Errorf("embed chunks: %w", err)
		}
		for i := range chunks {
			chunks[i].Embedding = embeddings[i].Vector
			chunks[i].EmbeddingDegraded = embeddings[i].Degraded
			if embeddings[i].Degraded {
				degraded++
			}
		}
	}

	if err := s.store.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document %s: %w", doc.ID, err)
	}
	if err := s.store.ReplaceChunks(ctx, doc.ID, chunks); err != nil {
		return nil, fmt.Errorf("save chunks for %s: %w", doc.ID, err)
	}

	s.metrics.RecordIngest(len(chunks))
	if degraded > 0 {
		logger.Warn("%d of %d chunks of %q have fallback embeddings", degraded, len(chunks), doc.Title)
	}
	logger.Info("Ingested %q: %d chunks", doc.Title, len(chunks))
	logger.Elapsed("ingest", start)

	return &driving.IngestResult{
		DocumentID: doc.ID,
		Chunks:     len(chunks),
		Degraded:   degraded,
	}, nil
}

// IngestFile reads and normalises a file, then ingests it. The document ID
// is derived from the absolute path so re-ingesting replaces the previous
// chunks. meta supplies title, source and legal classification overrides.
func (s *IngestService) IngestFile(
	ctx context.Context, path string, meta domain.Document,
) (*driving.IngestResult, error) {
	if s.normalisers == nil {
		return nil, fmt.Errorf("%w: file ingestion not configured", domain.ErrInvalidInput)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	mimeType := s.normalisers.DetectMIMEType(abs)
	if mimeType == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, filepath.Base(abs))
	}

	content, err := s.readFile(abs)
	if err != nil {
		return nil, err
	}

	doc, err := s.normalisers.Normalise(ctx, &domain.RawDocument{
		URI:      abs,
		MIMEType: mimeType,
		Content:  content,
	})
	if err != nil {
		return nil, fmt.Errorf("normalise %s: %w", abs, err)
	}

	doc.ID = FileDocumentID(abs)
	doc.SourceURL = "file://" + filepath.ToSlash(abs)
	doc.Source = LocalFilesSource
	applyMeta(doc, meta)
	if doc.Metadata == nil {
		doc.Metadata = make(map[string]any)
	}
	doc.Metadata["path"] = abs

	return s.Ingest(ctx, doc)
}

// RemoveFile deletes the document ingested from path.
func (s *IngestService) RemoveFile(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	if err := s.store.DeleteDocument(ctx, FileDocumentID(abs)); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("delete %s: %w", abs, err)
	}
	logger.Info("Removed %s", abs)
	return nil
}

// Import fetches a document from a named provider and ingests it.
func (s *IngestService) Import(ctx context.Context, provider, id string) (*driving.IngestResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: empty document id", domain.ErrInvalidInput)
	}

	var p driven.RetrievalProvider
	for _, candidate := range s.providers {
		if candidate.Name() == provider {
			p = candidate
			break
		}
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrProviderNotFound, provider)
	}

	doc, err := p.Fetch(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch %s from %s: %w", id, provider, err)
	}
	if doc.ID == "" {
		doc.ID = uuid.NewSHA1(uuid.NameSpaceURL, []byte(provider+":"+id)).String()
	}

	logger.Debug("Imported %s/%s as %s", provider, id, doc.ID)
	return s.Ingest(ctx, doc)
}

// FileDocumentID returns the stable document ID for an absolute path.
func FileDocumentID(abs string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(abs))).String()
}

func (s *IngestService) readFile(abs string) ([]byte, error) {
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", abs, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", domain.ErrInvalidInput, abs)
	}
	if info.Size() > s.maxFileBytes {
		return nil, fmt.Errorf("%w: %s is larger than %d bytes", domain.ErrInvalidInput, abs, s.maxFileBytes)
	}
	//nolint:gosec // path is supplied by the operator
	content, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", abs, err)
	}
	return content, nil
}

// applyMeta overrides document fields with any non-empty meta fields.
func applyMeta(doc *domain.Document, meta domain.Document) {
	if meta.Title != "" {
		doc.Title = meta.Title
	}
	if meta.Source != "" {
		doc.Source = meta.Source
	}
	if meta.Jurisdiction != "" {
		doc.Jurisdiction = meta.Jurisdiction
	}
	if meta.PracticeArea != "" {
		doc.PracticeArea = meta.PracticeArea
	}
	if meta.DocumentType != "" {
		doc.DocumentType = meta.DocumentType
	}
	if meta.PublishedAt != nil {
		doc.PublishedAt = meta.PublishedAt
	}
	for k, v := range meta.Metadata {
		if doc.Metadata == nil {
			doc.Metadata = make(map[string]any)
		}
		doc.Metadata[k] = v
	}
}
