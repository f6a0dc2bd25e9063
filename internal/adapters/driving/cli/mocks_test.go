package cli

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/core/ports/driving"
)

type mockRetrieval struct {
	resp    *domain.RetrievalResponse
	err     error
	lastReq domain.RetrievalRequest
}

func (m *mockRetrieval) Retrieve(_ context.Context, req domain.RetrievalRequest) (*domain.RetrievalResponse, error) {
	m.lastReq = req
	return m.resp, m.err
}

func (m *mockRetrieval) Search(context.Context, string, domain.RetrievalOptions) ([]domain.SearchResult, error) {
	if m.resp == nil {
		return nil, m.err
	}
	return m.resp.Results, m.err
}

type mockAnswer struct {
	tokens   []string
	answer   *domain.Answer
	err      error
	lastOpts driving.AnswerOptions
}

func (m *mockAnswer) Prepare(context.Context, string, driving.AnswerOptions) (*domain.RetrievalResponse, error) {
	return &domain.RetrievalResponse{}, nil
}

func (m *mockAnswer) Generate(
	_ context.Context, _ string, _ []domain.ChatMessage, _ *domain.RetrievalResponse, onToken func(string),
) (*domain.Answer, error) {
	for _, tok := range m.tokens {
		onToken(tok)
	}
	return m.answer, m.err
}

func (m *mockAnswer) Answer(
	ctx context.Context, question string, history []domain.ChatMessage,
	opts driving.AnswerOptions, onToken func(string),
) (*domain.Answer, error) {
	m.lastOpts = opts
	return m.Generate(ctx, question, history, nil, onToken)
}

type mockIngest struct {
	mu       sync.Mutex
	files    []string
	removed  []string
	meta     domain.Document
	fileErrs map[string]error
	importFn func(provider, id string) (*driving.IngestResult, error)
}

func (m *mockIngest) Ingest(context.Context, *domain.Document) (*driving.IngestResult, error) {
	return &driving.IngestResult{}, nil
}

func (m *mockIngest) IngestFile(_ context.Context, path string, meta domain.Document) (*driving.IngestResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fileErrs[filepath.Base(path)]; err != nil {
		return nil, err
	}
	m.files = append(m.files, path)
	m.meta = meta
	return &driving.IngestResult{DocumentID: "doc-" + filepath.Base(path), Chunks: 2}, nil
}

func (m *mockIngest) RemoveFile(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, path)
	return nil
}

func (m *mockIngest) Import(_ context.Context, provider, id string) (*driving.IngestResult, error) {
	if m.importFn != nil {
		return m.importFn(provider, id)
	}
	return &driving.IngestResult{DocumentID: "imported", Chunks: 3}, nil
}

type mockProviders struct {
	health []domain.ProviderHealth
}

func (m *mockProviders) Names() []string {
	names := make([]string, len(m.health))
	for i, h := range m.health {
		names[i] = h.Provider
	}
	return names
}

func (m *mockProviders) Health(context.Context) []domain.ProviderHealth {
	return m.health
}

type mockDocuments struct {
	docs map[string]*domain.Document
}

func (m *mockDocuments) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	if doc, ok := m.docs[id]; ok {
		return doc, nil
	}
	return nil, domain.ErrNotFound
}

type mockSettings struct {
	settings    domain.Settings
	embedding   []string
	llm         []string
	validateErr error
}

func (m *mockSettings) Get() (*domain.Settings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettings) Save(s *domain.Settings) error {
	m.settings = *s
	return nil
}

func (m *mockSettings) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.embedding = []string{string(provider), model, apiKey}
	return nil
}

func (m *mockSettings) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	m.llm = []string{string(provider), model, apiKey}
	return nil
}

func (m *mockSettings) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

func (m *mockSettings) ValidateEmbeddingConfig() error {
	return m.validateErr
}

func (m *mockSettings) ValidateLLMConfig() error {
	return m.validateErr
}

// setupTestServices installs mocks and returns a cleanup that restores the
// previous services and flag values.
func setupTestServices(s Services) func() {
	prev := Services{
		Retrieval: retrievalService,
		Answer:    answerService,
		Ingest:    ingestService,
		Providers: providerRegistry,
		Settings:  settingsService,
		Documents: documentReader,
		Metrics:   serverMetrics,
		Server:    serverConfig,
	}
	SetServices(s)

	return func() {
		SetServices(prev)
		searchFlags = retrievalFlags{limit: domain.DefaultRetrievalLimit}
		askFlags = retrievalFlags{limit: domain.DefaultRetrievalLimit}
		tuiFlags = retrievalFlags{limit: domain.DefaultRetrievalLimit}
		searchJSON = false
		providersJSON = false
		documentContent = false
		ingestWatch = false
		ingestSource, ingestJurisdiction, ingestPracticeArea, ingestDocumentType = "", "", "", ""
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}
}
