package http

import (
	"context"

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
	grounding  *domain.RetrievalResponse
	prepareErr error
	tokens     []string
	genErr     error
}

func (m *mockAnswer) Prepare(context.Context, string, driving.AnswerOptions) (*domain.RetrievalResponse, error) {
	return m.grounding, m.prepareErr
}

func (m *mockAnswer) Generate(
	_ context.Context, _ string, _ []domain.ChatMessage,
	grounding *domain.RetrievalResponse, onToken func(string),
) (*domain.Answer, error) {
	text := ""
	for _, tok := range m.tokens {
		onToken(tok)
		text += tok
	}
	if m.genErr != nil {
		return nil, m.genErr
	}
	return &domain.Answer{Text: text, Citations: grounding.Citations, Degraded: grounding.Degraded}, nil
}

func (m *mockAnswer) Answer(
	ctx context.Context, question string, history []domain.ChatMessage,
	opts driving.AnswerOptions, onToken func(string),
) (*domain.Answer, error) {
	g, err := m.Prepare(ctx, question, opts)
	if err != nil {
		return nil, err
	}
	return m.Generate(ctx, question, history, g, onToken)
}

type mockIngest struct {
	result   *driving.IngestResult
	err      error
	provider string
	id       string
}

func (m *mockIngest) Ingest(context.Context, *domain.Document) (*driving.IngestResult, error) {
	return m.result, m.err
}

func (m *mockIngest) IngestFile(context.Context, string, domain.Document) (*driving.IngestResult, error) {
	return m.result, m.err
}

func (m *mockIngest) RemoveFile(context.Context, string) error {
	return m.err
}

func (m *mockIngest) Import(_ context.Context, provider, id string) (*driving.IngestResult, error) {
	m.provider, m.id = provider, id
	return m.result, m.err
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
