package tui

import (
	"context"

	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/core/ports/driving"
)

type mockRetrieval struct {
	resp *domain.RetrievalResponse
	err  error
}

func (m *mockRetrieval) Retrieve(context.Context, domain.RetrievalRequest) (*domain.RetrievalResponse, error) {
	return m.resp, m.err
}

func (m *mockRetrieval) Search(context.Context, string, domain.RetrievalOptions) ([]domain.SearchResult, error) {
	return nil, m.err
}

type mockAnswer struct {
	tokens []string
}

func (m *mockAnswer) Prepare(context.Context, string, driving.AnswerOptions) (*domain.RetrievalResponse, error) {
	return &domain.RetrievalResponse{}, nil
}

func (m *mockAnswer) Generate(
	_ context.Context, _ string, _ []domain.ChatMessage, g *domain.RetrievalResponse, onToken func(string),
) (*domain.Answer, error) {
	for _, tok := range m.tokens {
		onToken(tok)
	}
	return &domain.Answer{Citations: g.Citations}, nil
}

func (m *mockAnswer) Answer(
	ctx context.Context, q string, h []domain.ChatMessage, _ driving.AnswerOptions, onToken func(string),
) (*domain.Answer, error) {
	return m.Generate(ctx, q, h, &domain.RetrievalResponse{}, onToken)
}
