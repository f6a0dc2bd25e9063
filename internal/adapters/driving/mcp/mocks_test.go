package mcp

import (
	"context"

	"github.com/custodia-labs/lexground/internal/core/domain"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	resp    *domain.RetrievalResponse
	err     error
	lastReq domain.RetrievalRequest
}

func (m *mockRetrievalService) Retrieve(_ context.Context, req domain.RetrievalRequest) (*domain.RetrievalResponse, error) {
	m.lastReq = req
	return m.resp, m.err
}

func (m *mockRetrievalService) Search(
	_ context.Context,
	_ string,
	_ domain.RetrievalOptions,
) ([]domain.SearchResult, error) {
	if m.resp == nil {
		return nil, m.err
	}
	return m.resp.Results, m.err
}

// mockProviderRegistry is a mock implementation of driving.ProviderRegistry.
type mockProviderRegistry struct {
	health []domain.ProviderHealth
}

func (m *mockProviderRegistry) Names() []string {
	names := make([]string, len(m.health))
	for i, h := range m.health {
		names[i] = h.Provider
	}
	return names
}

func (m *mockProviderRegistry) Health(_ context.Context) []domain.ProviderHealth {
	return m.health
}

// mockDocuments is a mock DocumentReader.
type mockDocuments struct {
	docs map[string]*domain.Document
	err  error
}

func (m *mockDocuments) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	doc, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}
