package search

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexground/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/lexground/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/lexground/internal/core/domain"
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
	return nil, m.err
}

func testResponse() *domain.RetrievalResponse {
	return &domain.RetrievalResponse{
		Results: []domain.SearchResult{
			{ID: "a", Title: "Miranda v. Arizona", Source: "CourtListener", Score: 0.9},
			{ID: "b", Title: "Dickerson v. United States", Source: "CourtListener", Score: 0.7},
		},
		Citations: []domain.CitationEntry{
			{Number: 1, ResultID: "a", Title: "Miranda v. Arizona"},
			{Number: 2, ResultID: "b", Title: "Dickerson v. United States"},
		},
		Degraded: true,
	}
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// submit types query, presses enter and applies the search result.
func submit(t *testing.T, v *View, query string) {
	t.Helper()
	for _, r := range query {
		v.Update(keyRune(r))
	}
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	v.Update(cmd())
}

func TestNewView_Defaults(t *testing.T) {
	v := NewView(nil, nil, nil)

	assert.True(t, v.InputFocused())
	assert.Equal(t, status.StateReady, v.Status())
	assert.NotNil(t, v.Init())
}

func TestView_EmptyQueryDoesNothing(t *testing.T) {
	v := NewView(nil, nil, &mockRetrieval{})

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.True(t, v.InputFocused())
}

func TestView_SearchPassesFiltersAndShowsResults(t *testing.T) {
	retrieval := &mockRetrieval{resp: testResponse()}
	filters := domain.Filters{Jurisdiction: "federal"}
	v := NewView(nil, nil, retrieval).WithFilters(filters, 5)
	v.SetDimensions(100, 40)

	submit(t, v, "right to counsel")

	assert.Equal(t, "right to counsel", retrieval.lastReq.Query)
	assert.Equal(t, filters, retrieval.lastReq.Filters)
	assert.Equal(t, 5, retrieval.lastReq.Limit)
	assert.False(t, v.InputFocused())
	assert.Equal(t, status.StateResults, v.Status())
	assert.Equal(t, "right to counsel", v.Query())

	out := v.View()
	assert.Contains(t, out, "[2] Dickerson v. United States")
	assert.Contains(t, out, "approximate ranking")
}

func TestView_SearchError(t *testing.T) {
	v := NewView(nil, nil, &mockRetrieval{err: domain.ErrInvalidFilters})

	submit(t, v, "x")

	assert.ErrorIs(t, v.Err(), domain.ErrInvalidFilters)
	assert.Equal(t, status.StateError, v.Status())
	assert.True(t, v.InputFocused())
}

func TestView_NoRetrievalService(t *testing.T) {
	v := NewView(nil, nil, nil)

	submit(t, v, "x")

	assert.True(t, errors.Is(v.Err(), ErrNoRetrievalService))
}

func TestView_OpenSelectedSource(t *testing.T) {
	v := NewView(nil, nil, &mockRetrieval{resp: testResponse()})
	submit(t, v, "miranda")

	v.Update(keyRune('j'))
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, cmd)
	opened, ok := cmd().(messages.SourceOpened)
	require.True(t, ok)
	assert.Equal(t, "b", opened.Result.ID)
	assert.Equal(t, 2, opened.Citation.Number)
}

func TestView_AskUsesLastResponse(t *testing.T) {
	resp := testResponse()
	v := NewView(nil, nil, &mockRetrieval{resp: resp})
	submit(t, v, "miranda")

	_, cmd := v.Update(keyRune('a'))

	require.NotNil(t, cmd)
	req, ok := cmd().(messages.AnswerRequested)
	require.True(t, ok)
	assert.Equal(t, "miranda", req.Query)
	assert.Same(t, resp, req.Grounding)
}

func TestView_NewSearchRefocusesInput(t *testing.T) {
	v := NewView(nil, nil, &mockRetrieval{resp: testResponse()})
	submit(t, v, "miranda")

	v.Update(keyRune('n'))
	assert.True(t, v.InputFocused())

	v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, v.InputFocused())
}

func TestView_QuitFromResults(t *testing.T) {
	v := NewView(nil, nil, &mockRetrieval{resp: testResponse()})
	submit(t, v, "miranda")

	_, cmd := v.Update(keyRune('q'))

	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestView_TypingQIsText(t *testing.T) {
	v := NewView(nil, nil, &mockRetrieval{})

	for _, r := range "qualified immunity" {
		v.Update(keyRune(r))
	}
	v.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})

	assert.True(t, v.InputFocused())
}
