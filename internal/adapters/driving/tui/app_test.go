package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexground/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/lexground/internal/core/domain"
)

func testResponse() *domain.RetrievalResponse {
	return &domain.RetrievalResponse{
		Results: []domain.SearchResult{{
			ID:      "cl-1",
			Title:   "Miranda v. Arizona",
			Source:  "CourtListener",
			Content: "The prosecution may not use statements stemming from custodial interrogation.",
		}},
		Citations: []domain.CitationEntry{{Number: 1, ResultID: "cl-1", Title: "Miranda v. Arizona", Citation: "384 U.S. 436"}},
	}
}

// drive feeds msg to the app and then every message its commands produce,
// stopping at batches and quit.
func drive(t *testing.T, app *App, msg tea.Msg) {
	t.Helper()
	for i := 0; msg != nil && i < 50; i++ {
		_, cmd := app.Update(msg)
		if cmd == nil {
			return
		}
		msg = cmd()
		if _, batch := msg.(tea.BatchMsg); batch {
			return
		}
	}
}

func typeText(t *testing.T, app *App, text string) {
	t.Helper()
	for _, r := range text {
		app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func newTestApp(t *testing.T, ports *Ports) *App {
	t.Helper()
	app, err := NewApp(ports)
	require.NoError(t, err)
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return app
}

func TestNewApp_RequiresRetrieval(t *testing.T) {
	_, err := NewApp(&Ports{})
	assert.ErrorIs(t, err, ErrMissingRetrievalService)
}

func TestApp_ViewBeforeResize(t *testing.T) {
	app, err := NewApp(&Ports{Retrieval: &mockRetrieval{}})
	require.NoError(t, err)

	assert.Equal(t, "Initialising...", app.View())
	assert.NotNil(t, app.Init())
}

func TestApp_SearchOpenAndBack(t *testing.T) {
	app := newTestApp(t, &Ports{Retrieval: &mockRetrieval{resp: testResponse()}})

	typeText(t, app, "custodial statements")
	drive(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Contains(t, app.View(), "[1] Miranda v. Arizona")

	drive(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, messages.ViewReader, app.CurrentView())
	assert.Contains(t, app.View(), "custodial interrogation")

	drive(t, app, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewSearch, app.CurrentView())
}

func TestApp_StreamsAnswer(t *testing.T) {
	app := newTestApp(t, &Ports{
		Retrieval: &mockRetrieval{resp: testResponse()},
		Answer:    &mockAnswer{tokens: []string{"Un-warned statements ", "are excluded [Source 1]."}},
	})

	typeText(t, app, "miranda")
	drive(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	drive(t, app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})

	assert.Equal(t, messages.ViewReader, app.CurrentView())
	out := app.View()
	assert.Contains(t, out, "are excluded [Source 1].")
	assert.Contains(t, out, "Sources")
	assert.Contains(t, out, "384 U.S. 436")
}

func TestApp_AnswerWithoutLLM(t *testing.T) {
	app := newTestApp(t, &Ports{Retrieval: &mockRetrieval{resp: testResponse()}})

	typeText(t, app, "miranda")
	drive(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	drive(t, app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})

	assert.Equal(t, messages.ViewReader, app.CurrentView())
	assert.Contains(t, app.readerView.Message(), "lexground settings llm")
}

func TestApp_CtrlCQuits(t *testing.T) {
	app := newTestApp(t, &Ports{Retrieval: &mockRetrieval{}})

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}
