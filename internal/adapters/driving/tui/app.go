package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/lexground/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/lexground/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/lexground/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/lexground/internal/adapters/driving/tui/views/reader"
	"github.com/custodia-labs/lexground/internal/adapters/driving/tui/views/search"
	"github.com/custodia-labs/lexground/internal/core/domain"
)

// App is the root bubbletea model. It routes messages between the search
// view and the reader.
type App struct {
	ctx context.Context

	searchView *search.View
	readerView *reader.View

	currentView messages.ViewType
	ready       bool
}

var _ tea.Model = (*App)(nil)

// NewApp creates the TUI over ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	return &App{
		ctx:         context.Background(),
		searchView:  search.NewView(s, km, ports.Retrieval),
		readerView:  reader.NewView(s, km, ports.Answer),
		currentView: messages.ViewSearch,
	}, nil
}

// WithContext sets the context searches and answers run under.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.searchView.WithContext(ctx)
	a.readerView.WithContext(ctx)
	return a
}

// WithFilters restricts every search.
func (a *App) WithFilters(filters domain.Filters, limit int) *App {
	a.searchView.WithFilters(filters, limit)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("lexground"),
		a.searchView.Init(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.ready = true
		a.searchView.SetDimensions(msg.Width, msg.Height)
		a.readerView.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			a.readerView.Stop()
			return a, tea.Quit
		}

	case messages.ViewChanged:
		a.currentView = msg.View
		return a, nil

	case messages.SourceOpened:
		a.readerView.ShowSource(msg.Result, msg.Citation)
		a.currentView = messages.ViewReader
		return a, nil

	case messages.AnswerRequested:
		a.currentView = messages.ViewReader
		return a, a.readerView.StartAnswer(msg.Query, msg.Grounding)

	case messages.AnswerToken, messages.AnswerCompleted:
		a.readerView, cmd = a.readerView.Update(msg)
		return a, cmd

	case messages.SearchCompleted:
		a.searchView, cmd = a.searchView.Update(msg)
		return a, cmd
	}

	switch a.currentView {
	case messages.ViewReader:
		a.readerView, cmd = a.readerView.Update(msg)
	default:
		a.searchView, cmd = a.searchView.Update(msg)
	}
	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}
	if a.currentView == messages.ViewReader {
		return a.readerView.View()
	}
	return a.searchView.View()
}

// Run starts the program on the alternate screen and blocks until it exits.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	a.readerView.Stop()
	return err
}

// CurrentView returns the active view.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}
