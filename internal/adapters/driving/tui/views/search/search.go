// Package search provides the query and result list view.
package search

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/lexground/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/lexground/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/lexground/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/lexground/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/lexground/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/lexground/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/core/ports/driving"
)

// ErrNoRetrievalService is reported when a search runs without a service.
var ErrNoRetrievalService = errors.New("retrieval service is required")

// View is the query input, the numbered sources and the status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QueryInput
	list      *list.ResultList
	statusbar *status.Bar

	retrieval driving.RetrievalService
	ctx       context.Context
	filters   domain.Filters
	limit     int

	query    string
	response *domain.RetrievalResponse
	err      error

	width      int
	height     int
	focusInput bool
}

// NewView creates a search view. Nil styles or keymap use the defaults.
func NewView(s *styles.Styles, km *keymap.KeyMap, retrieval driving.RetrievalService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	v := &View{
		styles:     s,
		keymap:     km,
		input:      input.New(s),
		list:       list.New(s),
		statusbar:  status.New(s),
		retrieval:  retrieval,
		ctx:        context.Background(),
		width:      80,
		height:     24,
		focusInput: true,
	}
	v.statusbar.SetHints(km.InputHelp())
	return v
}

// WithContext sets the context searches run under.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// WithFilters restricts every search to filters and limit.
func (v *View) WithFilters(filters domain.Filters, limit int) *View {
	v.filters = filters
	v.limit = limit
	return v
}

// Init starts the input cursor.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles keys and search results.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKey(msg)

	case messages.SearchCompleted:
		v.handleSearchCompleted(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	if v.focusInput {
		switch {
		case msg.Type == tea.KeyEnter:
			query := strings.TrimSpace(v.input.Value())
			if query == "" {
				return v, nil
			}
			v.statusbar.SetState(status.StateSearching)
			return v, v.performSearch(query)
		case msg.Type == tea.KeyEsc && v.response != nil:
			v.focusResults()
			return v, nil
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	switch {
	case key.Matches(msg, v.keymap.Up):
		v.list.MoveUp()
	case key.Matches(msg, v.keymap.Down):
		v.list.MoveDown()
	case key.Matches(msg, v.keymap.Open):
		if r := v.list.SelectedResult(); r != nil {
			opened := messages.SourceOpened{Result: *r, Citation: v.list.Citation(v.list.Selected())}
			return v, func() tea.Msg { return opened }
		}
	case key.Matches(msg, v.keymap.Ask):
		if v.response != nil {
			req := messages.AnswerRequested{Query: v.query, Grounding: v.response}
			return v, func() tea.Msg { return req }
		}
	case key.Matches(msg, v.keymap.NewSearch):
		v.focusInput = true
		v.input.SetValue("")
		v.statusbar.SetHints(v.keymap.InputHelp())
		return v, v.input.Focus()
	case key.Matches(msg, v.keymap.Quit):
		return v, tea.Quit
	}
	return v, nil
}

func (v *View) performSearch(query string) tea.Cmd {
	retrieval, ctx := v.retrieval, v.ctx
	req := domain.RetrievalRequest{Query: query, Limit: v.limit, Filters: v.filters}
	return func() tea.Msg {
		if retrieval == nil {
			return messages.SearchCompleted{Query: query, Err: ErrNoRetrievalService}
		}
		resp, err := retrieval.Retrieve(ctx, req)
		return messages.SearchCompleted{Query: query, Response: resp, Err: err}
	}
}

func (v *View) handleSearchCompleted(msg messages.SearchCompleted) {
	if msg.Err != nil {
		v.err = msg.Err
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return
	}

	v.err = nil
	v.query = msg.Query
	v.response = msg.Response
	v.list.SetResponse(msg.Response)
	v.statusbar.SetResults(len(msg.Response.Results), msg.Response.Degraded)
	v.focusResults()
}

func (v *View) focusResults() {
	v.focusInput = false
	v.input.Blur()
	v.statusbar.SetHints(v.keymap.ResultsHelp())
}

// View renders the search view.
func (v *View) View() string {
	sections := []string{v.styles.Title.Render("lexground"), "", v.input.View(), ""}
	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}
	sections = append(sections, v.list.View(), "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sizes the components.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.input.SetWidth(width)
	v.list.SetDimensions(width, height-10)
	v.statusbar.SetWidth(width)
}

// Query returns the query of the last completed search.
func (v *View) Query() string {
	return v.query
}

// Response returns the last retrieval response.
func (v *View) Response() *domain.RetrievalResponse {
	return v.response
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

// InputFocused reports whether keys go to the query input.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// Status returns the status bar state.
func (v *View) Status() status.State {
	return v.statusbar.State()
}
