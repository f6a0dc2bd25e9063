// Package input provides the query input component.
package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/lexground/internal/adapters/driving/tui/styles"
)

const (
	charLimit = 512
	minWidth  = 20
)

// QueryInput wraps a bubbles textinput for research questions.
type QueryInput struct {
	textinput textinput.Model
	styles    *styles.Styles
}

// New creates a focused query input.
func New(s *styles.Styles) *QueryInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = "Ask a legal research question..."
	ti.CharLimit = charLimit
	ti.Width = 50
	ti.Focus()

	return &QueryInput{textinput: ti, styles: s}
}

// Init starts the cursor blink.
func (q *QueryInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update forwards msg to the text input.
func (q *QueryInput) Update(msg tea.Msg) (*QueryInput, tea.Cmd) {
	var cmd tea.Cmd
	q.textinput, cmd = q.textinput.Update(msg)
	return q, cmd
}

// View renders the label and input box.
func (q *QueryInput) View() string {
	label := q.styles.Title.Render("Query: ")
	box := q.styles.InputField.Render(q.textinput.View())
	return lipgloss.JoinHorizontal(lipgloss.Center, label, box)
}

// Value returns the query text.
func (q *QueryInput) Value() string {
	return q.textinput.Value()
}

// SetValue replaces the query text.
func (q *QueryInput) SetValue(v string) {
	q.textinput.SetValue(v)
}

// Focus gives the input keyboard focus.
func (q *QueryInput) Focus() tea.Cmd {
	return q.textinput.Focus()
}

// Blur removes keyboard focus.
func (q *QueryInput) Blur() {
	q.textinput.Blur()
}

// Focused reports whether the input has focus.
func (q *QueryInput) Focused() bool {
	return q.textinput.Focused()
}

// SetWidth sizes the input to the terminal width, leaving room for the label.
func (q *QueryInput) SetWidth(width int) {
	q.textinput.Width = max(width-12, minWidth)
}
