// Package status provides the bottom status bar.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/lexground/internal/adapters/driving/tui/styles"
)

// State is what the bar reports on its left side.
type State string

const (
	StateReady     State = "ready"
	StateSearching State = "searching"
	StateResults   State = "results"
	StateAnswering State = "answering"
	StateError     State = "error"
)

// Bar shows state, counts and key hints.
type Bar struct {
	styles   *styles.Styles
	state    State
	message  string
	count    int
	degraded bool
	hints    []key.Binding
	width    int
}

// New creates a bar in the ready state.
func New(s *styles.Styles) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &Bar{styles: s, state: StateReady, width: 80}
}

// View renders the bar across the full width.
func (b *Bar) View() string {
	left := b.renderLeft()
	right := b.renderHints()
	padding := max(b.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return b.styles.StatusBar.Width(b.width).Render(left + strings.Repeat(" ", padding) + right)
}

func (b *Bar) renderLeft() string {
	switch b.state {
	case StateSearching:
		return b.styles.Muted.Render("Searching...")
	case StateAnswering:
		return b.styles.Muted.Render("Answering...")
	case StateError:
		if b.message != "" {
			return b.styles.Error.Render("Error: " + b.message)
		}
		return b.styles.Error.Render("Error")
	case StateResults:
		text := b.styles.Normal.Render(fmt.Sprintf("%d sources", b.count))
		if b.degraded {
			text += " " + b.styles.Warning.Render("(approximate ranking)")
		}
		if b.message != "" {
			text += " " + b.styles.Muted.Render(b.message)
		}
		return text
	default:
		if b.message != "" {
			return b.styles.Muted.Render(b.message)
		}
		return b.styles.Muted.Render("Ready")
	}
}

func (b *Bar) renderHints() string {
	hints := make([]string, 0, len(b.hints))
	for _, h := range b.hints {
		hints = append(hints, h.Help().Key+": "+h.Help().Desc)
	}
	return b.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the state and clears any message.
func (b *Bar) SetState(s State) {
	b.state = s
	b.message = ""
}

// State returns the current state.
func (b *Bar) State() State {
	return b.state
}

// SetMessage sets the message shown next to the state.
func (b *Bar) SetMessage(m string) {
	b.message = m
}

// Message returns the current message.
func (b *Bar) Message() string {
	return b.message
}

// SetResults records the result count and whether ranking was degraded.
func (b *Bar) SetResults(count int, degraded bool) {
	b.state = StateResults
	b.message = ""
	b.count = count
	b.degraded = degraded
}

// SetHints replaces the key hints.
func (b *Bar) SetHints(hints []key.Binding) {
	b.hints = hints
}

// SetWidth sets the bar width.
func (b *Bar) SetWidth(width int) {
	b.width = width
}
