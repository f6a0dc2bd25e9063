// Package reader shows one source in full or streams a grounded answer.
package reader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/lexground/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/lexground/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/lexground/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/lexground/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/core/ports/driving"
)

// streamBuffer bounds the tokens queued between the model and the UI.
const streamBuffer = 64

// headerLines is the height reserved for the title and status bar.
const headerLines = 4

// View is a scrollable pane over a source or an answer.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	viewport  viewport.Model
	statusbar *status.Bar

	answers driving.AnswerService
	ctx     context.Context

	title  string
	body   strings.Builder
	stream <-chan tea.Msg
	cancel context.CancelFunc
}

// NewView creates a reader. answers may be nil.
func NewView(s *styles.Styles, km *keymap.KeyMap, answers driving.AnswerService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	v := &View{
		styles:    s,
		keymap:    km,
		viewport:  viewport.New(80, 20),
		statusbar: status.New(s),
		answers:   answers,
		ctx:       context.Background(),
	}
	v.statusbar.SetHints(km.ReaderHelp())
	return v
}

// WithContext sets the parent context of answer streams.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// ShowSource renders a result in full.
func (v *View) ShowSource(r domain.SearchResult, c domain.CitationEntry) {
	v.Stop()
	v.title = fmt.Sprintf("[%d] %s", c.Number, c.Title)
	v.body.Reset()

	var meta []string
	if c.Citation != "" {
		meta = append(meta, v.styles.Citation.Render(c.Citation))
	}
	if c.Court != "" {
		meta = append(meta, c.Court)
	}
	if c.Date != nil {
		meta = append(meta, c.Date.Format(time.DateOnly))
	}
	meta = append(meta, r.Source)
	v.body.WriteString(v.styles.Muted.Render(strings.Join(meta, " · ")) + "\n")
	if r.URL != "" {
		v.body.WriteString(v.styles.Muted.Render(r.URL) + "\n")
	}
	v.body.WriteString("\n" + r.Content)

	v.statusbar.SetState(status.StateReady)
	v.refresh(false)
}

// StartAnswer streams an answer to query grounded on the given response.
// The returned command delivers the first token.
func (v *View) StartAnswer(query string, grounding *domain.RetrievalResponse) tea.Cmd {
	v.Stop()
	v.title = query
	v.body.Reset()
	v.refresh(false)

	if v.answers == nil {
		err := fmt.Errorf("%w: configure one with 'lexground settings llm'", domain.ErrLLMUnavailable)
		return func() tea.Msg { return messages.AnswerCompleted{Err: err} }
	}

	ctx, cancel := context.WithCancel(v.ctx)
	ch := make(chan tea.Msg, streamBuffer)
	v.stream, v.cancel = ch, cancel
	v.statusbar.SetState(status.StateAnswering)

	answers := v.answers
	go func() {
		defer close(ch)
		answer, err := answers.Generate(ctx, query, nil, grounding, func(token string) {
			select {
			case ch <- messages.AnswerToken{Text: token}:
			case <-ctx.Done():
			}
		})
		select {
		case ch <- messages.AnswerCompleted{Answer: answer, Err: err}:
		case <-ctx.Done():
		}
	}()
	return wait(ch)
}

func wait(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

// Stop cancels a running answer stream.
func (v *View) Stop() {
	if v.cancel != nil {
		v.cancel()
	}
	v.cancel = nil
	v.stream = nil
}

// Streaming reports whether an answer is in flight.
func (v *View) Streaming() bool {
	return v.stream != nil
}

// Update handles scrolling and stream messages.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, v.keymap.Back) {
			v.Stop()
			return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewSearch} }
		}

	case messages.AnswerToken:
		if v.stream == nil {
			return v, nil
		}
		v.body.WriteString(msg.Text)
		v.refresh(true)
		return v, wait(v.stream)

	case messages.AnswerCompleted:
		v.finish(msg)
		return v, nil
	}

	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

func (v *View) finish(msg messages.AnswerCompleted) {
	v.Stop()
	if msg.Err != nil {
		if errors.Is(msg.Err, context.Canceled) {
			return
		}
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return
	}

	v.statusbar.SetState(status.StateReady)
	if msg.Answer == nil {
		return
	}
	if len(msg.Answer.Citations) == 0 {
		v.body.WriteString("\n\n" + v.styles.Muted.Render("No sources were found; this answer is not grounded."))
	} else {
		v.body.WriteString("\n\n" + v.styles.Subtitle.Render("Sources") + "\n")
		for _, c := range msg.Answer.Citations {
			line := fmt.Sprintf("[%d] %s", c.Number, c.Title)
			if c.Citation != "" {
				line += ", " + v.styles.Citation.Render(c.Citation)
			}
			v.body.WriteString(line + "\n")
		}
	}
	if msg.Answer.Degraded {
		v.statusbar.SetMessage("sources ranked approximately")
	}
	v.refresh(true)
}

func (v *View) refresh(follow bool) {
	atBottom := v.viewport.AtBottom()
	v.viewport.SetContent(lipgloss.NewStyle().Width(v.viewport.Width).Render(v.body.String()))
	if follow && atBottom {
		v.viewport.GotoBottom()
	}
}

// View renders the pane.
func (v *View) View() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		v.styles.Title.Render(v.title),
		"",
		v.viewport.View(),
		v.statusbar.View(),
	)
}

// SetDimensions sizes the viewport.
func (v *View) SetDimensions(width, height int) {
	v.viewport.Width = width
	v.viewport.Height = max(height-headerLines, 1)
	v.statusbar.SetWidth(width)
	v.refresh(false)
}

// Content returns the body text.
func (v *View) Content() string {
	return v.body.String()
}

// Status returns the status bar state.
func (v *View) Status() status.State {
	return v.statusbar.State()
}

// Message returns the status bar message.
func (v *View) Message() string {
	return v.statusbar.Message()
}
