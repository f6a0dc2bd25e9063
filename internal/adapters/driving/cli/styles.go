package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/lexground/internal/core/domain"
)

// palette is the colour scheme for terminal output.
var palette = struct {
	Primary, Secondary, Muted, Success, Warning, Error lipgloss.Color
}{
	Primary:   lipgloss.Color("#7C3AED"),
	Secondary: lipgloss.Color("#06B6D4"),
	Muted:     lipgloss.Color("#6C7086"),
	Success:   lipgloss.Color("#A6E3A1"),
	Warning:   lipgloss.Color("#F9E2AF"),
	Error:     lipgloss.Color("#F38BA8"),
}

// styles renders command output. Styles are bound to the output writer so
// colour is dropped automatically when it is not a terminal.
type styles struct {
	Title    lipgloss.Style
	Citation lipgloss.Style
	Muted    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
}

func newStyles(w io.Writer) *styles {
	r := lipgloss.NewRenderer(w)
	return &styles{
		Title:    r.NewStyle().Bold(true).Foreground(palette.Primary),
		Citation: r.NewStyle().Foreground(palette.Secondary),
		Muted:    r.NewStyle().Foreground(palette.Muted),
		Success:  r.NewStyle().Foreground(palette.Success),
		Warning:  r.NewStyle().Foreground(palette.Warning),
		Error:    r.NewStyle().Foreground(palette.Error),
	}
}

// status renders a provider status in its colour.
func (s *styles) status(st domain.ProviderStatus) string {
	switch st {
	case domain.ProviderOnline:
		return s.Success.Render(string(st))
	case domain.ProviderLimited:
		return s.Warning.Render(string(st))
	default:
		return s.Error.Render(string(st))
	}
}

// source renders a numbered citation line: [N] Title, citation (court, date).
func (s *styles) source(c domain.CitationEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d] %s", c.Number, s.Title.Render(c.Title))
	if c.Citation != "" {
		b.WriteString(", " + s.Citation.Render(c.Citation))
	}

	var detail []string
	if c.Court != "" {
		detail = append(detail, c.Court)
	}
	if c.Date != nil {
		detail = append(detail, c.Date.Format(time.DateOnly))
	}
	if len(detail) > 0 {
		b.WriteString(" (" + strings.Join(detail, ", ") + ")")
	}
	return b.String()
}
