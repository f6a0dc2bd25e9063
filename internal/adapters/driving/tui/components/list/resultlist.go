// Package list provides the numbered source list.
package list

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/lexground/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/textutil"
)

// linesPerResult is the rendered height of one entry.
const linesPerResult = 3

// ResultList shows ranked results with their citation numbers.
type ResultList struct {
	results   []domain.SearchResult
	citations []domain.CitationEntry
	selected  int
	styles    *styles.Styles
	width     int
	height    int
}

// New creates an empty list.
func New(s *styles.Styles) *ResultList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &ResultList{styles: s, width: 80, height: 12}
}

// SetResponse replaces the list content and resets the selection.
func (r *ResultList) SetResponse(resp *domain.RetrievalResponse) {
	r.selected = 0
	if resp == nil {
		r.results, r.citations = nil, nil
		return
	}
	r.results = resp.Results
	r.citations = resp.Citations
}

// View renders the visible window of results.
func (r *ResultList) View() string {
	if len(r.results) == 0 {
		return r.styles.Muted.Render("No sources")
	}

	lines := make([]string, 0, len(r.results)*linesPerResult+2)
	lines = append(lines, r.styles.Subtitle.Render(fmt.Sprintf("Sources (%d)", len(r.results))), "")

	visible := max((r.height-2)/linesPerResult, 1)
	start := 0
	if r.selected >= visible {
		start = r.selected - visible + 1
	}
	end := min(start+visible, len(r.results))

	for i := start; i < end; i++ {
		lines = append(lines, r.render(i))
	}
	return strings.Join(lines, "\n")
}

func (r *ResultList) render(i int) string {
	res := r.results[i]
	c := r.Citation(i)

	indicator := "  "
	if i == r.selected {
		indicator = "> "
	}
	title := textutil.TruncateRunes(c.Title, max(r.width-24, 10), "...")
	head := fmt.Sprintf("%s[%d] %s", indicator, c.Number, title)
	score := fmt.Sprintf("%.2f", res.Score)

	var titleLine string
	if i == r.selected {
		titleLine = r.styles.Selected.Render(head + "  " + score)
	} else {
		titleLine = r.styles.Normal.Render(head+"  ") + r.styles.Muted.Render(score)
	}

	detail := []string{res.Source}
	if c.Citation != "" {
		detail = append(detail, r.styles.Citation.Render(c.Citation))
	}
	if c.Court != "" {
		detail = append(detail, c.Court)
	}
	detailLine := "    " + r.styles.Muted.Render(strings.Join(detail, " · "))

	preview := strings.Join(strings.Fields(res.Content), " ")
	preview = textutil.TruncateRunes(preview, max(r.width-6, 20), "...")

	return titleLine + "\n" + detailLine + "\n" + r.styles.Muted.Render("    "+preview)
}

// Citation returns the citation entry numbered for result i. Results
// without a matching entry get one built from the result itself.
func (r *ResultList) Citation(i int) domain.CitationEntry {
	res := r.results[i]
	if i < len(r.citations) && r.citations[i].ResultID == res.ID {
		return r.citations[i]
	}
	c := domain.CitationEntry{
		Number:     i + 1,
		ResultID:   res.ID,
		Title:      res.Title,
		Source:     res.Source,
		SourceType: res.SourceType,
		Citation:   res.Citation,
		URL:        res.URL,
		Court:      res.Court,
		Date:       res.Date,
	}
	if c.Title == "" {
		c.Title = "(untitled)"
	}
	return c
}

// Results returns the listed results.
func (r *ResultList) Results() []domain.SearchResult {
	return r.results
}

// Selected returns the selected index.
func (r *ResultList) Selected() int {
	return r.selected
}

// SelectedResult returns the selected result, or nil when empty.
func (r *ResultList) SelectedResult() *domain.SearchResult {
	if r.selected < 0 || r.selected >= len(r.results) {
		return nil
	}
	return &r.results[r.selected]
}

// MoveUp moves the selection up.
func (r *ResultList) MoveUp() {
	if r.selected > 0 {
		r.selected--
	}
}

// MoveDown moves the selection down.
func (r *ResultList) MoveDown() {
	if r.selected < len(r.results)-1 {
		r.selected++
	}
}

// SetDimensions sets the render area.
func (r *ResultList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}
