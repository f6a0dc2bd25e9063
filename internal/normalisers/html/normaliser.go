package html

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/core/ports/driven"
	"github.com/custodia-labs/lexground/internal/textutil"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Pre-compiled regular expressions for HTML parsing.
var (
	titleTag      = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	invisible     = regexp.MustCompile(`(?is)<(script|style|noscript|head|svg|nav|footer)[^>]*>.*?</(script|style|noscript|head|svg|nav|footer)>`)
	comments      = regexp.MustCompile(`(?s)<!--.*?-->`)
	blockBoundary = regexp.MustCompile(`(?i)</?(p|div|h[1-6]|blockquote|pre|table|section|article|ul|ol|center)\b[^>]*>`)
	lineBoundary  = regexp.MustCompile(`(?i)<(br|hr)\s*/?>|</(li|tr)>`)
	tags          = regexp.MustCompile(`<[^>]+>`)
	spaces        = regexp.MustCompile(`[ \t\x{00a0}]+`)
	blankRuns     = regexp.MustCompile(`\n{3,}`)
)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts readable text. The <title> element becomes the title,
// falling back to the file name.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: raw document is nil", domain.ErrInvalidInput)
	}

	markup := textutil.CleanText(string(raw.Content))

	return &domain.Document{
		Title:   title(markup, raw.URI),
		Content: Text(markup),
		Metadata: map[string]any{
			"mime_type": raw.MIMEType,
			"format":    "html",
		},
	}, nil
}

func title(markup, uri string) string {
	if m := titleTag.FindStringSubmatch(markup); m != nil {
		if t := strings.TrimSpace(html.UnescapeString(tags.ReplaceAllString(m[1], ""))); t != "" {
			return strings.Join(strings.Fields(t), " ")
		}
	}
	return textutil.TitleFromPath(uri)
}

// Text strips markup and returns readable text. Block elements become
// paragraph breaks and <br>, <li> and <tr> become line breaks.
func Text(markup string) string {
	text := invisible.ReplaceAllString(markup, "")
	text = comments.ReplaceAllString(text, "")
	text = blockBoundary.ReplaceAllString(text, "\n\n")
	text = lineBoundary.ReplaceAllString(text, "\n")
	text = tags.ReplaceAllString(text, "")
	text = html.UnescapeString(text)
	text = spaces.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = blankRuns.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}
