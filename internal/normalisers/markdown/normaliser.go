// Package markdown normalises Markdown files such as research memos.
package markdown

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/core/ports/driven"
	"github.com/custodia-labs/lexground/internal/textutil"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

var (
	h1            = regexp.MustCompile(`(?m)^#\s+(.+?)\s*#*\s*$`)
	frontMatter   = regexp.MustCompile(`(?s)\A---\n.*?\n---\n`)
	codeBlock     = regexp.MustCompile("(?s)```.*?```")
	inlineCode    = regexp.MustCompile("`([^`]+)`")
	images        = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	links         = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	headings      = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	emphasis      = regexp.MustCompile(`(\*\*|__|\*|\b_)([^*_\n]+?)(\*\*|__|\*|_\b)`)
	blockquote    = regexp.MustCompile(`(?m)^>\s?`)
	rule          = regexp.MustCompile(`(?m)^\s*([-*_]\s*){3,}$`)
	bullet        = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise strips Markdown syntax and keeps paragraph breaks so the
// chunker can split on them. Headings stay on their own line, which lets
// "## Section 3" style headings act as section markers.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: raw document is nil", domain.ErrInvalidInput)
	}

	text := frontMatter.ReplaceAllString(textutil.CleanText(string(raw.Content)), "")

	title := textutil.TitleFromPath(raw.URI)
	if m := h1.FindStringSubmatch(text); m != nil {
		title = strings.TrimSpace(m[1])
	}

	return &domain.Document{
		Title:   title,
		Content: strip(text),
		Metadata: map[string]any{
			"mime_type": raw.MIMEType,
			"format":    "markdown",
		},
	}, nil
}

// strip removes Markdown formatting, keeping visible text.
// Numbered list markers are kept since "1." often carries legal meaning.
func strip(text string) string {
	text = codeBlock.ReplaceAllString(text, "")
	text = images.ReplaceAllString(text, "")
	text = links.ReplaceAllString(text, "$1")
	text = inlineCode.ReplaceAllString(text, "$1")
	text = headings.ReplaceAllString(text, "")
	text = rule.ReplaceAllString(text, "")
	text = emphasis.ReplaceAllString(text, "$2")
	text = blockquote.ReplaceAllString(text, "")
	text = bullet.ReplaceAllString(text, "")
	text = multiNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
