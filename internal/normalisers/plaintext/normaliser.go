// Package plaintext normalises .txt files. It is the fallback for text/plain.
package plaintext

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

// maxCaptionBytes bounds a first line used as a case caption title.
const maxCaptionBytes = 200

// caption matches "Party v. Party" style first lines.
var caption = regexp.MustCompile(`(?i)\S+.*\s(v\.?|vs\.?)\s+\S+`)

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/plain"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5
}

// Normalise returns the cleaned text. A case caption on the first line
// becomes the title, otherwise the file name does.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: raw document is nil", domain.ErrInvalidInput)
	}

	content := strings.TrimSpace(textutil.CleanText(string(raw.Content)))

	return &domain.Document{
		Title:   title(content, raw.URI),
		Content: content,
		Metadata: map[string]any{
			"mime_type": raw.MIMEType,
			"format":    "text",
		},
	}, nil
}

func title(content, uri string) string {
	first, _, _ := strings.Cut(content, "\n")
	first = strings.TrimSpace(first)
	if first != "" && len(first) <= maxCaptionBytes && caption.MatchString(first) {
		return first
	}
	return textutil.TitleFromPath(uri)
}
