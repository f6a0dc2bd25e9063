// Package docx normalises Word documents (briefs, contracts, memos).
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/core/ports/driven"
	"github.com/custodia-labs/lexground/internal/textutil"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// MIMEType is the Office Open XML word processing type.
const MIMEType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// maxPartBytes bounds a single decompressed archive part.
const maxPartBytes = 64 << 20

const (
	documentPart = "word/document.xml"
	corePart     = "docProps/core.xml"
)

// Normaliser handles DOCX documents.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{MIMEType}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts body paragraphs separated by blank lines. The title
// comes from the document properties, falling back to the file name.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: raw document is nil", domain.ErrInvalidInput)
	}

	reader, err := zip.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a docx archive: %w", domain.ErrInvalidInput, err)
	}

	body, err := readPart(reader, documentPart)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, fmt.Errorf("%w: missing %s", domain.ErrInvalidInput, documentPart)
	}

	content, err := paragraphs(body)
	if err != nil {
		return nil, err
	}

	title := textutil.TitleFromPath(raw.URI)
	if core, _ := readPart(reader, corePart); core != nil {
		var props struct {
			Title string `xml:"title"`
		}
		if xml.Unmarshal(core, &props) == nil && strings.TrimSpace(props.Title) != "" {
			title = strings.TrimSpace(props.Title)
		}
	}

	return &domain.Document{
		Title:   title,
		Content: content,
		Metadata: map[string]any{
			"mime_type": raw.MIMEType,
			"format":    "docx",
		},
	}, nil
}

// readPart returns the decompressed part, or nil if the archive lacks it.
func readPart(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %w", domain.ErrInvalidInput, name, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(io.LimitReader(rc, maxPartBytes))
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", domain.ErrInvalidInput, name, err)
		}
		return data, nil
	}
	return nil, nil
}

type document struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []struct {
		Text []string `xml:"t"`
	} `xml:"r"`
}

// paragraphs joins non-empty body paragraphs with blank lines so the
// chunker sees the same breaks a reader does.
func paragraphs(data []byte) (string, error) {
	var doc document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("%w: parse %s: %w", domain.ErrInvalidInput, documentPart, err)
	}

	var parts []string
	for _, p := range doc.Body.Paragraphs {
		var b strings.Builder
		for _, r := range p.Runs {
			for _, t := range r.Text {
				b.WriteString(t)
			}
		}
		if text := strings.TrimSpace(b.String()); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}
