// Package chunker provides a section-aware, byte-bounded chunking processor.
package chunker

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/postprocessors/citations"
	"github.com/custodia-labs/lexground/internal/textutil"
)

// DefaultMaxBytes is the default byte ceiling for a chunk.
const DefaultMaxBytes = 1000

// DefaultMinBytes is the default minimum trimmed chunk length.
// Shorter chunks are dropped as noise.
const DefaultMinBytes = 32

// maxSectionTitleBytes caps the section title stored on a chunk.
const maxSectionTitleBytes = 200

// Metadata keys copied from the document onto every chunk.
const (
	MetaTitle        = "title"
	MetaSource       = "source"
	MetaJurisdiction = "jurisdiction"
	MetaPracticeArea = "practice_area"
	MetaDocumentType = "document_type"
)

var (
	// sectionHeader matches a header line: SECTION 1, Article IV, § 12,
	// Section 2000e-2, Part 1604.11. The identifier must end at a word
	// boundary so prose such as "Part Company" is not a header.
	sectionHeader = regexp.MustCompile(
		`(?m)^[ \t]*(?:(?:SECTION|Section|Article|ARTICLE|Chapter|CHAPTER|PART|Part|TITLE)[ \t]+` +
			`(?:\d+[A-Za-z]?|[IVXLCDM]+)(?:[.\-]\d+)*\b|§[ \t]*\d+[A-Za-z0-9.\-]*)[^\n]*$`)

	// paragraphBreak is a blank line, possibly containing spaces.
	paragraphBreak = regexp.MustCompile(`\n[ \t]*\n`)
)

// Processor splits document content into section-aware chunks.
// It implements the PostProcessor interface.
type Processor struct {
	maxBytes int
	minBytes int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithMaxBytes sets the chunk byte ceiling.
func WithMaxBytes(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxBytes = n
		}
	}
}

// WithMinBytes sets the minimum trimmed chunk length.
func WithMinBytes(n int) Option {
	return func(p *Processor) {
		if n >= 0 {
			p.minBytes = n
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		maxBytes: DefaultMaxBytes,
		minBytes: DefaultMinBytes,
	}

	for _, opt := range opts {
		opt(p)
	}

	// A minimum above the ceiling would drop everything.
	if p.minBytes > p.maxBytes {
		p.minBytes = p.maxBytes
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	chunks := p.Chunk(doc.Content, p.maxBytes, documentMetadata(doc))
	for i := range chunks {
		chunks[i].DocumentID = doc.ID
	}
	return chunks, nil
}

// Chunk splits text into chunks of at most maxBytes bytes.
//
// Text is split on section headers first. A section that fits is one chunk.
// A larger section is re-split on blank lines, accumulating paragraphs until
// the next one would overflow; a single oversized paragraph is truncated at
// a character boundary. Chunks shorter than the minimum are dropped.
// Empty input yields no chunks.
func (p *Processor) Chunk(text string, maxBytes int, metadata map[string]any) []domain.Chunk {
	if maxBytes <= 0 {
		maxBytes = p.maxBytes
	}
	minBytes := p.minBytes
	if minBytes > maxBytes {
		minBytes = maxBytes
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var chunks []domain.Chunk
	for _, sec := range splitSections(text) {
		for _, piece := range splitSection(sec.body, maxBytes) {
			trimmed := len(strings.TrimSpace(piece))
			if trimmed == 0 || trimmed < minBytes {
				continue
			}
			chunks = append(chunks, domain.Chunk{
				ID:        uuid.New().String(),
				Index:     len(chunks),
				Content:   piece,
				Section:   sec.title,
				Citations: citations.Extract(piece),
				Metadata:  copyMetadata(metadata),
			})
		}
	}
	return chunks
}

// Chunk splits text using a default processor.
func Chunk(text string, maxBytes int, metadata map[string]any) []domain.Chunk {
	return New(WithMaxBytes(maxBytes)).Chunk(text, maxBytes, metadata)
}

type section struct {
	title string
	body  string
}

// splitSections cuts text at every header line. Text before the first
// header becomes an untitled section. Without headers the whole text is
// one section.
func splitSections(text string) []section {
	locs := sectionHeader.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []section{{body: strings.TrimSpace(text)}}
	}

	var sections []section
	if pre := strings.TrimSpace(text[:locs[0][0]]); pre != "" {
		sections = append(sections, section{body: pre})
	}
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		sections = append(sections, section{
			title: textutil.TruncateBytes(strings.TrimSpace(text[loc[0]:loc[1]]), maxSectionTitleBytes),
			body:  strings.TrimSpace(text[loc[0]:end]),
		})
	}
	return sections
}

// splitSection returns body unchanged when it fits, otherwise greedy
// paragraph accumulation bounded by maxBytes.
func splitSection(body string, maxBytes int) []string {
	if body == "" {
		return nil
	}
	if len(body) <= maxBytes {
		return []string{body}
	}

	var pieces []string
	var buf string
	flush := func() {
		if buf != "" {
			pieces = append(pieces, buf)
			buf = ""
		}
	}

	for _, para := range paragraphBreak.Split(body, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if len(para) > maxBytes {
			flush()
			pieces = append(pieces, textutil.TruncateBytes(para, maxBytes))
			continue
		}
		if buf == "" {
			buf = para
			continue
		}
		if len(buf)+2+len(para) > maxBytes {
			flush()
			buf = para
			continue
		}
		buf += "\n\n" + para
	}
	flush()
	return pieces
}

func documentMetadata(doc *domain.Document) map[string]any {
	meta := map[string]any{}
	for k, v := range doc.Metadata {
		meta[k] = v
	}
	setIfPresent(meta, MetaTitle, doc.Title)
	setIfPresent(meta, MetaSource, doc.Source)
	setIfPresent(meta, MetaJurisdiction, doc.Jurisdiction)
	setIfPresent(meta, MetaPracticeArea, doc.PracticeArea)
	setIfPresent(meta, MetaDocumentType, doc.DocumentType)
	return meta
}

func setIfPresent(meta map[string]any, key, value string) {
	if value != "" {
		meta[key] = value
	}
}

func copyMetadata(meta map[string]any) map[string]any {
	out := make(map[string]any, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}
