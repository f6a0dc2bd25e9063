// Package citations extracts legal citation strings from text.
package citations

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/custodia-labs/lexground/internal/core/domain"
)

// patterns is the fixed citation set: federal and state reporters,
// statutory and regulatory codes, public laws and bare section symbols.
var patterns = []*regexp.Regexp{
	// U.S. Reports: 384 U.S. 436
	regexp.MustCompile(`\b\d{1,3}\s+U\.\s?S\.\s+\d{1,4}\b`),
	// Supreme Court Reporter: 86 S. Ct. 1602
	regexp.MustCompile(`\b\d{1,3}\s+S\.\s?Ct\.\s+\d{1,5}\b`),
	// Lawyers' Edition: 16 L. Ed. 2d 694
	regexp.MustCompile(`\b\d{1,3}\s+L\.\s?Ed\.(?:\s?2d)?\s+\d{1,5}\b`),
	// Federal Reporter: 123 F.3d 456
	regexp.MustCompile(`\b\d{1,4}\s+F\.(?:\s?(?:2d|3d|4th))?\s+\d{1,5}\b`),
	// Federal Supplement: 45 F. Supp. 2d 789
	regexp.MustCompile(`\b\d{1,4}\s+F\.\s?Supp\.(?:\s?(?:2d|3d))?\s+\d{1,5}\b`),
	// Regional and state reporters: 12 Cal. 4th 345, 98 N.E.2d 12
	regexp.MustCompile(`\b\d{1,4}\s+(?:Cal\.(?:\s?App\.)?(?:\s?(?:2d|3d|4th|5th))?|N\.Y\.(?:\s?(?:2d|3d))?|` +
		`P\.(?:\s?(?:2d|3d))?|N\.E\.(?:\s?(?:2d|3d))?|N\.W\.(?:\s?2d)?|S\.W\.(?:\s?(?:2d|3d))?|` +
		`S\.E\.(?:\s?2d)?|So\.(?:\s?(?:2d|3d))?|A\.(?:\s?(?:2d|3d))?)\s+\d{1,5}\b`),
	// United States Code: 42 U.S.C. § 1983
	regexp.MustCompile(`\b\d{1,2}\s+U\.\s?S\.\s?C\.(?:\s?A\.)?\s+§{1,2}\s?\d+[a-z0-9\-]*(?:\([A-Za-z0-9]+\))*`),
	// Code of Federal Regulations: 29 C.F.R. § 1910.1200
	regexp.MustCompile(`\b\d{1,2}\s+C\.\s?F\.\s?R\.\s+(?:§{1,2}\s?)?\d+(?:\.\d+)*`),
	// Public laws: Pub. L. No. 111-148
	regexp.MustCompile(`\bPub\.\s?L\.\s+(?:No\.\s+)?\d{1,3}-\d{1,4}\b`),
	// State code sections: § 12940(a)
	regexp.MustCompile(`§{1,2}\s?\d+(?:\.\d+)*[a-z]?(?:\([A-Za-z0-9]+\))*`),
}

type span struct {
	start, end int
}

// Extract returns the citations found in text in order of appearance.
// A match overlapping an earlier, longer match (the "§ 1983" of "42 U.S.C. § 1983")
// is not reported separately. Duplicates are removed.
func Extract(text string) []string {
	if text == "" {
		return nil
	}

	var spans []span
	for _, re := range patterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			spans = append(spans, span{start: loc[0], end: loc[1]})
		}
	}
	if len(spans) == 0 {
		return nil
	}

	// Earliest start first; for equal starts the longest wins.
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end > spans[j].end
	})

	var found []string
	last := -1
	for _, s := range spans {
		if s.start < last {
			continue
		}
		last = s.end
		found = append(found, normalise(text[s.start:s.end]))
	}
	return Dedup(found)
}

// Dedup removes repeated citations keeping first-seen order.
func Dedup(cites []string) []string {
	if len(cites) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(cites))
	out := make([]string, 0, len(cites))
	for _, c := range cites {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// normalise collapses internal whitespace (line breaks inside a citation).
func normalise(c string) string {
	return strings.Join(strings.Fields(c), " ")
}

// Processor re-extracts citations for chunks produced by an earlier stage
// and merges them with any already attached.
// It implements the PostProcessor interface.
type Processor struct{}

// New creates a citation processor.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "citations"
}

// Process attaches de-duplicated citations to every chunk.
func (p *Processor) Process(_ context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	for i := range chunks {
		merged := append(append([]string(nil), chunks[i].Citations...), Extract(chunks[i].Content)...)
		chunks[i].Citations = Dedup(merged)
	}
	return chunks, nil
}
