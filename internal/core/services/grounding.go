package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/textutil"
)

// DefaultExcerptChars caps each prompt block excerpt, in runes.
const DefaultExcerptChars = 500

const excerptEllipsis = "..."

// GroundingBuilder renders ranked results into numbered prompt blocks and
// a parallel citation list. It is stateless: the same input always yields
// byte-identical output.
type GroundingBuilder struct {
	excerptChars int
}

// NewGroundingBuilder creates a builder. A non-positive excerptChars uses
// DefaultExcerptChars.
func NewGroundingBuilder(excerptChars int) *GroundingBuilder {
	if excerptChars <= 0 {
		excerptChars = DefaultExcerptChars
	}
	return &GroundingBuilder{excerptChars: excerptChars}
}

// Build numbers results 1..N in the given (ranked) order.
// Zero results yield domain.NoSourcesMessage and an empty citation list.
func (b *GroundingBuilder) Build(results []domain.SearchResult) domain.GroundingContext {
	return b.BuildWithOffset(results, 1)
}

// BuildWithOffset numbers results from start. Use it only for an explicit
// secondary block that must continue an earlier block's numbering.
func (b *GroundingBuilder) BuildWithOffset(results []domain.SearchResult, start int) domain.GroundingContext {
	if start < 1 {
		start = 1
	}
	if len(results) == 0 {
		return domain.GroundingContext{
			PromptBlocks: domain.NoSourcesMessage,
			Citations:    []domain.CitationEntry{},
		}
	}

	blocks := make([]string, len(results))
	citations := make([]domain.CitationEntry, len(results))
	for i, r := range results {
		n := start + i
		blocks[i] = b.block(n, r)
		citations[i] = domain.CitationEntry{
			Number:     n,
			ResultID:   r.ID,
			Title:      r.Title,
			Source:     r.Source,
			SourceType: r.SourceType,
			Citation:   r.Citation,
			URL:        r.URL,
			Court:      r.Court,
			Date:       r.Date,
		}
	}

	return domain.GroundingContext{
		PromptBlocks: strings.Join(blocks, "\n\n"),
		Citations:    citations,
	}
}

func (b *GroundingBuilder) block(n int, r domain.SearchResult) string {
	excerpt := textutil.TruncateRunes(strings.TrimSpace(r.Content), b.excerptChars, excerptEllipsis)
	return fmt.Sprintf("[Source %d] %s - %s\nContent: %s", n, r.Source, r.Title, excerpt)
}
