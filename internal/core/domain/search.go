package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// SourceType distinguishes results from the internal store and live providers.
type SourceType string

const (
	// SourceTypeInternal marks results from the persisted chunk store.
	SourceTypeInternal SourceType = "internal"

	// SourceTypeLive marks results from an external provider.
	SourceTypeLive SourceType = "live"
)

// ProviderInternal is the provider name used for store results.
const ProviderInternal = "internal"

// Retrieval limits.
const (
	// DefaultRetrievalLimit is used when a request does not set a limit.
	DefaultRetrievalLimit = 10

	// MaxRetrievalLimit caps the number of results returned per request.
	MaxRetrievalLimit = 50

	// maxFilterValueLength bounds each filter value.
	maxFilterValueLength = 128
)

// SearchResult is a provider-agnostic retrieval hit.
// Results are constructed per query and never persisted.
type SearchResult struct {
	// ID identifies the result within its provider.
	ID string `json:"id"`

	// Title is the display title (case name, statute heading, page title).
	Title string `json:"title"`

	// Content is the matched text or excerpt.
	Content string `json:"content"`

	// Source is the human-readable source label.
	Source string `json:"source"`

	// SourceType is internal or live.
	SourceType SourceType `json:"sourceType"`

	// Citation is the primary citation string, if any.
	Citation string `json:"citation,omitempty"`

	// Court is the deciding court for case law.
	Court string `json:"court,omitempty"`

	// Date is the decision or publication date.
	Date *time.Time `json:"date,omitempty"`

	// URL links to the original document.
	URL string `json:"url,omitempty"`

	// Provider is the name of the provider that returned the result.
	Provider string `json:"provider"`

	// Score is the composite relevance score assigned by ranking.
	Score float64 `json:"score"`

	// Rank is the 1-based position after sorting. Zero before ranking.
	Rank int `json:"rank"`
}

// HasCitation returns true if the result carries a citation string.
func (r SearchResult) HasCitation() bool {
	return strings.TrimSpace(r.Citation) != ""
}

// Filters are optional equality predicates applied to retrieval.
type Filters struct {
	Jurisdiction string `json:"jurisdiction,omitempty"`
	PracticeArea string `json:"practiceArea,omitempty"`
	DocumentType string `json:"documentType,omitempty"`
}

// IsEmpty returns true if no filter is set.
func (f Filters) IsEmpty() bool {
	return f.Jurisdiction == "" && f.PracticeArea == "" && f.DocumentType == ""
}

// Key returns a canonical string for use in cache keys.
// Distinct filter sets always produce distinct keys.
func (f Filters) Key() string {
	return fmt.Sprintf("j=%q;p=%q;t=%q", f.Jurisdiction, f.PracticeArea, f.DocumentType)
}

// Validate rejects filter values that are too long or contain control characters.
func (f Filters) Validate() error {
	for name, v := range map[string]string{
		"jurisdiction": f.Jurisdiction,
		"practiceArea": f.PracticeArea,
		"documentType": f.DocumentType,
	} {
		if len(v) > maxFilterValueLength {
			return fmt.Errorf("%w: %s exceeds %d bytes", ErrInvalidFilters, name, maxFilterValueLength)
		}
		if strings.IndexFunc(v, unicode.IsControl) >= 0 {
			return fmt.Errorf("%w: %s contains control characters", ErrInvalidFilters, name)
		}
	}
	return nil
}

// Matches reports whether a document satisfies every set filter.
// Comparison is case-insensitive.
func (f Filters) Matches(doc *Document) bool {
	if doc == nil {
		return false
	}
	return matchFilter(f.Jurisdiction, doc.Jurisdiction) &&
		matchFilter(f.PracticeArea, doc.PracticeArea) &&
		matchFilter(f.DocumentType, doc.DocumentType)
}

func matchFilter(want, got string) bool {
	return want == "" || strings.EqualFold(want, got)
}

// SimilarityQuery carries both the query vector and the query text so a
// store can fall back to lexical search without a second round trip.
type SimilarityQuery struct {
	Vector []float32
	Text   string
}

// RetrievalOptions configures a provider or store search.
type RetrievalOptions struct {
	// Limit is the maximum number of results.
	Limit int

	// Filters narrows results by document metadata.
	Filters Filters
}

// RetrievalRequest is a retrieval call from the chat/search boundary.
type RetrievalRequest struct {
	Query   string  `json:"query"`
	Limit   int     `json:"limit,omitempty"`
	Filters Filters `json:"filters,omitempty"`
}

// EffectiveLimit returns the limit clamped to [1, MaxRetrievalLimit],
// using DefaultRetrievalLimit when unset.
func (r RetrievalRequest) EffectiveLimit() int {
	switch {
	case r.Limit <= 0:
		return DefaultRetrievalLimit
	case r.Limit > MaxRetrievalLimit:
		return MaxRetrievalLimit
	default:
		return r.Limit
	}
}

// CacheKey returns the query cache key for the request.
func (r RetrievalRequest) CacheKey() string {
	return fmt.Sprintf("%s|%s|%d", strings.TrimSpace(r.Query), r.Filters.Key(), r.EffectiveLimit())
}

// RetrievalResponse is the ranked, citation-annotated evidence set.
type RetrievalResponse struct {
	Results      []SearchResult  `json:"results"`
	Citations    []CitationEntry `json:"citations"`
	PromptBlocks string          `json:"promptBlocks"`

	// Degraded is true when the query embedding was a fallback vector.
	Degraded bool `json:"degraded"`
}

// InternalResult builds the search result for a stored chunk. Store results
// carry the document's source label and the chunk's first citation.
func InternalResult(doc *Document, chunk Chunk) SearchResult {
	r := SearchResult{
		ID:         chunk.ID,
		Content:    chunk.Content,
		SourceType: SourceTypeInternal,
		Provider:   ProviderInternal,
	}
	if len(chunk.Citations) > 0 {
		r.Citation = chunk.Citations[0]
	}
	if doc == nil {
		return r
	}
	r.Title = doc.Title
	r.Source = doc.Source
	r.URL = doc.SourceURL
	r.Date = doc.PublishedAt
	if court, ok := doc.Metadata["court"].(string); ok {
		r.Court = court
	}
	return r
}
