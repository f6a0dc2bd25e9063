package providers

import (
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/textutil"
)

// Entry is one document in a curated set.
type Entry struct {
	// Result is returned as is when the entry matches a query.
	Result domain.SearchResult

	Jurisdiction string
	PracticeArea string
	DocumentType string

	// Body is the full text returned by Fetch. Result.Content is used
	// when it is empty.
	Body string
}

// Curated is a static, deterministic result set served when a provider
// cannot reach its live API.
type Curated struct {
	provider string
	entries  []Entry
}

// NewCurated creates a curated set for a provider. Entry order is kept.
func NewCurated(provider string, entries ...Entry) *Curated {
	return &Curated{provider: provider, entries: entries}
}

// Len returns the number of entries.
func (c *Curated) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Match returns entries where any query term occurs in the title or
// content, ignoring case. Filters apply to entry metadata.
func (c *Curated) Match(query string, opts domain.RetrievalOptions) []domain.SearchResult {
	if c == nil {
		return nil
	}

	terms := textutil.QueryTerms(query)
	if len(terms) == 0 {
		if q := strings.ToLower(strings.TrimSpace(query)); q != "" {
			terms = []string{q}
		}
	}
	if len(terms) == 0 {
		return nil
	}

	var results []domain.SearchResult
	for i := range c.entries {
		e := &c.entries[i]
		if !opts.Filters.Matches(e.document()) {
			continue
		}
		if !matchesAny(e.Result, terms) {
			continue
		}
		results = append(results, c.stamp(e.Result))
		if opts.Limit > 0 && len(results) == opts.Limit {
			break
		}
	}
	return results
}

// Fetch returns the curated document with the given result ID.
func (c *Curated) Fetch(id string) (*domain.Document, error) {
	if c != nil {
		for i := range c.entries {
			if c.entries[i].Result.ID == id {
				return c.entries[i].document(), nil
			}
		}
	}
	return nil, fmt.Errorf("%s: curated document %q: %w", c.provider, id, domain.ErrNotFound)
}

func (c *Curated) stamp(r domain.SearchResult) domain.SearchResult {
	r.SourceType = domain.SourceTypeLive
	if r.Provider == "" {
		r.Provider = c.provider
	}
	return r
}

func (e *Entry) document() *domain.Document {
	body := e.Body
	if body == "" {
		body = e.Result.Content
	}
	var published *time.Time
	if e.Result.Date != nil {
		d := *e.Result.Date
		published = &d
	}
	return &domain.Document{
		Title:        e.Result.Title,
		Content:      body,
		Source:       e.Result.Source,
		SourceURL:    e.Result.URL,
		Jurisdiction: e.Jurisdiction,
		PracticeArea: e.PracticeArea,
		DocumentType: e.DocumentType,
		PublishedAt:  published,
		Metadata: map[string]any{
			"citation": e.Result.Citation,
			"court":    e.Result.Court,
			"curated":  true,
		},
	}
}

func matchesAny(r domain.SearchResult, terms []string) bool {
	title := strings.ToLower(r.Title)
	content := strings.ToLower(r.Content)
	for _, t := range terms {
		if strings.Contains(title, t) || strings.Contains(content, t) {
			return true
		}
	}
	return false
}

// Date parses a YYYY-MM-DD date for curated entries. It panics on
// malformed input and is meant for package-level literals only.
func Date(s string) *time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return &t
}
