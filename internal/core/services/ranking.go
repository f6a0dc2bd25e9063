package services

import (
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/textutil"
)

// Ranking weights.
const (
	titleTermWeight   = 3
	contentTermWeight = 1
	recencyWeight     = 1
	internalWeight    = 2
	citationWeight    = 1

	// DefaultRecencyWindow is how recent a dated result must be to earn
	// the recency bonus.
	DefaultRecencyWindow = 365 * 24 * time.Hour
)

// DedupResults collapses results whose normalised titles match, keeping
// the first seen. Callers list internal results first so curated data wins.
// Results without a usable title are kept, keyed by provider and ID.
func DedupResults(results []domain.SearchResult) []domain.SearchResult {
	seen := make(map[string]struct{}, len(results))
	out := make([]domain.SearchResult, 0, len(results))
	for _, r := range results {
		key := textutil.NormalizeTitle(r.Title)
		if key == "" {
			key = "\x00" + r.Provider + "\x00" + r.ID
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}

// ScoreResult computes the composite relevance score of a result:
// +3 per query term in the title, +1 per term in the content, +1 if dated
// within window of now, +2 if internal, +1 if it carries a citation.
func ScoreResult(r domain.SearchResult, terms []string, now time.Time, window time.Duration) float64 {
	title := strings.ToLower(r.Title)
	content := strings.ToLower(r.Content)

	score := 0
	for _, term := range terms {
		if strings.Contains(title, term) {
			score += titleTermWeight
		}
		if strings.Contains(content, term) {
			score += contentTermWeight
		}
	}
	if r.Date != nil {
		if age := now.Sub(*r.Date); age >= 0 && age <= window {
			score += recencyWeight
		}
	}
	if r.SourceType == domain.SourceTypeInternal {
		score += internalWeight
	}
	if r.HasCitation() {
		score += citationWeight
	}
	return float64(score)
}

// RankResults scores results against query, stable-sorts them by score
// descending (ties keep discovery order), truncates to limit and assigns
// ranks 1..N. The input slice is not modified.
func RankResults(results []domain.SearchResult, query string, now time.Time, window time.Duration, limit int) []domain.SearchResult {
	terms := textutil.QueryTerms(query)

	ranked := make([]domain.SearchResult, len(results))
	copy(ranked, results)
	for i := range ranked {
		ranked[i].Score = ScoreResult(ranked[i], terms, now, window)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}
