package courtlistener

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/custodia-labs/lexground/internal/core/domain"
)

type searchResponse struct {
	Count   int            `json:"count"`
	Results []searchResult `json:"results"`
}

type searchResult struct {
	ClusterID   int64           `json:"cluster_id"`
	CaseName    string          `json:"caseName"`
	Citation    []string        `json:"citation"`
	Court       string          `json:"court"`
	CourtID     string          `json:"court_id"`
	DateFiled   string          `json:"dateFiled"`
	AbsoluteURL string          `json:"absolute_url"`
	Snippet     string          `json:"snippet"`
	Opinions    []searchOpinion `json:"opinions"`
}

type searchOpinion struct {
	ID      int64  `json:"id"`
	Snippet string `json:"snippet"`
}

type opinionResponse struct {
	ID                int64  `json:"id"`
	Cluster           string `json:"cluster"`
	AbsoluteURL       string `json:"absolute_url"`
	PlainText         string `json:"plain_text"`
	HTMLWithCitations string `json:"html_with_citations"`
}

type clusterResponse struct {
	CaseName  string         `json:"case_name"`
	DateFiled string         `json:"date_filed"`
	Citations []citationPart `json:"citations"`
}

type citationPart struct {
	Volume   any    `json:"volume"`
	Reporter string `json:"reporter"`
	Page     string `json:"page"`
}

func (c clusterResponse) citation() string {
	if len(c.Citations) == 0 {
		return ""
	}
	first := c.Citations[0]
	return fmt.Sprintf("%v %s %s", first.Volume, first.Reporter, first.Page)
}

func (r searchResult) toResult() domain.SearchResult {
	id := strconv.FormatInt(r.ClusterID, 10)
	snippet := r.Snippet
	if len(r.Opinions) > 0 {
		id = strconv.FormatInt(r.Opinions[0].ID, 10)
		if s := strings.TrimSpace(r.Opinions[0].Snippet); s != "" {
			snippet = s
		}
	}

	result := domain.SearchResult{
		ID:       id,
		Title:    r.CaseName,
		Content:  stripHighlights(snippet),
		Source:   sourceLabel,
		Court:    r.Court,
		Date:     parseDate(r.DateFiled),
		Provider: Name,
	}
	if r.AbsoluteURL != "" {
		result.URL = webBaseURL + r.AbsoluteURL
	}
	if len(r.Citation) > 0 {
		result.Citation = r.Citation[0]
	}
	return result
}

// jurisdiction maps a court id to the jurisdiction filter value it
// satisfies: "federal" for federal appellate courts, the id otherwise.
func jurisdiction(courtID string) string {
	if slices.Contains(federalCourts, courtID) {
		return "federal"
	}
	return courtID
}

// Search snippets wrap matches in <mark> tags.
func stripHighlights(s string) string {
	return strings.NewReplacer("<mark>", "", "</mark>", "").Replace(strings.TrimSpace(s))
}
