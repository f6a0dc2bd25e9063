package govinfo

import (
	"strings"

	"github.com/custodia-labs/lexground/internal/core/domain"
)

type searchRequest struct {
	Query      string      `json:"query"`
	PageSize   int         `json:"pageSize"`
	OffsetMark string      `json:"offsetMark"`
	Sorts      []sortField `json:"sorts"`
}

type sortField struct {
	Field     string `json:"field"`
	SortOrder string `json:"sortOrder"`
}

type searchResponse struct {
	Count   int            `json:"count"`
	Results []searchResult `json:"results"`
}

type searchResult struct {
	Title          string   `json:"title"`
	PackageID      string   `json:"packageId"`
	GranuleID      string   `json:"granuleId"`
	CollectionCode string   `json:"collectionCode"`
	DateIssued     string   `json:"dateIssued"`
	Authors        []string `json:"governmentAuthor"`
}

type granuleSummary struct {
	Title          string   `json:"title"`
	CollectionCode string   `json:"collectionCode"`
	DateIssued     string   `json:"dateIssued"`
	DetailsLink    string   `json:"detailsLink"`
	Download       download `json:"download"`
}

type download struct {
	// TxtLink serves an HTML rendition for granules.
	TxtLink string `json:"txtLink"`
}

func (r searchResult) toResult() domain.SearchResult {
	id := r.PackageID
	if r.GranuleID != "" {
		id += "/" + r.GranuleID
	}

	result := domain.SearchResult{
		ID:       id,
		Title:    strings.TrimSpace(r.Title),
		Content:  strings.TrimSpace(r.Title),
		Source:   sourceLabel,
		Citation: firstCitation(r.Title),
		Date:     parseDate(r.DateIssued),
		URL:      webBaseURL + "/app/details/" + id,
		Provider: Name,
	}
	if len(r.Authors) > 0 {
		result.Content = strings.Join(r.Authors, "; ") + ": " + result.Content
	}
	return result
}
