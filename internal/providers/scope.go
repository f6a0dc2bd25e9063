package providers

import (
	"slices"
	"strings"

	"github.com/custodia-labs/lexground/internal/core/domain"
)

// Scope describes what a provider's live API can return, so a search whose
// filters exclude all of it skips the API. Providers filter the results
// they do get with domain.Filters.Matches.
type Scope struct {
	// DocumentTypes lists every document type a live result can have.
	DocumentTypes []string

	// Jurisdictions lists the jurisdictions live results can belong to.
	// AnyJurisdiction means the provider narrows by jurisdiction itself.
	Jurisdictions   []string
	AnyJurisdiction bool
}

// Admits reports whether any live result could satisfy f. Live APIs carry
// no practice area, so a practice area filter excludes them. The zero
// Scope admits everything.
func (s Scope) Admits(f domain.Filters) bool {
	if len(s.DocumentTypes) == 0 && len(s.Jurisdictions) == 0 && !s.AnyJurisdiction {
		return true
	}
	if f.PracticeArea != "" {
		return false
	}
	if f.DocumentType != "" && !containsFold(s.DocumentTypes, f.DocumentType) {
		return false
	}
	if f.Jurisdiction != "" && !s.AnyJurisdiction && !containsFold(s.Jurisdictions, f.Jurisdiction) {
		return false
	}
	return true
}

func containsFold(values []string, want string) bool {
	return slices.ContainsFunc(values, func(v string) bool {
		return strings.EqualFold(v, want)
	})
}
