package websearch

import (
	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/providers"
)

func curatedSet() *providers.Curated {
	return providers.NewCurated(Name,
		page("https://www.law.cornell.edu/wex/miranda_warning", "Miranda warning | Wex | LII",
			"A Miranda warning is a statement informing a suspect in custody of the right to remain silent "+
				"and the right to an attorney before custodial interrogation.", "criminal"),
		page("https://www.law.cornell.edu/wex/exclusionary_rule", "Exclusionary rule | Wex | LII",
			"The exclusionary rule prevents the government from using most evidence gathered in violation "+
				"of the Fourth Amendment.", "criminal"),
		page("https://www.eeoc.gov/harassment", "Harassment | U.S. Equal Employment Opportunity Commission",
			"Harassment is a form of employment discrimination that violates Title VII of the Civil Rights "+
				"Act of 1964. Employers are automatically liable for harassment by a supervisor that results "+
				"in a tangible employment action.", "employment"),
		page("https://www.dol.gov/agencies/whd/overtime", "Overtime Pay | U.S. Department of Labor",
			"Unless exempt, employees covered by the Fair Labor Standards Act must receive overtime pay for "+
				"hours worked over 40 in a workweek at a rate not less than time and one-half.", "employment"),
		page("https://www.justice.gov/oip/freedom-information-act-5-usc-552", "Freedom of Information Act | OIP",
			"The Freedom of Information Act, 5 U.S.C. § 552, provides the public the right to request "+
				"access to records from any federal agency.", "administrative"),
	)
}

func page(link, title, snippet, area string) providers.Entry {
	return providers.Entry{
		Result: domain.SearchResult{
			ID:       link,
			Title:    title,
			Content:  snippet,
			Source:   sourceLabel,
			URL:      link,
			Provider: Name,
		},
		Jurisdiction: "federal",
		PracticeArea: area,
		DocumentType: "commentary",
	}
}
