package courtlistener

import (
	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/providers"
)

func curatedSet() *providers.Curated {
	return providers.NewCurated(Name,
		opinion("107252", "Miranda v. Arizona", "384 U.S. 436", "1966-06-13",
			"The prosecution may not use statements stemming from custodial interrogation of the defendant "+
				"unless it demonstrates the use of procedural safeguards effective to secure the privilege "+
				"against self-incrimination. Prior to any questioning, the person must be warned that he has "+
				"a right to remain silent and a right to the presence of an attorney.",
			"criminal", "/opinion/107252/miranda-v-arizona/"),
		opinion("106545", "Gideon v. Wainwright", "372 U.S. 335", "1963-03-18",
			"The Sixth Amendment right to counsel is a fundamental right made obligatory upon the States by "+
				"the Fourteenth Amendment. An indigent defendant in a state criminal prosecution has the right "+
				"to have counsel appointed for him.",
			"criminal", "/opinion/106545/gideon-v-wainwright/"),
		opinion("107729", "Terry v. Ohio", "392 U.S. 1", "1968-06-10",
			"A police officer may stop and briefly detain a person for investigative purposes and conduct a "+
				"limited pat-down search for weapons when the officer has reasonable suspicion that the person "+
				"is armed and dangerous.",
			"criminal", "/opinion/107729/terry-v-ohio/"),
		opinion("106285", "Mapp v. Ohio", "367 U.S. 643", "1961-06-19",
			"All evidence obtained by searches and seizures in violation of the Fourth Amendment is "+
				"inadmissible in a state court under the exclusionary rule.",
			"criminal", "/opinion/106285/mapp-v-ohio/"),
		opinion("111221", "Chevron U.S.A. Inc. v. Natural Resources Defense Council, Inc.", "467 U.S. 837", "1984-06-25",
			"When a statute is silent or ambiguous with respect to the specific issue, the question for the "+
				"court is whether the agency's answer is based on a permissible construction of the statute.",
			"administrative", "/opinion/111221/chevron-usa-inc-v-natural-resources-defense-council-inc/"),
		opinion("9503560", "Loper Bright Enterprises v. Raimondo", "603 U.S. 369", "2024-06-28",
			"Courts must exercise their independent judgment in deciding whether an agency has acted within "+
				"its statutory authority. Courts may not defer to an agency interpretation of the law simply "+
				"because a statute is ambiguous; Chevron is overruled.",
			"administrative", "/opinion/9503560/loper-bright-enterprises-v-raimondo/"),
		opinion("108786", "McDonnell Douglas Corp. v. Green", "411 U.S. 792", "1973-05-14",
			"In a Title VII employment discrimination case the complainant carries the initial burden of "+
				"establishing a prima facie case; the burden then shifts to the employer to articulate a "+
				"legitimate, nondiscriminatory reason for the rejection.",
			"employment", "/opinion/108786/mcdonnell-douglas-corp-v-green/"),
		opinion("111722", "Celotex Corp. v. Catrett", "477 U.S. 317", "1986-06-25",
			"Summary judgment is mandated against a party who fails to make a showing sufficient to establish "+
				"the existence of an element essential to that party's case, and on which that party will bear "+
				"the burden of proof at trial.",
			"civil procedure", "/opinion/111722/celotex-corp-v-catrett/"),
	)
}

func opinion(id, caseName, citation, date, excerpt, area, path string) providers.Entry {
	return providers.Entry{
		Result: domain.SearchResult{
			ID:       id,
			Title:    caseName,
			Content:  excerpt,
			Source:   sourceLabel,
			Citation: citation,
			Court:    "Supreme Court of the United States",
			Date:     providers.Date(date),
			URL:      webBaseURL + path,
			Provider: Name,
		},
		Jurisdiction: "federal",
		PracticeArea: area,
		DocumentType: "case",
	}
}
