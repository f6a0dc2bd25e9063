package govinfo

import (
	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/providers"
)

func curatedSet() *providers.Curated {
	return providers.NewCurated(Name,
		section("USCODE-2023-title42/USCODE-2023-title42-chap21-subchapI-sec1983",
			"42 U.S.C. 1983 - Civil action for deprivation of rights", "42 U.S.C. § 1983",
			"Every person who, under color of any statute, ordinance, regulation, custom, or usage, of any "+
				"State subjects any citizen of the United States to the deprivation of any rights, privileges, "+
				"or immunities secured by the Constitution and laws, shall be liable to the party injured.",
			"civil rights", "statute"),
		section("USCODE-2023-title18/USCODE-2023-title18-partI-chap47-sec1001",
			"18 U.S.C. 1001 - Statements or entries generally", "18 U.S.C. § 1001",
			"Whoever, in any matter within the jurisdiction of the executive, legislative, or judicial branch "+
				"of the Government of the United States, knowingly and willfully makes any materially false, "+
				"fictitious, or fraudulent statement or representation shall be fined or imprisoned.",
			"criminal", "statute"),
		section("USCODE-2023-title42/USCODE-2023-title42-chap21-subchapVI-sec2000e-2",
			"42 U.S.C. 2000e-2 - Unlawful employment practices", "42 U.S.C. § 2000e-2",
			"It shall be an unlawful employment practice for an employer to fail or refuse to hire or to "+
				"discharge any individual, or otherwise to discriminate against any individual because of such "+
				"individual's race, color, religion, sex, or national origin.",
			"employment", "statute"),
		section("USCODE-2023-title5/USCODE-2023-title5-partI-chap5-subchapII-sec552",
			"5 U.S.C. 552 - Public information; agency rules, opinions, orders, records, and proceedings",
			"5 U.S.C. § 552",
			"Each agency shall make available to the public information including descriptions of its central "+
				"and field organization. Freedom of Information Act requests must be answered within twenty days.",
			"administrative", "statute"),
		section("USCODE-2023-title29/USCODE-2023-title29-chap8-sec207",
			"29 U.S.C. 207 - Maximum hours", "29 U.S.C. § 207",
			"No employer shall employ any of his employees for a workweek longer than forty hours unless such "+
				"employee receives compensation for his employment in excess of the hours specified at a rate "+
				"not less than one and one-half times the regular rate at which he is employed.",
			"employment", "statute"),
		section("CFR-2023-title29-vol4/CFR-2023-title29-vol4-sec1604-11",
			"29 CFR 1604.11 - Sexual harassment", "29 C.F.R. § 1604.11",
			"Harassment on the basis of sex is a violation of section 703 of title VII. Unwelcome sexual "+
				"advances constitute sexual harassment when submission is made a term or condition of employment.",
			"employment", "regulation"),
	)
}

func section(id, title, citation, text, area, docType string) providers.Entry {
	return providers.Entry{
		Result: domain.SearchResult{
			ID:       id,
			Title:    title,
			Content:  text,
			Source:   sourceLabel,
			Citation: citation,
			URL:      webBaseURL + "/app/details/" + id,
			Provider: Name,
		},
		Jurisdiction: "federal",
		PracticeArea: area,
		DocumentType: docType,
	}
}
