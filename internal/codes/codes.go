// Package codes holds the static code tables that translate short upstream
// codes into canonical display labels. The tables are read-only; they are
// built once and injected into the extractors at construction.
package codes

import "github.com/nrgdoc/edo-repacker/internal/models"

// MonthName maps an upper-cased Russian month name (genitive case, as it
// appears in rendered documents) to its two-digit numeral. Order matters:
// substitution takes the first table entry found as a substring.
type MonthName struct {
	Name string
	Num  string
}

// Tables bundles every static mapping the extractors consult.
type Tables struct {
	// DocTypes translates the attribute-tree function code into a
	// document type.
	DocTypes map[string]models.DocType

	// TreeMarkets translates market codes captured from attribute trees.
	TreeMarkets map[string]models.Market

	// TextMarkets is the extracted-text variant: everything in
	// TreeMarkets plus a few codes that only ever appear in rendered
	// documents.
	TextMarkets map[string]models.Market

	// Months is the ordered month-name table for textual dates.
	Months []MonthName
}

// Default returns the production code tables.
func Default() *Tables {
	treeMarkets := map[string]models.Market{
		"RDN":    models.MarketRDD,
		"DPMC":   models.MarketDPMTES,
		"DPMN":   models.MarketDPMTES,
		"DPMG":   models.MarketDPMGA,
		"DPMA":   models.MarketDPMGA,
		"DPMV":   models.MarketDPMVIE,
		"KOM":    models.MarketKOM,
		"КОМ":    models.MarketKOM, // Cyrillic К, seen in older deliveries
		"DVR":    models.MarketDVR,
		"MNZ":    models.MarketNCZ,
		"МNZ":    models.MarketNCZ, // Cyrillic М
		"Д/УЭГ":  models.MarketSDM,
		"SDMO":   models.MarketSDM,
		"SDD":    models.MarketEESDD,
		"KOMMOD": models.MarketKOMMod,
	}

	textMarkets := make(map[string]models.Market, len(treeMarkets)+1)
	for code, market := range treeMarkets {
		textMarkets[code] = market
	}
	textMarkets["2G-00"] = models.MarketSDM

	return &Tables{
		DocTypes: map[string]models.DocType{
			"СЧФ":    models.DocTypeInvoice,
			"ДОП":    models.DocTypeTransferAct,
			"СЧФДОП": models.DocTypeInvoiceAct,
		},
		TreeMarkets: treeMarkets,
		TextMarkets: textMarkets,
		Months: []MonthName{
			{"ЯНВАРЯ", "01"},
			{"ФЕВРАЛЯ", "02"},
			{"МАРТА", "03"},
			{"АПРЕЛЯ", "04"},
			{"МАЯ", "05"},
			{"ИЮНЯ", "06"},
			{"ИЮЛЯ", "07"},
			{"АВГУСТА", "08"},
			{"СЕНТЯБРЯ", "09"},
			{"ОКТЯБРЯ", "10"},
			{"НОЯБРЯ", "11"},
			{"ДЕКАБРЯ", "12"},
		},
	}
}
