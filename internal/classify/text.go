package classify

import (
	"strings"
	"time"

	"github.com/nrgdoc/edo-repacker/internal/codes"
	"github.com/nrgdoc/edo-repacker/internal/models"
)

// TextResolver derives document metadata from the extracted plain text of a
// rendered document. Input text must already be upper-cased. Now is the
// processing clock; tests pin it.
type TextResolver struct {
	tables *codes.Tables
	Now    func() time.Time
}

func NewTextResolver(tables *codes.Tables) *TextResolver {
	return &TextResolver{tables: tables, Now: time.Now}
}

// Reconciliation-act indicators. Any hit in the filename, the path, or the
// text body marks the document as a reconciliation act.
var reconNameMarkers = []string{"СВЕРКИ", "ВЗАИМОРАСЧЕТОВ"}

const (
	reconPathMarker = "АКТЫ СВЕРКИ МОСЭНЕРГО"
	reconTextMarker = "АКТ СВЕРКИ РАСЧЕТОВ"
)

// reconSubtypes: the keyword occurring earliest in the text decides the
// subtype; neither present means the generic reconciliation act.
var reconSubtypes = []struct {
	keyword string
	docType models.DocType
}{
	{"МОЩНОСТИ", models.DocTypeReconPower},
	{"ЭЛЕКТРОЭНЕРГИИ", models.DocTypeReconEnergy},
}

// ClassifySubtype decides the document sub-category of a rendered document.
// Anything that is not a reconciliation act defaults to the
// acceptance-transfer act.
func (r *TextResolver) ClassifySubtype(text, filename, path string) models.DocType {
	nameUpper := strings.ToUpper(filename)
	pathUpper := strings.ToUpper(path)

	recon := strings.Contains(pathUpper, reconPathMarker) ||
		strings.Contains(text, reconTextMarker)
	for _, marker := range reconNameMarkers {
		if strings.Contains(nameUpper, marker) {
			recon = true
		}
	}
	if !recon {
		return models.DocTypeTransferAct
	}

	subtype := models.DocTypeRecon
	bestIdx := -1
	for _, s := range reconSubtypes {
		idx := strings.Index(text, s.keyword)
		if idx < 0 {
			continue
		}
		if bestIdx == -1 || idx < bestIdx {
			subtype, bestIdx = s.docType, idx
		}
	}
	return subtype
}

// Acceptance-transfer act headers as they come out of text extraction. Layout
// noise varies wildly between suppliers, hence the long tail of variants.
// Each pattern captures (number, date); the date is either dd.mm.yyyy or
// dd МЕСЯЦА yyyy.
var actNumberDatePatterns = compileAll(
	`АКТ[\s.]ПРИЕМА-ПЕРЕДАЧИ\s\(ПОСТАВКИ\)\sМОЩНОСТИ\s№\s(\d*?)\s*ОТ\s*(\d{2}\.\d{2}\.\d{4})\s`,
	`АКТ[\s.]ПРИЕМА-ПЕРЕДАЧИ\s\(ПОСТАВКИ\)\sМОЩНОСТИ\s№\s(\d*?)\s*ОТ\s*(\d{2}\s[А-Я]+\s\d{4})\s`,
	`ПРИЕМА\s?[-–]\s?ПЕРЕДАЧИ\s\(ПОСТАВКИ\)\sМОЩНОСТИ\s№\s([\d-]*?)\s*ОТ\s*(\d{2}\.\d{2}\.\d{4})\s`,
	`АКТ[\s.]*?ПРИЕМА-ПЕРЕДАЧИ\sМОЩНОСТИ\s№\s([\d-]*?)\s*ОТ\s*(\d{2}\s[А-Я]+\s\d{4})`,
	`АКТ[\s.]ПРИЕМА-ПЕРЕДАЧИ\s№\s([\d-]*?)\s*ОТ\s*(\d{2}\s[А-Я]+\s\d{4})`,
	`АКТ[\s.]ПРИЕМА\s*?[-–]\s*?ПЕРЕДАЧИ\s[\w\W]{1,100}№\s?([\d\-]+)\sОТ\s(\d{2}\.\d{2}\.\d{4})`,
	`АКТ[\s.]ПРИЕМА[-\s]*?ПЕРЕДАЧИ\s[\w\W]{1,100}№\s?([\d\-]+)\sОТ\s(\d{2}\.\d{2}\.\d{4})`,
	`АКТ[\s.]ПРИЕМА[-\s]*?ПЕРЕДАЧИ\s№\s?([\d\-]+)\sОТ\s(\d{2}\.\d{2}\.\d{4})`,
	`АКТ\s*?ПРИЕМА-ПЕРЕДАЧИ\sЭЛЕКТРИЧЕСКОЙ\sЭНЕРГИИ\s*?№\s*?(\d*?)\s*ОТ\s*(\d{2}\.\d{2}\.\d{4})\s`,
	`АКТ\s*?ПРИЕМА\s*?[-–]\s*?ПЕРЕДАЧИ\s[\w\W]*?№\s?([\w\-/]+)\sОТ\s(\d{2}\.\d{2}\.\d{4})\s`,
	`ПРИЕМА\s?[-–]\s?ПЕРЕДАЧИ\s*?МОЩНОСТИ\s№\s([\d-]*?)\s*ОТ\s*(\d{2}\.\d{2}\.\d{4})\s`,
	`АКТ[\s.]*?ПРИЕМА-ПЕРЕДАЧИ\sМОЩНОСТИ[\s.]*?№\s([DVR\d-]*?)\s*ОТ\s*(\d{2}\s[А-Я]+\s\d{4})`,
	`АКТ[\s.]ПРИЕМА\s*?[-–]\s*?ПЕРЕДАЧИ\s[А-Я]{1,100}\s№\s?([А-Я\d\-_/]+)\sОТ\s(\d{2}\.\d{2}\.\d{4})`,
)

// Reconciliation acts only yield a number; their date follows the accounting
// period, not the text.
var reconNumberPatterns = compileAll(
	`№\s?(([A-Z]{4})-[A-Z\d-]+)\s*ОТ`,
	`№\s?([\w\-]+-(SDD)-\d{2})\sОТ`,
	`№\s\s?([A-Z\d/-]+?)\sОТ`,
	`№\s+?([A-Z]{3,4}-[A-Z\d-]+)\s+?ОТ\s\d{2}\.\d{2}\.\d{2}`,
	`№\s?(([A-Z]{3,4})-[\W\w]+?)\sОТ\s\d{2}\.\d{2}\.\d{4}`,
	`№\s?(([A-ZМ]{3,4})-[\W\w]+?)\sОТ`,
	`(Д/УЭГ[\W\w]+?)\sОТ`,
	`(KOMMOD[\W\w]+?)\sОТ`,
)

// ResolveNumberDate extracts number and date using the pattern list of the
// resolved subtype; the first matching pattern wins. Reconciliation dates are
// computed from the processing clock instead of the text.
func (r *TextResolver) ResolveNumberDate(text string, docType models.DocType) (string, time.Time) {
	if docType == models.DocTypeTransferAct {
		for _, re := range actNumberDatePatterns {
			m := re.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			number := models.SanitizeNumber(m[1])

			var date time.Time
			raw := numeralizeDate(m[2], r.tables.Months)
			if parsed, err := ParseDate(raw); err == nil {
				date = parsed
			}
			return number, date
		}
		return models.NotResolved, time.Time{}
	}

	for _, re := range reconNumberPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		return models.SanitizeNumber(m[1]), reconDate(r.Now())
	}
	return models.NotResolved, time.Time{}
}

var actMarketPatterns = compileAll(
	`№[\s.]?([A-Z]{3,4})-[A-Z\d-]+\s*ОТ\s*\d{2}\.\d{2}\.\d{4}`,
	`№[\s.]?([A-Z]{3,6})-[\s.A-Z\d-]+\s*ОТ\s*\d{2}\.\d{2}\.\d{4}`,
	`№[\s.]*?([A-Z]{3,4})-[A-Z\d-]+\s*ОТ\s*\d{2}\.\d{2}\.\d{4}`,
	`№[\s.]?([A-Z]{3,4})-[A-Z\d-]+\s*ОТ[\s.]*\d{2}\.\d{2}\.\d{4}`,
	`СВОБОДНОМУ\sДОГОВОРУ[\w\-\s]*№\s?[\w\-]+-(SDD)-`,
	`[\S]*?(SDMO)-ATS`,
)

var reconMarketPatterns = compileAll(
	`№\s?([A-Z]{4})-[A-Z\d-]+\s*ОТ`,
	`№\s?[\w\-]+-(SDD)-\d{2}\sОТ`,
	`№\s*?([A-Z\d-]{3,4})-`,
	`№\s*?([A-ZМ\d-]{3,4})-`,
	`№\s*?(2G-00)`,
	`(Д/УЭГ)/`,
	`№\s*?(KOMMOD)-`,
)

// ResolveMarket runs the subtype-specific pattern cascade over the full text.
// A captured code missing from the table falls through to the next pattern.
func (r *TextResolver) ResolveMarket(text string, docType models.DocType) models.Market {
	patterns := reconMarketPatterns
	if docType == models.DocTypeTransferAct {
		patterns = actMarketPatterns
	}
	market, _ := matchMarket(patterns, r.tables.TextMarkets, text)
	return market
}
