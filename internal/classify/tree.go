package classify

import (
	"regexp"
	"strings"
	"time"

	"github.com/nrgdoc/edo-repacker/internal/codes"
	"github.com/nrgdoc/edo-repacker/internal/models"
	"github.com/nrgdoc/edo-repacker/internal/xmltree"
)

// TreeResolver derives document metadata from a structured attribute tree.
// All lookups are ordered candidate lists with first-success-wins semantics;
// declaration order is match priority.
type TreeResolver struct {
	tables *codes.Tables
}

func NewTreeResolver(tables *codes.Tables) *TreeResolver {
	return &TreeResolver{tables: tables}
}

// typeByPrefix maps fixed filename prefixes straight to a type, bypassing
// the tree.
var typeByPrefix = []struct {
	prefix  string
	docType models.DocType
}{
	{"DP_REZRUISP", models.DocTypeTransferAct},
	{"ON_ACCOUNTS", models.DocTypeRecon},
}

// ResolveType determines the document type from the filename prefix table,
// falling back to the function code stored on the document node.
func (r *TreeResolver) ResolveType(tree *xmltree.Tree, filename string) models.DocType {
	upper := strings.ToUpper(filename)
	for _, entry := range typeByPrefix {
		if strings.HasPrefix(upper, entry.prefix) {
			return entry.docType
		}
	}

	fn, ok := tree.Attr("Документ", "Функция")
	if !ok {
		return models.DocTypeUnresolved
	}
	if docType, ok := r.tables.DocTypes[strings.ToUpper(fn)]; ok {
		return docType
	}
	return models.DocTypeUnresolved
}

// attrSource is one candidate location for a market code. An empty attribute
// name reads the node's text content.
type attrSource struct {
	location string
	attrs    []string
}

// treeMarketSources lists, in precedence order, everywhere a contract number
// carrying the market code may live. Different document layouts populate
// different locations.
var treeMarketSources = []attrSource{
	{"Документ/СвПродПер/СвПер/ОснПер", []string{"НомОсн"}},
	{"Документ/ТаблСчФакт/СведТов", []string{"НаимТов"}},
	{"Документ/СвСчФакт/ИнфПолФХЖ1/ТекстИнф", []string{"Значен"}},
	{"Документ/СвПродПер/СвПер/ОснПер", []string{"НаимОсн"}},
	{"Документ/СвДокПРУ/СодФХЖ1/ЗагСодОпер", []string{""}},
	{"Документ/ТаблДок/ИтогТабл/Основание", []string{"Номер", "Название"}},
	{"Документ/Основание", []string{"Номер"}},
}

var treeMarketPatterns = compileAll(
	`([A-Z]{3,4})-`,
	`([A-ZА-Я]{3,6})-`,
	`№\s?(Д/УЭГ)/`,
	`-(SDMO)-ATS`,
	`[\w\-]+-(SDD)-`,
)

// ResolveMarket walks the candidate sources in order. Within a source the
// patterns are tried in declared order; an earlier pattern wins whenever its
// capture is a known code. A capture missing from the table lets the cascade
// continue: next pattern, then next source.
func (r *TreeResolver) ResolveMarket(tree *xmltree.Tree) models.Market {
	for _, src := range treeMarketSources {
		for _, attr := range src.attrs {
			value, ok := tree.Attr(src.location, attr)
			if !ok || value == "" {
				continue
			}
			if market, ok := matchMarket(treeMarketPatterns, r.tables.TreeMarkets, strings.ToUpper(value)); ok {
				return market
			}
		}
	}
	return models.MarketUnresolved
}

// numberDateSource is one candidate location carrying both the document
// number and date as attributes.
type numberDateSource struct {
	location   string
	numberAttr string
	dateAttr   string
}

// numberDateSources in priority order: structured invoice, structured
// transfer act, generic document.
var numberDateSources = []numberDateSource{
	{"Документ/СвСчФакт", "НомерСчФ", "ДатаСчФ"},
	{"Документ/СвДокПРУ/ИдентДок", "НомДокПРУ", "ДатаДокПРУ"},
	{"Документ", "Номер", "Дата"},
}

// ResolveNumberDate reads number and date from the first candidate location
// present in the tree. A location that exists supplies both fields; each is
// independently unresolved when its attribute is absent or unparseable.
func (r *TreeResolver) ResolveNumberDate(tree *xmltree.Tree) (string, time.Time) {
	for _, src := range numberDateSources {
		if !tree.Has(src.location) {
			continue
		}

		number := models.NotResolved
		if raw, ok := tree.Attr(src.location, src.numberAttr); ok && raw != "" {
			number = models.SanitizeNumber(raw)
		}

		var date time.Time
		if raw, ok := tree.Attr(src.location, src.dateAttr); ok && raw != "" {
			if parsed, err := ParseDate(raw); err == nil {
				date = parsed
			}
		}
		return number, date
	}
	return models.NotResolved, time.Time{}
}

func compileAll(patterns ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		compiled[i] = regexp.MustCompile(p)
	}
	return compiled
}

// matchMarket runs the ordered pattern list against the value and translates
// the first capture found in the table. Captures outside the table do not
// stop the scan.
func matchMarket(patterns []*regexp.Regexp, table map[string]models.Market, value string) (models.Market, bool) {
	for _, re := range patterns {
		m := re.FindStringSubmatch(value)
		if m == nil {
			continue
		}
		if market, ok := table[m[1]]; ok {
			return market, true
		}
	}
	return models.MarketUnresolved, false
}
