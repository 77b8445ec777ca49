package classify

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/nrgdoc/edo-repacker/internal/extract"
	"github.com/nrgdoc/edo-repacker/internal/models"
	"github.com/nrgdoc/edo-repacker/internal/xmltree"
	"github.com/nrgdoc/edo-repacker/pkg/logger"
)

// Route is the extraction path a file is sent down.
type Route int

const (
	RouteNone Route = iota // file contributes nothing
	RouteTree              // structured attribute-tree record
	RouteText              // rendered document, extracted text
)

// diadocRules routes files delivered inside a Diadoc archive. Rules are
// evaluated in order; the first match wins.
var diadocRules = []struct {
	match func(docDir, name, path string) bool
	route Route
}{
	{
		// structured seller invoice/act record
		match: func(_, name, _ string) bool {
			u := strings.ToUpper(name)
			return strings.HasPrefix(u, "ON_NSCHFDOPPR") && strings.HasSuffix(u, ".XML")
		},
		route: RouteTree,
	},
	{
		// printed form of a document that has no structured record
		match: func(docDir, name, _ string) bool {
			u := strings.ToUpper(name)
			return strings.HasSuffix(u, ".PDF") &&
				!strings.Contains(u, "ФАКТУРА") &&
				strings.Contains(u, "ПЕЧАТНАЯ ФОРМА") &&
				!strings.Contains(strings.ToUpper(docDir), "ON_NSCHFDOPPR")
		},
		route: RouteText,
	},
	{
		// Mosenergo deliveries carry no printed-form marker
		match: func(_, name, path string) bool {
			u := strings.ToUpper(name)
			return strings.HasSuffix(u, ".PDF") &&
				strings.Contains(u, "MOSEGENE_MOSENERG") &&
				!strings.Contains(strings.ToUpper(filepath.ToSlash(path)), "/PDF/")
		},
		route: RouteText,
	},
}

// sbisRules routes files delivered in a loose SBIS directory: a fixed
// ordered (prefix, extension) table, first match wins.
var sbisRules = []struct {
	prefix string
	ext    string
	route  Route
}{
	{"ON_NSCHFDOPPR", ".XML", RouteTree},
	{"DP_REZRUISP", ".XML", RouteTree},
	{"ON_ACCOUNTS", ".XML", RouteTree},
	{"ON_AKTPP", ".XLS", RouteText},
	{"ON_ASVER", ".XLS", RouteText},
	{"АКТ ПО ДОГОВОРАМ", ".PDF", RouteText},
	{"АКТ СВЕРКИ", ".PDF", RouteText},
	{"MOSEGENE_MOSENERG", ".PDF", RouteText},
}

// RouteDiadoc classifies a file extracted from a Diadoc archive. docDir is
// the name of the per-document folder, path the file's full location.
func RouteDiadoc(docDir, name, path string) Route {
	for _, rule := range diadocRules {
		if rule.match(docDir, name, path) {
			return rule.route
		}
	}
	return RouteNone
}

// RouteSbis classifies a file from an SBIS delivery directory.
func RouteSbis(name string) Route {
	u := strings.ToUpper(name)
	for _, rule := range sbisRules {
		if strings.HasPrefix(u, rule.prefix) && strings.HasSuffix(u, rule.ext) {
			return rule.route
		}
	}
	return RouteNone
}

// Dispatcher runs the applicable resolver for a routed file and, when every
// metadata field resolved, produces the destination archive path.
type Dispatcher struct {
	root      string
	tree      *TreeResolver
	text      *TextResolver
	extractor extract.Extractor
	log       logger.Logger
}

func NewDispatcher(root string, tree *TreeResolver, text *TextResolver, extractor extract.Extractor, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		root:      root,
		tree:      tree,
		text:      text,
		extractor: extractor,
		log:       log,
	}
}

// ProcessTree classifies a structured record. The returned path is empty when
// any field stayed unresolved; a non-nil error means the record itself could
// not be read.
func (d *Dispatcher) ProcessTree(_ context.Context, supplier, path string) (string, error) {
	tree, err := xmltree.ParseFile(path)
	if err != nil {
		return "", err
	}

	md := models.Metadata{
		DocType: d.tree.ResolveType(tree, filepath.Base(path)),
		Market:  d.tree.ResolveMarket(tree),
	}
	md.Number, md.Date = d.tree.ResolveNumberDate(tree)

	return d.finish(supplier, path, md), nil
}

// ProcessText classifies a rendered document via the text-extraction
// boundary. A file no backend can read, like an extraction failure, is a
// structural error for this document.
func (d *Dispatcher) ProcessText(ctx context.Context, supplier, path string) (string, error) {
	name := filepath.Base(path)
	if !d.extractor.CanExtract(name) {
		return "", fmt.Errorf("no text backend for %s", name)
	}

	raw, err := d.extractor.ExtractText(ctx, path)
	if err != nil {
		return "", err
	}
	text := strings.ToUpper(raw)

	docType := d.text.ClassifySubtype(text, name, path)
	md := models.Metadata{DocType: docType}
	md.Number, md.Date = d.text.ResolveNumberDate(text, docType)
	md.Market = d.text.ResolveMarket(text, docType)

	return d.finish(supplier, path, md), nil
}

// finish logs the complete field snapshot and builds the destination path
// for fully resolved documents.
func (d *Dispatcher) finish(supplier, path string, md models.Metadata) string {
	fields := []logger.Field{
		logger.String("file", filepath.Base(path)),
		logger.String("supplier", supplier),
		logger.String("docType", string(md.DocType)),
		logger.String("market", string(md.Market)),
		logger.String("number", md.Number),
		logger.String("date", md.DateString()),
	}
	if !md.Valid() {
		d.log.Error("не удалось разобрать документ", fields...)
		return ""
	}
	d.log.Info(md.String(), fields...)
	return models.DestinationPath(d.root, supplier, md)
}
