package models

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// NotResolved is the sentinel for any metadata field that could not be
// determined. It is a value, not an error: unresolved fields are expected
// and reported, hard failures are returned as errors.
const NotResolved = "Не разобрано"

// DocType is a business document category.
type DocType string

const (
	DocTypeInvoice     DocType = "СЧФ"    // invoice
	DocTypeTransferAct DocType = "АПП"    // acceptance-transfer act
	DocTypeReconPower  DocType = "АСВ М"  // reconciliation act, power
	DocTypeReconEnergy DocType = "АСВ ЭЭ" // reconciliation act, energy
	DocTypeRecon       DocType = "АСВ"    // reconciliation act, generic
	DocTypeInvoiceAct  DocType = "СЧФДОП" // combined invoice + act

	DocTypeUnresolved DocType = NotResolved
)

// IsRecon reports whether the type is any reconciliation-act subtype.
func (t DocType) IsRecon() bool {
	return t == DocTypeRecon || t == DocTypeReconPower || t == DocTypeReconEnergy
}

// Market is the canonical display label of a trading market segment.
type Market string

const (
	MarketRDD    Market = "РДД"
	MarketDPMTES Market = "ДПМ ТЭС"
	MarketDPMGA  Market = "ДПМ ГА"
	MarketDPMVIE Market = "ДПМ ВИЭ"
	MarketKOM    Market = "КОМ"
	MarketDVR    Market = "ДВР"
	MarketNCZ    Market = "НЦЗ"
	MarketSDM    Market = "СДМ"
	MarketEESDD  Market = "ЭЭ СДД"
	MarketKOMMod Market = "КОМмод"

	MarketUnresolved Market = NotResolved
)

// Metadata is the extracted-field snapshot of one delivered document.
// Every field is independently either concrete or the unresolved sentinel:
// NotResolved for DocType/Market/Number, the zero time for Date.
type Metadata struct {
	DocType DocType
	Market  Market
	Number  string
	Date    time.Time
}

// Valid reports whether all four fields resolved to concrete values.
func (m Metadata) Valid() bool {
	return m.DocType != DocTypeUnresolved &&
		m.Market != MarketUnresolved &&
		m.Number != NotResolved && m.Number != "" &&
		!m.Date.IsZero()
}

// DateString renders the date as dd.mm.yyyy, or the sentinel when unresolved.
func (m Metadata) DateString() string {
	if m.Date.IsZero() {
		return NotResolved
	}
	return m.Date.Format("02.01.2006")
}

// String renders the full snapshot for log lines, resolved or not.
func (m Metadata) String() string {
	number := m.Number
	if number == "" {
		number = NotResolved
	}
	return fmt.Sprintf("%s: %s № %s от %s", m.Market, m.DocType, number, m.DateString())
}

// SanitizeNumber strips path-unsafe characters from a raw document number so
// it can appear in the destination archive name.
func SanitizeNumber(raw string) string {
	s := strings.ReplaceAll(raw, `\`, "_")
	return strings.ReplaceAll(s, "/", "_")
}

// DestinationPath builds the canonical archive location
//
//	{root}/{yyyy-mm}/Покупка/{market}/{supplier}/{docType} № {number} от {dd.mm.yyyy}.zip
//
// Callers must only invoke it for valid metadata.
func DestinationPath(root, supplier string, m Metadata) string {
	return filepath.Join(
		root,
		m.Date.Format("2006-01"),
		"Покупка",
		string(m.Market),
		supplier,
		fmt.Sprintf("%s № %s от %s.zip", m.DocType, m.Number, m.DateString()),
	)
}
