package classify

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nrgdoc/edo-repacker/internal/codes"
	"github.com/nrgdoc/edo-repacker/internal/models"
	"github.com/nrgdoc/edo-repacker/internal/xmltree"
)

func parseTree(t *testing.T, doc string) *xmltree.Tree {
	t.Helper()
	tree, err := xmltree.Parse(strings.NewReader(doc))
	require.NoError(t, err)
	return tree
}

func TestResolveTypeByFunctionCode(t *testing.T) {
	r := NewTreeResolver(codes.Default())

	cases := []struct {
		code string
		want models.DocType
	}{
		{"СЧФ", models.DocTypeInvoice},
		{"ДОП", models.DocTypeTransferAct},
		{"СЧФДОП", models.DocTypeInvoiceAct},
		{"счф", models.DocTypeInvoice}, // codes arrive in either case
		{"НЕИЗВЕСТНО", models.DocTypeUnresolved},
	}
	for _, tc := range cases {
		doc := fmt.Sprintf(`<Файл><Документ Функция=%q/></Файл>`, tc.code)
		got := r.ResolveType(parseTree(t, doc), "ON_NSCHFDOPPR_1.xml")
		require.Equal(t, tc.want, got, "code %s", tc.code)
	}
}

func TestResolveTypeByFilenamePrefix(t *testing.T) {
	r := NewTreeResolver(codes.Default())
	// prefix table bypasses the tree entirely
	tree := parseTree(t, `<Файл><Документ Функция="СЧФ"/></Файл>`)

	require.Equal(t, models.DocTypeTransferAct, r.ResolveType(tree, "DP_REZRUISP_55.xml"))
	require.Equal(t, models.DocTypeRecon, r.ResolveType(tree, "on_accounts_7.xml"))
	require.Equal(t, models.DocTypeInvoice, r.ResolveType(tree, "other.xml"))
}

func TestResolveTypeMissingFunction(t *testing.T) {
	r := NewTreeResolver(codes.Default())
	tree := parseTree(t, `<Файл><Документ/></Файл>`)
	require.Equal(t, models.DocTypeUnresolved, r.ResolveType(tree, "other.xml"))
}

func TestResolveMarketTableTotality(t *testing.T) {
	tables := codes.Default()
	r := NewTreeResolver(tables)

	// every tree-table code embedded in a contract number must resolve to
	// its canonical label
	for code, want := range tables.TreeMarkets {
		doc := fmt.Sprintf(
			`<Файл><Документ><СвПродПер><СвПер><ОснПер НомОсн="№ %s/1-2024"/></СвПер></СвПродПер></Документ></Файл>`,
			code+"-X1")
		if code == "Д/УЭГ" {
			doc = `<Файл><Документ><СвПродПер><СвПер><ОснПер НомОсн="№ Д/УЭГ/1-2024"/></СвПер></СвПродПер></Документ></Файл>`
		}
		got := r.ResolveMarket(parseTree(t, doc))
		require.Equal(t, want, got, "code %s", code)
	}
}

func TestResolveMarketUnknownCode(t *testing.T) {
	r := NewTreeResolver(codes.Default())
	doc := `<Файл><Документ><СвПродПер><СвПер><ОснПер НомОсн="QQQQ-1"/></СвПер></СвПродПер></Документ></Файл>`
	require.Equal(t, models.MarketUnresolved, r.ResolveMarket(parseTree(t, doc)))
}

func TestResolveMarketUnknownCodeFallsToNextSource(t *testing.T) {
	r := NewTreeResolver(codes.Default())
	// first source yields an unknown code; the next source holds a known one
	doc := `<Файл><Документ>
		<СвПродПер><СвПер><ОснПер НомОсн="QQQQ-1"/></СвПер></СвПродПер>
		<ТаблСчФакт><СведТов НаимТов="МОЩНОСТЬ ПО ДОГОВОРУ RDN-2"/></ТаблСчФакт>
	</Документ></Файл>`
	require.Equal(t, models.MarketRDD, r.ResolveMarket(parseTree(t, doc)))
}

func TestResolveMarketPatternPriority(t *testing.T) {
	r := NewTreeResolver(codes.Default())
	// value matches both the leading-code pattern and the SDD suffix
	// pattern; the earlier declaration must win
	doc := `<Файл><Документ><СвПродПер><СвПер><ОснПер НомОсн="DPMC-SDD-01"/></СвПер></СвПродПер></Документ></Файл>`
	require.Equal(t, models.MarketDPMTES, r.ResolveMarket(parseTree(t, doc)))
}

func TestResolveMarketSourcePriority(t *testing.T) {
	r := NewTreeResolver(codes.Default())
	// both sources resolvable; the earlier source must win
	doc := `<Файл><Документ>
		<СвПродПер><СвПер><ОснПер НомОсн="KOM-1"/></СвПер></СвПродПер>
		<ТаблСчФакт><СведТов НаимТов="RDN-2"/></ТаблСчФакт>
	</Документ></Файл>`
	require.Equal(t, models.MarketKOM, r.ResolveMarket(parseTree(t, doc)))
}

func TestResolveMarketFromElementText(t *testing.T) {
	r := NewTreeResolver(codes.Default())
	doc := `<Файл><Документ><СвДокПРУ><СодФХЖ1><ЗагСодОпер>ОПЛАТА ПО ДОГОВОРУ DVR-9</ЗагСодОпер></СодФХЖ1></СвДокПРУ></Документ></Файл>`
	require.Equal(t, models.MarketDVR, r.ResolveMarket(parseTree(t, doc)))
}

func TestResolveNumberDateLocationPriority(t *testing.T) {
	r := NewTreeResolver(codes.Default())
	// invoice location present: it supplies both fields even though the
	// generic location also exists
	doc := `<Файл><Документ Номер="999" Дата="31.12.2020">
		<СвСчФакт НомерСчФ="А/1" ДатаСчФ="26.02.2019"/>
	</Документ></Файл>`
	number, date := r.ResolveNumberDate(parseTree(t, doc))
	require.Equal(t, "А_1", number)
	require.Equal(t, time.Date(2019, 2, 26, 0, 0, 0, 0, time.UTC), date)
}

func TestResolveNumberDateTransferActLocation(t *testing.T) {
	r := NewTreeResolver(codes.Default())
	doc := `<Файл><Документ>
		<СвДокПРУ><ИдентДок НомДокПРУ="77-1" ДатаДокПРУ="15.06.2023"/></СвДокПРУ>
	</Документ></Файл>`
	number, date := r.ResolveNumberDate(parseTree(t, doc))
	require.Equal(t, "77-1", number)
	require.Equal(t, time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC), date)
}

func TestResolveNumberDateGenericLocation(t *testing.T) {
	r := NewTreeResolver(codes.Default())
	doc := `<Файл><Документ Номер="5" Дата="01.03.2022"/></Файл>`
	number, date := r.ResolveNumberDate(parseTree(t, doc))
	require.Equal(t, "5", number)
	require.Equal(t, time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC), date)
}

func TestResolveNumberDateAbsent(t *testing.T) {
	r := NewTreeResolver(codes.Default())
	doc := `<Файл><Прочее/></Файл>`
	number, date := r.ResolveNumberDate(parseTree(t, doc))
	require.Equal(t, models.NotResolved, number)
	require.True(t, date.IsZero())
}

func TestTreeResolverIdempotent(t *testing.T) {
	r := NewTreeResolver(codes.Default())
	doc := `<Файл><Документ Функция="СЧФ">
		<СвСчФакт НомерСчФ="12345" ДатаСчФ="01.01.2024">
			<ИнфПолФХЖ1><ТекстИнф Значен="RDN-1"/></ИнфПолФХЖ1>
		</СвСчФакт>
	</Документ></Файл>`
	tree := parseTree(t, doc)

	first := models.Metadata{
		DocType: r.ResolveType(tree, "ON_NSCHFDOPPR_1.xml"),
		Market:  r.ResolveMarket(tree),
	}
	first.Number, first.Date = r.ResolveNumberDate(tree)

	second := models.Metadata{
		DocType: r.ResolveType(tree, "ON_NSCHFDOPPR_1.xml"),
		Market:  r.ResolveMarket(tree),
	}
	second.Number, second.Date = r.ResolveNumberDate(tree)

	require.Equal(t, first, second)
	require.True(t, first.Valid())
}

func TestFullyUnresolvedTree(t *testing.T) {
	r := NewTreeResolver(codes.Default())
	tree := parseTree(t, `<Файл><Нечто Поле="значение"/></Файл>`)

	md := models.Metadata{
		DocType: r.ResolveType(tree, "other.xml"),
		Market:  r.ResolveMarket(tree),
	}
	md.Number, md.Date = r.ResolveNumberDate(tree)

	require.Equal(t, models.DocTypeUnresolved, md.DocType)
	require.Equal(t, models.MarketUnresolved, md.Market)
	require.Equal(t, models.NotResolved, md.Number)
	require.True(t, md.Date.IsZero())
	require.False(t, md.Valid())
}
