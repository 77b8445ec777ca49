package xmltree

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleDoc = `<?xml version="1.0" encoding="UTF-8"?>
<Файл>
  <Документ Функция="СЧФ">
    <СвСчФакт НомерСчФ="А-1" ДатаСчФ="26.02.2019">
      <ИнфПолФХЖ1>
        <ТекстИнф Значен="RDN-42"/>
      </ИнфПолФХЖ1>
    </СвСчФакт>
    <СвДокПРУ>
      <СодФХЖ1>
        <ЗагСодОпер>ПОСТАВКА ПО ДОГОВОРУ KOM-7</ЗагСодОпер>
      </СодФХЖ1>
    </СвДокПРУ>
  </Документ>
</Файл>`

func TestAttr(t *testing.T) {
	tree, err := Parse(strings.NewReader(sampleDoc))
	require.NoError(t, err)

	v, ok := tree.Attr("Документ", "Функция")
	require.True(t, ok)
	require.Equal(t, "СЧФ", v)

	v, ok = tree.Attr("Документ/СвСчФакт", "НомерСчФ")
	require.True(t, ok)
	require.Equal(t, "А-1", v)

	v, ok = tree.Attr("Документ/СвСчФакт/ИнфПолФХЖ1/ТекстИнф", "Значен")
	require.True(t, ok)
	require.Equal(t, "RDN-42", v)

	// element text via empty attribute name
	v, ok = tree.Attr("Документ/СвДокПРУ/СодФХЖ1/ЗагСодОпер", "")
	require.True(t, ok)
	require.Equal(t, "ПОСТАВКА ПО ДОГОВОРУ KOM-7", v)
}

func TestAttrAbsent(t *testing.T) {
	tree, err := Parse(strings.NewReader(sampleDoc))
	require.NoError(t, err)

	_, ok := tree.Attr("Документ/Нет", "Номер")
	require.False(t, ok)

	_, ok = tree.Attr("Документ", "НетТакого")
	require.False(t, ok)
}

func TestHas(t *testing.T) {
	tree, err := Parse(strings.NewReader(sampleDoc))
	require.NoError(t, err)

	require.True(t, tree.Has("Документ/СвСчФакт"))
	require.False(t, tree.Has("Документ/СвДокПРУ/ИдентДок"))
}

func TestParseErrors(t *testing.T) {
	_, err := Parse(strings.NewReader(""))
	require.Error(t, err)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.xml"))
	require.Error(t, err)
}

func TestFileAttr(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.xml")
	require.NoError(t, os.WriteFile(path, []byte(sampleDoc), 0o644))

	v, err := FileAttr(path, "Документ", "Функция")
	require.NoError(t, err)
	require.Equal(t, "СЧФ", v)

	// absent attribute is empty, not an error
	v, err = FileAttr(path, "Документ", "Нет")
	require.NoError(t, err)
	require.Empty(t, v)
}
