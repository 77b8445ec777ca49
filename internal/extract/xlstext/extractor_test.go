package xlstext

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nrgdoc/edo-repacker/pkg/logger"
)

func TestCanExtract(t *testing.T) {
	e := New(logger.NewTestLogger())

	require.True(t, e.CanExtract("ON_AKTPP_1.xls"))
	require.True(t, e.CanExtract("ON_ASVER_2.XLS"))
	require.False(t, e.CanExtract("акт.pdf"))
	require.False(t, e.CanExtract("book.xlsx"))
}

func TestExtractTextRejectsNonSpreadsheet(t *testing.T) {
	e := New(logger.NewTestLogger())
	path := filepath.Join(t.TempDir(), "broken.xls")
	require.NoError(t, os.WriteFile(path, []byte("not a spreadsheet"), 0o644))

	_, err := e.ExtractText(context.Background(), path)
	require.Error(t, err)
}
