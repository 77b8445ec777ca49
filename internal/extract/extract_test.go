package extract

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nrgdoc/edo-repacker/config"
	"github.com/nrgdoc/edo-repacker/pkg/logger"
)

type fakeBackend struct {
	ext    string
	text   string
	closed bool
}

func (f *fakeBackend) CanExtract(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), f.ext)
}

func (f *fakeBackend) ExtractText(context.Context, string) (string, error) {
	return f.text, nil
}

func (f *fakeBackend) Close() error {
	f.closed = true
	return nil
}

func TestRouterDelegatesByExtension(t *testing.T) {
	pdf := &fakeBackend{ext: ".pdf", text: "rendered"}
	xls := &fakeBackend{ext: ".xls", text: "cells"}
	r := &router{backends: []Extractor{pdf, xls}}

	require.True(t, r.CanExtract("Акт сверки.pdf"))
	require.True(t, r.CanExtract("ON_AKTPP_1.xls"))
	require.False(t, r.CanExtract("readme.txt"))

	text, err := r.ExtractText(context.Background(), "/buffer/ON_AKTPP_1.xls")
	require.NoError(t, err)
	require.Equal(t, "cells", text)

	text, err = r.ExtractText(context.Background(), "/buffer/акт.pdf")
	require.NoError(t, err)
	require.Equal(t, "rendered", text)

	_, err = r.ExtractText(context.Background(), "/buffer/readme.txt")
	require.Error(t, err)
	require.Contains(t, err.Error(), "readme.txt")

	require.NoError(t, r.Close())
	require.True(t, pdf.closed)
	require.True(t, xls.closed)
}

func TestNewLocalHandlesSpreadsheets(t *testing.T) {
	ex, err := New(context.Background(),
		config.ExtractorConfig{Backend: config.BackendLocal}, logger.NewTestLogger())
	require.NoError(t, err)
	defer ex.Close()

	// rendered documents and legacy spreadsheets are both served
	require.True(t, ex.CanExtract("акт.pdf"))
	require.True(t, ex.CanExtract("ON_AKTPP_1.xls"))
	require.True(t, ex.CanExtract("ON_ASVER_2.XLS"))
	require.False(t, ex.CanExtract("ON_NSCHFDOPPR_3.xml"))
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	_, err := New(context.Background(),
		config.ExtractorConfig{Backend: "tika"}, logger.NewTestLogger())
	require.Error(t, err)
}
