// Package xlstext extracts plain text from legacy XLS spreadsheets
// in-process; upstream spreadsheet acts are delivered in that format only.
package xlstext

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"

	"github.com/nrgdoc/edo-repacker/pkg/logger"
)

// Upstream acts are a few hundred rows at most; the cap only guards against
// a corrupt sheet claiming an absurd row count.
const maxRows = 10000

type Extractor struct {
	log logger.Logger
}

func New(log logger.Logger) *Extractor {
	return &Extractor{log: log}
}

func (e *Extractor) CanExtract(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".xls")
}

func (e *Extractor) ExtractText(_ context.Context, path string) (string, error) {
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return "", fmt.Errorf("open spreadsheet %s: %w", path, err)
	}

	rows := wb.ReadAllCells(maxRows)
	lines := make([]string, 0, len(rows))
	for _, cells := range rows {
		lines = append(lines, strings.Join(cells, " "))
	}
	return strings.Join(lines, "\n"), nil
}

func (e *Extractor) Close() error {
	return nil
}
