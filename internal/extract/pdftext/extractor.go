// Package pdftext extracts plain text from PDF files in-process.
package pdftext

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/sync/errgroup"

	"github.com/nrgdoc/edo-repacker/pkg/logger"
)

// Pages are read concurrently inside the extraction call; the batch itself
// stays sequential.
const maxPageWorkers = 4

type Extractor struct {
	log logger.Logger
}

func New(log logger.Logger) *Extractor {
	return &Extractor{log: log}
}

func (e *Extractor) CanExtract(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".pdf")
}

func (e *Extractor) ExtractText(ctx context.Context, path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	numPages := reader.NumPage()
	pages := make([]string, numPages+1)

	g, ctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, maxPageWorkers)

	for i := 1; i <= numPages; i++ {
		pageNum := i
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return ctx.Err()
			}

			page := reader.Page(pageNum)
			if page.V.IsNull() {
				return nil
			}
			text, err := page.GetPlainText(nil)
			if err != nil {
				return fmt.Errorf("page %d of %s: %w", pageNum, path, err)
			}
			pages[pageNum] = text
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return "", err
	}
	return strings.Join(pages[1:], "\n"), nil
}

func (e *Extractor) Close() error {
	return nil
}
