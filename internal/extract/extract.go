// Package extract is the text-extraction boundary: turning a rendered
// document file into plain text. The call blocks with no timeout and no
// retry; a failure is a structural error for the document being processed.
package extract

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/nrgdoc/edo-repacker/config"
	"github.com/nrgdoc/edo-repacker/internal/extract/pdftext"
	"github.com/nrgdoc/edo-repacker/internal/extract/textractsvc"
	"github.com/nrgdoc/edo-repacker/internal/extract/xlstext"
	"github.com/nrgdoc/edo-repacker/pkg/logger"
)

// Extractor produces the plain-text content of a rendered document.
type Extractor interface {
	// CanExtract reports whether the backend handles files with this name.
	CanExtract(filename string) bool

	// ExtractText returns the document's plain text.
	ExtractText(ctx context.Context, path string) (string, error)

	// Close releases backend resources.
	Close() error
}

// New builds the configured backend for rendered documents and pairs it with
// the in-process spreadsheet reader: neither remote backend reads legacy XLS,
// so spreadsheet acts are always extracted locally.
func New(ctx context.Context, cfg config.ExtractorConfig, log logger.Logger) (Extractor, error) {
	var backend Extractor
	switch cfg.Backend {
	case config.BackendLocal:
		backend = pdftext.New(log)
	case config.BackendTextract:
		t, err := textractsvc.New(ctx, textractsvc.Config{
			Region:    cfg.Region,
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
		}, log)
		if err != nil {
			return nil, err
		}
		backend = t
	default:
		return nil, fmt.Errorf("unknown extractor backend %q", cfg.Backend)
	}
	return &router{backends: []Extractor{backend, xlstext.New(log)}}, nil
}

// router delegates each call to the first backend that handles the file's
// extension.
type router struct {
	backends []Extractor
}

func (r *router) CanExtract(filename string) bool {
	for _, b := range r.backends {
		if b.CanExtract(filename) {
			return true
		}
	}
	return false
}

func (r *router) ExtractText(ctx context.Context, path string) (string, error) {
	name := filepath.Base(path)
	for _, b := range r.backends {
		if b.CanExtract(name) {
			return b.ExtractText(ctx, path)
		}
	}
	return "", fmt.Errorf("no extraction backend handles %s", name)
}

func (r *router) Close() error {
	var firstErr error
	for _, b := range r.backends {
		if err := b.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
