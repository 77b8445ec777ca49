// Package bundle builds the output archive for a classified document and
// relocates it to its destination. Two variants exist: Diadoc deliveries
// package the whole document directory, SBIS deliveries select companion
// files by parsed metadata.
package bundle

import (
	"archive/zip"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/nrgdoc/edo-repacker/pkg/archive"
	"github.com/nrgdoc/edo-repacker/pkg/logger"
)

// DiadocBundler packages the entire sibling directory of the primary file
// into one archive and moves it to the destination.
type DiadocBundler struct {
	log logger.Logger
}

func NewDiadocBundler(log logger.Logger) *DiadocBundler {
	return &DiadocBundler{log: log}
}

// Pack zips every file under docDir (paths kept relative to docDir) and
// moves the archive to dest, creating destination directories on demand.
func (b *DiadocBundler) Pack(docDir, dest string) error {
	zipPath := docDir + ".zip"
	if err := b.writeArchive(docDir, zipPath); err != nil {
		os.Remove(zipPath)
		return err
	}
	if err := archive.Move(zipPath, dest); err != nil {
		return fmt.Errorf("move bundle to %s: %w", dest, err)
	}
	b.log.Debug("пакет перемещён", logger.String("dest", dest))
	return nil
}

func (b *DiadocBundler) writeArchive(docDir, zipPath string) error {
	out, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("create bundle %s: %w", zipPath, err)
	}

	zw := zip.NewWriter(out)
	walkErr := filepath.WalkDir(docDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(docDir, path)
		if err != nil {
			return err
		}
		return archive.AddFile(zw, path, rel)
	})
	if walkErr != nil {
		zw.Close()
		out.Close()
		return fmt.Errorf("bundle %s: %w", docDir, walkErr)
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return fmt.Errorf("finalize bundle %s: %w", zipPath, err)
	}
	return out.Close()
}
