// Package batch walks the supplier buffer and drives classification and
// re-bundling for every delivered archive. Processing is strictly
// sequential: one supplier, one archive, one file at a time.
package batch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/nrgdoc/edo-repacker/internal/classify"
	"github.com/nrgdoc/edo-repacker/pkg/logger"
)

// processedPrefix marks a source archive as done; prefixed archives are
// never picked up again.
const processedPrefix = "Обработано_"

// Bundler packages one classified document's files and moves the archive to
// its destination.
type Bundler interface {
	Pack(source, dest string) error
}

// Driver is the batch loop over the buffer directory.
type Driver struct {
	bufferDir string
	disp      *classify.Dispatcher
	diadoc    Bundler
	sbis      Bundler
	log       logger.Logger
	unpack    func(archivePath, destDir string) error
}

// Config wires the driver's collaborators.
type Config struct {
	BufferDir  string
	Dispatcher *classify.Dispatcher
	Diadoc     Bundler
	Sbis       Bundler
	Unpack     func(archivePath, destDir string) error
	Log        logger.Logger
}

func NewDriver(cfg Config) *Driver {
	return &Driver{
		bufferDir: cfg.BufferDir,
		disp:      cfg.Dispatcher,
		diadoc:    cfg.Diadoc,
		sbis:      cfg.Sbis,
		unpack:    cfg.Unpack,
		log:       cfg.Log,
	}
}

// Run processes the whole buffer once. Structural failures abort only the
// archive they occurred in; the batch continues with the next one.
func (d *Driver) Run(ctx context.Context) error {
	log := d.log.With(logger.String("run", uuid.NewString()))
	log.Info("------------Старт обработки------------")

	suppliers, err := os.ReadDir(d.bufferDir)
	if err != nil {
		return fmt.Errorf("read buffer %s: %w", d.bufferDir, err)
	}

	for _, supplier := range suppliers {
		if !supplier.IsDir() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		d.processSupplier(ctx, log, supplier.Name())
	}

	log.Info("Загрузка завершена")
	return nil
}

func (d *Driver) processSupplier(ctx context.Context, log logger.Logger, supplier string) {
	supplierDir := filepath.Join(d.bufferDir, supplier)
	entries, err := os.ReadDir(supplierDir)
	if err != nil {
		log.Error("не удалось прочитать папку поставщика",
			logger.String("supplier", supplier), logger.Error(err))
		return
	}

	for _, entry := range entries {
		name := entry.Name()
		upper := strings.ToUpper(name)
		full := filepath.Join(supplierDir, name)

		switch {
		case !entry.IsDir() && strings.HasSuffix(strings.ToLower(name), ".zip") &&
			!strings.HasPrefix(upper, strings.ToUpper(processedPrefix)):
			// Diadoc: one compressed archive per delivery
			log.Info("Обработка архива",
				logger.String("supplier", supplier), logger.String("archive", name))
			ok, err := d.processDiadocArchive(ctx, log, supplier, full)
			if err != nil {
				log.Error("ошибка обработки архива",
					logger.String("archive", name), logger.Error(err))
				continue
			}
			if ok {
				if err := os.Rename(full, filepath.Join(supplierDir, processedPrefix+name)); err != nil {
					log.Error("не удалось пометить архив обработанным",
						logger.String("archive", name), logger.Error(err))
				}
			}

		case entry.IsDir() && (strings.HasPrefix(upper, "ПОСТУПЛЕНИЯ") ||
			strings.HasPrefix(upper, "АКТЫ СВЕРКИ")):
			// SBIS: loose directory of files
			log.Info("Обработка папки",
				logger.String("supplier", supplier), logger.String("dir", name))
			ok, err := d.processSbisDir(ctx, log, supplier, full)
			if err != nil {
				log.Error("ошибка обработки папки",
					logger.String("dir", name), logger.Error(err))
				continue
			}
			if ok {
				if err := d.markSbisProcessed(supplierDir, name, full); err != nil {
					log.Error("не удалось пометить папку обработанной",
						logger.String("dir", name), logger.Error(err))
				}
			}
		}
	}
}

// processDiadocArchive unpacks the archive into a temporary directory
// (removed on every exit path), dispatches each document file, and reports
// whether every dispatched file resolved. The source archive is marked
// processed only on an all-true result.
func (d *Driver) processDiadocArchive(ctx context.Context, log logger.Logger, supplier, archivePath string) (bool, error) {
	tmpDir, err := os.MkdirTemp("", "repack-*")
	if err != nil {
		return false, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	tmpArchive := filepath.Join(tmpDir, filepath.Base(archivePath))
	if err := copyFile(archivePath, tmpArchive); err != nil {
		return false, err
	}
	if err := d.unpack(tmpArchive, tmpDir); err != nil {
		return false, err
	}
	if err := os.Remove(tmpArchive); err != nil {
		return false, fmt.Errorf("remove archive copy: %w", err)
	}

	allResolved := true
	docDirs, err := os.ReadDir(tmpDir)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", tmpDir, err)
	}
	for _, docDir := range docDirs {
		if !docDir.IsDir() {
			continue
		}
		fullDocDir := filepath.Join(tmpDir, docDir.Name())
		files, err := os.ReadDir(fullDocDir)
		if err != nil {
			return false, fmt.Errorf("read %s: %w", fullDocDir, err)
		}
		for _, file := range files {
			if file.IsDir() {
				continue
			}
			resolved := d.dispatchDiadocFile(ctx, log, supplier, docDir.Name(), filepath.Join(fullDocDir, file.Name()))
			allResolved = allResolved && resolved
		}
	}
	return allResolved, nil
}

func (d *Driver) dispatchDiadocFile(ctx context.Context, log logger.Logger, supplier, docDir, path string) bool {
	var (
		dest string
		err  error
	)
	switch classify.RouteDiadoc(docDir, filepath.Base(path), path) {
	case classify.RouteTree:
		dest, err = d.disp.ProcessTree(ctx, supplier, path)
	case classify.RouteText:
		dest, err = d.disp.ProcessText(ctx, supplier, path)
	default:
		// not a primary document; bundled alongside one or ignored
		return true
	}
	if err != nil {
		log.Error("ошибка обработки файла",
			logger.String("file", filepath.Base(path)),
			logger.String("supplier", supplier),
			logger.Error(err))
		return false
	}
	if dest == "" {
		return false
	}
	if err := d.diadoc.Pack(filepath.Dir(path), dest); err != nil {
		log.Error("ошибка упаковки",
			logger.String("file", filepath.Base(path)), logger.Error(err))
		return false
	}
	return true
}

// processSbisDir dispatches the files of one loose delivery directory.
func (d *Driver) processSbisDir(ctx context.Context, log logger.Logger, supplier, dir string) (bool, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", dir, err)
	}

	allResolved := true
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		path := filepath.Join(dir, file.Name())

		var dest string
		var perr error
		switch classify.RouteSbis(file.Name()) {
		case classify.RouteTree:
			dest, perr = d.disp.ProcessTree(ctx, supplier, path)
		case classify.RouteText:
			dest, perr = d.disp.ProcessText(ctx, supplier, path)
		default:
			continue
		}
		if perr != nil {
			log.Error("ошибка обработки файла",
				logger.String("file", file.Name()),
				logger.String("supplier", supplier),
				logger.Error(perr))
			allResolved = false
			continue
		}
		if dest == "" {
			allResolved = false
			continue
		}
		if err := d.sbis.Pack(path, dest); err != nil {
			log.Error("ошибка упаковки",
				logger.String("file", file.Name()), logger.Error(err))
			allResolved = false
		}
	}
	return allResolved, nil
}

// markSbisProcessed leaves a sentinel marker next to the delivery directory
// and removes the directory itself.
func (d *Driver) markSbisProcessed(supplierDir, name, dir string) error {
	marker := filepath.Join(supplierDir, fmt.Sprintf("Обработано %s.txt", name))
	if err := os.WriteFile(marker, nil, 0o644); err != nil {
		return err
	}
	return os.RemoveAll(dir)
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	defer in.Close()
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}
