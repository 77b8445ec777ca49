package bundle

import (
	"archive/zip"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nrgdoc/edo-repacker/internal/xmltree"
	"github.com/nrgdoc/edo-repacker/pkg/archive"
	"github.com/nrgdoc/edo-repacker/pkg/logger"
)

// receiptMarker names the confirmation-receipt file accompanying every
// SBIS delivery; it is always bundled.
const receiptMarker = "СПРАВКА О ПРОХОЖДЕНИИ"

// printedFormPrefix is prepended to rendered forms pulled out of a PDF
// subfolder. The rename happens on disk before bundling.
const printedFormPrefix = "ПЕЧАТНАЯ ФОРМА"

// companionRoles are the operator-exchange XML companions that name their
// own target file in a nested attribute. A companion is bundled only when
// that attribute matches the primary document's short filename; its detached
// signature files follow it in.
var companionRoles = []struct {
	prefix   string
	location string
	attr     string
}{
	// recipient acknowledgment
	{"DP_IZVPOL", "Документ/СвИзвПолуч/СведПолФайл", "ИмяПостФайла"},
	// dispatch confirmation
	{"DP_PDOTPR", "Документ/СведПодтв/СведОтпрФайл", "ИмяПостФайла"},
}

// typeCompanions are bundled only when the primary document's raw function
// code equals the listed code.
var typeCompanions = []struct {
	prefix   string
	typeCode string
}{
	{"DP_PDPOL", "СЧФ"},     // delivery confirmation, invoices only
	{"DP_UVPRIEM", "СЧФ"},   // acceptance notice, invoices only
	{"ON_NSCHFDOPPOK", "ДОП"}, // buyer counterpart record, transfer acts only
	{"DP_REZRUZAK", "ДОП"},    // order confirmation, transfer acts only
}

// SbisBundler selects the set of files related to a primary document from
// its sibling directory and packages them into one archive.
type SbisBundler struct {
	log logger.Logger
}

func NewSbisBundler(log logger.Logger) *SbisBundler {
	return &SbisBundler{log: log}
}

// Pack gathers the primary file's bundle from its directory, writes the
// archive, and moves it to dest.
func (b *SbisBundler) Pack(primary, dest string) error {
	docDir := filepath.Dir(primary)
	shortName := strings.ToUpper(filepath.Base(primary))

	typeCode, err := b.bundleTypeCode(primary)
	if err != nil {
		return err
	}

	selected, err := b.selectFiles(docDir, shortName, typeCode)
	if err != nil {
		return err
	}

	zipPath := filepath.Join(docDir, "sbis.zip")
	if err := b.writeArchive(zipPath, docDir, selected); err != nil {
		os.Remove(zipPath)
		return err
	}
	if err := archive.Move(zipPath, dest); err != nil {
		return fmt.Errorf("move bundle to %s: %w", dest, err)
	}
	b.log.Debug("пакет перемещён",
		logger.String("dest", dest), logger.Int("files", len(selected)))
	return nil
}

// bundleTypeCode derives the raw function code steering type-conditional
// companion selection. Rendered and spreadsheet primaries map to fixed
// codes; structured primaries carry the code in the record itself.
func (b *SbisBundler) bundleTypeCode(primary string) (string, error) {
	name := strings.ToUpper(filepath.Base(primary))
	path := strings.ToUpper(filepath.ToSlash(primary))

	switch {
	case strings.HasPrefix(name, "DP_REZRUISP"),
		strings.HasSuffix(name, ".XLS"),
		strings.HasPrefix(name, "MOSEGENE") && strings.HasSuffix(name, ".PDF"),
		strings.HasPrefix(name, "АКТ СВЕРКИ") && strings.HasSuffix(name, ".PDF"):
		return "ДОП", nil
	case strings.Contains(path, "АКТЫ СВЕРКИ МОСЭНЕРГО"),
		strings.Contains(path, "ON_ACCOUNTS"):
		return "АСВ", nil
	}

	fn, err := xmltree.FileAttr(primary, "Документ", "Функция")
	if err != nil {
		return "", fmt.Errorf("read function code of %s: %w", primary, err)
	}
	return strings.ToUpper(fn), nil
}

// selectFiles walks the document directory and applies the inclusion rules.
// Returned paths are relative to docDir.
func (b *SbisBundler) selectFiles(docDir, shortName, typeCode string) ([]string, error) {
	primaryBase := strings.ToUpper(baseName(shortName))

	var files []string
	err := filepath.WalkDir(docDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", docDir, err)
	}

	selected := make(map[string]struct{})
	include := func(path string) error {
		rel, err := filepath.Rel(docDir, path)
		if err != nil {
			return err
		}
		selected[rel] = struct{}{}
		return nil
	}

	for _, path := range files {
		name := strings.ToUpper(filepath.Base(path))

		// 1. anything carrying the primary's base name, plus the receipt
		if strings.Contains(name, primaryBase) || strings.Contains(name, receiptMarker) {
			actual := path
			if underPDFSegment(path) {
				renamed := filepath.Join(filepath.Dir(path), printedFormPrefix+filepath.Base(path))
				if err := os.Rename(path, renamed); err != nil {
					return nil, fmt.Errorf("rename printed form %s: %w", path, err)
				}
				b.log.Debug("печатная форма переименована",
					logger.String("file", filepath.Base(renamed)))
				actual = renamed
			}
			if err := include(actual); err != nil {
				return nil, err
			}
			if actual != path {
				continue
			}
		}

		// 2. companions that name the primary as their target file
		for _, role := range companionRoles {
			if !strings.HasPrefix(name, role.prefix) || !strings.HasSuffix(name, ".XML") {
				continue
			}
			target, err := xmltree.FileAttr(path, role.location, role.attr)
			if err != nil {
				return nil, fmt.Errorf("read companion %s: %w", path, err)
			}
			if target == "" || !strings.Contains(shortName, strings.ToUpper(target)) {
				continue
			}
			if err := include(path); err != nil {
				return nil, err
			}
			if err := b.includeSignatures(path, include); err != nil {
				return nil, err
			}
		}

		// 3. companions conditioned on the primary's function code
		for _, tc := range typeCompanions {
			if strings.HasPrefix(name, tc.prefix) && typeCode == tc.typeCode {
				if err := include(path); err != nil {
					return nil, err
				}
			}
		}
	}

	rels := make([]string, 0, len(selected))
	for rel := range selected {
		rels = append(rels, rel)
	}
	sort.Strings(rels)
	return rels, nil
}

// includeSignatures pulls in every signature file in the companion's folder
// whose base name matches the companion's base name.
func (b *SbisBundler) includeSignatures(companion string, include func(string) error) error {
	dir := filepath.Dir(companion)
	companionBase := strings.ToUpper(baseName(filepath.Base(companion)))

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("scan signatures in %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		sigName := strings.ToUpper(entry.Name())
		if strings.HasSuffix(sigName, ".SGN") && strings.Contains(sigName, companionBase) {
			if err := include(filepath.Join(dir, entry.Name())); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *SbisBundler) writeArchive(zipPath, docDir string, rels []string) error {
	out, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("create bundle %s: %w", zipPath, err)
	}
	zw := zip.NewWriter(out)
	for _, rel := range rels {
		if err := archive.AddFile(zw, filepath.Join(docDir, rel), rel); err != nil {
			zw.Close()
			out.Close()
			return fmt.Errorf("bundle %s: %w", zipPath, err)
		}
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return fmt.Errorf("finalize bundle %s: %w", zipPath, err)
	}
	return out.Close()
}

// baseName strips the extension from a file name.
func baseName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// underPDFSegment reports whether the file lives in a rendered-form PDF
// subfolder.
func underPDFSegment(path string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if strings.EqualFold(seg, "PDF") {
			return true
		}
	}
	return false
}
