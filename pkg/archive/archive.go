// Package archive wraps the compression primitives: extracting upstream zip
// deliveries with their legacy filename code page, writing output bundles,
// and moving finished archives into place.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// DecodeName remaps a zip entry name stored under the legacy DOS/Cyrillic
// convention: the archiver wrote cp866 bytes, readers expose them verbatim
// (the cp437 view). Names already flagged as UTF-8 pass through unchanged.
func DecodeName(name string, nonUTF8 bool) string {
	if !nonUTF8 && utf8.ValidString(name) {
		return name
	}
	decoded, err := charmap.CodePage866.NewDecoder().String(name)
	if err != nil {
		return name
	}
	return decoded
}

// Unpack extracts every entry of the zip at archivePath into destDir,
// remapping entry names through the cp866 code page. Entry paths are kept
// relative to destDir; entries that would escape it are rejected.
func Unpack(archivePath, destDir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open archive %s: %w", archivePath, err)
	}
	defer reader.Close()

	for _, entry := range reader.File {
		name := DecodeName(entry.Name, entry.NonUTF8)
		target := filepath.Join(destDir, filepath.FromSlash(name))
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("unpack %s: entry %q escapes destination", archivePath, name)
		}
		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("unpack %s: %w", archivePath, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("unpack %s: %w", archivePath, err)
		}
		if err := extractEntry(entry, target); err != nil {
			return fmt.Errorf("unpack %s: entry %q: %w", archivePath, name, err)
		}
	}
	return nil
}

func extractEntry(entry *zip.File, target string) error {
	src, err := entry.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

// AddFile writes the file at path into the zip under relName (slash-separated,
// deflate-compressed).
func AddFile(zw *zip.Writer, path, relName string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("add %s: %w", relName, err)
	}
	defer src.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:   filepath.ToSlash(relName),
		Method: zip.Deflate,
	})
	if err != nil {
		return fmt.Errorf("add %s: %w", relName, err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("add %s: %w", relName, err)
	}
	return nil
}

// Move relocates src to dest, creating dest's directory on demand. Rename is
// tried first; a copy-and-remove fallback covers cross-device destinations.
func Move(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create destination dir for %s: %w", dest, err)
	}
	if err := os.Rename(src, dest); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("move %s: %w", src, err)
	}
	defer in.Close()
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("move %s: %w", src, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("move %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("move %s: %w", src, err)
	}
	return os.Remove(src)
}
