package archive

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func cp866(t *testing.T, s string) string {
	t.Helper()
	encoded, err := charmap.CodePage866.NewEncoder().String(s)
	require.NoError(t, err)
	return encoded
}

func TestDecodeName(t *testing.T) {
	legacy := cp866(t, "Папка/Акт сверки.xml")
	require.Equal(t, "Папка/Акт сверки.xml", DecodeName(legacy, true))
	// raw cp866 bytes are invalid UTF-8, so the flag is not required
	require.Equal(t, "Папка/Акт сверки.xml", DecodeName(legacy, false))
	// names already in UTF-8 pass through
	require.Equal(t, "doc1/файл.xml", DecodeName("doc1/файл.xml", false))
}

func TestUnpackLegacyNames(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "delivery.zip")

	out, err := os.Create(archivePath)
	require.NoError(t, err)
	zw := zip.NewWriter(out)
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:    cp866(t, "Папка/Файл.xml"),
		NonUTF8: true,
	})
	require.NoError(t, err)
	_, err = w.Write([]byte("<Файл/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, out.Close())

	destDir := t.TempDir()
	require.NoError(t, Unpack(archivePath, destDir))

	content, err := os.ReadFile(filepath.Join(destDir, "Папка", "Файл.xml"))
	require.NoError(t, err)
	require.Equal(t, "<Файл/>", string(content))
}

func TestUnpackRejectsEscapingEntry(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "evil.zip")

	out, err := os.Create(archivePath)
	require.NoError(t, err)
	zw := zip.NewWriter(out)
	w, err := zw.Create("../evil.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, out.Close())

	err = Unpack(archivePath, t.TempDir())
	require.Error(t, err)
	require.Contains(t, err.Error(), "escapes destination")
}

func TestAddFileAndMove(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "doc.xml")
	require.NoError(t, os.WriteFile(src, []byte("<Файл/>"), 0o644))

	zipPath := filepath.Join(dir, "bundle.zip")
	out, err := os.Create(zipPath)
	require.NoError(t, err)
	zw := zip.NewWriter(out)
	require.NoError(t, AddFile(zw, src, filepath.Join("sub", "doc.xml")))
	require.NoError(t, zw.Close())
	require.NoError(t, out.Close())

	dest := filepath.Join(dir, "Покупка", "РДД", "bundle.zip")
	require.NoError(t, Move(zipPath, dest))
	_, err = os.Stat(zipPath)
	require.True(t, os.IsNotExist(err))

	zr, err := zip.OpenReader(dest)
	require.NoError(t, err)
	defer zr.Close()
	require.Len(t, zr.File, 1)
	require.Equal(t, "sub/doc.xml", zr.File[0].Name)

	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	defer rc.Close()
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "<Файл/>", string(content))
}
