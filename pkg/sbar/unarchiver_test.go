//go:build unit
// +build unit

package sbar

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeZip(t *testing.T, path string, names ...string) {
	t.Helper()
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()
	writer := zip.NewWriter(file)
	for _, name := range names {
		w, err := writer.Create(name)
		require.NoError(t, err)
		if strings.HasSuffix(name, "/") {
			continue
		}
		_, err = w.Write([]byte(name))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
}

func TestUnarchive(t *testing.T) {
	t.Parallel()

	t.Run("directories and files", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		archive := filepath.Join(dir, "in.sbar")
		writeZip(t, archive, "P1/", "P1/a.proxy", "ExportInfo")

		count, err := Unarchive(archive, filepath.Join(dir, "out"))

		require.NoError(t, err)
		assert.Equal(t, 2, count)
		assert.DirExists(t, filepath.Join(dir, "out", "P1"))
		content, err := os.ReadFile(filepath.Join(dir, "out", "P1", "a.proxy"))
		require.NoError(t, err)
		assert.Equal(t, "P1/a.proxy", string(content))
	})

	t.Run("entries outside of the target are rejected", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		archive := filepath.Join(dir, "evil.sbar")
		writeZip(t, archive, "../evil.txt")

		_, err := Unarchive(archive, filepath.Join(dir, "out"))

		var archiveErr *ArchiveError
		require.ErrorAs(t, err, &archiveErr)
		assert.NoFileExists(t, filepath.Join(dir, "evil.txt"))
	})

	t.Run("missing archive", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		_, err := Unarchive(filepath.Join(dir, "missing.sbar"), dir)
		assert.Error(t, err)
		var archiveErr *ArchiveError
		assert.ErrorAs(t, err, &archiveErr)
	})
}

func TestExtractionTarget(t *testing.T) {
	t.Parallel()
	dest := filepath.Join("target", "extracted")

	target, err := extractionTarget(dest, "P1/a.proxy")
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join(dest, "P1", "a.proxy"), target)

	_, err = extractionTarget(dest, "../../etc/passwd")
	assert.EqualError(t, err, "entry ../../etc/passwd resolves outside of "+dest)

	_, err = extractionTarget(dest, "P1/../../other")
	assert.Error(t, err)
}
