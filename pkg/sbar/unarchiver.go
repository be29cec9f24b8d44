package sbar

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/pkg/errors"

	"github.com/whitehorses/servicebus-plugin/pkg/log"
	"github.com/whitehorses/servicebus-plugin/pkg/piperutils"
)

// Unarchive extracts all entries of an sbar archive into destDir and returns the number of
// extracted files. Entries resolving outside of destDir are rejected.
func Unarchive(archive, destDir string) (int, error) {
	reader, err := zip.OpenReader(archive)
	if err != nil {
		return 0, &ArchiveError{Op: "open archive", Err: err}
	}
	defer reader.Close()

	log.Entry().Infof("Extracting [%v] archive %v to %v", ArchiveType, archive, destDir)

	count := 0
	for _, file := range reader.File {
		target, err := extractionTarget(destDir, file.Name)
		if err != nil {
			return count, &ArchiveError{Op: "extract " + file.Name, Err: err}
		}
		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return count, &ArchiveError{Op: "extract " + file.Name, Err: err}
			}
			continue
		}
		if err := extractFile(file, target); err != nil {
			return count, &ArchiveError{Op: "extract " + file.Name, Err: err}
		}
		log.Entry().Debugf("Extracted file [%v]", file.Name)
		count++
	}
	return count, nil
}

func extractionTarget(destDir, name string) (string, error) {
	target := filepath.Join(destDir, filepath.FromSlash(name))
	rel, err := filepath.Rel(destDir, target)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Errorf("entry %v resolves outside of %v", name, destDir)
	}
	return target, nil
}

func extractFile(file *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	source, err := file.Open()
	if err != nil {
		return err
	}
	defer source.Close()

	dest, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := piperutils.CopyData(dest, source); err != nil {
		dest.Close()
		return err
	}
	return dest.Close()
}
