package sbar

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar"
	"github.com/klauspost/compress/zip"
	"github.com/pkg/errors"

	"github.com/whitehorses/servicebus-plugin/pkg/log"
	"github.com/whitehorses/servicebus-plugin/pkg/piperutils"
)

const (
	// ArchiveType is the name used for the archive format in log messages.
	ArchiveType = "sbar"
	// ExportInfoName is the reserved entry name of the metadata document, compared case-insensitively.
	ExportInfoName = "ExportInfo"
	// DefaultArchiveName is the file name of the archive produced by the packaging tool.
	DefaultArchiveName = "sbconfig.sbar"
)

// Entry is one resource to place into the archive.
type Entry struct {
	// Name is the slash separated path inside the archive.
	Name string
	// SourcePath is the file the content is read from. Optional for in-memory entries.
	SourcePath string
	IsDir      bool
	// Open provides the content. When nil, SourcePath is opened.
	Open func() (io.ReadCloser, error)
}

func (e Entry) open() (io.ReadCloser, error) {
	if e.Open != nil {
		return e.Open()
	}
	return os.Open(e.SourcePath)
}

func (e Entry) isExportInfo() bool {
	return strings.EqualFold(e.Name, ExportInfoName)
}

// Archiver writes sbar archives. Regular entries are streamed into the zip file in the order
// they were added, ExportInfo entries are merged into one document that is written last.
type Archiver struct {
	DestFile string
	// Now provides the export time of the merged ExportInfo.
	Now func() time.Time

	entries        []Entry
	virtualEntries []string
}

// NewArchiver creates an archiver writing to destFile.
func NewArchiver(destFile string) *Archiver {
	return &Archiver{DestFile: destFile, Now: time.Now}
}

// AddEntry adds an entry to the archive.
func (a *Archiver) AddEntry(entry Entry) {
	entry.Name = entryName(entry.Name)
	a.entries = append(a.entries, entry)
}

// AddFile adds the file at path under the given archive name.
func (a *Archiver) AddFile(path, name string) {
	a.AddEntry(Entry{Name: name, SourcePath: path})
}

// AddBytes adds an in-memory entry.
func (a *Archiver) AddBytes(name string, content []byte) {
	a.AddEntry(Entry{Name: name, Open: func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(content)), nil
	}})
}

// AddVirtualDirectory registers a placeholder directory. Placeholders are never written
// but allow creating an archive without any file entry.
func (a *Archiver) AddVirtualDirectory(name string) {
	a.virtualEntries = append(a.virtualEntries, entryName(name))
}

// Entries returns the entries added so far.
func (a *Archiver) Entries() []Entry {
	return a.entries
}

// AddDirectory adds all files below dir. Patterns are matched against the slash separated
// path relative to dir; no includes means everything is included.
func (a *Archiver) AddDirectory(dir string, includes, excludes []string) error {
	var paths []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		selected, err := matches(rel, includes, excludes)
		if err != nil {
			return err
		}
		if selected {
			paths = append(paths, rel)
		}
		return nil
	})
	if err != nil {
		return &ArchiveError{Op: "add directory " + dir, Err: err}
	}
	sort.Strings(paths)
	for _, rel := range paths {
		a.AddFile(filepath.Join(dir, filepath.FromSlash(rel)), rel)
	}
	log.Entry().Debugf("Added %v files of directory [%v]", len(paths), dir)
	return nil
}

func matches(path string, includes, excludes []string) (bool, error) {
	included := len(includes) == 0
	for _, pattern := range includes {
		ok, err := doublestar.Match(strings.TrimPrefix(pattern, "/"), path)
		if err != nil {
			return false, errors.Wrapf(err, "invalid include pattern %v", pattern)
		}
		if ok {
			included = true
			break
		}
	}
	if !included {
		return false, nil
	}
	for _, pattern := range excludes {
		ok, err := doublestar.Match(strings.TrimPrefix(pattern, "/"), path)
		if err != nil {
			return false, errors.Wrapf(err, "invalid exclude pattern %v", pattern)
		}
		if ok {
			return false, nil
		}
	}
	return true, nil
}

// AddArchive adds all file entries of an existing sbar archive. The ExportInfo of the
// archive takes part in the merge like any other fragment.
func (a *Archiver) AddArchive(path string) error {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return &ArchiveError{Op: "add archive " + path, Err: err}
	}
	defer reader.Close()

	for index, file := range reader.File {
		index := index
		a.AddEntry(Entry{
			Name:       file.Name,
			SourcePath: path,
			IsDir:      file.FileInfo().IsDir(),
			Open: func() (io.ReadCloser, error) {
				return openArchiveEntry(path, index)
			},
		})
	}
	return nil
}

type archiveEntryReader struct {
	io.ReadCloser
	archive *zip.ReadCloser
}

func (r *archiveEntryReader) Close() error {
	err := r.ReadCloser.Close()
	if archiveErr := r.archive.Close(); err == nil {
		err = archiveErr
	}
	return err
}

func openArchiveEntry(path string, index int) (io.ReadCloser, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	if index >= len(archive.File) {
		archive.Close()
		return nil, errors.Errorf("entry %v not found in %v", index, path)
	}
	content, err := archive.File[index].Open()
	if err != nil {
		archive.Close()
		return nil, err
	}
	return &archiveEntryReader{ReadCloser: content, archive: archive}, nil
}

// CreateArchive writes the archive. All checks, including parsing of the ExportInfo
// fragments, happen before the destination file is touched.
func (a *Archiver) CreateArchive() (err error) {
	if a.Now == nil {
		a.Now = time.Now
	}
	fragments, err := a.prepare()
	if err != nil {
		return err
	}

	log.Entry().Infof("Writing [%v] archive...", ArchiveType)

	file, err := os.Create(a.DestFile)
	if err != nil {
		return &ArchiveError{Op: "create archive", Err: err}
	}
	buffered := bufio.NewWriter(file)
	sbar := zip.NewWriter(buffered)
	defer func() {
		closeErr := sbar.Close()
		if flushErr := buffered.Flush(); closeErr == nil {
			closeErr = flushErr
		}
		if fileErr := file.Close(); closeErr == nil {
			closeErr = fileErr
		}
		if err == nil && closeErr != nil {
			err = &ArchiveError{Op: "close archive", Err: closeErr}
		}
	}()

	for _, entry := range a.entries {
		if entry.IsDir || entry.isExportInfo() {
			continue
		}
		log.Entry().Debugf("Adding file [%v] to archive", entry.Name)
		if err := a.writeEntry(sbar, entry); err != nil {
			return err
		}
	}

	if len(fragments) > 0 {
		log.Entry().Debugf("Adding [%v] to archive", ExportInfoName)
		content, err := MergeExportInfo(fragments, filepath.Base(a.DestFile), a.Now())
		if err != nil {
			return &ArchiveError{Op: "merge " + ExportInfoName, Err: err}
		}
		if err := a.writeEntry(sbar, Entry{Name: ExportInfoName, Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(content)), nil
		}}); err != nil {
			return err
		}
	}

	log.Entry().Infof("Archive completed: [%v].", a.DestFile)
	return nil
}

func (a *Archiver) prepare() ([][]byte, error) {
	if len(a.entries) == 0 && len(a.virtualEntries) == 0 {
		return nil, &ArchiveError{Op: "validate archive", Err: errors.New("you must set at least one file")}
	}

	names := map[string]bool{}
	fragments := [][]byte{}
	for _, entry := range a.entries {
		if entry.IsDir {
			continue
		}
		if len(entry.SourcePath) > 0 && isSameFile(entry.SourcePath, a.DestFile) {
			return nil, &ArchiveError{Op: "validate archive", Err: errors.Errorf("an %v file cannot include itself: %v", ArchiveType, entry.SourcePath)}
		}
		if entry.isExportInfo() {
			content, err := readEntry(entry)
			if err != nil {
				return nil, &ArchiveError{Op: "read " + ExportInfoName, Err: err}
			}
			if _, err := parseFragment(content); err != nil {
				return nil, &ArchiveError{Op: "parse " + ExportInfoName + " of " + describe(entry), Err: err}
			}
			fragments = append(fragments, content)
			continue
		}
		if names[entry.Name] {
			return nil, &ArchiveError{Op: "validate archive", Err: errors.Errorf("duplicate entry %v", entry.Name)}
		}
		names[entry.Name] = true
	}
	return fragments, nil
}

func (a *Archiver) writeEntry(sbar *zip.Writer, entry Entry) error {
	source, err := entry.open()
	if err != nil {
		return &ArchiveError{Op: "open " + describe(entry), Err: err}
	}
	defer source.Close()

	writer, err := sbar.CreateHeader(&zip.FileHeader{
		Name:     entry.Name,
		Method:   zip.Deflate,
		Modified: a.Now(),
	})
	if err != nil {
		return &ArchiveError{Op: "write entry " + entry.Name, Err: err}
	}
	if _, err := piperutils.CopyData(writer, source); err != nil {
		return &ArchiveError{Op: "write entry " + entry.Name, Err: err}
	}
	return nil
}

func readEntry(entry Entry) ([]byte, error) {
	source, err := entry.open()
	if err != nil {
		return nil, err
	}
	defer source.Close()
	return io.ReadAll(source)
}

func describe(entry Entry) string {
	if len(entry.SourcePath) > 0 && !strings.HasSuffix(filepath.ToSlash(entry.SourcePath), entry.Name) {
		return entry.Name + " (" + entry.SourcePath + ")"
	}
	if len(entry.SourcePath) > 0 {
		return entry.SourcePath
	}
	return entry.Name
}

func isSameFile(source, dest string) bool {
	sourceAbs, err := filepath.Abs(source)
	if err != nil {
		return false
	}
	destAbs, err := filepath.Abs(dest)
	if err != nil {
		return false
	}
	if sourceAbs == destAbs {
		return true
	}
	sourceInfo, err := os.Stat(sourceAbs)
	if err != nil {
		return false
	}
	destInfo, err := os.Stat(destAbs)
	if err != nil {
		return false
	}
	return os.SameFile(sourceInfo, destInfo)
}

func entryName(name string) string {
	return strings.TrimPrefix(filepath.ToSlash(name), "/")
}
