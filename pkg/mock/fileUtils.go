//go:build !release
// +build !release

package mock

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var dirContent []byte

// FilesMock implements the functions from piperutils.Files with an in-memory file system.
type FilesMock struct {
	files        map[string]*[]byte
	writtenFiles []string
	CurrentDir   string
	Separator    string
	// FileReadErrors injects an error for FileRead on the given path.
	FileReadErrors map[string]error
	// FileWriteErrors injects an error for FileWrite on the given path.
	FileWriteErrors map[string]error
}

func (f *FilesMock) init() {
	if f.files == nil {
		f.files = map[string]*[]byte{}
	}
	if f.Separator == "" {
		f.Separator = string(os.PathSeparator)
	}
}

func (f *FilesMock) toAbsPath(path string) string {
	if path == "." {
		return f.Separator + f.CurrentDir
	}
	if !strings.HasPrefix(path, f.Separator) {
		path = f.Separator + filepath.Join(f.CurrentDir, path)
	}
	return path
}

// AddFile establishes the existence of a virtual file.
func (f *FilesMock) AddFile(path string, contents []byte) {
	f.associateContent(path, &contents)
}

// AddDir establishes the existence of a virtual directory.
func (f *FilesMock) AddDir(path string) {
	f.associateContent(path, &dirContent)
}

func (f *FilesMock) associateContent(path string, content *[]byte) {
	f.init()
	path = strings.ReplaceAll(path, "/", f.Separator)
	path = strings.ReplaceAll(path, "\\", f.Separator)
	f.files[f.toAbsPath(path)] = content
	// add parent directories as well
	for dir := filepath.Dir(path); dir != "." && dir != f.Separator && dir != ""; dir = filepath.Dir(dir) {
		if _, exists := f.files[f.toAbsPath(dir)]; !exists {
			f.files[f.toAbsPath(dir)] = &dirContent
		}
	}
}

// HasFile returns true if the virtual file system contains an entry for the given path.
func (f *FilesMock) HasFile(path string) bool {
	if f.files == nil {
		return false
	}
	_, exists := f.files[f.toAbsPath(path)]
	return exists
}

// HasWrittenFile returns true if the virtual file system at one point contained an entry for the given path,
// and it was written via FileWrite().
func (f *FilesMock) HasWrittenFile(path string) bool {
	for _, file := range f.writtenFiles {
		if file == f.toAbsPath(path) {
			return true
		}
	}
	return false
}

// FileExists returns true if file content has been associated with the given path, false otherwise.
func (f *FilesMock) FileExists(path string) (bool, error) {
	if f.files == nil {
		return false, nil
	}
	content, exists := f.files[f.toAbsPath(path)]
	if !exists {
		return false, nil
	}
	return content != &dirContent, nil
}

// DirExists returns true if a directory has been associated with the given path, false otherwise.
func (f *FilesMock) DirExists(path string) (bool, error) {
	if f.files == nil {
		return false, nil
	}
	content, exists := f.files[f.toAbsPath(path)]
	if !exists {
		return false, nil
	}
	return content == &dirContent, nil
}

// FileRead returns the content previously associated with the given path via AddFile(), or an error if no
// content has been associated.
func (f *FilesMock) FileRead(path string) ([]byte, error) {
	if err := f.FileReadErrors[path]; err != nil {
		return nil, err
	}
	f.init()
	content, exists := f.files[f.toAbsPath(path)]
	if !exists {
		return nil, fmt.Errorf("could not read '%s': %w", path, os.ErrNotExist)
	}
	// check if trying to read a directory
	if content == &dirContent {
		return nil, fmt.Errorf("could not read '%s': %w", path, os.ErrInvalid)
	}
	return *content, nil
}

// FileWrite just forwards to AddFile(), i.e. the content is associated with the given path.
func (f *FilesMock) FileWrite(path string, content []byte, perm os.FileMode) error {
	if err := f.FileWriteErrors[path]; err != nil {
		return err
	}
	f.init()
	f.writtenFiles = append(f.writtenFiles, f.toAbsPath(path))
	f.AddFile(path, content)
	return nil
}

// MkdirAll creates a directory in the in-memory file system, so that this path is established to exist.
func (f *FilesMock) MkdirAll(path string, perm os.FileMode) error {
	f.AddDir(path)
	return nil
}

// Abs converts a path into an absolute path relative to CurrentDir.
func (f *FilesMock) Abs(path string) (string, error) {
	f.init()
	return f.toAbsPath(path), nil
}
