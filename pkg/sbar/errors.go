package sbar

import "fmt"

// ArchiveError is returned for every failure while building or extracting an sbar archive.
type ArchiveError struct {
	Op  string
	Err error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("%v: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *ArchiveError) Unwrap() error {
	return e.Err
}

// Cause returns the underlying error for github.com/pkg/errors.
func (e *ArchiveError) Cause() error {
	return e.Err
}
