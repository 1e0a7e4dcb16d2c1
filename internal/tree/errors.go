package tree

import (
	"errors"
	"fmt"
)

var ErrFilesystemAccess = errors.New("filesystem access failed")

// FilesystemAccessError reports a directory the scanner could not read.
type FilesystemAccessError struct {
	Path string
	Err  error
}

func (e *FilesystemAccessError) Error() string {
	return fmt.Sprintf("cannot read %s: %v", e.Path, e.Err)
}

func (e *FilesystemAccessError) Unwrap() error {
	return e.Err
}

func (e *FilesystemAccessError) Is(target error) bool {
	return target == ErrFilesystemAccess
}
