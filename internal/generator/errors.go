package generator

import (
	"errors"
	"fmt"
)

var ErrOutputWrite = errors.New("output write failed")

// OutputWriteError means the rendered listing could not be written.
type OutputWriteError struct {
	Path string
	Err  error
}

func (e *OutputWriteError) Error() string {
	return fmt.Sprintf("cannot write output %s: %v", e.Path, e.Err)
}

func (e *OutputWriteError) Unwrap() error {
	return e.Err
}

func (e *OutputWriteError) Is(target error) bool {
	return target == ErrOutputWrite
}
