package annotations

import (
	"errors"
	"fmt"
)

var ErrStoreCorrupt = errors.New("annotation store is corrupt")

// StoreCorruptError means the backing document exists but is not a nested
// mapping of names to annotations.
type StoreCorruptError struct {
	Path string
	Err  error
}

func (e *StoreCorruptError) Error() string {
	return fmt.Sprintf("annotation store %s is corrupt: %v", e.Path, e.Err)
}

func (e *StoreCorruptError) Unwrap() error {
	return e.Err
}

func (e *StoreCorruptError) Is(target error) bool {
	return target == ErrStoreCorrupt
}
