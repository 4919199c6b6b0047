package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRunInProgress is returned when a daily calculation is requested while
// another one has not finished.
var ErrRunInProgress = errors.New("a daily calculation is already running")

// InputRejectedError is a user-correctable input problem detected before any
// network activity.
type InputRejectedError struct {
	Reason string
}

func (e *InputRejectedError) Error() string {
	return "input rejected: " + e.Reason
}

// Rejectf builds an InputRejectedError.
func Rejectf(format string, args ...any) error {
	return &InputRejectedError{Reason: fmt.Sprintf(format, args...)}
}

// ResolutionFailedError lists the place names that could not be geocoded.
type ResolutionFailedError struct {
	Names []string
}

func (e *ResolutionFailedError) Error() string {
	return "failed to find location: " + strings.Join(e.Names, ", ")
}

// Unwrap lets callers match ErrPlaceNotFound.
func (e *ResolutionFailedError) Unwrap() error {
	return ErrPlaceNotFound
}

// MergeResolutionFailures combines the failed names of several errors,
// dropping duplicates while keeping first-seen order. It returns nil when no
// error is a ResolutionFailedError.
func MergeResolutionFailures(errs ...error) *ResolutionFailedError {
	var merged *ResolutionFailedError
	seen := make(map[string]struct{})
	for _, err := range errs {
		var rf *ResolutionFailedError
		if !errors.As(err, &rf) {
			continue
		}
		if merged == nil {
			merged = &ResolutionFailedError{}
		}
		for _, name := range rf.Names {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			merged.Names = append(merged.Names, name)
		}
	}
	return merged
}

// CatalogLoadError is fatal to a session: no calculation can run without a catalog.
type CatalogLoadError struct {
	Source string
	Err    error
}

func (e *CatalogLoadError) Error() string {
	return fmt.Sprintf("load catalog %s: %v", e.Source, e.Err)
}

func (e *CatalogLoadError) Unwrap() error { return e.Err }

// StorageError means durable storage rejected a write. The in-memory state
// that failed to persist is kept.
type StorageError struct {
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage write %q: %v", e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
