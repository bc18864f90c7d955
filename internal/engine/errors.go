package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyInput is returned when a document contains no records.
	ErrEmptyInput = errors.New("no bibliography records found")
	// ErrUnresolvedConflict is returned by Merge while label conflicts are pending.
	ErrUnresolvedConflict = errors.New("unresolved label conflicts")
)

// ConflictError lists the labels still awaiting a resolution.
type ConflictError struct {
	Labels []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnresolvedConflict, strings.Join(e.Labels, ", "))
}

// Is makes errors.Is(err, ErrUnresolvedConflict) hold.
func (e *ConflictError) Is(target error) bool {
	return target == ErrUnresolvedConflict
}

// MergeError wraps any failure while assembling merged output.
type MergeError struct {
	Err error
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("merge failed: %v", e.Err)
}

func (e *MergeError) Unwrap() error {
	return e.Err
}
