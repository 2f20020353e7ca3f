package equipment

import (
	"fmt"
)

// StorageError reports that the medium holding the document could not be
// read or written.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("equipment storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// FormatError reports content that is not JSON or lacks the {"areas": [...]} root
type FormatError struct {
	Err error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("equipment document format: %v", e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// IndexError reports a position that does not exist in the current document.
// Callers holding stale indices should reload and retry.
type IndexError struct {
	Kind  string // "area", "location" or "computer"
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s index %d out of range (have %d)", e.Kind, e.Index, e.Len)
}

// ConflictError reports that the document changed since the version the
// caller based its edit on.
type ConflictError struct {
	Expected string
	Actual   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("document version is %s, expected %s", e.Actual, e.Expected)
}

// ValidationError reports edit fields that violate the data model
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
