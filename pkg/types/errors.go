package types

import (
	"errors"
	"fmt"
)

// Schema errors.
var (
	ErrSchemaUnavailable = errors.New("no record to discover a schema from")
	ErrSchemaNotFound    = errors.New("schema not found")
	ErrInvalidSchema     = errors.New("invalid schema")
	ErrInvalidKind       = errors.New("invalid field kind")
	ErrTypeMismatch      = errors.New("type mismatch")
)

// Codec errors.
var (
	ErrMalformedRow  = errors.New("malformed row")
	ErrFileNotFound  = errors.New("file not found")
	ErrQuoteInString = errors.New("string value contains a quote character")
)

// Host errors.
var (
	ErrNotFound        = errors.New("record not found")
	ErrInvalidPath     = errors.New("invalid record path")
	ErrPathTaken       = errors.New("record path already in use")
	ErrStoreDetached   = errors.New("asset store is detached")
	ErrAlreadyAttached = errors.New("asset store is already attached")
	ErrCommitFailed    = errors.New("committing records failed")
)

// RowError reports a row that could not be imported. It matches
// ErrMalformedRow under errors.Is and unwraps to the underlying cause.
type RowError struct {
	File   string // CSV file the row came from.
	Line   int    // 1-based line number within the file.
	Column int    // 0-based cell index, or -1 when the whole row is at fault.
	Err    error  // Underlying cause.
}

func (e *RowError) Error() string {
	if e.Column >= 0 {
		return fmt.Sprintf("%s:%d: column %d: %v", e.File, e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
}

// Unwrap exposes both the malformed-row kind and the cause.
func (e *RowError) Unwrap() []error {
	return []error{ErrMalformedRow, e.Err}
}
