// Package apperr defines the error kinds shared by the document store,
// the vector index, and the retrieval pipeline.
package apperr

import (
	"errors"
	"fmt"
)

// Error kinds. Callers test for them with errors.Is.
var (
	// ErrValidation indicates missing or malformed caller input. Not retried.
	ErrValidation = errors.New("validation failed")

	// ErrUnsupportedFormat indicates a document type that cannot be ingested.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrCollaborator indicates the embedder or the language model failed.
	// The caller may retry; nothing in this module retries automatically.
	ErrCollaborator = errors.New("collaborator call failed")

	// ErrNotFound indicates a lookup with zero matches. Deletes and listings
	// treat this as a successful no-op and never return it.
	ErrNotFound = errors.New("not found")

	// ErrResetFailed indicates the collection could not be rebuilt.
	ErrResetFailed = errors.New("collection reset failed")
)

// Error attaches an operation name and a kind to an underlying cause.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Validation returns an ErrValidation for op with a formatted reason.
func Validation(op, format string, args ...any) error {
	return &Error{Op: op, Kind: ErrValidation, Err: fmt.Errorf(format, args...)}
}

// UnsupportedFormat returns an ErrUnsupportedFormat naming the rejected format.
func UnsupportedFormat(op, format string) error {
	if format == "" {
		format = "(none)"
	}
	return &Error{Op: op, Kind: ErrUnsupportedFormat, Err: fmt.Errorf("format %q", format)}
}

// Collaborator wraps a failed embedder or language model call.
func Collaborator(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: ErrCollaborator, Err: err}
}

// ResetFailed wraps a failure to rebuild the collection.
func ResetFailed(op string, err error) error {
	return &Error{Op: op, Kind: ErrResetFailed, Err: err}
}

// Kind returns the kind of err, or nil when err carries none.
func Kind(err error) error {
	for _, k := range []error{ErrValidation, ErrUnsupportedFormat, ErrCollaborator, ErrNotFound, ErrResetFailed} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
