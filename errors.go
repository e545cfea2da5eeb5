package multiform

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidField is matched by errors returned from Append and Encode
	// when a field is rejected.
	ErrInvalidField = errors.New("form: invalid field")

	// ErrStreamRead is matched by errors returned from serialization when a
	// stream-backed part could not be read to completion.
	ErrStreamRead = errors.New("form: stream read error")

	// ErrSourceConsumed is wrapped by a StreamReadError when a stream-backed
	// part has already been read by an earlier serialization.
	ErrSourceConsumed = errors.New("form: source already consumed")

	// ErrBoundaryInUse is returned by SetBoundary once the form has fixed its
	// boundary.
	ErrBoundaryInUse = errors.New("form: boundary already assigned")
)

// FieldError describes a field rejected by Append.
type FieldError struct {
	Name   string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("form: invalid field %q: %s", e.Name, e.Reason)
}

// Is reports ErrInvalidField as a match.
func (e *FieldError) Is(target error) bool {
	return target == ErrInvalidField
}

// StreamReadError wraps the failure of a part's source during serialization.
type StreamReadError struct {
	Name string
	Err  error
}

func (e *StreamReadError) Error() string {
	return fmt.Sprintf("form: reading field %q: %v", e.Name, e.Err)
}

func (e *StreamReadError) Unwrap() error {
	return e.Err
}

// Is reports ErrStreamRead as a match.
func (e *StreamReadError) Is(target error) bool {
	return target == ErrStreamRead
}

func invalidField(name, format string, args ...interface{}) error {
	return &FieldError{Name: name, Reason: fmt.Sprintf(format, args...)}
}
