package alarm

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every error caused by a malformed or incomplete alarm notification.
	ErrValidation = errors.New("invalid alarm notification")
	// ErrMissingField indicates a required field was absent or empty.
	ErrMissingField = errors.New("required field missing")
)

// ValidationError names the notification field that could not be used.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrValidation, e.Field, e.Err)
}

func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Err}
}
