package lineitem

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks input the user must correct, e.g. a blank name.
	ErrValidation = errors.New("invalid input")

	// ErrDuplicate blocks committing an item that matches an existing line.
	ErrDuplicate = errors.New("product already added")

	ErrItemNotFound = errors.New("line item not found")
)

// ValidationError carries the field and details behind a blocked action.
type ValidationError struct {
	Err     error
	Field   string
	Details string
}

func (e *ValidationError) Error() string {
	msg := e.Err.Error()
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Field)
	}
	if e.Details != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Details)
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field, details string) error {
	return &ValidationError{Err: ErrValidation, Field: field, Details: details}
}
