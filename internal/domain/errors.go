package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("already exists")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrSeatNotFound       = errors.New("seat not found")
	ErrSeatMapMissing     = errors.New("seat map is not initialized")
	ErrInvalidDocument    = errors.New("invalid document")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUploadRejected     = errors.New("upload rejected")
)

// ValidationError is returned for input rejected before any network call.
type ValidationError struct {
	Field string
	Msg   string
}

func (e ValidationError) Error() string {
	switch {
	case e.Field != "" && e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Field != "":
		return fmt.Sprintf("invalid %s", e.Field)
	default:
		return "validation error"
	}
}

func Invalid(field, msg string) error {
	return ValidationError{Field: field, Msg: msg}
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

// InvalidDocument wraps ErrInvalidDocument with the offending document.
func InvalidDocument(collection, id, reason string) error {
	return fmt.Errorf("%w: %s/%s: %s", ErrInvalidDocument, collection, id, reason)
}
