package services

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInvalidState    = errors.New("invalid state")
	ErrStorage         = errors.New("blob storage failed")
	ErrNotFound        = errors.New("not found")
	ErrTransport       = errors.New("store unavailable")
)

// ValidationError names the input field that was rejected. It matches
// ErrValidation under errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field string, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (err *ValidationError) Error() string {
	if err.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation, err.Message)
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation, err.Field, err.Message)
}

func (err *ValidationError) Unwrap() error {
	return ErrValidation
}

func transportError(operation string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrTransport, operation, err)
}
