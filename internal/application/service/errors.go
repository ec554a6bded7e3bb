package service

import (
	"errors"
	"fmt"
)

// ErrRunClosed is returned when a mutation targets a closed run.
var ErrRunClosed = errors.New("run is closed")

// ErrForbidden is returned when the caller is not allowed to perform
// the operation (e.g. reopening a run they did not create).
var ErrForbidden = errors.New("operation not permitted")

// ValidationError reports invalid input. Callers can recover by fixing
// the request; no partial state is persisted.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}
