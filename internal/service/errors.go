package service

import "errors"

var ErrNotFound = errors.New("not found")

// ValidationError is a request the caller can fix. Handlers map it to 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(message string) error {
	return &ValidationError{Message: message}
}

// NotFoundError keeps a user-facing message while still matching
// ErrNotFound through errors.Is.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func notFound(message string) error {
	return &NotFoundError{Message: message}
}
