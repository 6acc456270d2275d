package apperr

import (
	"errors"
	"fmt"
)

// Error kinds. Handlers map these to HTTP statuses; services match them
// with errors.Is.
var (
	ErrValidation          = errors.New("validation error")
	ErrInvalidState        = errors.New("invalid state")
	ErrGateway             = errors.New("gateway error")
	ErrGeneration          = errors.New("generation error")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrNotFound            = errors.New("not found")
)

type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

func newError(kind error, format string, args ...any) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) error {
	return newError(ErrValidation, format, args...)
}

func InvalidState(format string, args ...any) error {
	return newError(ErrInvalidState, format, args...)
}

func Gateway(format string, args ...any) error {
	return newError(ErrGateway, format, args...)
}

func Generation(format string, args ...any) error {
	return newError(ErrGeneration, format, args...)
}

func UpstreamUnavailable(format string, args ...any) error {
	return newError(ErrUpstreamUnavailable, format, args...)
}

func NotFound(format string, args ...any) error {
	return newError(ErrNotFound, format, args...)
}
