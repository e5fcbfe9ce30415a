package core

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by services. Handlers map them to status codes with errors.Is.
var (
	ErrNotFound   = errors.New("not found")
	ErrBadRequest = errors.New("bad request")
	ErrForbidden  = errors.New("forbidden")
	ErrUpstream   = errors.New("upstream service failure")
)

// Validation errors. All of them are bad requests.
var (
	ErrInvalidAmount      = fmt.Errorf("%w: invalid amount", ErrBadRequest)
	ErrInvalidDate        = fmt.Errorf("%w: invalid date", ErrBadRequest)
	ErrInvalidDateRange   = fmt.Errorf("%w: start date must not be after end date", ErrBadRequest)
	ErrInvalidPeriod      = fmt.Errorf("%w: invalid period", ErrBadRequest)
	ErrEmptyDescription   = fmt.Errorf("%w: empty description", ErrBadRequest)
	ErrDescriptionTooLong = fmt.Errorf("%w: description too long (max %d characters)", ErrBadRequest, MaxDescriptionLen)
	ErrEmptyName          = fmt.Errorf("%w: empty name", ErrBadRequest)
	ErrNameTooLong        = fmt.Errorf("%w: name too long", ErrBadRequest)
	ErrInvalidKind        = fmt.Errorf("%w: invalid category kind", ErrBadRequest)
	ErrInvalidThreshold   = fmt.Errorf("%w: alert threshold must be between 1 and 100", ErrBadRequest)
	ErrInvalidStatus      = fmt.Errorf("%w: invalid goal status", ErrBadRequest)
	ErrNoteTooLong        = fmt.Errorf("%w: note too long (max %d characters)", ErrBadRequest, MaxNoteLen)
)

// BadRequestf builds a bad request error with a formatted message.
func BadRequestf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, fmt.Sprintf(format, args...))
}

// NotFoundf builds a not found error with a formatted message.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Forbiddenf builds a forbidden error with a formatted message.
func Forbiddenf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}
