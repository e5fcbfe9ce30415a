package gemini

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrUnavailable   ErrorCode = "GEMINI_UNAVAILABLE"
	ErrRateLimited   ErrorCode = "GEMINI_RATE_LIMITED"
	ErrRejected      ErrorCode = "GEMINI_REJECTED"
	ErrEmptyReply    ErrorCode = "GEMINI_EMPTY_REPLY"
	ErrBadReply      ErrorCode = "GEMINI_BAD_REPLY"
	ErrNotConfigured ErrorCode = "GEMINI_NOT_CONFIGURED"
)

// Error is a structured generation failure.
type Error struct {
	Code       ErrorCode
	Message    string
	StatusCode int
	Retryable  bool
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable reports whether err is a transient generation failure.
func IsRetryable(err error) bool {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Retryable
	}
	return false
}

// classifyTransportError wraps a failed round trip. Network failures are
// transient.
func classifyTransportError(err error) *Error {
	return &Error{
		Code:      ErrUnavailable,
		Message:   "request failed",
		Retryable: true,
		Cause:     err,
	}
}

// classifyHTTPError maps a non-200 response to an Error.
func classifyHTTPError(status int, body string) *Error {
	if len(body) > 512 {
		body = body[:512]
	}
	switch {
	case status == http.StatusTooManyRequests:
		return &Error{Code: ErrRateLimited, Message: "rate limited", StatusCode: status, Retryable: true}
	case status >= 500:
		return &Error{Code: ErrUnavailable, Message: fmt.Sprintf("server error: %s", body), StatusCode: status, Retryable: true}
	}
	return &Error{Code: ErrRejected, Message: fmt.Sprintf("request rejected: %s", body), StatusCode: status}
}
