// Package http provides the JSON API server and its handlers.
//
// This file implements the Builder Pattern for constructing JSON responses.
// Every body is wrapped in the same {"data": ..., "message": ...} envelope
// and error statuses are derived from the core error kinds.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/export"
	"fintrack/internal/log"
)

// envelope is the wire shape of every JSON response.
type envelope struct {
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
	data       any
	message    string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Data sets the envelope payload.
func (b *JSONResponseBuilder) Data(v any) *JSONResponseBuilder {
	b.data = v
	return b
}

// Message sets the envelope message.
func (b *JSONResponseBuilder) Message(msg string) *JSONResponseBuilder {
	b.message = msg
	return b
}

// Raw replaces the envelope with v. Paginated listings use it to put the
// page fields next to data.
func (b *JSONResponseBuilder) Raw(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)

	body := b.body
	if body == nil {
		body = envelope{Data: b.data, Message: b.message}
	}
	_ = json.NewEncoder(w).Encode(body)
}

// ErrorResponse creates an error envelope carrying only a message.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Message(message)
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "Internal server error")
}

// TooManyRequestsError creates a 429 response asking the client to back off.
func TooManyRequestsError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.").
		Header("Retry-After", "60")
}

// errorKind pairs a sentinel with the status it maps to.
type errorKind struct {
	sentinel error
	status   int
}

var errorKinds = []errorKind{
	{auth.ErrUnauthorized, http.StatusUnauthorized},
	{core.ErrNotFound, http.StatusNotFound},
	{core.ErrForbidden, http.StatusForbidden},
	{core.ErrBadRequest, http.StatusBadRequest},
	{core.ErrUpstream, http.StatusBadGateway},
}

// StatusFor maps an error to its HTTP status. Unknown errors are 500.
func StatusFor(err error) int {
	for _, k := range errorKinds {
		if errors.Is(err, k.sentinel) {
			return k.status
		}
	}
	return http.StatusInternalServerError
}

// publicMessage is the message shown to clients for err. Upstream and
// internal failures never leak their cause.
func publicMessage(err error, status int) string {
	switch status {
	case http.StatusInternalServerError:
		return "Internal server error"
	case http.StatusBadGateway:
		return "Upstream service unavailable"
	case http.StatusUnauthorized:
		return "Invalid or missing bearer token"
	}
	msg := err.Error()
	for _, k := range errorKinds {
		msg = strings.TrimPrefix(msg, k.sentinel.Error()+": ")
	}
	if msg == "" {
		return http.StatusText(status)
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

// writeError logs err and sends the matching error envelope.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	logger := log.FromContext(r.Context())

	switch {
	case status >= http.StatusInternalServerError:
		logger.ErrorContext(r.Context(), "Request failed",
			log.FieldError, err,
			log.FieldStatusCode, status,
			"error_type", log.ErrorTypeInternal)
	case status != http.StatusNotFound:
		logger.WarnContext(r.Context(), "Request rejected",
			log.FieldError, err,
			log.FieldStatusCode, status)
	}

	resp := ErrorResponse(status, publicMessage(err, status))
	if status == http.StatusUnauthorized {
		resp.Header("WWW-Authenticate", "Bearer")
	}
	resp.Write(w)
}

// writeDocument streams a rendered export as an attachment.
func writeDocument(w http.ResponseWriter, doc *export.Document) {
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", doc.Filename))
	w.Header().Set("Content-Length", fmt.Sprint(len(doc.Body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Body)
}
