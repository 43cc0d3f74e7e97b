package mux

import (
	"errors"
	"fmt"
	"net/http"
)

// DefaultErrorCode is the status used for errors that carry no valid
// status code of their own.
const DefaultErrorCode = http.StatusInternalServerError

// ErrInvalidItem is returned when a stack item or router middleware is nil
// or has no run function.
var ErrInvalidItem = errors.New("mux: unsupported middleware or router")

// ErrInvalidMethod is returned when a router is given an unknown method.
var ErrInvalidMethod = errors.New("mux: method is not supported")

// ErrInvalidStatus is returned for status codes without a status text or
// outside the range an Error may carry.
var ErrInvalidStatus = errors.New("mux: invalid status code")

// ErrInvalidHeader is returned when a header name or value is not valid.
var ErrInvalidHeader = errors.New("mux: invalid header field")

// ErrResponseEnded is returned when writing to a response that has been
// ended.
var ErrResponseEnded = errors.New("mux: response has already ended")

// ErrNotRegularFile is returned when SendFile is given something other
// than a regular file.
var ErrNotRegularFile = errors.New("mux: path does not correspond to a regular file")

// Error is an application error that carries the response the default
// error handler should produce. Unless Expose is set only the status code
// is sent to the client.
type Error struct {
	// Status is a 4xx or 5xx status code.
	Status int

	// Expose allows Message or JSON to be sent as the response body.
	Expose bool

	// JSON, when set and exposed, is sent as an application/json body.
	JSON any

	// Message, when exposed and JSON is unset, is sent as a text body.
	// Defaults to the status text.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// ErrorOption configures an Error.
type ErrorOption func(*Error)

// WithMessage sets the message.
func WithMessage(msg string) ErrorOption {
	return func(e *Error) { e.Message = msg }
}

// WithExpose marks the error as safe to send to the client.
func WithExpose() ErrorOption {
	return func(e *Error) { e.Expose = true }
}

// WithJSON sets the JSON payload.
func WithJSON(v any) ErrorOption {
	return func(e *Error) { e.JSON = v }
}

// WithCause sets the underlying error.
func WithCause(err error) ErrorOption {
	return func(e *Error) { e.Cause = err }
}

// NewError returns an Error for status, which must be a known 4xx or 5xx
// status code.
func NewError(status int, opts ...ErrorOption) (*Error, error) {
	if status < 400 || status > 599 || http.StatusText(status) == "" {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStatus, status)
	}

	e := &Error{Status: status, Message: http.StatusText(status)}
	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// MustError is like NewError but panics if status is invalid.
func MustError(status int, opts ...ErrorOption) *Error {
	e, err := NewError(status, opts...)
	if err != nil {
		panic(err)
	}

	return e
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}

	return msg
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error { return e.Cause }

// StatusCode returns the status code.
func (e *Error) StatusCode() int { return e.Status }

// Exposed reports whether the body may be sent to the client.
func (e *Error) Exposed() bool { return e.Expose }

// JSONBody returns the JSON payload.
func (e *Error) JSONBody() any { return e.JSON }

// PublicMessage returns the message without the cause.
func (e *Error) PublicMessage() string { return e.Message }

// The default error handler reads errors through these interfaces so
// that any error type, wrapped or not, can take part.
type (
	statusCoder   interface{ StatusCode() int }
	exposer       interface{ Exposed() bool }
	jsonBodier    interface{ JSONBody() any }
	publicMessage interface{ PublicMessage() string }
)
