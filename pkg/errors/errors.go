package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	// Field names the candidate field that failed, for UNRESOLVED_REFERENCE.
	Field string `json:"field,omitempty"`
	Err   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError carrying the same code, so callers can write
// errors.Is(err, &AppError{Code: ErrStoreFault}).
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// StatusCode implements the interface the error middleware looks for.
func (e *AppError) StatusCode() int {
	return e.Code.HTTPStatus()
}

const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrUnauthorized
	ErrForbidden
	ErrInternal
	ErrMalformedNotification
	ErrUnresolvedReference
	ErrInvalidTimeRange
	ErrStoreFault
)

var codeNames = map[ErrorCode]string{
	ErrNotFound:              "NOT_FOUND",
	ErrBadRequest:            "TRANSPORT_ERROR",
	ErrUnauthorized:          "UNAUTHORIZED",
	ErrForbidden:             "FORBIDDEN",
	ErrInternal:              "INTERNAL",
	ErrMalformedNotification: "MALFORMED_NOTIFICATION",
	ErrUnresolvedReference:   "UNRESOLVED_REFERENCE",
	ErrInvalidTimeRange:      "INVALID_TIME_RANGE",
	ErrStoreFault:            "STORE_FAULT",
}

func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ErrorCode(%d)", int(c))
}

// HTTPStatus maps a code to the status used when it reaches an HTTP boundary.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrBadRequest:
		return http.StatusBadRequest
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrMalformedNotification, ErrUnresolvedReference, ErrInvalidTimeRange:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// CodeOf returns the code of the first AppError in err's chain, or ErrInternal.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

// PublicMessage returns the text safe to show a caller: the AppError's own
// message without whatever it wraps, or a generic message for other errors.
func PublicMessage(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return "internal server error"
}

// IsTriageable reports whether err is recovered by routing the notification
// to the pending triage queue instead of failing the batch item.
func IsTriageable(err error) bool {
	if err == nil {
		return false
	}
	switch CodeOf(err) {
	case ErrMalformedNotification, ErrUnresolvedReference, ErrInvalidTimeRange:
		return true
	}
	return false
}

// Error constructors
func NewNotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func NewBadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func NewInternal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

func Unauthorized(message string, err error) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: message,
		Err:     err,
	}
}

func MalformedNotification(format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    ErrMalformedNotification,
		Message: fmt.Sprintf(format, args...),
	}
}

func UnresolvedReference(field, message string) *AppError {
	return &AppError{
		Code:    ErrUnresolvedReference,
		Message: message,
		Field:   field,
	}
}

func InvalidTimeRange(start, end string) *AppError {
	return &AppError{
		Code:    ErrInvalidTimeRange,
		Message: fmt.Sprintf("end time %s is not after start time %s", end, start),
	}
}

func StoreFault(op string, err error) *AppError {
	return &AppError{
		Code:    ErrStoreFault,
		Message: op,
		Err:     err,
	}
}
