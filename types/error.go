package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a stable error code surfaced to SDK callers.
type ErrorCode string

// Remote error codes, mapped from Federation Core responses.
const (
	ErrValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrUnauthenticated  ErrorCode = "UNAUTHENTICATED"
	ErrForbidden        ErrorCode = "FORBIDDEN"
	ErrNotFound         ErrorCode = "NOT_FOUND"
	ErrConflict         ErrorCode = "CONFLICT"
	ErrRateLimited      ErrorCode = "RATE_LIMITED"
	ErrTimeout          ErrorCode = "TIMEOUT"
	ErrInternalError    ErrorCode = "INTERNAL_ERROR"
	ErrUpstreamError    ErrorCode = "UPSTREAM_ERROR"
	ErrHTTPError        ErrorCode = "HTTP_ERROR"
	ErrFCError          ErrorCode = "FC_ERROR"
	ErrUnknown          ErrorCode = "UNKNOWN_ERROR"
)

// Protocol error codes. Always non-retryable: they indicate a contract
// mismatch between client and server, not a transient condition.
const (
	ErrInvalidResponse ErrorCode = "INVALID_RESPONSE"
	ErrInvalidEnvelope ErrorCode = "INVALID_ENVELOPE"
	ErrEnvelopeError   ErrorCode = "ENVELOPE_ERROR"
)

// Local error codes, raised before any network I/O.
const (
	ErrPayloadTooLarge    ErrorCode = "PAYLOAD_TOO_LARGE"
	ErrPayloadTooDeep     ErrorCode = "PAYLOAD_TOO_DEEP"
	ErrToolNotAllowed     ErrorCode = "TOOL_NOT_ALLOWED"
	ErrCorrelationInvalid ErrorCode = "CORRELATION_INVALID"
)

// Error is the single structured error type for the SDK. Every failure,
// local or remote, is surfaced as an *Error carrying the originating
// correlation and request identifiers when available.
type Error struct {
	Code          ErrorCode      `json:"code"`
	Message       string         `json:"message"`
	Details       map[string]any `json:"details,omitempty"`
	Retryable     bool           `json:"retryable"`
	HTTPStatus    int            `json:"http_status,omitempty"`
	CorrelationID string         `json:"correlation_id,omitempty"`
	RequestID     string         `json:"request_id,omitempty"`
	Cause         error          `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.CorrelationID != "" {
		msg += fmt.Sprintf(" (correlation_id=%s)", e.CorrelationID)
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHTTPStatus sets the HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithDetails attaches structured error details.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// WithDetail attaches a single structured detail.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCorrelation records the correlation and request identifiers from the
// response meta so failures stay traceable end-to-end.
func (e *Error) WithCorrelation(correlationID, requestID string) *Error {
	e.CorrelationID = correlationID
	e.RequestID = requestID
	return e
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// AsError extracts the *Error from an error chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
