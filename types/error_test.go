package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	err := NewError(ErrNotFound, "tool not found")
	assert.Equal(t, "[NOT_FOUND] tool not found", err.Error())

	err = err.WithCorrelation("t:acme|c:0194f0b0-1234-7890-abcd-ef0123456789", "req-1")
	assert.Contains(t, err.Error(), "correlation_id=t:acme|c:")
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewError(ErrUpstreamError, "upstream failed").WithCause(cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestError_Builders(t *testing.T) {
	err := NewError(ErrRateLimited, "slow down").
		WithRetryable(true).
		WithHTTPStatus(429).
		WithDetail("retry_after_ms", 500)

	assert.True(t, err.Retryable)
	assert.Equal(t, 429, err.HTTPStatus)
	assert.Equal(t, 500, err.Details["retry_after_ms"])
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewError(ErrTimeout, "timed out").WithRetryable(true)))
	assert.False(t, IsRetryable(NewError(ErrValidationFailed, "bad input")))
	assert.False(t, IsRetryable(errors.New("plain error")))
	assert.False(t, IsRetryable(nil))
}

func TestIsRetryable_Wrapped(t *testing.T) {
	inner := NewError(ErrUpstreamError, "bad gateway").WithRetryable(true)
	wrapped := fmt.Errorf("request failed: %w", inner)

	assert.True(t, IsRetryable(wrapped))
	assert.Equal(t, ErrUpstreamError, GetErrorCode(wrapped))
}

func TestAsError(t *testing.T) {
	inner := NewError(ErrConflict, "version conflict")
	wrapped := fmt.Errorf("outer: %w", inner)

	e, ok := AsError(wrapped)
	assert.True(t, ok)
	assert.Equal(t, ErrConflict, e.Code)

	_, ok = AsError(errors.New("plain"))
	assert.False(t, ok)
}
