package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Error(t *testing.T) {
	err := NewError(ErrSourceTransient, "upstream unreachable")
	assert.Equal(t, "[SOURCE_TRANSIENT] upstream unreachable", err.Error())

	withCause := NewError(ErrSourceTransient, "upstream unreachable").
		WithCause(errors.New("connection refused"))
	assert.Equal(t, "[SOURCE_TRANSIENT] upstream unreachable: connection refused", withCause.Error())
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewError(ErrInferenceTransient, "call failed").WithCause(cause)
	assert.ErrorIs(t, err, cause)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewError(ErrSourceRateLimited, "429").WithRetryable(true)))
	assert.False(t, IsRetryable(NewError(ErrSourceNotFound, "404")))
	assert.False(t, IsRetryable(errors.New("plain error")))
	assert.False(t, IsRetryable(nil))
}

func TestIsRetryable_Wrapped(t *testing.T) {
	inner := NewError(ErrSourceTransient, "503").WithRetryable(true)
	wrapped := fmt.Errorf("fetch pubmed: %w", inner)
	assert.True(t, IsRetryable(wrapped))
	assert.Equal(t, ErrSourceTransient, GetErrorCode(wrapped))
}

func TestGetErrorCode(t *testing.T) {
	require.Equal(t, ErrQuotaExceeded, GetErrorCode(NewError(ErrQuotaExceeded, "quota")))
	require.Equal(t, ErrorCode(""), GetErrorCode(errors.New("plain")))
}

func TestError_WithSource(t *testing.T) {
	err := NewError(ErrSourceNotFound, "no results").WithSource("clinicaltrials")
	assert.Equal(t, "clinicaltrials", err.Source)
}
