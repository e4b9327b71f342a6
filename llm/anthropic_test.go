package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"

	"github.com/BaSui01/bioflow/types"
)

func TestMapAnthropicError(t *testing.T) {
	cases := []struct {
		name      string
		in        error
		code      types.ErrorCode
		retryable bool
	}{
		{"rate limited", &anthropic.Error{StatusCode: 429}, types.ErrQuotaExceeded, true},
		{"bad request", &anthropic.Error{StatusCode: 400}, types.ErrInvalidRequest, false},
		{"forbidden", &anthropic.Error{StatusCode: 403}, types.ErrInvalidRequest, false},
		{"server error", &anthropic.Error{StatusCode: 500}, types.ErrInferenceTransient, true},
		{"overloaded", &anthropic.Error{StatusCode: 529}, types.ErrInferenceTransient, true},
		{"network", errors.New("dial tcp: connection refused"), types.ErrInferenceTransient, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := mapAnthropicError(tc.in)
			assert.Equal(t, tc.code, types.GetErrorCode(got))
			assert.Equal(t, tc.retryable, types.IsRetryable(got))
		})
	}
}

func TestMapAnthropicError_ContextPassthrough(t *testing.T) {
	assert.ErrorIs(t, mapAnthropicError(context.Canceled), context.Canceled)
	assert.ErrorIs(t, mapAnthropicError(context.DeadlineExceeded), context.DeadlineExceeded)
}
