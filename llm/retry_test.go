package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/bioflow/types"
)

func TestRetryClient_SucceedsFirstTry(t *testing.T) {
	calls := 0
	inner := ClientFunc(func(ctx context.Context, req *Request) (string, error) {
		calls++
		return "answer", nil
	})

	c := NewRetryClient(inner, 3, nil)
	got, err := c.Complete(context.Background(), &Request{User: "q"})
	require.NoError(t, err)
	assert.Equal(t, "answer", got)
	assert.Equal(t, 1, calls)
}

func TestRetryClient_RetriesTransient(t *testing.T) {
	calls := 0
	inner := ClientFunc(func(ctx context.Context, req *Request) (string, error) {
		calls++
		if calls < 3 {
			return "", types.NewError(types.ErrInferenceTransient, "overloaded").WithRetryable(true)
		}
		return "recovered", nil
	})

	c := NewRetryClient(inner, 5, nil)
	got, err := c.Complete(context.Background(), &Request{User: "q"})
	require.NoError(t, err)
	assert.Equal(t, "recovered", got)
	assert.Equal(t, 3, calls)
}

func TestRetryClient_PermanentNotRetried(t *testing.T) {
	calls := 0
	inner := ClientFunc(func(ctx context.Context, req *Request) (string, error) {
		calls++
		return "", types.NewError(types.ErrInvalidRequest, "bad prompt")
	})

	c := NewRetryClient(inner, 5, nil)
	_, err := c.Complete(context.Background(), &Request{User: "q"})
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidRequest, types.GetErrorCode(err))
	assert.Equal(t, 1, calls)
}

func TestRetryClient_ExhaustsRetries(t *testing.T) {
	calls := 0
	inner := ClientFunc(func(ctx context.Context, req *Request) (string, error) {
		calls++
		return "", types.NewError(types.ErrQuotaExceeded, "429").WithRetryable(true)
	})

	c := NewRetryClient(inner, 2, nil)
	_, err := c.Complete(context.Background(), &Request{User: "q"})
	require.Error(t, err)
	assert.Equal(t, types.ErrQuotaExceeded, types.GetErrorCode(err))
	assert.Equal(t, 3, calls) // initial attempt + 2 retries
}

func TestRetryClient_ContextCancelled(t *testing.T) {
	inner := ClientFunc(func(ctx context.Context, req *Request) (string, error) {
		return "", types.NewError(types.ErrInferenceTransient, "overloaded").WithRetryable(true)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewRetryClient(inner, 10, nil)
	_, err := c.Complete(ctx, &Request{User: "q"})
	require.Error(t, err)
}
