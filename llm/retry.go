package llm

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/BaSui01/bioflow/types"
)

// RetryClient wraps a Client with bounded exponential-backoff retries.
// Only errors the taxonomy marks retryable are retried; the engine
// above this layer never retries anything.
type RetryClient struct {
	inner      Client
	maxRetries uint64
	logger     *zap.Logger
}

// NewRetryClient wraps inner with up to maxRetries retries.
func NewRetryClient(inner Client, maxRetries int, logger *zap.Logger) *RetryClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &RetryClient{
		inner:      inner,
		maxRetries: uint64(maxRetries),
		logger:     logger.With(zap.String("component", "llm_retry")),
	}
}

// Complete implements Client.
func (c *RetryClient) Complete(ctx context.Context, req *Request) (string, error) {
	var result string
	attempt := 0

	op := func() error {
		attempt++
		text, err := c.inner.Complete(ctx, req)
		if err != nil {
			if !types.IsRetryable(err) {
				return backoff.Permanent(err)
			}
			c.logger.Warn("retryable completion failure",
				zap.Int("attempt", attempt),
				zap.String("code", string(types.GetErrorCode(err))),
				zap.Error(err),
			)
			return err
		}
		result = text
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 10 * time.Second

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.maxRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return "", err
	}
	return result, nil
}
