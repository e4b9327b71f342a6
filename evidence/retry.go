package evidence

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BaSui01/bioflow/types"
)

// RetryAdapter wraps an Adapter with the node-local fetch policy:
// client-side rate limiting, a per-attempt timeout, and bounded
// exponential-backoff retries of retryable errors. Above this wrapper
// an adapter failure is terminal; the engine never retries.
type RetryAdapter struct {
	inner      Adapter
	limiter    *rate.Limiter
	timeout    time.Duration
	maxRetries uint64
	logger     *zap.Logger
}

// RetryPolicy configures a RetryAdapter.
type RetryPolicy struct {
	Timeout       time.Duration // per attempt; zero disables
	MaxRetries    int
	RatePerSecond float64 // zero disables rate limiting
}

// NewRetryAdapter wraps inner with the given policy.
func NewRetryAdapter(inner Adapter, policy RetryPolicy, logger *zap.Logger) *RetryAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	var limiter *rate.Limiter
	if policy.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(policy.RatePerSecond), 1)
	}
	retries := policy.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return &RetryAdapter{
		inner:      inner,
		limiter:    limiter,
		timeout:    policy.Timeout,
		maxRetries: uint64(retries),
		logger: logger.With(
			zap.String("component", "evidence_retry"),
			zap.String("source", string(inner.Source())),
		),
	}
}

// Source implements Adapter.
func (a *RetryAdapter) Source() SourceID { return a.inner.Source() }

// Fetch implements Adapter.
func (a *RetryAdapter) Fetch(ctx context.Context, topic string) (*Set, error) {
	var result *Set
	attempt := 0

	op := func() error {
		attempt++
		if a.limiter != nil {
			if err := a.limiter.Wait(ctx); err != nil {
				return backoff.Permanent(err)
			}
		}

		fetchCtx := ctx
		if a.timeout > 0 {
			var cancel context.CancelFunc
			fetchCtx, cancel = context.WithTimeout(ctx, a.timeout)
			defer cancel()
		}

		set, err := a.inner.Fetch(fetchCtx, topic)
		if err != nil {
			// A per-attempt timeout is transient; the run-level
			// context expiring is not.
			if fetchCtx.Err() != nil && ctx.Err() == nil {
				err = types.NewError(types.ErrSourceTransient, "fetch timed out").
					WithSource(string(a.inner.Source())).WithRetryable(true).WithCause(err)
			}
			if !types.IsRetryable(err) {
				return backoff.Permanent(err)
			}
			a.logger.Warn("retryable fetch failure",
				zap.Int("attempt", attempt),
				zap.String("code", string(types.GetErrorCode(err))),
				zap.Error(err),
			)
			return err
		}
		result = set
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 250 * time.Millisecond
	bo.MaxInterval = 5 * time.Second

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, a.maxRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return result, nil
}
