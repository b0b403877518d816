// Package retry wraps a single remote operation with bounded,
// backoff-based retry.
//
// Classification is delegated to a policy predicate; by default an outcome
// is retried only when it is a [types.Error] whose Retryable flag is true.
// After exhausting attempts the last failure is surfaced unchanged, so typed
// envelope errors reach callers intact.
package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/omega-platform/omega-go/types"
)

// Policy configures the retry behaviour for one logical operation.
type Policy struct {
	// MaxAttempts is the total number of attempts including the first.
	MaxAttempts int
	// InitialDelay is the backoff base unit for the first retry.
	InitialDelay time.Duration
	// MaxDelay caps the exponential backoff.
	MaxDelay time.Duration
	// Multiplier is the exponential growth factor.
	Multiplier float64
	// Jitter adds +/-25% randomization to each delay to avoid retry storms.
	Jitter bool
	// PerAttemptTimeout bounds each individual attempt. Zero means no
	// per-attempt deadline; the caller's context is always the cumulative
	// bound across all attempts.
	PerAttemptTimeout time.Duration
	// Classify reports whether an error should be retried. Nil means
	// types.IsRetryable.
	Classify func(error) bool
	// OnRetry is invoked before each retry wait.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultPolicy returns the SDK retry policy: 3 attempts, exponential
// backoff from 1s capped at 10s, jittered.
func DefaultPolicy() *Policy {
	return &Policy{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// Retryer executes operations under a retry policy.
type Retryer interface {
	// Do executes fn, retrying retryable failures per the policy.
	Do(ctx context.Context, fn func(ctx context.Context) error) error

	// DoWithResult executes fn and returns its result, retrying retryable
	// failures per the policy.
	DoWithResult(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, error)
}

type backoffRetryer struct {
	policy *Policy
	logger *zap.Logger
}

// NewBackoffRetryer creates an exponential-backoff retryer. A nil policy
// selects DefaultPolicy; out-of-range fields are clamped.
func NewBackoffRetryer(policy *Policy, logger *zap.Logger) Retryer {
	if policy == nil {
		policy = DefaultPolicy()
	}
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.InitialDelay <= 0 {
		policy.InitialDelay = 1 * time.Second
	}
	if policy.MaxDelay <= 0 {
		policy.MaxDelay = 10 * time.Second
	}
	if policy.Multiplier < 1.0 {
		policy.Multiplier = 2.0
	}
	if policy.Classify == nil {
		policy.Classify = types.IsRetryable
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &backoffRetryer{policy: policy, logger: logger}
}

// Do implements Retryer.Do.
func (r *backoffRetryer) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := r.DoWithResult(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	})
	return err
}

// DoWithResult implements Retryer.DoWithResult.
func (r *backoffRetryer) DoWithResult(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, error) {
	var lastErr error

	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := r.delayFor(attempt - 1)

			r.logger.Debug("retrying operation",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", r.policy.MaxAttempts),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)
			if r.policy.OnRetry != nil {
				r.policy.OnRetry(attempt, lastErr, delay)
			}

			select {
			case <-ctx.Done():
				return nil, types.NewError(types.ErrTimeout, "retry aborted by caller").
					WithCause(ctx.Err())
			case <-time.After(delay):
			}
		}

		attemptCtx := ctx
		var cancel context.CancelFunc
		if r.policy.PerAttemptTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, r.policy.PerAttemptTimeout)
		}
		result, err := fn(attemptCtx)
		if cancel != nil {
			cancel()
		}

		if err == nil {
			if attempt > 1 {
				r.logger.Info("retry succeeded", zap.Int("attempt", attempt))
			}
			return result, nil
		}
		lastErr = err

		if !r.policy.Classify(err) {
			r.logger.Debug("error not retryable", zap.Error(err))
			return nil, err
		}
	}

	r.logger.Warn("retry attempts exhausted",
		zap.Int("attempts", r.policy.MaxAttempts),
		zap.Error(lastErr),
	)

	// Surface the final failure unchanged.
	return nil, lastErr
}

// delayFor computes the backoff delay for the given retry index (1-based).
func (r *backoffRetryer) delayFor(retry int) time.Duration {
	delay := float64(r.policy.InitialDelay) * math.Pow(r.policy.Multiplier, float64(retry-1))

	if delay > float64(r.policy.MaxDelay) {
		delay = float64(r.policy.MaxDelay)
	}

	if r.policy.Jitter {
		jitter := delay * 0.25
		delay = delay + (rand.Float64()*2-1)*jitter
	}

	if delay < float64(r.policy.InitialDelay) {
		delay = float64(r.policy.InitialDelay)
	}

	return time.Duration(delay)
}
