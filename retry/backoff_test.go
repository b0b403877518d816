package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/omega-platform/omega-go/types"
)

func fastPolicy(maxAttempts int) *Policy {
	return &Policy{
		MaxAttempts:  maxAttempts,
		InitialDelay: 5 * time.Millisecond,
		MaxDelay:     50 * time.Millisecond,
		Multiplier:   2.0,
		Jitter:       false,
	}
}

func retryableErr(msg string) error {
	return types.NewError(types.ErrUpstreamError, msg).WithRetryable(true)
}

func TestBackoffRetryer_FirstAttemptSuccess(t *testing.T) {
	r := NewBackoffRetryer(fastPolicy(3), zap.NewNop())

	calls := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestBackoffRetryer_RetriesThenSucceeds(t *testing.T) {
	r := NewBackoffRetryer(fastPolicy(3), zap.NewNop())

	calls := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return retryableErr("transient")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestBackoffRetryer_ExhaustionSurfacesLastErrorUnchanged(t *testing.T) {
	r := NewBackoffRetryer(fastPolicy(3), zap.NewNop())

	last := retryableErr("still failing")
	calls := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return last
	})

	assert.Equal(t, 3, calls)
	// The original error must come back untouched, not wrapped.
	assert.Same(t, last, err.(*types.Error))
}

func TestBackoffRetryer_NonRetryableFailsImmediately(t *testing.T) {
	r := NewBackoffRetryer(fastPolicy(5), zap.NewNop())

	fatal := types.NewError(types.ErrValidationFailed, "bad request")
	calls := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return fatal
	})

	assert.Equal(t, 1, calls)
	assert.Same(t, fatal, err.(*types.Error))
}

func TestBackoffRetryer_PlainErrorsNotRetriedByDefault(t *testing.T) {
	r := NewBackoffRetryer(fastPolicy(5), zap.NewNop())

	calls := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errors.New("untyped")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestBackoffRetryer_CustomClassifier(t *testing.T) {
	p := fastPolicy(3)
	p.Classify = func(err error) bool { return true }
	r := NewBackoffRetryer(p, zap.NewNop())

	calls := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errors.New("always retry me")
	})

	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestBackoffRetryer_ContextCancelDuringBackoff(t *testing.T) {
	p := &Policy{
		MaxAttempts:  5,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
	}
	r := NewBackoffRetryer(p, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := r.Do(ctx, func(ctx context.Context) error {
		calls++
		return retryableErr("transient")
	})

	require.Error(t, err)
	assert.Equal(t, types.ErrTimeout, types.GetErrorCode(err))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestBackoffRetryer_PerAttemptTimeout(t *testing.T) {
	p := fastPolicy(1)
	p.PerAttemptTimeout = 10 * time.Millisecond
	r := NewBackoffRetryer(p, zap.NewNop())

	var sawDeadline bool
	err := r.Do(context.Background(), func(ctx context.Context) error {
		_, sawDeadline = ctx.Deadline()
		return nil
	})

	assert.NoError(t, err)
	assert.True(t, sawDeadline, "attempt context should carry a deadline")
}

func TestBackoffRetryer_OnRetryCallback(t *testing.T) {
	p := fastPolicy(3)
	var attempts []int
	p.OnRetry = func(attempt int, err error, delay time.Duration) {
		attempts = append(attempts, attempt)
	}
	r := NewBackoffRetryer(p, zap.NewNop())

	_ = r.Do(context.Background(), func(ctx context.Context) error {
		return retryableErr("transient")
	})

	assert.Equal(t, []int{2, 3}, attempts)
}

func TestDelayFor_ExponentialAndCapped(t *testing.T) {
	p := &Policy{
		MaxAttempts:  10,
		InitialDelay: 1 * time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		Jitter:       false,
	}
	r := NewBackoffRetryer(p, zap.NewNop()).(*backoffRetryer)

	assert.Equal(t, 1*time.Second, r.delayFor(1))
	assert.Equal(t, 2*time.Second, r.delayFor(2))
	assert.Equal(t, 4*time.Second, r.delayFor(3))
	assert.Equal(t, 8*time.Second, r.delayFor(4))
	assert.Equal(t, 10*time.Second, r.delayFor(5))
	assert.Equal(t, 10*time.Second, r.delayFor(9))
}

func TestDoTyped(t *testing.T) {
	r := NewBackoffRetryer(fastPolicy(3), zap.NewNop())

	calls := 0
	got, err := DoTyped[int](r, context.Background(), func(ctx context.Context) (int, error) {
		calls++
		if calls < 2 {
			return 0, retryableErr("transient")
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 2, calls)
}

func TestDoTyped_ZeroValueOnError(t *testing.T) {
	r := NewBackoffRetryer(fastPolicy(1), zap.NewNop())

	got, err := DoTyped[string](r, context.Background(), func(ctx context.Context) (string, error) {
		return "partial", types.NewError(types.ErrInternalError, "boom")
	})

	assert.Error(t, err)
	assert.Equal(t, "", got)
}
