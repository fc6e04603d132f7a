package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errPermanent = errors.New("permanent")

func quickRetry(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, BaseDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond}
}

func TestRetry_SuccessFirstAttempt(t *testing.T) {
	t.Parallel()

	attempts := 0
	got, err := Retry(context.Background(), quickRetry(3), func() (bool, error) {
		attempts++
		return true, nil
	})
	require.NoError(t, err)
	assert.True(t, got)
	assert.Equal(t, 1, attempts)
}

func TestRetry_SuccessAfterTransientFailures(t *testing.T) {
	t.Parallel()

	attempts := 0
	got, err := Retry(context.Background(), quickRetry(3), func() (string, error) {
		attempts++
		if attempts < 3 {
			return "", MarkRetryable(errors.New("connection refused"))
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, attempts)
}

func TestRetry_NonRetryableStopsImmediately(t *testing.T) {
	t.Parallel()

	attempts := 0
	_, err := Retry(context.Background(), quickRetry(5), func() (int, error) {
		attempts++
		return 0, errPermanent
	})
	require.ErrorIs(t, err, errPermanent)
	assert.Equal(t, 1, attempts)
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	t.Parallel()

	attempts := 0
	_, err := Retry(context.Background(), quickRetry(3), func() (int, error) {
		attempts++
		return 0, MarkRetryable(errPermanent)
	})
	require.ErrorIs(t, err, errPermanent)
	assert.True(t, IsRetryable(err))
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, 3, attempts)
}

func TestRetry_ZeroAttemptsRunsOnce(t *testing.T) {
	t.Parallel()

	attempts := 0
	_, _ = Retry(context.Background(), RetryConfig{}, func() (int, error) {
		attempts++
		return 0, MarkRetryable(errPermanent)
	})
	assert.Equal(t, 1, attempts)
}

func TestRetry_ContextCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	_, err := Retry(ctx, RetryConfig{MaxAttempts: 5, BaseDelay: time.Hour, MaxDelay: time.Hour}, func() (int, error) {
		attempts++
		cancel()
		return 0, MarkRetryable(errPermanent)
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestBackoff(t *testing.T) {
	t.Parallel()

	for attempt := range 6 {
		d := backoff(attempt, 100*time.Millisecond, 400*time.Millisecond)
		ceiling := min(100*time.Millisecond<<attempt, 400*time.Millisecond)
		assert.GreaterOrEqual(t, d, ceiling/2)
		assert.Less(t, d, ceiling)
	}
	assert.Equal(t, time.Duration(0), backoff(0, 0, 0))
}

func TestMarkRetryable(t *testing.T) {
	t.Parallel()
	require.NoError(t, MarkRetryable(nil))
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(errPermanent))
	assert.True(t, IsRetryable(MarkRetryable(errPermanent)))
}
