package provider

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	gateerr "github.com/mrz1836/walletgate/pkg/errors"
)

// ErrRetryable marks a transient bridge failure worth another attempt.
var ErrRetryable = &gateerr.GateError{
	Code:     "RETRYABLE_ERROR",
	Message:  "retryable error",
	ExitCode: gateerr.ExitGeneral,
}

// RetryConfig configures retry behavior for non-prompting calls.
type RetryConfig struct {
	MaxAttempts int           // Maximum number of attempts (including initial)
	BaseDelay   time.Duration // Initial delay between retries
	MaxDelay    time.Duration // Maximum delay between retries
}

// DefaultRetryConfig returns the retry policy for bridge permission checks:
// 3 attempts with delays around 100ms and 200ms. Passive reconnection runs at
// startup, so the budget stays well under a second.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    400 * time.Millisecond,
	}
}

// Retry runs operation until it succeeds, returns a non-retryable error, the
// attempts run out, or ctx is done.
func Retry[T any](ctx context.Context, cfg RetryConfig, operation func() (T, error)) (T, error) {
	var result T
	var err error

	attempts := max(cfg.MaxAttempts, 1)
	for attempt := range attempts {
		result, err = operation()
		if err == nil || !IsRetryable(err) {
			return result, err
		}
		if attempt == attempts-1 {
			break
		}

		timer := time.NewTimer(backoff(attempt, cfg.BaseDelay, cfg.MaxDelay))
		select {
		case <-ctx.Done():
			timer.Stop()
			return result, ctx.Err()
		case <-timer.C:
		}
	}

	return result, fmt.Errorf("operation failed after %d attempts: %w", attempts, err)
}

// backoff returns an exponential delay with jitter in [d/2, d).
func backoff(attempt int, base, ceiling time.Duration) time.Duration {
	d := base << attempt
	if d > ceiling || d <= 0 {
		d = ceiling
	}
	half := d / 2
	if half <= 0 {
		return d
	}
	return half + rand.N(half) //nolint:gosec // G404: jitter does not need crypto randomness
}

// IsRetryable reports whether err was marked with ErrRetryable.
func IsRetryable(err error) bool {
	return err != nil && errors.Is(err, ErrRetryable)
}

// MarkRetryable wraps err so IsRetryable reports true.
func MarkRetryable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrRetryable, err)
}
