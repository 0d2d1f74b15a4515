// Package utils provides shared utility functions.
package utils

import (
	"context"
	"time"

	apperrors "github.com/ravitejakamalapuram/copytradepro-sub014/internal/errors"
)

// RetryConfig holds retry configuration.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
	}
}

// Retry executes fn up to MaxAttempts times with a linearly increasing
// delay (BaseDelay × attempt number) between attempts. Validation failures
// are never retried. The last error is returned once attempts are exhausted.
func Retry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if apperrors.IsValidation(err) {
			return err
		}
		lastErr = err

		// Don't sleep after the last attempt
		if attempt < cfg.MaxAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(cfg.BaseDelay * time.Duration(attempt)):
			}
		}
	}

	return lastErr
}

// RetryWithResult executes fn with the same policy as Retry and returns its
// result.
func RetryWithResult[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		if apperrors.IsValidation(err) {
			return zero, err
		}
		lastErr = err

		if attempt < cfg.MaxAttempts {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(cfg.BaseDelay * time.Duration(attempt)):
			}
		}
	}

	return zero, lastErr
}
