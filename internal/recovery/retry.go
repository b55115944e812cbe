package recovery

import (
	"context"
	"fmt"
	"math"
	"time"
)

// RetryWithBackoff runs op up to maxAttempts times. The delay before attempt
// n+1 is baseDelay*2^(n-1), with no jitter. Intermediate failures are logged
// at medium severity, the final one at high. The sleep is interruptible; a
// cancelled context returns ctx.Err without consuming further attempts.
func RetryWithBackoff[T any](ctx context.Context, log *ErrorLog, op func() (T, error), maxAttempts int, baseDelay time.Duration, opContext string) (T, error) {
	var zero T
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := op()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == maxAttempts {
			if log != nil {
				log.LogError(err, fmt.Sprintf("%s (final attempt %d/%d)", opContext, attempt, maxAttempts), SeverityHigh)
			}
			break
		}

		if log != nil {
			log.LogError(err, fmt.Sprintf("%s (attempt %d/%d)", opContext, attempt, maxAttempts), SeverityMedium)
		}

		delay := time.Duration(float64(baseDelay) * math.Pow(2, float64(attempt-1)))
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}

	return zero, fmt.Errorf("%s failed after %d attempts: %w", opContext, maxAttempts, lastErr)
}

// GracefulDegrade tries primary and falls back to fallback on failure. The
// primary failure is logged exactly once, at medium severity. A fallback
// failure is logged at high severity and returned.
func GracefulDegrade[T any](ctx context.Context, log *ErrorLog, primary, fallback func() (T, error), opContext string) (T, error) {
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}

	result, err := primary()
	if err == nil {
		return result, nil
	}

	if log != nil {
		log.LogError(err, opContext+" (primary failed, using fallback)", SeverityMedium)
	}

	result, fbErr := fallback()
	if fbErr != nil {
		if log != nil {
			log.LogError(fbErr, opContext+" (fallback also failed)", SeverityHigh)
		}
		var zero T
		return zero, fmt.Errorf("%s: primary and fallback both failed: %w", opContext, fbErr)
	}
	return result, nil
}
