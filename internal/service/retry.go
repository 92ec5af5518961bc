package service

import (
	"context"
	"log/slog"
	"time"
)

// withRetry runs fn up to attempts times with exponential backoff starting
// at baseDelay. The last error is returned when the budget is exhausted.
// Context cancellation aborts the wait immediately.
func withRetry(ctx context.Context, logger *slog.Logger, op string, attempts int, baseDelay time.Duration, sleep func(context.Context, time.Duration) error, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		delay := baseDelay << (attempt - 1)
		if logger != nil {
			logger.WarnContext(ctx, "operation failed, retrying",
				"op", op, "attempt", attempt, "delay", delay, "error", lastErr)
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
	return lastErr
}
