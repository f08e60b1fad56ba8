package api

import (
	"context"
	"time"
)

// RetryPolicy retries transient invocation failures with exponential backoff.
// The zero value uses sensible defaults.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// BaseDelay is the delay before the first retry; it doubles each time.
	BaseDelay time.Duration
}

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 500 * time.Millisecond
)

// Do runs fn until it succeeds, fails with a non-retryable error, or the
// attempt budget is exhausted. The last error is returned unchanged so
// callers can still inspect its type.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = defaultMaxAttempts
	}
	delay := p.BaseDelay
	if delay <= 0 {
		delay = defaultBaseDelay
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !Retryable(err) {
			return err
		}
		lastErr = err

		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(delay):
		}
		delay *= 2
	}
	return lastErr
}
