package platform

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy bounds how often a rate-limited call is retried. Only
// RateLimitError is retried; every other error surfaces immediately.
type RetryPolicy struct {
	MaxAttempts int           // total attempts, including the first
	BaseDelay   time.Duration // first backoff when the server suggests no wait
	MaxDelay    time.Duration // backoff ceiling
}

// DefaultRetryPolicy matches the platforms' published rate-limit windows
// closely enough for a sequential CLI.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 4,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
	}
}

// Do runs fn, sleeping and retrying on RateLimitError up to MaxAttempts.
// The server-suggested wait is honored when present, capped at MaxDelay;
// otherwise the backoff doubles from BaseDelay. Cancelling ctx aborts the wait.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	delay := p.BaseDelay
	if delay <= 0 {
		delay = time.Second
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}

		var rl *RateLimitError
		if !errors.As(err, &rl) || attempt == attempts {
			return err
		}

		wait := delay
		if rl.RetryAfter > 0 {
			wait = rl.RetryAfter
		}
		if p.MaxDelay > 0 && wait > p.MaxDelay {
			wait = p.MaxDelay
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
	}
	return err
}
