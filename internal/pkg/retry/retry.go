// Package retry provides the bounded exponential backoff policy injected
// into the sequencer's publish and ack-wait paths.
package retry

import (
	"context"
	"time"
)

// Policy describes a bounded retry schedule.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// InitialBackoff is the delay before the second attempt.
	InitialBackoff time.Duration

	// MaxBackoff caps the growth of the backoff.
	MaxBackoff time.Duration

	// Multiplier scales the backoff between attempts. Values below 1 are
	// treated as 2.
	Multiplier float64
}

// DefaultPolicy is a conservative schedule for broker publishes.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    4,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		Multiplier:     2,
	}
}

// Backoff returns the delay to wait after the given 1-based attempt.
func (p Policy) Backoff(attempt int) time.Duration {
	d := p.InitialBackoff
	m := p.Multiplier
	if m < 1 {
		m = 2
	}
	for i := 1; i < attempt; i++ {
		d = time.Duration(float64(d) * m)
		if p.MaxBackoff > 0 && d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}

// Do runs op until it succeeds, the schedule is exhausted, or ctx is done.
// It returns nil on success, ctx.Err() on cancellation, and the last
// attempt's error otherwise. onRetry, when non-nil, observes each failure
// before the backoff sleep.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error, onRetry func(attempt int, err error)) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt == attempts {
			break
		}
		if onRetry != nil {
			onRetry(attempt, lastErr)
		}

		timer := time.NewTimer(p.Backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}
