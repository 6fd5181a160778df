package tickets

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrContentionExhausted is returned when a bounded compare-and-swap retry
// loop runs out of attempts. It is transient: the caller may safely re-submit
// the identical request.
var ErrContentionExhausted = errors.New("ticket contention retries exhausted")

// RetryPolicy bounds the read-then-compare-and-swap loop used by every
// state-changing component. Contention on a single ticket is rare (one
// visitor, occasional simultaneous re-scans), so a short multiplicative
// backoff resolves races without cross-gate coordination.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultRetryPolicy returns the standard bounds: 5 attempts, 10ms base backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, Backoff: 10 * time.Millisecond}
}

// Run invokes fn until it succeeds, fails with a permanent error, or the
// attempt bound is reached. Version conflicts and transient storage faults
// (timeouts, dropped connections) are both retried; ledger lookups that can
// never succeed on a re-read are not. fn must re-read the ticket on every
// call so each attempt sees the latest version.
func (p RetryPolicy) Run(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultRetryPolicy().MaxAttempts
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn()
		if err == nil || !isRetryable(err) {
			return err
		}

		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Backoff * time.Duration(attempt)):
		}
	}

	if errors.Is(err, ErrVersionConflict) {
		return ErrContentionExhausted
	}
	return fmt.Errorf("%w: %v", ErrContentionExhausted, err)
}

// isRetryable reports whether a fresh attempt could plausibly succeed.
// Anything we cannot classify is treated as transient so a flaky store
// gets the full attempt budget before the caller is told to re-submit.
func isRetryable(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrAlreadyExists),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}
