package tickets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryPolicyStopsOnSuccess(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 5, Backoff: time.Millisecond}

	calls := 0
	err := policy.Run(context.Background(), func() error {
		calls++
		if calls < 3 {
			return ErrVersionConflict
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryPolicyRetriesTransientStorageErrors(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 5, Backoff: time.Millisecond}

	calls := 0
	err := policy.Run(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("read tcp 10.0.0.5:5432: i/o timeout")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryPolicyExhaustsOnPersistentStorageError(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, Backoff: time.Millisecond}
	boom := errors.New("read tcp 10.0.0.5:5432: i/o timeout")

	calls := 0
	err := policy.Run(context.Background(), func() error {
		calls++
		return boom
	})

	assert.ErrorIs(t, err, ErrContentionExhausted)
	assert.Equal(t, 3, calls)
}

func TestRetryPolicyDoesNotRetryPermanentErrors(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 5, Backoff: time.Millisecond}

	calls := 0
	err := policy.Run(context.Background(), func() error {
		calls++
		return ErrNotFound
	})

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicyExhaustsOnPersistentConflict(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 4, Backoff: time.Millisecond}

	calls := 0
	err := policy.Run(context.Background(), func() error {
		calls++
		return ErrVersionConflict
	})

	assert.ErrorIs(t, err, ErrContentionExhausted)
	assert.Equal(t, 4, calls)
}

func TestRetryPolicyHonorsContextCancellation(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 10, Backoff: 50 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := policy.Run(ctx, func() error {
		calls++
		return ErrVersionConflict
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.GreaterOrEqual(t, calls, 1)
}
