package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTemporary = errors.New("temporary")

func TestDoWithResult(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, Backoff: LinearBackoff(time.Millisecond)}

	t.Run("SucceedsAfterRetries", func(t *testing.T) {
		var calls int
		got, err := DoWithResult(t.Context(), cfg, func() (int, error) {
			calls++
			if calls < 3 {
				return 0, errTemporary
			}
			return 42, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 42, got)
		assert.Equal(t, 3, calls)
	})

	t.Run("AttemptsExhausted", func(t *testing.T) {
		var calls int
		_, err := DoWithResult(t.Context(), cfg, func() (int, error) {
			calls++
			return 0, errTemporary
		})
		assert.ErrorIs(t, err, errTemporary)
		assert.Equal(t, 3, calls)
	})

	t.Run("NotRetryable", func(t *testing.T) {
		c := cfg
		c.ShouldRetry = func(error) bool { return false }

		var calls int
		err := Do(t.Context(), c, func() error {
			calls++
			return errTemporary
		})
		assert.ErrorIs(t, err, errTemporary)
		assert.Equal(t, 1, calls)
	})

	t.Run("ContextDone", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		c := RetryConfig{MaxAttempts: 5, Backoff: LinearBackoff(time.Hour)}

		err := Do(ctx, c, func() error {
			cancel()
			return errTemporary
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.ErrorIs(t, err, errTemporary)
	})
}

func TestExponentialBackoff(t *testing.T) {
	b := ExponentialBackoff(10 * time.Millisecond)
	for attempt := 1; attempt <= 4; attempt++ {
		base := time.Duration(1<<attempt) * 10 * time.Millisecond
		d := b(attempt)
		assert.GreaterOrEqual(t, d, base)
		assert.LessOrEqual(t, d, base+base/2)
	}
}
