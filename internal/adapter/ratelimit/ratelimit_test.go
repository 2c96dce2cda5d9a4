package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestMemory(t *testing.T, requests int, window time.Duration) (*Memory, *fakeClock) {
	t.Helper()
	m, err := NewMemory(Config{Requests: requests, Window: window})
	require.NoError(t, err)
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	m.now = clock.Now
	return m, clock
}

func TestNewMemory_InvalidConfig(t *testing.T) {
	_, err := NewMemory(Config{Requests: 0, Window: time.Minute})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewMemory(Config{Requests: 10})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestMemory_Allow(t *testing.T) {
	t.Run("Budget", func(t *testing.T) {
		m, _ := newTestMemory(t, 3, time.Minute)

		for i := 0; i < 3; i++ {
			d, err := m.Allow(t.Context(), "1.1.1.1")
			require.NoError(t, err)
			assert.True(t, d.Allowed)
			assert.Equal(t, 3, d.Limit)
			assert.Equal(t, 2-i, d.Remaining)
		}

		d, err := m.Allow(t.Context(), "1.1.1.1")
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, 0, d.Remaining)
		assert.True(t, d.ResetAt.After(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))

		d, err = m.Allow(t.Context(), "2.2.2.2")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	})

	t.Run("Refill", func(t *testing.T) {
		m, clock := newTestMemory(t, 2, time.Minute)

		for i := 0; i < 2; i++ {
			_, _ = m.Allow(t.Context(), "k")
		}
		d, _ := m.Allow(t.Context(), "k")
		require.False(t, d.Allowed)

		clock.Advance(31 * time.Second)
		d, _ = m.Allow(t.Context(), "k")
		assert.True(t, d.Allowed)
	})

	t.Run("EvictsIdleKeys", func(t *testing.T) {
		m, clock := newTestMemory(t, 5, time.Minute)

		for i := 0; i < 10; i++ {
			_, _ = m.Allow(t.Context(), fmt.Sprintf("10.0.0.%d", i))
		}
		assert.Equal(t, 10, m.Len())

		clock.Advance(3 * time.Minute)
		_, _ = m.Allow(t.Context(), "fresh")
		assert.Equal(t, 1, m.Len())
	})
}

func TestRedis_FailOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	r, err := NewRedis(client, "ratelimit:", Config{Requests: 5, Window: time.Minute})
	require.NoError(t, err)

	d, err := r.Allow(t.Context(), "1.1.1.1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 5, d.Limit)
	assert.Equal(t, 5, d.Remaining)
}
