package ratelimiter_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cityscout-app/cityscout/pkg/ratelimiter"
)

// fakeClock is a manually advanced time source for deterministic tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)}
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

func newLimiter(t *testing.T, capacity int, window time.Duration, clock *fakeClock) *ratelimiter.Limiter {
	t.Helper()

	limiter, err := ratelimiter.New(
		ratelimiter.Config{Capacity: capacity, Window: window},
		ratelimiter.WithTimeSource(clock.Now),
	)
	require.NoError(t, err)
	return limiter
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()

	t.Run("rejects non-positive capacity", func(t *testing.T) {
		t.Parallel()

		_, err := ratelimiter.New(ratelimiter.Config{Capacity: 0, Window: time.Minute})
		assert.ErrorIs(t, err, ratelimiter.ErrInvalidCapacity)
	})

	t.Run("rejects non-positive window", func(t *testing.T) {
		t.Parallel()

		_, err := ratelimiter.New(ratelimiter.Config{Capacity: 10, Window: 0})
		assert.ErrorIs(t, err, ratelimiter.ErrInvalidWindow)
	})
}

func TestLimiter_Check(t *testing.T) {
	t.Parallel()

	t.Run("first check starts with a full bucket", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		limiter := newLimiter(t, 10, time.Minute, clock)

		res := limiter.Check("client-a")
		assert.True(t, res.Allowed)
		assert.Equal(t, 10, res.Limit)
		assert.Equal(t, 9, res.Remaining)
		assert.Equal(t, clock.Now().Add(time.Minute), res.ResetAt)
		assert.Zero(t, res.RetryAfter)
	})

	t.Run("denies after capacity is exhausted", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		limiter := newLimiter(t, 2, time.Minute, clock)
		start := clock.Now()

		first := limiter.Check("client-a")
		assert.True(t, first.Allowed)
		assert.Equal(t, 1, first.Remaining)

		second := limiter.Check("client-a")
		assert.True(t, second.Allowed)
		assert.Equal(t, 0, second.Remaining)

		third := limiter.Check("client-a")
		assert.False(t, third.Allowed)
		assert.Equal(t, 0, third.Remaining)
		assert.Equal(t, start.Add(time.Minute), third.ResetAt)
		assert.Equal(t, time.Minute, third.RetryAfter)
	})

	t.Run("refills to capacity after one whole window", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		limiter := newLimiter(t, 10, time.Minute, clock)

		for range 10 {
			assert.True(t, limiter.Check("client-a").Allowed)
		}
		assert.False(t, limiter.Check("client-a").Allowed)

		clock.Advance(time.Minute)

		res := limiter.Check("client-a")
		assert.True(t, res.Allowed)
		assert.Equal(t, 9, res.Remaining)
		assert.Equal(t, clock.Now().Add(time.Minute), res.ResetAt)
	})

	t.Run("does not refill before the window boundary", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		limiter := newLimiter(t, 2, time.Minute, clock)

		limiter.Check("client-a")
		limiter.Check("client-a")

		clock.Advance(59 * time.Second)

		res := limiter.Check("client-a")
		assert.False(t, res.Allowed)
		assert.Equal(t, time.Second, res.RetryAfter)
	})

	t.Run("refill is capped at capacity after long idle", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		limiter := newLimiter(t, 3, time.Minute, clock)

		limiter.Check("client-a")
		clock.Advance(10 * time.Minute)

		res := limiter.Check("client-a")
		assert.True(t, res.Allowed)
		assert.Equal(t, 2, res.Remaining)
	})

	t.Run("identifiers are independent", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		limiter := newLimiter(t, 1, time.Minute, clock)

		assert.True(t, limiter.Check("client-a").Allowed)
		assert.False(t, limiter.Check("client-a").Allowed)
		assert.True(t, limiter.Check("client-b").Allowed)
	})
}

func TestLimiter_Info(t *testing.T) {
	t.Parallel()

	t.Run("reports full bucket for unseen identifier", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		limiter := newLimiter(t, 5, time.Minute, clock)

		info := limiter.Info("never-seen")
		assert.True(t, info.Allowed)
		assert.Equal(t, 5, info.Limit)
		assert.Equal(t, 5, info.Remaining)
	})

	t.Run("does not consume tokens or advance refill state", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		limiter := newLimiter(t, 5, time.Minute, clock)

		limiter.Check("client-a")

		for range 3 {
			info := limiter.Info("client-a")
			assert.Equal(t, 4, info.Remaining)
		}

		res := limiter.Check("client-a")
		assert.Equal(t, 3, res.Remaining)
	})

	t.Run("reports pending refill without applying it", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		limiter := newLimiter(t, 2, time.Minute, clock)

		limiter.Check("client-a")
		limiter.Check("client-a")
		clock.Advance(time.Minute)

		info := limiter.Info("client-a")
		assert.True(t, info.Allowed)
		assert.Equal(t, 2, info.Remaining)
	})
}

func TestLimiter_Reset(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	limiter := newLimiter(t, 1, time.Minute, clock)

	assert.True(t, limiter.Check("client-a").Allowed)
	assert.False(t, limiter.Check("client-a").Allowed)

	limiter.Reset("client-a")

	res := limiter.Check("client-a")
	assert.True(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
}

func TestLimiter_Cleanup(t *testing.T) {
	t.Parallel()

	t.Run("removes buckets idle for at least two windows", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		limiter := newLimiter(t, 3, time.Minute, clock)

		limiter.Check("stale-client")
		limiter.Check("stale-client")
		clock.Advance(2 * time.Minute)

		removed := limiter.Cleanup()
		assert.Equal(t, 1, removed)
		assert.Equal(t, 0, limiter.Stats().ActiveBuckets)

		// After cleanup the identifier behaves as unseen again.
		res := limiter.Check("stale-client")
		assert.True(t, res.Allowed)
		assert.Equal(t, 2, res.Remaining)
	})

	t.Run("keeps recently active buckets", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		limiter := newLimiter(t, 3, time.Minute, clock)

		limiter.Check("active-client")
		clock.Advance(time.Minute)

		assert.Equal(t, 0, limiter.Cleanup())
		assert.Equal(t, 1, limiter.Stats().ActiveBuckets)
	})
}

func TestLimiter_Stats(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	limiter := newLimiter(t, 3, time.Minute, clock)

	limiter.Check("a")
	limiter.Check("b")
	clock.Advance(3 * time.Minute)
	limiter.Cleanup()

	stats := limiter.Stats()
	assert.Equal(t, int64(2), stats.BucketsCreated)
	assert.Equal(t, int64(2), stats.BucketsRemoved)
	assert.Equal(t, 0, stats.ActiveBuckets)
	assert.False(t, stats.IsRunning)
}

func TestLimiter_Lifecycle(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	limiter, err := ratelimiter.New(
		ratelimiter.Config{Capacity: 3, Window: time.Minute},
		ratelimiter.WithTimeSource(clock.Now),
		ratelimiter.WithCleanupInterval(10*time.Millisecond),
	)
	require.NoError(t, err)

	assert.Error(t, limiter.Healthcheck(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- limiter.Start(ctx) }()

	require.Eventually(t, func() bool {
		return limiter.Healthcheck(context.Background()) == nil
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, limiter.Stop())
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Error(t, limiter.Healthcheck(context.Background()))
}
