package ratelimiter_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/accountkit/pkg/ratelimiter"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var testConfig = ratelimiter.Config{Capacity: 3, RefillRate: 1, RefillInterval: time.Second}

func newBucket(t *testing.T, clock *fakeClock) *ratelimiter.Bucket {
	t.Helper()
	store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0), ratelimiter.WithMemoryClock(clock.Now))
	t.Cleanup(store.Close)

	b, err := ratelimiter.NewBucket(store, testConfig)
	require.NoError(t, err)
	b.SetClock(clock.Now)
	return b
}

func TestNewBucket_InvalidConfig(t *testing.T) {
	store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0))
	defer store.Close()

	for name, cfg := range map[string]ratelimiter.Config{
		"capacity": {Capacity: 0, RefillRate: 1, RefillInterval: time.Second},
		"rate":     {Capacity: 1, RefillRate: 0, RefillInterval: time.Second},
		"interval": {Capacity: 1, RefillRate: 1},
	} {
		_, err := ratelimiter.NewBucket(store, cfg)
		assert.ErrorIs(t, err, ratelimiter.ErrInvalidConfig, name)
	}
}

func TestBucket_BurstThenRefill(t *testing.T) {
	clock := newFakeClock()
	b := newBucket(t, clock)
	ctx := context.Background()

	for i := 2; i >= 0; i-- {
		res, err := b.Allow(ctx, "ip:1")
		require.NoError(t, err)
		assert.True(t, res.Allowed())
		assert.Equal(t, i, res.Remaining)
		assert.Equal(t, 3, res.Limit)
	}

	res, err := b.Allow(ctx, "ip:1")
	require.NoError(t, err)
	assert.False(t, res.Allowed())
	assert.Equal(t, time.Second, res.RetryAfter())

	clock.Advance(400 * time.Millisecond)
	res, err = b.Allow(ctx, "ip:1")
	require.NoError(t, err)
	assert.False(t, res.Allowed(), "denied requests do not drain the bucket further")
	assert.Equal(t, 600*time.Millisecond, res.RetryAfter())

	clock.Advance(600 * time.Millisecond)
	res, err = b.Allow(ctx, "ip:1")
	require.NoError(t, err)
	assert.True(t, res.Allowed())
	assert.Equal(t, 0, res.Remaining)

	other, err := b.Allow(ctx, "ip:2")
	require.NoError(t, err)
	assert.Equal(t, 2, other.Remaining, "keys are independent")
}

func TestBucket_RefillCapsAtCapacity(t *testing.T) {
	clock := newFakeClock()
	b := newBucket(t, clock)
	ctx := context.Background()

	_, err := b.AllowN(ctx, "k", 3)
	require.NoError(t, err)

	clock.Advance(time.Hour)
	res, err := b.Status(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Remaining)
}

func TestBucket_AllowN(t *testing.T) {
	clock := newFakeClock()
	b := newBucket(t, clock)
	ctx := context.Background()

	_, err := b.AllowN(ctx, "k", 0)
	assert.ErrorIs(t, err, ratelimiter.ErrInvalidTokenCount)

	res, err := b.AllowN(ctx, "k", 5)
	require.NoError(t, err)
	assert.False(t, res.Allowed())
	assert.Equal(t, -2, res.Remaining)

	res, err = b.Status(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Remaining, "refused take leaves tokens in place")
}

func TestBucket_Reset(t *testing.T) {
	clock := newFakeClock()
	b := newBucket(t, clock)
	ctx := context.Background()

	_, err := b.AllowN(ctx, "k", 3)
	require.NoError(t, err)
	require.NoError(t, b.Reset(ctx, "k"))

	res, err := b.Status(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Remaining)
}

func TestBucket_Concurrent(t *testing.T) {
	clock := newFakeClock()
	b := newBucket(t, clock)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := b.Allow(ctx, "shared")
			if assert.NoError(t, err) && res.Allowed() {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 3, allowed)
}

func TestMemoryStore_RemoveStale(t *testing.T) {
	clock := newFakeClock()
	store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0), ratelimiter.WithMemoryClock(clock.Now))
	defer store.Close()
	store.SetStaleAfter(time.Minute)

	ctx := context.Background()
	_, _, err := store.ConsumeTokens(ctx, "old", 1, testConfig)
	require.NoError(t, err)
	clock.Advance(2 * time.Minute)
	_, _, err = store.ConsumeTokens(ctx, "fresh", 1, testConfig)
	require.NoError(t, err)

	store.RemoveStale()
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0))
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := store.ConsumeTokens(ctx, "k", 1, testConfig)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStore_CloseTwice(t *testing.T) {
	store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(time.Millisecond))
	assert.NotPanics(t, func() {
		store.Close()
		store.Close()
	})
}
